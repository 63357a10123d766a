package controller

import (
	"net/http"
	"time"

	"github.com/dancab13/sqlalchemy-challenge/internal/modules/climate/repository"
)

type ClimateController interface {
	RegisterRoutes(mux *http.ServeMux)
}

// Cutoffs are the first dates served by the trailing-year endpoints.
type Cutoffs struct {
	Precipitation time.Time
	Tobs          time.Time
}

type climateControllerImpl struct {
	repository repository.ClimateRepository
	cutoffs    Cutoffs
}

func NewClimateController(repo repository.ClimateRepository, cutoffs Cutoffs) ClimateController {
	return &climateControllerImpl{repository: repo, cutoffs: cutoffs}
}

func (c *climateControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", c.handleHome)
	mux.HandleFunc("GET /api/v1.0/precipitation", c.handlePrecipitation)
	mux.HandleFunc("GET /api/v1.0/stations", c.handleStations)
	mux.HandleFunc("GET /api/v1.0/tobs", c.handleTobs)
	mux.HandleFunc("GET /api/v1.0/{start}", c.handleSummary)
	mux.HandleFunc("GET /api/v1.0/{start}/{end}", c.handleSummary)
}
