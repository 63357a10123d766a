package climate

import (
	"database/sql"
	"net/http"

	"github.com/dancab13/sqlalchemy-challenge/internal/config"
	"github.com/dancab13/sqlalchemy-challenge/internal/modules/climate/controller"
	"github.com/dancab13/sqlalchemy-challenge/internal/modules/climate/repository"
)

func RegisterFeature(mux *http.ServeMux, db *sql.DB, cfg config.Config) {
	climateRepository := repository.WithBreaker(repository.NewRepository(db), repository.DefaultBreakerSettings)
	climateController := controller.NewClimateController(climateRepository, controller.Cutoffs{
		Precipitation: cfg.PrecipitationSince,
		Tobs:          cfg.TobsSince,
	})
	climateController.RegisterRoutes(mux)
}
