package controller

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dancab13/sqlalchemy-challenge/internal/modules/climate/daterange"
	"github.com/dancab13/sqlalchemy-challenge/internal/modules/climate/repository"
	"github.com/dancab13/sqlalchemy-challenge/internal/modules/climate/stats"
	"github.com/dancab13/sqlalchemy-challenge/internal/modules/climate/types"
	"github.com/dancab13/sqlalchemy-challenge/internal/modules/climate/views"
	"github.com/dancab13/sqlalchemy-challenge/internal/utils"
)

// Examples shown on the home page when the dataset bounds are unavailable.
const (
	fallbackStartExample = "2013-03-13"
	fallbackEndExample   = "2017-03-13"
)

func (c *climateControllerImpl) handleHome(w http.ResponseWriter, r *http.Request) {
	data := &views.HomeData{Title: "Hawaii Climate API"}
	start, end := fallbackStartExample, fallbackEndExample

	bounds, err := c.dateBounds(r)
	switch {
	case err == nil:
		data.FirstDate = bounds.Min.Format(types.DateLayout)
		data.LastDate = bounds.Max.Format(types.DateLayout)
		start, end = exampleRange(bounds)
	case errors.Is(err, types.ErrNoData):
	default:
		slog.Warn("home: date bounds unavailable", "error", err)
	}

	data.Routes = []views.Route{
		{Path: "/api/v1.0/precipitation", Href: "/api/v1.0/precipitation", Description: "precipitation per date for the last year"},
		{Path: "/api/v1.0/stations", Href: "/api/v1.0/stations", Description: "station metadata"},
		{Path: "/api/v1.0/tobs", Href: "/api/v1.0/tobs", Description: "last year of temperatures at the most active station"},
		{Path: "/api/v1.0/<start>", Href: "/api/v1.0/" + start, Description: "temperature summary from start (YYYY-MM-DD)"},
		{Path: "/api/v1.0/<start>/<end>", Href: "/api/v1.0/" + start + "/" + end, Description: "temperature summary for an inclusive range"},
	}

	var buf bytes.Buffer
	if err := views.RenderHome(&buf, data); err != nil {
		slog.Error("home template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("home: write response failed", "error", err)
	}
}

// exampleRange picks the last year of the dataset for the home page links.
func exampleRange(b types.DateBounds) (string, string) {
	start := b.Max.AddDate(-1, 0, 0)
	if start.Before(b.Min) {
		start = b.Min
	}
	return start.Format(types.DateLayout), b.Max.Format(types.DateLayout)
}

func (c *climateControllerImpl) dateBounds(r *http.Request) (types.DateBounds, error) {
	sess, err := c.repository.Acquire(r.Context())
	if err != nil {
		return types.DateBounds{}, err
	}
	defer closeSession(sess)
	return sess.DateBounds(r.Context())
}

func (c *climateControllerImpl) handlePrecipitation(w http.ResponseWriter, r *http.Request) {
	sess, err := c.repository.Acquire(r.Context())
	if err != nil {
		writeFailure(w, "precipitation", err)
		return
	}
	defer closeSession(sess)

	rows, err := sess.PrecipitationSince(r.Context(), c.cutoffs.Precipitation)
	if err != nil {
		writeFailure(w, "precipitation", err)
		return
	}

	out := make(map[string][]*float64)
	for _, row := range rows {
		out[row.Date] = append(out[row.Date], row.Prcp)
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (c *climateControllerImpl) handleStations(w http.ResponseWriter, r *http.Request) {
	sess, err := c.repository.Acquire(r.Context())
	if err != nil {
		writeFailure(w, "stations", err)
		return
	}
	defer closeSession(sess)

	stations, err := sess.Stations(r.Context())
	if err != nil {
		writeFailure(w, "stations", err)
		return
	}

	out := make(map[string][]any, len(stations))
	for _, s := range stations {
		out[s.ID] = []any{s.Name, s.Latitude, s.Longitude, s.Elevation}
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (c *climateControllerImpl) handleTobs(w http.ResponseWriter, r *http.Request) {
	sess, err := c.repository.Acquire(r.Context())
	if err != nil {
		writeFailure(w, "tobs", err)
		return
	}
	defer closeSession(sess)

	stationID, err := sess.MostActiveStation(r.Context())
	if err != nil {
		writeFailure(w, "tobs", err)
		return
	}
	rows, err := sess.StationTemperaturesSince(r.Context(), stationID, c.cutoffs.Tobs)
	if err != nil {
		writeFailure(w, "tobs", err)
		return
	}

	out := make(map[string]float64, len(rows))
	for _, row := range rows {
		out[row.Date] = row.Temp
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

// handleSummary serves both /api/v1.0/{start} and /api/v1.0/{start}/{end}.
func (c *climateControllerImpl) handleSummary(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseSummaryParams(r)
	if err != nil {
		writeFailure(w, "summary", err)
		return
	}

	sess, err := c.repository.Acquire(r.Context())
	if err != nil {
		writeFailure(w, "summary", err)
		return
	}
	defer closeSession(sess)

	bounds, err := sess.DateBounds(r.Context())
	if err != nil {
		writeFailure(w, "summary", err)
		return
	}
	if err := daterange.Check(bounds, start, end); err != nil {
		writeFailure(w, "summary", err)
		return
	}

	var rows []types.DateTemp
	if end == nil {
		rows, err = sess.TemperaturesSince(r.Context(), start)
	} else {
		rows, err = sess.TemperaturesBetween(r.Context(), start, *end)
	}
	if err != nil {
		writeFailure(w, "summary", err)
		return
	}

	summary, err := stats.Summarize(rows)
	if err != nil {
		writeFailure(w, "summary", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, summary)
}

// writeFailure maps err to a response. Domain errors get the client-facing
// {"Error": msg} body; anything else is logged and answered with 500.
func writeFailure(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, daterange.ErrMalformedDate):
		utils.WriteClientError(w, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD.")
	case errors.Is(err, daterange.ErrOutOfRange):
		utils.WriteClientError(w, http.StatusNotFound, "Date is out of data set range.")
	case errors.Is(err, daterange.ErrInvertedRange):
		utils.WriteClientError(w, http.StatusNotFound, "Start date is after end date.")
	case errors.Is(err, types.ErrNoData):
		utils.WriteClientError(w, http.StatusNotFound, "No data available.")
	case errors.Is(err, repository.ErrUnavailable):
		slog.Warn(op+": data source unavailable", "error", err)
		utils.WriteError(w, http.StatusServiceUnavailable, "data source temporarily unavailable")
	default:
		slog.Error(op+": query failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load climate data")
	}
}

func closeSession(sess repository.Session) {
	if err := sess.Close(); err != nil {
		slog.Error("release db session", "error", err)
	}
}
