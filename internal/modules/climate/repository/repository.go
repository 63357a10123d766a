package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dancab13/sqlalchemy-challenge/internal/modules/climate/types"
)

//go:embed sql/get-precipitation-since.sql
var getPrecipitationSinceSQL string

//go:embed sql/get-stations.sql
var getStationsSQL string

//go:embed sql/get-most-active-station.sql
var getMostActiveStationSQL string

//go:embed sql/get-station-temperatures-since.sql
var getStationTemperaturesSinceSQL string

//go:embed sql/get-temperatures-since.sql
var getTemperaturesSinceSQL string

//go:embed sql/get-temperatures-between.sql
var getTemperaturesBetweenSQL string

//go:embed sql/get-date-bounds.sql
var getDateBoundsSQL string

// ClimateRepository hands out request-scoped sessions over the dataset.
type ClimateRepository interface {
	Acquire(ctx context.Context) (Session, error)
}

// Session holds one pooled connection until Close. Rows come back ordered by
// date, then station id.
type Session interface {
	PrecipitationSince(ctx context.Context, since time.Time) ([]types.DatePrecip, error)
	Stations(ctx context.Context) ([]types.Station, error)
	// MostActiveStation returns the station with the most measurements,
	// lowest station id on ties, or types.ErrNoData.
	MostActiveStation(ctx context.Context) (string, error)
	StationTemperaturesSince(ctx context.Context, stationID string, since time.Time) ([]types.DateTemp, error)
	TemperaturesSince(ctx context.Context, since time.Time) ([]types.DateTemp, error)
	TemperaturesBetween(ctx context.Context, from, to time.Time) ([]types.DateTemp, error)
	// DateBounds returns types.ErrNoData when there are no measurements.
	DateBounds(ctx context.Context) (types.DateBounds, error)
	Close() error
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) ClimateRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) Acquire(ctx context.Context) (Session, error) {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return &sessionImpl{conn: conn}, nil
}

type sessionImpl struct {
	conn *sql.Conn
}

func (s *sessionImpl) Close() error {
	return s.conn.Close()
}

func (s *sessionImpl) PrecipitationSince(ctx context.Context, since time.Time) ([]types.DatePrecip, error) {
	rows, err := s.conn.QueryContext(ctx, getPrecipitationSinceSQL, formatDate(since))
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, "precipitation")

	var out []types.DatePrecip
	for rows.Next() {
		var (
			rec  types.DatePrecip
			prcp sql.NullFloat64
		)
		if err := rows.Scan(&rec.Date, &prcp); err != nil {
			return nil, err
		}
		rec.Prcp = nullableFloat(prcp)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *sessionImpl) Stations(ctx context.Context) ([]types.Station, error) {
	rows, err := s.conn.QueryContext(ctx, getStationsSQL)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, "stations")

	var out []types.Station
	for rows.Next() {
		var (
			st            types.Station
			name          sql.NullString
			lat, lon, elv sql.NullFloat64
		)
		if err := rows.Scan(&st.ID, &name, &lat, &lon, &elv); err != nil {
			return nil, err
		}
		if name.Valid {
			st.Name = &name.String
		}
		st.Latitude = nullableFloat(lat)
		st.Longitude = nullableFloat(lon)
		st.Elevation = nullableFloat(elv)
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *sessionImpl) MostActiveStation(ctx context.Context) (string, error) {
	var (
		id    string
		count int
	)
	err := s.conn.QueryRowContext(ctx, getMostActiveStationSQL).Scan(&id, &count)
	if errors.Is(err, sql.ErrNoRows) {
		return "", types.ErrNoData
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *sessionImpl) StationTemperaturesSince(ctx context.Context, stationID string, since time.Time) ([]types.DateTemp, error) {
	return s.queryTemps(ctx, "station temperatures", getStationTemperaturesSinceSQL, stationID, formatDate(since))
}

func (s *sessionImpl) TemperaturesSince(ctx context.Context, since time.Time) ([]types.DateTemp, error) {
	return s.queryTemps(ctx, "temperatures since", getTemperaturesSinceSQL, formatDate(since))
}

func (s *sessionImpl) TemperaturesBetween(ctx context.Context, from, to time.Time) ([]types.DateTemp, error) {
	return s.queryTemps(ctx, "temperatures between", getTemperaturesBetweenSQL, formatDate(from), formatDate(to))
}

func (s *sessionImpl) queryTemps(ctx context.Context, what string, query string, args ...any) ([]types.DateTemp, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, what)

	var out []types.DateTemp
	for rows.Next() {
		var rec types.DateTemp
		if err := rows.Scan(&rec.Date, &rec.Temp); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *sessionImpl) DateBounds(ctx context.Context) (types.DateBounds, error) {
	var minDate, maxDate sql.NullString
	if err := s.conn.QueryRowContext(ctx, getDateBoundsSQL).Scan(&minDate, &maxDate); err != nil {
		return types.DateBounds{}, err
	}
	if !minDate.Valid || !maxDate.Valid {
		return types.DateBounds{}, types.ErrNoData
	}

	lo, err := time.Parse(types.DateLayout, minDate.String)
	if err != nil {
		return types.DateBounds{}, fmt.Errorf("parse min date %q: %w", minDate.String, err)
	}
	hi, err := time.Parse(types.DateLayout, maxDate.String)
	if err != nil {
		return types.DateBounds{}, fmt.Errorf("parse max date %q: %w", maxDate.String, err)
	}
	return types.DateBounds{Min: lo, Max: hi}, nil
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func formatDate(t time.Time) string {
	return t.Format(types.DateLayout)
}

func closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		slog.Error("close rows", "query", what, "error", err)
	}
}
