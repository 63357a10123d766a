package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"
)

const (
	measurementsSheet = "Measurements"
	stationsSheet     = "Stations"

	exportMeasurementsSQL = `SELECT station, date, prcp, tobs FROM measurement ORDER BY date ASC, station ASC`
	exportStationsSQL     = `SELECT station, COALESCE(name, ''), latitude, longitude, elevation FROM station ORDER BY station ASC`
)

type ExportResult struct {
	Stations     int
	Measurements int
}

// Export writes the station and measurement tables to w as an xlsx
// workbook with one sheet per table. Missing readings are left blank.
func Export(ctx context.Context, db *sql.DB, w io.Writer) (ExportResult, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("close workbook", "error", err)
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), stationsSheet); err != nil {
		return ExportResult{}, err
	}
	if _, err := f.NewSheet(measurementsSheet); err != nil {
		return ExportResult{}, err
	}

	var res ExportResult
	var err error
	res.Stations, err = exportSheet(ctx, db, f, stationsSheet, exportStationsSQL,
		[]any{"Station", "Name", "Latitude", "Longitude", "Elevation"},
		func(rows *sql.Rows) ([]any, error) {
			var (
				id, name            string
				lat, lon, elevation sql.NullFloat64
			)
			if err := rows.Scan(&id, &name, &lat, &lon, &elevation); err != nil {
				return nil, err
			}
			return []any{id, name, cell(lat), cell(lon), cell(elevation)}, nil
		})
	if err != nil {
		return ExportResult{}, err
	}

	res.Measurements, err = exportSheet(ctx, db, f, measurementsSheet, exportMeasurementsSQL,
		[]any{"Station", "Date", "Precipitation", "Temperature"},
		func(rows *sql.Rows) ([]any, error) {
			var (
				station, date string
				prcp, tobs    sql.NullFloat64
			)
			if err := rows.Scan(&station, &date, &prcp, &tobs); err != nil {
				return nil, err
			}
			return []any{station, date, cell(prcp), cell(tobs)}, nil
		})
	if err != nil {
		return ExportResult{}, err
	}

	if _, err := f.WriteTo(w); err != nil {
		return ExportResult{}, fmt.Errorf("write workbook: %w", err)
	}
	return res, nil
}

// exportSheet streams the rows of query into sheet below header.
func exportSheet(ctx context.Context, db *sql.DB, f *excelize.File, sheet, query string, header []any, scan func(*sql.Rows) ([]any, error)) (int, error) {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return 0, err
	}
	if err := sw.SetRow("A1", header); err != nil {
		return 0, err
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", sheet, err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		values, err := scan(rows)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", sheet, err)
		}
		axis, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return 0, err
		}
		if err := sw.SetRow(axis, values); err != nil {
			return 0, err
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("%s: %w", sheet, err)
	}
	return n, sw.Flush()
}

func cell(v sql.NullFloat64) any {
	if !v.Valid {
		return nil
	}
	return v.Float64
}
