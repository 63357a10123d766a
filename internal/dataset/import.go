// Package dataset loads the Hawaii climate CSV files into the database and
// exports the database to a spreadsheet.
package dataset

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dancab13/sqlalchemy-challenge/internal/modules/climate/types"
)

var (
	measurementColumns = []string{"station", "date", "prcp", "tobs"}
	stationColumns     = []string{"station", "name", "latitude", "longitude", "elevation"}
)

const (
	clearMeasurementsSQL = `DELETE FROM measurement`
	clearStationsSQL     = `DELETE FROM station`
	insertMeasurementSQL = `INSERT INTO measurement (station, date, prcp, tobs) VALUES (?, ?, ?, ?)`
	insertStationSQL     = `INSERT INTO station (station, name, latitude, longitude, elevation) VALUES (?, ?, ?, ?, ?)`
)

type ImportResult struct {
	Stations     int
	Measurements int
}

// Import replaces the contents of the station and measurement tables with
// the given CSV files. Everything happens in one transaction, so a bad row
// leaves the database as it was.
func Import(ctx context.Context, db *sql.DB, measurements, stations io.Reader) (res ImportResult, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return ImportResult{}, fmt.Errorf("begin import: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, q := range []string{clearMeasurementsSQL, clearStationsSQL} {
		if _, err = tx.ExecContext(ctx, q); err != nil {
			return ImportResult{}, fmt.Errorf("clear tables: %w", err)
		}
	}

	res.Stations, err = importCSV(ctx, tx, "stations", stations, stationColumns, insertStationSQL, stationArgs)
	if err != nil {
		return ImportResult{}, err
	}
	res.Measurements, err = importCSV(ctx, tx, "measurements", measurements, measurementColumns, insertMeasurementSQL, measurementArgs)
	if err != nil {
		return ImportResult{}, err
	}

	if err = tx.Commit(); err != nil {
		return ImportResult{}, fmt.Errorf("commit import: %w", err)
	}
	return res, nil
}

// importCSV inserts every record of r with insert. The header must name
// want's columns; their order in the file does not matter.
func importCSV(ctx context.Context, tx *sql.Tx, what string, r io.Reader, want []string, insert string, toArgs func([]string) ([]any, error)) (int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("%s: empty file", what)
	}
	if err != nil {
		return 0, fmt.Errorf("%s header: %w", what, err)
	}
	index, err := columnIndex(header, want)
	if err != nil {
		return 0, fmt.Errorf("%s header: %w", what, err)
	}

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return 0, fmt.Errorf("%s: prepare insert: %w", what, err)
	}
	defer stmt.Close()

	fields := make([]string, len(want))
	n := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return 0, fmt.Errorf("%s: %w", what, err)
		}
		line, _ := cr.FieldPos(0)
		for i, col := range index {
			if col >= len(rec) {
				return 0, fmt.Errorf("%s line %d: missing %s", what, line, want[i])
			}
			fields[i] = strings.TrimSpace(rec[col])
		}
		args, err := toArgs(fields)
		if err != nil {
			return 0, fmt.Errorf("%s line %d: %w", what, line, err)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("%s line %d: insert: %w", what, line, err)
		}
		n++
	}
}

func columnIndex(header, want []string) ([]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	index := make([]int, len(want))
	for i, name := range want {
		p, ok := pos[name]
		if !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
		index[i] = p
	}
	return index, nil
}

// measurementArgs converts station, date, prcp, tobs. Empty readings are
// stored as NULL.
func measurementArgs(f []string) ([]any, error) {
	if f[0] == "" {
		return nil, errors.New("empty station")
	}
	if _, err := time.Parse(types.DateLayout, f[1]); err != nil {
		return nil, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", f[1])
	}
	prcp, err := optionalFloat("prcp", f[2])
	if err != nil {
		return nil, err
	}
	tobs, err := optionalFloat("tobs", f[3])
	if err != nil {
		return nil, err
	}
	return []any{f[0], f[1], prcp, tobs}, nil
}

// stationArgs converts station, name, latitude, longitude, elevation.
func stationArgs(f []string) ([]any, error) {
	if f[0] == "" {
		return nil, errors.New("empty station")
	}
	args := []any{f[0], f[1]}
	for i, name := range stationColumns[2:] {
		v, err := strconv.ParseFloat(f[i+2], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q", name, f[i+2])
		}
		args = append(args, v)
	}
	return args, nil
}

func optionalFloat(name, s string) (sql.NullFloat64, error) {
	if s == "" {
		return sql.NullFloat64{}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return sql.NullFloat64{}, fmt.Errorf("invalid %s %q", name, s)
	}
	return sql.NullFloat64{Float64: v, Valid: true}, nil
}
