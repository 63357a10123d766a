package climate

import (
	"database/sql"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dancab13/sqlalchemy-challenge/internal/config"
	"github.com/dancab13/sqlalchemy-challenge/internal/migrate"
)

func TestRegisterFeature(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if _, err := migrate.Run(t.Context(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := db.Exec(`
		INSERT INTO station (station, name, latitude, longitude, elevation) VALUES
		  ('USC00519281', 'WAIHEE 837.5, HI US', 21.45167, -157.84889, 32.9);
		INSERT INTO measurement (station, date, prcp, tobs) VALUES
		  ('USC00519281', '2017-08-17', 0.01, 76),
		  ('USC00519281', '2017-08-18', 0.06, 79),
		  ('USC00519281', '2017-08-19', NULL, 78)`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	mux := http.NewServeMux()
	RegisterFeature(mux, db, config.Config{
		PrecipitationSince: time.Date(2017, 8, 18, 0, 0, 0, 0, time.UTC),
		TobsSince:          time.Date(2017, 8, 18, 0, 0, 0, 0, time.UTC),
	})

	t.Run("precipitation honours the cutoff", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1.0/precipitation", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		var got map[string][]*float64
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(got) != 2 || got["2017-08-19"][0] != nil {
			t.Errorf("body = %v; want two dates with a null reading on 2017-08-19", got)
		}
	})

	t.Run("summary over the whole dataset", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1.0/2017-08-17/2017-08-19", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d (body %q)", rec.Code, http.StatusOK, rec.Body.String())
		}
		var got struct {
			Minimum struct{ Date string }
			Average float64
			Maximum struct{ Date string }
		}
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Minimum.Date != "2017-08-17" || got.Maximum.Date != "2017-08-18" || math.Abs(got.Average-233.0/3) > 1e-9 {
			t.Errorf("summary = %+v", got)
		}
	})
}
