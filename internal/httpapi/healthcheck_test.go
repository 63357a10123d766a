package httpapi

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestHealthz(t *testing.T) {
	t.Run("ok while the database answers", func(t *testing.T) {
		mux := NewMux(openTestDB(t))
		rec := httptest.NewRecorder()

		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		var body map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("body is not valid JSON: %v", err)
		}
		if body["status"] != "ok" {
			t.Errorf("status = %q; want ok", body["status"])
		}
	})

	t.Run("500 when the database is closed", func(t *testing.T) {
		db := openTestDB(t)
		mux := NewMux(db)
		if err := db.Close(); err != nil {
			t.Fatalf("close db: %v", err)
		}
		rec := httptest.NewRecorder()

		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusInternalServerError)
		}
	})

	t.Run("registers features on the same mux", func(t *testing.T) {
		db := openTestDB(t)
		var gotDB *sql.DB
		mux := NewMux(db, func(mux *http.ServeMux, db *sql.DB) {
			gotDB = db
			mux.HandleFunc("GET /api/v1.0/stations", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})
		})
		if gotDB != db {
			t.Error("feature did not receive the service database")
		}

		for path, want := range map[string]int{"/healthz": http.StatusOK, "/api/v1.0/stations": http.StatusNoContent} {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			if rec.Code != want {
				t.Errorf("%s status = %d; want %d", path, rec.Code, want)
			}
		}
	})

	t.Run("405 for POST", func(t *testing.T) {
		mux := NewMux(openTestDB(t))
		rec := httptest.NewRecorder()

		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusMethodNotAllowed)
		}
	})
}
