package httpapi

import (
	"database/sql"
	"net/http"
)

// Feature registers one module's routes on the shared mux.
type Feature func(mux *http.ServeMux, db *sql.DB)

// NewMux returns the service mux with /healthz and every feature's routes.
func NewMux(db *sql.DB, features ...Feature) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db)
	for _, register := range features {
		register(mux, db)
	}
	return mux
}
