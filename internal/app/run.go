package app

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/dancab13/sqlalchemy-challenge/internal/config"
	"github.com/dancab13/sqlalchemy-challenge/internal/db"
	"github.com/dancab13/sqlalchemy-challenge/internal/httpapi"
	"github.com/dancab13/sqlalchemy-challenge/internal/migrate"
	"github.com/dancab13/sqlalchemy-challenge/internal/modules/climate"
	climateviews "github.com/dancab13/sqlalchemy-challenge/internal/modules/climate/views"
)

const shutdownTimeout = 10 * time.Second

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"sqliteDriver", cfg.SQLiteDriver,
		"sqlitePath", cfg.SQLitePath,
		"sqliteReadOnly", cfg.SQLiteReadOnly,
		"sqliteMaxOpenConns", cfg.SQLiteMaxOpenConns,
		"sqliteMaxIdleConns", cfg.SQLiteMaxIdleConns,
		"sqliteConnMaxLifetime", cfg.SQLiteConnMaxLifetime,
		"dbStatsInterval", cfg.DBStatsInterval,
		"rateLimitRPS", cfg.RateLimitRPS,
		"precipitationSince", cfg.PrecipitationSince.Format(time.DateOnly),
		"tobsSince", cfg.TobsSince.Format(time.DateOnly),
	)

	dbConn, err := db.Open(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()
	slog.Info("database connection successful")

	if cfg.MigrateOnStart {
		applied, err := migrate.Run(ctx, dbConn)
		if err != nil {
			return err
		}
		slog.Info("migrations applied", "count", applied)
	}

	if cfg.DBStatsInterval > 0 {
		reporter, err := db.StartStatsReporter(dbConn, cfg.DBStatsInterval, slog.Default())
		if err != nil {
			return err
		}
		defer reporter.Stop()
	}

	if err := climateviews.LoadTemplates(); err != nil {
		return err
	}
	mux := httpapi.NewMux(dbConn, func(mux *http.ServeMux, conn *sql.DB) {
		climate.RegisterFeature(mux, conn, cfg)
	})

	srv := httpapi.NewServer(cfg, mux)
	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return err
	}
	return serve(ctx, srv, ln)
}

// serve runs srv on ln until ctx is done, then drains in-flight requests.
// It returns ctx.Err() after a clean shutdown.
func serve(ctx context.Context, srv *http.Server, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err := <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
