package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/dancab13/sqlalchemy-challenge/internal/config"
	"github.com/dancab13/sqlalchemy-challenge/internal/dataset"
	"github.com/dancab13/sqlalchemy-challenge/internal/db"
	"github.com/dancab13/sqlalchemy-challenge/internal/logging"
	"github.com/dancab13/sqlalchemy-challenge/internal/migrate"
)

const appName = "surfsup-tools"

var version = "dev"

const usage = `usage: %s <command>
  migrate                                   apply pending schema migrations
  import <measurements.csv> <stations.csv>  replace the dataset with the CSV files
  export <out.xlsx>                         write the dataset to a spreadsheet
`

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(2)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.New(os.Stderr, cfg, version, appName))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Args[1:], os.Stdout); err != nil {
		slog.Error(os.Args[1]+" failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("missing command")
	}
	cmd, args := args[0], args[1:]
	switch cmd {
	case "migrate":
		if len(args) != 0 {
			return errors.New("migrate takes no arguments")
		}
	case "import":
		if len(args) != 2 {
			return errors.New("import needs <measurements.csv> <stations.csv>")
		}
	case "export":
		if len(args) != 1 {
			return errors.New("export needs <out.xlsx>")
		}
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}

	// Only export leaves the dataset untouched.
	cfg.SQLiteReadOnly = cmd == "export"
	conn, err := db.Open(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(conn); closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	switch cmd {
	case "migrate":
		applied, err := migrate.Run(ctx, conn)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "migrations applied: %d\n", applied)

	case "import":
		if _, err := migrate.Run(ctx, conn); err != nil {
			return err
		}
		measurements, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer measurements.Close()
		stations, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer stations.Close()

		res, err := dataset.Import(ctx, conn, measurements, stations)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "imported %d stations, %d measurements\n", res.Stations, res.Measurements)

	case "export":
		return exportTo(ctx, conn, args[0], out)
	}
	return nil
}

func exportTo(ctx context.Context, conn *sql.DB, path string, out io.Writer) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	res, err := dataset.Export(ctx, conn, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "exported %d stations, %d measurements to %s\n", res.Stations, res.Measurements, path)
	return nil
}
