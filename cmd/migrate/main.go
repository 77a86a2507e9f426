package main

import (
	"database/sql"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/migration"
	"github.com/storefront/backend/migrations"
)

func main() {
	var (
		dir      string
		logLevel string
	)
	flag.StringVar(&dir, "path", "", "Migrations directory (default: migrations embedded in the binary)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{Level: logLevel, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	switch command {
	case "create":
		if len(args) < 2 {
			log.Fatal("migration name required: migrate -path migrations create <name>")
		}
		if dir == "" {
			dir = "migrations"
		}
		f, err := migration.Create(dir, args[1])
		if err != nil {
			log.Fatal("failed to create migration", zap.Error(err))
		}
		log.Info("migration created",
			zap.Uint("version", f.Version),
			zap.String("up_file", f.UpPath),
			zap.String("down_file", f.DownPath),
		)
		return
	case "list":
		var src fs.FS = migrations.FS
		if dir != "" {
			src = os.DirFS(dir)
		}
		entries, err := migration.List(src)
		if err != nil {
			log.Fatal("failed to list migrations", zap.Error(err))
		}
		for _, e := range entries {
			fmt.Printf("  %06d %s\n", e.Version, e.Name)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal("failed to ping database", zap.Error(err))
	}

	m, err := migration.New(db, dir, log)
	if err != nil {
		log.Fatal("failed to create migrator", zap.Error(err))
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("failed to close migrator", zap.Error(err))
		}
	}()

	if err := run(m, command, args[1:]); err != nil {
		log.Fatal("migration command failed", zap.String("command", command), zap.Error(err))
	}
}

func run(m *migration.Migrator, command string, args []string) error {
	switch command {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "steps":
		if len(args) == 0 {
			return fmt.Errorf("steps requires a count")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid step count %q: %w", args[0], err)
		}
		return m.Steps(n)
	case "version":
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		fmt.Printf("version %d (dirty: %t)\n", v, dirty)
		return nil
	case "force":
		if len(args) == 0 {
			return fmt.Errorf("force requires a version")
		}
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		return m.Force(v)
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: migrate [flags] <command> [args]

Commands:
  up              Apply all pending migrations
  down            Roll back all migrations
  steps <n>       Apply n migrations (negative rolls back)
  version         Show the applied version
  force <v>       Set the version without running migrations
  create <name>   Create a new up/down pair in -path
  list            List migrations

Flags:
  -path string       Migrations directory
  -log-level string  Log level (default "info")

The database connection is read from config.toml and STORE_DATABASE_* variables.
`)
}
