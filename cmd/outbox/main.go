// Command outbox inspects the event outbox and requeues dead letters.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	appevent "github.com/storefront/backend/internal/application/event"
	"github.com/storefront/backend/internal/infrastructure/config"
	infraevent "github.com/storefront/backend/internal/infrastructure/event"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/persistence"
)

func main() {
	var (
		page     int
		pageSize int
		logLevel string
		timeout  time.Duration
	)
	flag.IntVar(&page, "page", 1, "Page for the dead command")
	flag.IntVar(&pageSize, "page-size", appevent.DefaultDeadLetterPageSize, "Page size for the dead command")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Command timeout")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{Level: logLevel, Format: "console", Output: "stderr"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(logger.NewGormLogger(log, gormlogger.Warn, 200*time.Millisecond)))
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	svc := appevent.NewOutboxService(infraevent.NewGormOutboxRepository(db.DB), log)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := run(ctx, svc, args, page, pageSize); err != nil {
		log.Fatal("outbox command failed", zap.String("command", args[0]), zap.Error(err))
	}
}

func run(ctx context.Context, svc *appevent.OutboxService, args []string, page, pageSize int) error {
	switch args[0] {
	case "stats":
		stats, err := svc.Stats(ctx)
		if err != nil {
			return err
		}
		return printJSON(stats)
	case "dead":
		result, err := svc.DeadLetters(ctx, page, pageSize)
		if err != nil {
			return err
		}
		return printJSON(result)
	case "retry":
		if len(args) < 2 {
			return fmt.Errorf("retry requires an entry id")
		}
		id, err := uuid.Parse(args[1])
		if err != nil {
			return fmt.Errorf("invalid entry id %q: %w", args[1], err)
		}
		view, err := svc.Retry(ctx, id)
		if appevent.IsNotFound(err) {
			return fmt.Errorf("entry %s not found", id)
		}
		if err != nil {
			return err
		}
		return printJSON(view)
	case "retry-all":
		n, err := svc.RetryAll(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("requeued %d entries\n", n)
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: outbox [flags] <command> [args]

Commands:
  stats           Count entries per status
  dead            List dead letters (-page, -page-size)
  retry <id>      Requeue one dead letter
  retry-all       Requeue every dead letter

The database connection is read from config.toml and STORE_DATABASE_* variables.
`)
}
