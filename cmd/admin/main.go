// Command admin runs back-office operations: order lookup, order status
// changes and catalog maintenance.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	catalogapp "github.com/storefront/backend/internal/application/catalog"
	orderapp "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/event"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/interfaces/http/handler"
)

type services struct {
	products *catalogapp.ProductService
	orders   *orderapp.QueryService
}

func main() {
	var (
		logLevel string
		timeout  time.Duration
	)
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

	orders := orderapp.NewQueryService(persistence.NewGormOrderRepository(db.DB), log)
	// status changes reach the relays through the outbox like API-driven ones
	orders.SetEventPublisher(event.NewOutboxPublisher(db.DB, event.NewEventSerializer(), cfg.Event.MaxRetries))
	svc := services{
		products: catalogapp.NewProductService(persistence.NewGormProductRepository(db.DB)),
		orders:   orders,
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := run(ctx, svc, args, os.Stdout); err != nil {
		log.Fatal("admin command failed", zap.String("command", args[0]), zap.Error(err))
	}
}

func run(ctx context.Context, svc services, args []string, out io.Writer) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "orders":
		if len(rest) != 1 {
			return fmt.Errorf("orders requires an owner id")
		}
		return printJSON(out, handler.ToOrderResponses(svc.orders.GetUserOrders(ctx, rest[0])))
	case "order":
		id, err := parseID(rest, "order")
		if err != nil {
			return err
		}
		o, err := svc.orders.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(out, handler.ToOrderResponse(o))
	case "set-status":
		if len(rest) != 2 {
			return fmt.Errorf("set-status requires an order id and a status")
		}
		id, err := parseID(rest[:1], "order")
		if err != nil {
			return err
		}
		o, err := svc.orders.UpdateStatus(ctx, id, order.Status(rest[1]))
		if err != nil {
			return err
		}
		return printJSON(out, handler.ToOrderResponse(o))
	case "product-add":
		return addProduct(ctx, svc.products, rest, out)
	case "product-active":
		if len(rest) != 2 {
			return fmt.Errorf("product-active requires a product id and true or false")
		}
		id, err := parseID(rest[:1], "product")
		if err != nil {
			return err
		}
		active, err := strconv.ParseBool(rest[1])
		if err != nil {
			return fmt.Errorf("invalid active flag %q: %w", rest[1], err)
		}
		p, err := svc.products.SetProductActive(ctx, id, active)
		if err != nil {
			return err
		}
		return printJSON(out, handler.ToProductResponse(p))
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func addProduct(ctx context.Context, products *catalogapp.ProductService, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("product-add", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		in    catalogapp.NewProductInput
		price string
	)
	fs.StringVar(&in.Name, "name", "", "Product name")
	fs.StringVar(&in.Description, "description", "", "Description")
	fs.StringVar(&in.Category, "category", "", "Category")
	fs.StringVar(&price, "price", "", "Unit price")
	fs.IntVar(&in.Stock, "stock", 0, "Initial stock")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	if in.Price, err = decimal.NewFromString(price); err != nil {
		return fmt.Errorf("invalid price %q: %w", price, err)
	}
	p, err := products.CreateProduct(ctx, in)
	if err != nil {
		return err
	}
	return printJSON(out, handler.ToProductResponse(p))
}

func parseID(args []string, what string) (uuid.UUID, error) {
	if len(args) != 1 {
		return uuid.Nil, fmt.Errorf("%s id required", what)
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s id %q: %w", what, args[0], err)
	}
	return id, nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: admin [flags] <command> [args]

Commands:
  orders <owner>                 List an owner's orders, newest first
  order <id>                     Show one order with its lines
  set-status <id> <status>       Move an order (confirmed, shipped, delivered, cancelled)
  product-add -name -price [-category -description -stock]
                                 Add an active product
  product-active <id> <bool>     List or delist a product

The database connection is read from config.toml and STORE_DATABASE_* variables.
`)
}
