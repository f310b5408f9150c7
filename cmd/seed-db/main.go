// Command seed-db loads a product catalog and seller keys into the POS
// database. Catalog files may be plain JSON or gzip-compressed (.json.gz).
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/bodega-pos/internal/domain/seller"
	"github.com/xenking/bodega-pos/internal/storage/postgres"
)

type options struct {
	databaseURL string
	files       []string
	pepper      string
	sellers     []sellerSeed
}

func main() {
	lg, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	opts, err := parseFlags(flag.CommandLine, os.Args[1:], os.Getenv)
	if err != nil {
		lg.Fatal("Invalid arguments", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, opts); err != nil {
		lg.Fatal("Seed failed", zap.Error(err))
	}
	lg.Info("Seed completed")
}

func parseFlags(fs *flag.FlagSet, args []string, getenv func(string) string) (options, error) {
	var (
		opts        options
		products    string
		adminKey    string
		employeeKey string
	)
	fs.StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL)")
	fs.StringVar(&products, "products", "db/seed/products.json", "comma separated catalog files (.json or .json.gz)")
	fs.StringVar(&opts.pepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or POS_API_KEY_PEPPER)")
	fs.StringVar(&adminKey, "admin-key", "", "API key of the admin seller (or POS_SEED_ADMIN_KEY)")
	fs.StringVar(&employeeKey, "employee-key", "", "API key of the cashier seller (or POS_SEED_EMPLOYEE_KEY)")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	fallback := func(v *string, env string) {
		if *v == "" {
			*v = getenv(env)
		}
	}
	fallback(&opts.databaseURL, "DATABASE_URL")
	fallback(&opts.pepper, "POS_API_KEY_PEPPER")
	fallback(&adminKey, "POS_SEED_ADMIN_KEY")
	fallback(&employeeKey, "POS_SEED_EMPLOYEE_KEY")

	if opts.databaseURL == "" {
		return options{}, errors.New("database URL is required: set --database-url or DATABASE_URL")
	}
	if adminKey == "" {
		return options{}, errors.New("admin key is required: set --admin-key or POS_SEED_ADMIN_KEY")
	}
	for _, f := range strings.Split(products, ",") {
		if f = strings.TrimSpace(f); f != "" {
			opts.files = append(opts.files, f)
		}
	}

	opts.sellers = append(opts.sellers, sellerSeed{ID: "admin", Name: "Administrador", Role: seller.RoleAdmin, Key: adminKey})
	if employeeKey != "" {
		opts.sellers = append(opts.sellers, sellerSeed{ID: "cashier", Name: "Cajero", Role: seller.RoleEmployee, Key: employeeKey})
	}
	return opts, nil
}

func run(ctx context.Context, lg *zap.Logger, opts options) error {
	lg.Info("Connecting to database")
	pool, err := postgres.NewPool(ctx, opts.databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	products, err := loadCatalogs(ctx, opts.files)
	if err != nil {
		return errors.Wrap(err, "load catalogs")
	}
	lg.Info("Upserting products", zap.Int("count", len(products)), zap.Strings("files", opts.files))

	productRepo := postgres.NewProductRepository(pool)
	for _, p := range products {
		if err := productRepo.Upsert(ctx, p); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}
		lg.Debug("Upserted product", zap.String("id", p.ID), zap.String("name", p.Name))
	}

	sellerRepo := postgres.NewSellerRepository(pool)
	for _, s := range opts.sellers {
		if err := sellerRepo.Upsert(ctx, s.toSeller([]byte(opts.pepper))); err != nil {
			return errors.Wrapf(err, "upsert seller %s", s.ID)
		}
		lg.Info("Upserted seller", zap.String("id", s.ID), zap.String("role", string(s.Role)))
	}
	return nil
}
