package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/db"
	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/repository"
)

type productJSON struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	ImageURL      string          `json:"image_url"`
	Category      string          `json:"category"`
	StockQuantity int             `json:"stock_quantity"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		grantAdmin   string
		workers      int
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "", "path to a products JSON file, optionally .gz (default: built-in catalog)")
	flag.StringVar(&grantAdmin, "grant-admin", "", "user id to grant the admin role")
	flag.IntVar(&workers, "workers", 4, "concurrent product upserts")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, grantAdmin, max(workers, 1)); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, grantAdmin string, workers int) error {
	products, err := loadProducts(productsFile)
	if err != nil {
		return errors.Wrap(err, "load products")
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, repository.NewProductRepository(pool), products, workers); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if grantAdmin != "" {
		if err := repository.NewRoleRepository(pool).GrantRole(ctx, grantAdmin, auth.RoleAdmin); err != nil {
			return errors.Wrap(err, "grant admin")
		}
		slog.Info("granted admin role", slog.String("user_id", grantAdmin))
	}

	return nil
}

// loadProducts reads and validates the catalog from path, or the built-in
// catalog when path is empty.
func loadProducts(path string) ([]product.Product, error) {
	data := db.SeedProducts
	if path != "" {
		slog.Info("reading products file", slog.String("path", path))

		var err error
		if data, err = readFile(path); err != nil {
			return nil, err
		}
	}

	var raw []productJSON
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "parse products JSON")
	}

	now := time.Now().UTC()
	seen := make(map[string]struct{}, len(raw))
	out := make([]product.Product, 0, len(raw))
	for i, r := range raw {
		if r.ID == "" {
			return nil, errors.Errorf("product #%d: id is required", i)
		}
		if _, dup := seen[r.ID]; dup {
			return nil, errors.Errorf("product %s: duplicate id", r.ID)
		}
		seen[r.ID] = struct{}{}

		draft := product.Draft{
			Name:          r.Name,
			Description:   r.Description,
			Price:         r.Price,
			ImageURL:      r.ImageURL,
			Category:      r.Category,
			StockQuantity: r.StockQuantity,
		}.Normalize()
		if err := draft.Validate(); err != nil {
			return nil, errors.Wrapf(err, "product %s", r.ID)
		}

		p := product.Product{ID: r.ID, CreatedAt: now, UpdatedAt: now}
		draft.Apply(&p)
		out = append(out, p)
	}
	return out, nil
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open products file")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip reader")
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read products file")
	}
	return data, nil
}

func seedProducts(ctx context.Context, repo *repository.ProductRepository, products []product.Product, workers int) error {
	slog.Info("upserting products", slog.Int("count", len(products)), slog.Int("workers", workers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range products {
		p := &products[i]
		g.Go(func() error {
			if err := repo.Upsert(gctx, p); err != nil {
				return errors.Wrapf(err, "upsert product %s", p.ID)
			}
			slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
			return nil
		})
	}
	return g.Wait()
}
