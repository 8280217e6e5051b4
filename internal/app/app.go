package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/media"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/wishlist"
	"github.com/xenking/storefront/internal/handler"
	"github.com/xenking/storefront/internal/repository"
	"github.com/xenking/storefront/internal/storage/file"
	"github.com/xenking/storefront/internal/storage/redis"
	"github.com/xenking/storefront/internal/storage/s3"
	"github.com/xenking/storefront/pkg/health"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

const cartEvictInterval = time.Minute

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr), zap.String("cart_backend", cfg.Cart.Backend))

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc_pause", time.Second, health.GCMaxPauseCheck(time.Second))

	// Cart snapshots.
	persister, closePersister, err := newCartPersister(cfg, healthSvc)
	if err != nil {
		return err
	}
	defer closePersister()

	cartMetrics, err := cart.NewMetrics(m.MeterProvider())
	if err != nil {
		return errors.Wrap(err, "create cart metrics")
	}
	sessions := cart.NewSessions(cart.SessionsConfig{
		KeyPrefix: "cart:",
		IdleTTL:   cfg.Cart.IdleTTL,
	}, persister, lg.Named("cart"), cartMetrics)
	go sessions.Run(ctx, cartEvictInterval)

	// Media objects.
	var objects media.ObjectStore
	if cfg.S3.Bucket != "" {
		store, err := s3.New(ctx, cfg.S3)
		if err != nil {
			return errors.Wrap(err, "create s3 store")
		}
		objects = store
	} else {
		lg.Warn("No media bucket configured, uploads are disabled")
	}

	// Repositories.
	productRepo := repository.NewProductRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	wishlistRepo := repository.NewWishlistRepository(pool)
	roleRepo := repository.NewRoleRepository(pool)
	mediaRepo := repository.NewMediaRepository(pool)

	ids, err := product.LoadIDFilter(ctx, productRepo)
	if err != nil {
		return errors.Wrap(err, "load product id filter")
	}
	if err := ids.RegisterMetrics(m.MeterProvider()); err != nil {
		return errors.Wrap(err, "register id filter metrics")
	}

	// Domain services.
	taxRate, err := cfg.Tax()
	if err != nil {
		return err
	}
	orderService := order.NewService(productRepo, orderRepo, order.Config{TaxRate: taxRate}, m.TracerProvider())

	// HTTP handlers.
	h := handler.NewHandler(handler.HandlerConfig{
		ImageBaseURL:   cfg.ImageBaseURL,
		SecureCookies:  cfg.Cart.CookieSecure,
		MaxUploadBytes: cfg.Cart.MaxUploadSize,
	}, handler.Deps{
		Products: productRepo,
		IDs:      ids,
		Carts:    sessions,
		Wishlist: wishlist.NewService(wishlistRepo, productRepo),
		Orders:   orderService,
		Media:    media.NewService(objects, mediaRepo, productRepo),
		Verifier: auth.NewVerifier([]byte(cfg.JWTSecret)),
		Roles:    auth.NewRoles(roleRepo, cfg.AdminEmails),
	})

	// Router: health endpoints + API routes. Route-aware middleware runs
	// inside the router so the matched pattern is known.
	r := chi.NewRouter()
	r.Use(
		httpmiddleware.LogRequests(handler.RoutePattern),
		httpmiddleware.Labeler(handler.RoutePattern),
	)
	r.Get("/livez", healthSvc.LiveEndpoint)
	r.Get("/readyz", healthSvc.ReadyEndpoint)
	h.Routes(r)

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(r,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", httpmiddleware.RequestIDHeader},
				ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("storefront-api", m),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// newCartPersister builds the configured snapshot backend and registers its
// health check. The returned func releases backend resources.
func newCartPersister(cfg *Config, h *health.Health) (cart.Persister, func(), error) {
	switch cfg.Cart.Backend {
	case CartBackendRedis:
		client, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "create redis client")
		}
		store := redis.NewCartStore(client, cfg.Cart.SnapshotTTL)
		// Carts keep working in memory during short outages.
		h.AddReadinessCheck("redis", 2*time.Second, health.PingCheck(store), health.Thresholds{Failure: 10, Success: 1})
		return store, func() { _ = client.Close() }, nil
	case CartBackendFile:
		store, err := file.NewCartStore(cfg.Cart.Dir)
		if err != nil {
			return nil, nil, errors.Wrap(err, "create cart directory")
		}
		return store, func() {}, nil
	default:
		return cart.Discard{}, func() {}, nil
	}
}
