package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/bodega-pos/internal/domain/cart"
	"github.com/xenking/bodega-pos/internal/domain/sale"
	"github.com/xenking/bodega-pos/internal/handler"
	"github.com/xenking/bodega-pos/internal/storage/postgres"
	"github.com/xenking/bodega-pos/pkg/health"
	"github.com/xenking/bodega-pos/pkg/httpmiddleware"
)

const serviceName = "bodega-pos"

// Run builds every dependency, serves HTTP and drains on ctx cancellation.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	probes := health.New()
	probes.Register(health.Readiness, health.Check{Name: "postgres", Timeout: 5 * time.Second, Run: health.PingCheck(pool)})
	probes.Register(health.Liveness, health.Check{Name: "goroutines", Run: health.GoroutineCheck(10000)})
	probes.Register(health.Liveness, health.Check{Name: "gc_pause", Run: health.GCPauseCheck(time.Second)})
	probes.Start(zctx.Base(ctx, lg), 10*time.Second)

	products := postgres.NewProductRepository(pool)
	sellers := postgres.NewSellerRepository(pool)
	sales, err := sale.NewService(postgres.NewSaleRepository(pool), m.MeterProvider())
	if err != nil {
		return errors.Wrap(err, "create sale service")
	}

	terminals := cart.NewRegistry(cart.RegistryConfig{
		MaxTerminals: cfg.Terminals.Max,
		IdleTTL:      cfg.Terminals.IdleTTL,
	})
	go terminals.Run(zctx.Base(ctx, lg), time.Minute)

	h := handler.New(handler.Config{LowStockThreshold: cfg.LowStockThreshold}, products, terminals, sales)
	auth := handler.NewAuthenticator(sellers, []byte(cfg.APIKeyPepper))

	mux := http.NewServeMux()
	probes.Mount(mux)
	h.Register(mux, auth)
	routes := httpmiddleware.MakeRouteFinder(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(lg),
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				Origins:          cfg.CORS.Origins,
				Headers:          []string{"Content-Type", handler.APIKeyHeader, httpmiddleware.RequestIDHeader},
				Expose:           []string{httpmiddleware.RequestIDHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
				Key:    httpmiddleware.HeaderOrIP(handler.APIKeyHeader),
			}),
			httpmiddleware.Instrument(serviceName, routes, m),
			httpmiddleware.LogRequests(routes),
			httpmiddleware.Labeler(routes),
		),
	}
	probes.SetReady(true)

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()

		probes.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		probes.Stop()
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
