// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/kkzakaria/boom-informatique-sub001/internal/adapters/db"
	redis_a "github.com/kkzakaria/boom-informatique-sub001/internal/adapters/redis_adapter"
	"github.com/kkzakaria/boom-informatique-sub001/internal/core/services"
	"github.com/kkzakaria/boom-informatique-sub001/internal/handlers"
	"github.com/kkzakaria/boom-informatique-sub001/internal/handlers/middleware"
	"github.com/kkzakaria/boom-informatique-sub001/internal/pkg/config"
	"github.com/kkzakaria/boom-informatique-sub001/internal/pkg/logger"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	slogger := logger.SetupLogger("debug", "json")

	slogger.Info("starting boom commerce service",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
	)

	cfg, err := config.Load(slogger.Logger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Reconfigure logger with loaded settings
	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("log_level", cfg.App.LogLevel),
	)

	ctx := context.Background()

	deps, err := initializeDependencies(ctx, cfg, slogger.Logger)
	if err != nil {
		slogger.Error("failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.cleanup()

	if err := runMigrations(cfg, slogger.Logger); err != nil {
		slogger.Error("failed to run migrations", slog.String("error", err.Error()))
		if cfg.IsProduction() {
			os.Exit(1)
		}
	}

	server := setupHTTPServer(cfg, deps, slogger)

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server",
			slog.String("address", cfg.GetServerAddress()),
		)
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("server error", slog.String("error", err.Error()))
		}
	case sig := <-shutdown:
		slogger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slogger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
			server.Close()
		}

		slogger.Info("server shutdown complete")
	}
}

// dependencies holds all application dependencies
type dependencies struct {
	database       *db.Database
	redisClient    *redis.Client
	cache          *redis_a.Cache
	asynqClient    *asynq.Client
	asynqInspector *asynq.Inspector

	catalogService *services.CatalogService
	quoteService   *services.QuoteService
	stockService   *services.StockService

	catalogHandler *handlers.CatalogHandler
	cartHandler    *handlers.CartHandler
	compareHandler *handlers.CompareHandler
	quoteHandler   *handlers.QuoteHandler
	stockHandler   *handlers.StockHandler
	exportHandler  *handlers.ExportHandler
	healthHandler  *handlers.HealthHandler
}

func (d *dependencies) cleanup() {
	if d.database != nil {
		d.database.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
	if d.asynqClient != nil {
		d.asynqClient.Close()
	}
}

func initializeDependencies(ctx context.Context, cfg *config.Config, slogger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	slogger.Info("connecting to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name),
	)

	database, err := db.NewDatabase(ctx, &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		MinConnections:     cfg.Database.MinConnections,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}, slogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.database = database

	slogger.Info("connecting to Redis",
		slog.String("host", cfg.Redis.Host),
		slog.String("port", cfg.Redis.Port),
	)

	redisClient := redis.NewClient(&redis.Options{
		Addr:            cfg.GetRedisAddress(),
		Password:        cfg.Redis.Password,
		DB:              cfg.Redis.DB,
		MaxRetries:      cfg.Redis.MaxRetries,
		MinRetryBackoff: cfg.Redis.MinRetryBackoff,
		MaxRetryBackoff: cfg.Redis.MaxRetryBackoff,
		DialTimeout:     cfg.Redis.DialTimeout,
		ReadTimeout:     cfg.Redis.ReadTimeout,
		WriteTimeout:    cfg.Redis.WriteTimeout,
		PoolSize:        cfg.Redis.PoolSize,
		MinIdleConns:    cfg.Redis.MinIdleConns,
		PoolTimeout:     cfg.Redis.PoolTimeout,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	deps.redisClient = redisClient
	deps.cache = redis_a.NewCache(redisClient, cfg.Redis.TTL, slogger)

	asynqRedisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}
	deps.asynqClient = asynq.NewClient(asynqRedisOpt)
	deps.asynqInspector = asynq.NewInspector(asynqRedisOpt)

	// Repositories
	quoteRepo := db.NewQuoteRepository(database, slogger)
	stockRepo := db.NewStockRepository(database, slogger)
	catalogRepo := db.NewCatalogRepository(database, slogger)

	// Services
	deps.catalogService = services.NewCatalogService(catalogRepo, deps.cache, cfg.Commerce.CatalogCacheTTL, slogger)
	deps.quoteService = services.NewQuoteService(
		quoteRepo,
		catalogRepo,
		catalogRepo,
		decimal.NewFromFloat(cfg.Commerce.DefaultTaxRate),
		cfg.Commerce.QuoteValidityDays,
		slogger,
	)
	deps.stockService = services.NewStockService(stockRepo, catalogRepo, slogger)

	// Handlers
	deps.catalogHandler = handlers.NewCatalogHandler(deps.catalogService, slogger)
	deps.cartHandler = handlers.NewCartHandler(deps.catalogService, deps.cache, cfg.Commerce.SessionTTL, slogger)
	deps.compareHandler = handlers.NewCompareHandler(deps.catalogService, deps.cache, cfg.Commerce.CompareCapacity, cfg.Commerce.SessionTTL, slogger)
	deps.quoteHandler = handlers.NewQuoteHandler(deps.quoteService, slogger)
	deps.stockHandler = handlers.NewStockHandler(deps.stockService, deps.catalogService, slogger)
	deps.exportHandler = handlers.NewExportHandler(
		deps.quoteService,
		deps.stockService,
		deps.cache,
		deps.asynqClient,
		cfg.Export.Dir,
		cfg.Export.Retention,
		slogger,
	)
	deps.healthHandler = handlers.NewHealthHandler(database, redisClient, deps.asynqInspector, cfg, slogger)

	slogger.Info("all dependencies initialized successfully")
	return deps, nil
}

func setupHTTPServer(cfg *config.Config, deps *dependencies, slogger *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	registerRoutes(mux, deps, cfg)

	// Middleware applied in reverse order (innermost first)
	var handler http.Handler = mux
	if cfg.Security.SecureHeaders {
		handler = middleware.SecureHeaders(handler)
	}
	if len(cfg.Security.AllowedOrigins) > 0 {
		handler = middleware.CORS(cfg.Security.AllowedOrigins)(handler)
	}
	if cfg.Security.RateLimitRequests > 0 {
		handler = middleware.RateLimit(cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration)(handler)
	}
	handler = middleware.Recovery(slogger.Logger)(handler)
	handler = middleware.Logger(slogger)(handler)
	handler = middleware.RequestID(handler)

	return &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        handler,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(slogger.Handler(), slog.LevelError),
	}
}

func registerRoutes(mux *http.ServeMux, deps *dependencies, cfg *config.Config) {
	apiV1 := "/api/v1"
	secret := cfg.Security.JWTSecret

	// session wraps handlers that keep per-client state. Identity is
	// optional; authenticated clients get an account-pinned session so
	// carts and comparisons follow them across devices.
	session := func(h http.HandlerFunc) http.Handler {
		return middleware.OptionalAuth(secret)(middleware.Session(h))
	}
	// authed wraps handlers that require a valid bearer token.
	authed := func(h http.HandlerFunc) http.Handler {
		return middleware.Authenticate(secret)(h)
	}

	// Health and readiness
	mux.HandleFunc("GET /health", deps.healthHandler.Health)
	mux.HandleFunc("GET /ready", deps.healthHandler.Readiness)
	mux.HandleFunc("GET "+apiV1+"/health", deps.healthHandler.Health)

	// Catalog
	mux.HandleFunc("GET "+apiV1+"/products", deps.catalogHandler.ListProducts)
	mux.HandleFunc("GET "+apiV1+"/products/{id}", deps.catalogHandler.GetProduct)

	// Cart
	mux.Handle("GET "+apiV1+"/cart", session(deps.cartHandler.GetCart))
	mux.Handle("POST "+apiV1+"/cart/items", session(deps.cartHandler.AddItem))
	mux.Handle("PUT "+apiV1+"/cart/items/{id}", session(deps.cartHandler.UpdateItem))
	mux.Handle("DELETE "+apiV1+"/cart/items/{id}", session(deps.cartHandler.RemoveItem))
	mux.Handle("DELETE "+apiV1+"/cart", session(deps.cartHandler.ClearCart))
	mux.Handle("POST "+apiV1+"/cart/checkout", session(deps.cartHandler.Checkout))

	// Comparator
	mux.Handle("GET "+apiV1+"/compare", session(deps.compareHandler.GetComparison))
	mux.Handle("POST "+apiV1+"/compare/items", session(deps.compareHandler.AddItem))
	mux.Handle("POST "+apiV1+"/compare/toggle", session(deps.compareHandler.ToggleItem))
	mux.Handle("DELETE "+apiV1+"/compare/items/{id}", session(deps.compareHandler.RemoveItem))
	mux.Handle("DELETE "+apiV1+"/compare", session(deps.compareHandler.ClearComparison))

	// Quotes (customer)
	mux.Handle("POST "+apiV1+"/quotes", authed(deps.quoteHandler.CreateQuote))
	mux.Handle("GET "+apiV1+"/quotes", authed(deps.quoteHandler.ListQuotes))
	mux.Handle("GET "+apiV1+"/quotes/{id}", authed(deps.quoteHandler.GetQuote))
	mux.Handle("POST "+apiV1+"/quotes/{id}/send", authed(deps.quoteHandler.SendQuote))
	mux.Handle("POST "+apiV1+"/quotes/{id}/accept", authed(deps.quoteHandler.AcceptQuote))
	mux.Handle("POST "+apiV1+"/quotes/{id}/reject", authed(deps.quoteHandler.RejectQuote))

	// Admin: quote book
	mux.Handle("GET "+apiV1+"/admin/quotes", authed(deps.quoteHandler.ListAllQuotes))

	// Admin: inventory ledger
	mux.Handle("POST "+apiV1+"/admin/stock/movements", authed(deps.stockHandler.RecordMovement))
	mux.Handle("GET "+apiV1+"/admin/stock/movements", authed(deps.stockHandler.ListMovements))
	mux.Handle("GET "+apiV1+"/admin/stock/{id}/movements", authed(deps.stockHandler.GetHistory))
	mux.Handle("GET "+apiV1+"/admin/stock/{id}/level", authed(deps.stockHandler.GetLevel))

	// Admin: exports
	mux.Handle("GET "+apiV1+"/admin/export/quotes", authed(deps.exportHandler.ExportQuotes))
	mux.Handle("GET "+apiV1+"/admin/export/movements", authed(deps.exportHandler.ExportMovements))
	mux.Handle("POST "+apiV1+"/admin/exports", authed(deps.exportHandler.EnqueueExport))
	mux.Handle("GET "+apiV1+"/admin/exports/{id}", authed(deps.exportHandler.GetExport))
	mux.Handle("GET "+apiV1+"/admin/exports/{id}/download", authed(deps.exportHandler.DownloadExport))

	if cfg.Server.EnablePprof && cfg.IsDevelopment() {
		mux.HandleFunc("GET /debug/pprof/", http.HandlerFunc(http.DefaultServeMux.ServeHTTP))
	}
}

func runMigrations(cfg *config.Config, slogger *slog.Logger) error {
	slogger.Info("running database migrations")

	migrator, err := db.NewMigrator(cfg.GetDatabaseURL(), cfg.Database.MigrationPath, slogger)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer migrator.Close()

	return migrator.Up()
}
