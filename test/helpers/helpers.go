// test/helpers/helpers.go
package helpers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/kkzakaria/boom-informatique-sub001/internal/adapters/db"
	"github.com/kkzakaria/boom-informatique-sub001/internal/core/domain"
	"github.com/kkzakaria/boom-informatique-sub001/internal/pkg/config"
)

// TestDB represents a test database instance
type TestDB struct {
	PgxPool  *pgxpool.Pool
	Database *db.Database
	Resource *dockertest.Resource
	Pool     *dockertest.Pool
	Config   *db.Config
}

// TestRedis represents a test Redis instance
type TestRedis struct {
	Client *redis.Client
	Server *miniredis.Miniredis
}

// TestLogger returns a test logger
func TestLogger() *slog.Logger {
	if testing.Verbose() {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// SetupTestDB creates a PostgreSQL container for integration tests
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "Could not connect to Docker")

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=test_commerce",
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "Could not start PostgreSQL container")

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("Could not purge resource: %s", err)
		}
	})

	dbConfig := &db.Config{
		Host:               "localhost",
		Port:               resource.GetPort("5432/tcp"),
		User:               "test",
		Password:           "test",
		Database:           "test_commerce",
		SSLMode:            "disable",
		MaxConnections:     5,
		MinConnections:     1,
		MaxConnLifetime:    time.Hour,
		MaxConnIdleTime:    time.Minute * 30,
		HealthCheckPeriod:  time.Minute,
		ConnectTimeout:     time.Second * 10,
		EnableQueryLogging: testing.Verbose(),
	}

	var database *db.Database
	err = pool.Retry(func() error {
		ctx := context.Background()
		var err error
		database, err = db.NewDatabase(ctx, dbConfig, TestLogger())
		if err != nil {
			return err
		}
		return database.Ping(ctx)
	})
	require.NoError(t, err, "Could not connect to PostgreSQL")

	databaseURL := fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port,
		dbConfig.Database, dbConfig.SSLMode)

	migrator, err := db.NewMigrator(databaseURL, "../../migrations", TestLogger())
	require.NoError(t, err, "Could not create migrator")
	require.NoError(t, migrator.Up(), "Could not run migrations")
	migrator.Close()

	t.Cleanup(func() {
		database.Close()
	})

	return &TestDB{
		PgxPool:  database.Pool(),
		Database: database,
		Resource: resource,
		Pool:     pool,
		Config:   dbConfig,
	}
}

// SetupTestRedis creates an in-process Redis instance for testing
func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		client.Close()
	})

	return &TestRedis{
		Client: client,
		Server: mr,
	}
}

// LoadTestConfig returns a test configuration
func LoadTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "test-api",
			Environment: "test",
			Version:     "test",
			LogLevel:    "debug",
			LogFormat:   "text",
			Debug:       true,
		},
		Database: config.DatabaseConfig{
			Host:               "localhost",
			Port:               "5432",
			User:               "test",
			Password:           "test",
			Name:               "test_commerce",
			SSLMode:            "disable",
			MaxConnections:     10,
			MinConnections:     2,
			EnableQueryLogging: true,
		},
		Redis: config.RedisConfig{
			Host:     "localhost",
			Port:     "6379",
			DB:       0,
			TTL:      time.Hour,
			PoolSize: 10,
		},
		Commerce: config.CommerceConfig{
			DefaultTaxRate:    20.0,
			QuoteValidityDays: 30,
			CompareCapacity:   4,
			SessionTTL:        30 * 24 * time.Hour,
			CatalogCacheTTL:   5 * time.Minute,
		},
		Export: config.ExportConfig{
			Dir:       "/tmp/boom-exports-test",
			Retention: time.Hour,
			Timeout:   time.Minute,
		},
		Security: config.SecurityConfig{
			JWTSecret:         "test-secret",
			JWTIssuer:         "boom-informatique",
			RateLimitRequests: 100,
			RateLimitDuration: time.Minute,
			AllowedOrigins:    []string{"*"},
			SecureHeaders:     false,
		},
		Server: config.ServerConfig{
			Host:         "localhost",
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
	}
}

// Test users

// AdminUser returns an admin principal
func AdminUser() *domain.User {
	return &domain.User{
		ID:          "11111111-1111-1111-1111-111111111111",
		Email:       "admin@boom-informatique.fr",
		Role:        domain.RoleAdmin,
		IsValidated: true,
	}
}

// ProUser returns a validated professional principal
func ProUser() *domain.User {
	return &domain.User{
		ID:          "22222222-2222-2222-2222-222222222222",
		Email:       "achats@reseau-plus.fr",
		Role:        domain.RolePro,
		IsValidated: true,
	}
}

// CustomerUser returns a plain customer principal
func CustomerUser() *domain.User {
	return &domain.User{
		ID:          "33333333-3333-3333-3333-333333333333",
		Email:       "client@example.fr",
		Role:        domain.RoleCustomer,
		IsValidated: false,
	}
}

// CreateTestProduct creates a test product
func CreateTestProduct(overrides ...func(*domain.Product)) *domain.Product {
	product := &domain.Product{
		ID:            1,
		Name:          "Ecran 27\" QHD IPS",
		SKU:           "MON-27-QHD",
		PriceHT:       decimal.NewFromFloat(291.58),
		PriceTTC:      decimal.NewFromFloat(349.90),
		TaxRate:       decimal.NewFromInt(20),
		StockQuantity: 10,
		IsActive:      true,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	for _, override := range overrides {
		override(product)
	}

	return product
}

// CreateTestQuote creates a draft quote with one line
func CreateTestQuote(ownerID string, overrides ...func(*domain.Quote)) *domain.Quote {
	now := time.Now()
	validUntil := now.AddDate(0, 0, 30)

	quote := &domain.Quote{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		QuoteNumber: domain.NewQuoteNumber(now),
		Status:      domain.QuoteStatusDraft,
		ValidUntil:  &validUntil,
		Notes:       "Test quote",
		CreatedAt:   now,
		UpdatedAt:   now,
		Items: []domain.QuoteItem{
			{
				ID:           uuid.New(),
				ProductID:    1,
				ProductName:  "Ecran 27\" QHD IPS",
				ProductSKU:   "MON-27-QHD",
				Quantity:     2,
				UnitPriceHT:  decimal.NewFromFloat(291.58),
				DiscountRate: decimal.Zero,
			},
		},
	}

	totals := domain.ComputeQuoteTotals(quote.Items, domain.DefaultTaxRate)
	quote.SubtotalHT = totals.SubtotalHT
	quote.DiscountAmount = totals.DiscountAmount
	quote.TaxAmount = totals.TaxAmount
	quote.TotalHT = totals.TotalHT

	for _, override := range overrides {
		override(quote)
	}

	return quote
}

// TruncateAllTables clears every commerce table between tests
func TruncateAllTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`TRUNCATE TABLE quote_items, quotes, stock_movements, products, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err, "Could not truncate tables")
}

// InsertTestUser writes a user row so quote foreign keys resolve
func InsertTestUser(t *testing.T, pool *pgxpool.Pool, user *domain.User) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO users (id, email, first_name, last_name, role, is_validated)
		 VALUES ($1, $2, 'Test', 'User', $3, $4)
		 ON CONFLICT (id) DO NOTHING`,
		user.ID, user.Email, user.Role, user.IsValidated)
	require.NoError(t, err, "Could not insert user")
}

// InsertTestProduct writes a product row and returns its generated id
func InsertTestProduct(t *testing.T, pool *pgxpool.Pool, product *domain.Product) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(),
		`INSERT INTO products (name, sku, price_ht, price_ttc, tax_rate, stock_quantity, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		product.Name, product.SKU, product.PriceHT, product.PriceTTC,
		product.TaxRate, product.StockQuantity, product.IsActive).Scan(&id)
	require.NoError(t, err, "Could not insert product")
	return id
}

// CreateTestMovement creates a stock movement
func CreateTestMovement(productID int64, overrides ...func(*domain.StockMovement)) *domain.StockMovement {
	movement := &domain.StockMovement{
		ID:        uuid.New(),
		ProductID: productID,
		Quantity:  5,
		Type:      domain.MovementIn,
		Reference: "PO-2026-001",
		CreatedBy: "test",
		CreatedAt: time.Now(),
	}

	for _, override := range overrides {
		override(movement)
	}

	return movement
}
