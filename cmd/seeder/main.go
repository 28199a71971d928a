// cmd/seeder/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kkzakaria/boom-informatique-sub001/internal/core/domain"
	"github.com/kkzakaria/boom-informatique-sub001/internal/pkg/auth"
	"github.com/kkzakaria/boom-informatique-sub001/internal/pkg/config"
	"github.com/kkzakaria/boom-informatique-sub001/internal/pkg/logger"
)

type seedProduct struct {
	Name        string
	SKU         string
	Description string
	PriceHT     decimal.Decimal
	Stock       int
}

type seedUser struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	Company   string
	Phone     string
	Role      string
	Validated bool
}

func main() {
	var (
		reset      = flag.Bool("reset", false, "truncate commerce tables before seeding")
		withQuotes = flag.Bool("quotes", true, "seed sample quotes")
		printToken = flag.Bool("tokens", false, "print development bearer tokens for the seeded users")
	)
	flag.Parse()

	slogger := logger.SetupLogger("info", "text")

	cfg, err := config.Load(slogger.Logger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.IsProduction() {
		slogger.Error("seeder refuses to run against production")
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.GetDatabaseURL())
	if err != nil {
		slogger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	s := &seeder{pool: pool, cfg: cfg, logger: slogger.Logger, now: time.Now()}

	if *reset {
		if err := s.truncate(ctx); err != nil {
			slogger.Error("failed to reset tables", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	users := defaultUsers()
	if err := s.seedUsers(ctx, users); err != nil {
		slogger.Error("failed to seed users", slog.String("error", err.Error()))
		os.Exit(1)
	}

	products := defaultProducts()
	if err := s.seedProducts(ctx, products); err != nil {
		slogger.Error("failed to seed products", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *withQuotes {
		if err := s.seedQuotes(ctx, users, products); err != nil {
			slogger.Error("failed to seed quotes", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	if *printToken {
		printTokens(cfg, users)
	}

	slogger.Info("seeding complete",
		slog.Int("users", len(users)),
		slog.Int("products", len(products)))
}

type seeder struct {
	pool   *pgxpool.Pool
	cfg    *config.Config
	logger *slog.Logger
	now    time.Time
}

func (s *seeder) truncate(ctx context.Context) error {
	s.logger.Info("truncating commerce tables")
	_, err := s.pool.Exec(ctx,
		`TRUNCATE quote_items, quotes, stock_movements, products, users RESTART IDENTITY CASCADE`)
	return err
}

func (s *seeder) seedUsers(ctx context.Context, users []seedUser) error {
	for _, u := range users {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO users (id, email, first_name, last_name, company_name, phone, role, is_validated, created_at, updated_at)
			VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9, $9)
			ON CONFLICT (id) DO NOTHING`,
			u.ID, u.Email, u.FirstName, u.LastName, u.Company, u.Phone, u.Role, u.Validated, s.now)
		if err != nil {
			return fmt.Errorf("user %s: %w", u.Email, err)
		}
	}
	s.logger.Info("users seeded", slog.Int("count", len(users)))
	return nil
}

func (s *seeder) seedProducts(ctx context.Context, products []seedProduct) error {
	taxRate := decimal.NewFromFloat(s.cfg.Commerce.DefaultTaxRate)
	multiplier := decimal.NewFromInt(1).Add(taxRate.Div(decimal.NewFromInt(100)))

	for _, p := range products {
		priceTTC := domain.RoundMoney(p.PriceHT.Mul(multiplier))
		_, err := s.pool.Exec(ctx, `
			INSERT INTO products (name, sku, description, price_ht, price_ttc, tax_rate, stock_quantity, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, 0, true, $7, $7)
			ON CONFLICT (sku) DO NOTHING`,
			p.Name, p.SKU, p.Description, p.PriceHT, priceTTC, taxRate, s.now)
		if err != nil {
			return fmt.Errorf("product %s: %w", p.SKU, err)
		}

		// Initial stock arrives through the ledger so the counter and
		// the movement history agree from day one.
		if p.Stock > 0 {
			if err := s.recordInitialStock(ctx, p.SKU, p.Stock); err != nil {
				return fmt.Errorf("product %s stock: %w", p.SKU, err)
			}
		}
	}
	s.logger.Info("products seeded", slog.Int("count", len(products)))
	return nil
}

func (s *seeder) recordInitialStock(ctx context.Context, sku string, quantity int) error {
	var productID int64
	if err := s.pool.QueryRow(ctx, `SELECT id FROM products WHERE sku = $1`, sku).Scan(&productID); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO stock_movements (id, product_id, quantity, movement_type, reference, notes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.New(), productID, quantity, domain.MovementIn, "SEED", "Initial stock", "seeder", s.now)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `UPDATE products SET stock_quantity = stock_quantity + $2, updated_at = $3 WHERE id = $1`,
		productID, quantity, s.now)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *seeder) seedQuotes(ctx context.Context, users []seedUser, products []seedProduct) error {
	var pro *seedUser
	for i := range users {
		if users[i].Role == domain.RolePro {
			pro = &users[i]
			break
		}
	}
	if pro == nil || len(products) < 2 {
		return nil
	}

	taxRate := decimal.NewFromFloat(s.cfg.Commerce.DefaultTaxRate)
	validUntil := s.now.AddDate(0, 0, s.cfg.Commerce.QuoteValidityDays)

	items := []domain.QuoteItem{
		{
			ID:           uuid.New(),
			ProductID:    1,
			ProductName:  products[0].Name,
			ProductSKU:   products[0].SKU,
			Quantity:     2,
			UnitPriceHT:  products[0].PriceHT,
			DiscountRate: decimal.NewFromInt(5),
		},
		{
			ID:           uuid.New(),
			ProductID:    2,
			ProductName:  products[1].Name,
			ProductSKU:   products[1].SKU,
			Quantity:     1,
			UnitPriceHT:  products[1].PriceHT,
			DiscountRate: decimal.Zero,
		},
	}
	totals := domain.ComputeQuoteTotals(items, taxRate)

	quoteID := uuid.New()
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO quotes (id, owner_id, quote_number, status, valid_until, subtotal_ht, discount_amount, tax_amount, total_ht, notes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`,
			quoteID, pro.ID, domain.NewQuoteNumber(s.now), domain.QuoteStatusDraft, validUntil,
			totals.SubtotalHT, totals.DiscountAmount, totals.TaxAmount, totals.TotalHT,
			"Seeded sample quote", s.now)
		if err != nil {
			return err
		}
		for _, item := range items {
			_, err := tx.Exec(ctx, `
				INSERT INTO quote_items (id, quote_id, product_id, product_name, product_sku, quantity, unit_price_ht, discount_rate)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				item.ID, quoteID, item.ProductID, item.ProductName, item.ProductSKU,
				item.Quantity, item.UnitPriceHT, item.DiscountRate)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("sample quote seeded", slog.String("quote_id", quoteID.String()))
	return nil
}

func printTokens(cfg *config.Config, users []seedUser) {
	for _, u := range users {
		token, err := auth.Generate(cfg.Security.JWTSecret, cfg.Security.JWTIssuer, &domain.User{
			ID:          u.ID,
			Email:       u.Email,
			Role:        u.Role,
			IsValidated: u.Validated,
		}, 24*time.Hour)
		if err != nil {
			fmt.Fprintf(os.Stderr, "token for %s: %v\n", u.Email, err)
			continue
		}
		fmt.Printf("%s (%s):\n  %s\n", u.Email, u.Role, token)
	}
}

func defaultUsers() []seedUser {
	return []seedUser{
		{
			ID:        "11111111-1111-1111-1111-111111111111",
			Email:     "admin@boom-informatique.fr",
			FirstName: "Awa",
			LastName:  "Diabate",
			Role:      domain.RoleAdmin,
			Validated: true,
		},
		{
			ID:        "22222222-2222-2222-2222-222222222222",
			Email:     "achats@reseau-plus.fr",
			FirstName: "Karim",
			LastName:  "Toure",
			Company:   "Reseau Plus SARL",
			Phone:     "+33 1 44 55 66 77",
			Role:      domain.RolePro,
			Validated: true,
		},
		{
			ID:        "33333333-3333-3333-3333-333333333333",
			Email:     "client@example.fr",
			FirstName: "Marie",
			LastName:  "Dupont",
			Role:      domain.RoleCustomer,
			Validated: false,
		},
	}
}

func defaultProducts() []seedProduct {
	return []seedProduct{
		{
			Name:        "PC Portable Pro 15\" i7 32Go",
			SKU:         "NB-PRO-15-I7",
			Description: "Portable professionnel 15 pouces, Core i7, 32 Go RAM, SSD 1 To",
			PriceHT:     decimal.NewFromFloat(1249.17),
			Stock:       24,
		},
		{
			Name:        "Ecran 27\" QHD IPS",
			SKU:         "MON-27-QHD",
			Description: "Moniteur 27 pouces QHD, dalle IPS, pied reglable",
			PriceHT:     decimal.NewFromFloat(291.58),
			Stock:       60,
		},
		{
			Name:        "Station d'accueil USB-C",
			SKU:         "DOCK-USBC-90W",
			Description: "Station d'accueil USB-C, charge 90W, double sortie video",
			PriceHT:     decimal.NewFromFloat(149.92),
			Stock:       85,
		},
		{
			Name:        "SSD NVMe 2To",
			SKU:         "SSD-NVME-2TB",
			Description: "SSD NVMe PCIe 4.0, 2 To, lecture 7000 Mo/s",
			PriceHT:     decimal.NewFromFloat(166.58),
			Stock:       120,
		},
		{
			Name:        "Serveur Tour Xeon 64Go",
			SKU:         "SRV-TWR-XE-64",
			Description: "Serveur tour, Xeon E-2388G, 64 Go ECC, 2x2 To",
			PriceHT:     decimal.NewFromFloat(2915.83),
			Stock:       6,
		},
		{
			Name:        "Switch 24 ports Gigabit PoE",
			SKU:         "SW-24G-POE",
			Description: "Switch manageable 24 ports Gigabit PoE+, 2 SFP",
			PriceHT:     decimal.NewFromFloat(374.92),
			Stock:       18,
		},
		{
			Name:        "Clavier mecanique AZERTY",
			SKU:         "KB-MECA-FR",
			Description: "Clavier mecanique AZERTY, switches marrons, retroeclaire",
			PriceHT:     decimal.NewFromFloat(74.92),
			Stock:       140,
		},
		{
			Name:        "Onduleur 1500VA",
			SKU:         "UPS-1500VA",
			Description: "Onduleur line-interactive 1500VA, 8 prises, USB",
			PriceHT:     decimal.NewFromFloat(207.50),
			Stock:       32,
		},
	}
}
