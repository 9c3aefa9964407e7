// Command seed creates a demo store (company, staff, catalog, customers and a
// few sales on installments) so a fresh database has something to look at.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin/binding"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	appbilling "github.com/retailpos/backend/internal/application/billing"
	catalogapp "github.com/retailpos/backend/internal/application/catalog"
	identityapp "github.com/retailpos/backend/internal/application/identity"
	partnerapp "github.com/retailpos/backend/internal/application/partner"
	salesapp "github.com/retailpos/backend/internal/application/sales"
	"github.com/retailpos/backend/internal/infrastructure/auth"
	"github.com/retailpos/backend/internal/infrastructure/config"
	"github.com/retailpos/backend/internal/infrastructure/logger"
	"github.com/retailpos/backend/internal/infrastructure/persistence"
	"github.com/retailpos/backend/internal/infrastructure/persistence/models"
	"github.com/retailpos/backend/internal/interfaces/http/middleware"
)

type options struct {
	file     string
	logLevel string
	dryRun   bool
}

func main() {
	opts := &options{}
	root := &cobra.Command{
		Use:   "seed",
		Short: "Load a demo store into the Retail POS database",
		Long: "Creates a company with its admin, extra users, products, customers, sales and\n" +
			"payments from a YAML dataset. Without --file the bundled demo store is used.\n" +
			"PostgreSQL databases must be migrated first (see the migrate command).",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
	root.Flags().StringVarP(&opts.file, "file", "f", "", "YAML dataset to load instead of the bundled demo")
	root.Flags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.Flags().BoolVar(&opts.dryRun, "dry-run", false, "parse and check the dataset without touching the database")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *options) error {
	log, err := logger.New(&logger.Config{
		Level:      opts.logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ds, err := LoadDataset(opts.file)
	if err != nil {
		return err
	}
	if opts.dryRun {
		log.Info("Dataset is valid",
			zap.String("company", ds.Company.Name),
			zap.Int("products", len(ds.Products)),
			zap.Int("customers", len(ds.Customers)),
			zap.Int("sales", len(ds.Sales)))
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, logger.GormLevel(opts.logLevel))
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = db.Close() }()
	if !db.IsPostgres() {
		if err := db.DB.AutoMigrate(models.All()...); err != nil {
			return fmt.Errorf("migrate sqlite schema: %w", err)
		}
	}

	middleware.SetupValidator()

	companyRepo := persistence.NewGormCompanyRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	installmentRepo := persistence.NewGormInstallmentRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)
	jwtService := auth.NewJWTService(cfg.JWT)
	blacklist := auth.NewInMemoryTokenBlacklist()

	seeder := &Seeder{
		Auth: identityapp.NewAuthService(companyRepo, userRepo,
			persistence.NewGormRegistrationScope(db.DB), jwtService, blacklist, log),
		Companies:    identityapp.NewCompanyService(companyRepo, log),
		Users:        identityapp.NewUserService(userRepo, jwtService, blacklist, log),
		Products:     catalogapp.NewProductService(persistence.NewGormProductRepository(db.DB), log),
		Customers:    partnerapp.NewCustomerService(customerRepo, installmentRepo, log),
		Sales:        salesapp.NewSaleService(persistence.NewGormSaleRepository(db.DB), installmentRepo, txScope, log),
		Installments: appbilling.NewInstallmentService(installmentRepo, customerRepo, txScope, log),
		Validate:     binding.Validator.ValidateStruct,
		Logger:       log,
	}

	sum, err := seeder.Run(ctx, ds)
	if err != nil {
		return err
	}
	log.Info("Seed completed",
		zap.String("tenant_id", sum.TenantID.String()),
		zap.String("admin", ds.Admin.Username),
		zap.Int("users", sum.Users),
		zap.Int("products", sum.Products),
		zap.Int("customers", sum.Customers),
		zap.Int("sales", sum.Sales),
		zap.Int("payments", sum.Payments))
	return nil
}
