package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FACorreiaa/income-tracker/internal/domain/categorization"
	incomehandler "github.com/FACorreiaa/income-tracker/internal/domain/income/handler"
	incomerepo "github.com/FACorreiaa/income-tracker/internal/domain/income/repository"
	incomeservice "github.com/FACorreiaa/income-tracker/internal/domain/income/service"
	ingesthandler "github.com/FACorreiaa/income-tracker/internal/domain/ingest/handler"
	ingestservice "github.com/FACorreiaa/income-tracker/internal/domain/ingest/service"
	"github.com/FACorreiaa/income-tracker/internal/domain/insights"
	insightshandler "github.com/FACorreiaa/income-tracker/internal/domain/insights/handler"
	waitlisthandler "github.com/FACorreiaa/income-tracker/internal/domain/waitlist/handler"
	waitlistrepo "github.com/FACorreiaa/income-tracker/internal/domain/waitlist/repository"
	waitlistservice "github.com/FACorreiaa/income-tracker/internal/domain/waitlist/service"
	"github.com/FACorreiaa/income-tracker/pkg/config"
	"github.com/FACorreiaa/income-tracker/pkg/cron"
	"github.com/FACorreiaa/income-tracker/pkg/db"
	"github.com/FACorreiaa/income-tracker/pkg/storage"
)

// Dependencies holds every wired application component.
type Dependencies struct {
	Config *config.Config
	Logger *slog.Logger
	Pool   *pgxpool.Pool

	// Repositories
	IncomeRepo   *incomerepo.PostgresIncomeRepository
	WaitlistRepo *waitlistrepo.PostgresWaitlistRepository

	// Services
	CategorizationService *categorization.Service
	IngestService         *ingestservice.Service
	IncomeService         *incomeservice.Service
	InsightsService       *insights.Service
	WaitlistService       *waitlistservice.WaitlistService
	FileStorage           storage.Storage

	// Handlers
	IngestHandler   *ingesthandler.IngestHandler
	IncomeHandler   *incomehandler.IncomeHandler
	InsightsHandler *insightshandler.InsightsHandler
	WaitlistHandler *waitlisthandler.WaitlistHandler

	Scheduler *cron.Scheduler
}

// InitDependencies connects the database, runs migrations, and wires
// repositories, services, and handlers together.
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := db.RunMigrations(cfg.Database.DSN(), logger); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	pool, err := db.New(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	deps.Pool = pool

	deps.IncomeRepo = incomerepo.NewPostgresIncomeRepository(pool)
	deps.WaitlistRepo = waitlistrepo.NewPostgresWaitlistRepository(pool)

	if err := deps.initServices(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	deps.initHandlers()

	deps.Scheduler = cron.NewScheduler(pool, deps.WaitlistRepo, logger)

	logger.Info("all dependencies initialized")
	return deps, nil
}

func (d *Dependencies) initServices(ctx context.Context) error {
	d.CategorizationService = categorization.NewService(d.Logger)
	if d.Config.Gemini.APIKey != "" {
		classifier, err := categorization.NewGeminiClassifier(ctx, d.Config.Gemini.Model)
		if err != nil {
			return fmt.Errorf("failed to init gemini classifier: %w", err)
		}
		d.CategorizationService.WithClassifier(classifier)
	}

	d.IngestService = ingestservice.NewService(d.IncomeRepo, d.Logger).
		WithCategorizationService(newCategorizationAdapter(d.CategorizationService))

	d.IncomeService = incomeservice.NewService(d.IncomeRepo)

	d.InsightsService = insights.NewService(d.IncomeRepo, d.Logger)
	if d.Config.Gemini.APIKey != "" {
		model, err := insights.NewNarrativeModel(ctx, d.Config.Gemini.Model)
		if err != nil {
			return fmt.Errorf("failed to init narrative model: %w", err)
		}
		d.InsightsService.WithNarrativeModel(model)
	}

	d.WaitlistService = waitlistservice.NewWaitlistService(
		d.WaitlistRepo,
		d.Config.Email.ResendAPIKey,
		d.Config.Email.FromEmail,
		d.Logger,
	)

	fileStorage, err := storage.NewLocalStorage(d.Config.Storage.UploadDir)
	if err != nil {
		return fmt.Errorf("failed to init file storage: %w", err)
	}
	d.FileStorage = fileStorage

	d.Logger.Info("services initialized")
	return nil
}

func (d *Dependencies) initHandlers() {
	d.IngestHandler = ingesthandler.NewIngestHandler(d.IngestService, d.Logger).
		WithStorage(d.FileStorage)
	d.IncomeHandler = incomehandler.NewIncomeHandler(d.IncomeService, d.Logger)
	d.InsightsHandler = insightshandler.NewInsightsHandler(d.InsightsService, d.Logger)
	d.WaitlistHandler = waitlisthandler.NewWaitlistHandler(d.WaitlistService, d.Logger)
}

// Close releases the database pool.
func (d *Dependencies) Close() {
	if d.Pool != nil {
		d.Pool.Close()
	}
}
