package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/healthcare-booking/internal/accounts"
	"github.com/wolfman30/healthcare-booking/internal/api/router"
	"github.com/wolfman30/healthcare-booking/internal/availability"
	"github.com/wolfman30/healthcare-booking/internal/bookings"
	"github.com/wolfman30/healthcare-booking/internal/catalog"
	appconfig "github.com/wolfman30/healthcare-booking/internal/config"
	"github.com/wolfman30/healthcare-booking/internal/events"
	"github.com/wolfman30/healthcare-booking/internal/intake"
	"github.com/wolfman30/healthcare-booking/internal/notify"
	"github.com/wolfman30/healthcare-booking/internal/payments"
	"github.com/wolfman30/healthcare-booking/internal/reminders"
	"github.com/wolfman30/healthcare-booking/internal/settings"
	"github.com/wolfman30/healthcare-booking/pkg/logging"
)

// Deps are the external connections the API runs on. Nil fields select the
// in-memory fallbacks.
type Deps struct {
	Pool  *pgxpool.Pool
	Redis *redis.Client
	AWS   *aws.Config
}

// App is the fully wired API process.
type App struct {
	Handler   http.Handler
	Settings  *settings.Settings
	Reminders *reminders.Scheduler

	sqlDB *sql.DB
}

// Close releases resources owned by the App. Deps stay open.
func (a *App) Close() {
	if a.sqlDB != nil {
		_ = a.sqlDB.Close()
	}
}

type repositories struct {
	services catalog.Repository
	bookings interface {
		bookings.Repository
		bookings.PrescriptionRepository
	}
	accounts  accounts.Repository
	processed interface {
		AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error)
		MarkProcessed(ctx context.Context, provider, eventID string) (bool, error)
	}
}

func buildRepositories(pool *pgxpool.Pool, logger *logging.Logger) repositories {
	if pool == nil {
		logger.Warn("DATABASE_URL not set; using in-memory repositories")
		services := catalog.NewInMemoryRepository()
		catalog.SeedInMemory(services)
		return repositories{
			services:  services,
			bookings:  bookings.NewInMemoryRepository(),
			accounts:  accounts.NewInMemoryRepository(),
			processed: events.NewMemoryProcessedStore(),
		}
	}
	return repositories{
		services:  catalog.NewPostgresRepository(pool),
		bookings:  bookings.NewPostgresRepository(pool),
		accounts:  accounts.NewPostgresRepository(pool),
		processed: events.NewProcessedStore(pool),
	}
}

// Build wires every component from configuration.
func Build(ctx context.Context, cfg *appconfig.Config, deps Deps, logger *logging.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	app := &App{}
	loc := cfg.Location()

	site := settings.Defaults(cfg)
	if deps.Pool != nil {
		app.sqlDB = stdlib.OpenDBFromPool(deps.Pool)
		loaded, err := settings.NewStore(app.sqlDB).Load(ctx, site)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("bootstrap: load settings: %w", err)
		}
		site = loaded
	}
	app.Settings = site

	repos := buildRepositories(deps.Pool, logger)
	metricsHandler, bookingMetrics := BuildMetrics()

	sender, provider := BuildEmailSender(cfg, deps.AWS, logger)
	logger.Info("email sender configured", "provider", provider)
	dispatcher := notify.NewDispatcher(sender, site, bookingMetrics, logger)

	opts := []bookings.Option{
		bookings.WithNotifier(dispatcher),
		bookings.WithMetrics(bookingMetrics),
		bookings.WithLocation(loc),
	}
	if cfg.SlotLockingEnabled && deps.Redis != nil {
		opts = append(opts, bookings.WithSlotLocker(availability.NewRedisSlotLocker(deps.Redis, cfg.SlotLockTTL)))
		logger.Info("slot locking enabled", "ttl", cfg.SlotLockTTL)
	}
	bookingSvc := bookings.NewService(repos.bookings, repos.services, site, logger, opts...)

	blobs, err := BuildBlobStore(cfg, deps.AWS, logger)
	if err != nil {
		app.Close()
		return nil, err
	}
	prescriptions := bookings.NewPrescriptionService(repos.bookings, repos.bookings, blobs, logger)

	tokens := accounts.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)
	var sessions intake.Store
	if deps.Redis != nil {
		sessions = intake.NewRedisStore(deps.Redis, cfg.IntakeTTL)
	} else {
		sessions = intake.NewMemoryStore(cfg.IntakeTTL)
	}
	wizard := intake.NewWizard(sessions, repos.services, bookingSvc, intake.Options{
		CollectGender:     cfg.IntakeCollectGender,
		CollectDate:       cfg.IntakeCollectDate,
		CollectTime:       cfg.IntakeCollectTime,
		ProvisionAccounts: cfg.IntakeProvisionAccounts,
	}, logger, intake.WithAccounts(repos.accounts, accounts.NewProvisioner(repos.accounts, logger), tokens))

	gateway := payments.NewGateway(site.Payment, bookingMetrics, logger)
	if !gateway.Configured() {
		logger.Warn("razorpay credentials not configured; online payments will fail")
	}

	app.Handler = router.New(&router.Config{
		Logger:             logger,
		Catalog:            catalog.NewHandler(repos.services, logger),
		Availability:       availability.NewHandler(bookingSvc.Checker(), logger),
		Bookings:           bookings.NewHandler(bookingSvc, prescriptions, logger),
		AdminBookings:      bookings.NewAdminHandler(bookingSvc, logger),
		Intake:             intake.NewHandler(wizard, cfg.IntakeTTL, cfg.Env == "production", logger),
		Payments:           payments.NewHandler(gateway, bookingSvc, site, logger),
		Webhooks:           payments.NewWebhookHandler(gateway, bookingSvc, repos.processed, bookingMetrics, logger),
		PublicSettings:     settings.NewPublicHandler(site),
		MetricsHandler:     metricsHandler,
		Settings:           site,
		AccountTokens:      tokens,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	if site.Site.SendReminderNotifications {
		job := reminders.NewJob(repos.bookings, dispatcher, loc, logger)
		scheduler, err := reminders.NewScheduler(job, cfg.ReminderCron, loc, logger)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Reminders = scheduler
	}

	return app, nil
}
