package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"nexus/internal/domain/account"
	"nexus/internal/domain/bankmsg"
	"nexus/internal/domain/category"
	"nexus/internal/domain/digest"
	"nexus/internal/domain/metrics"
	"nexus/internal/domain/notification"
	"nexus/internal/domain/recurring"
	"nexus/internal/domain/transaction"
	"nexus/internal/infrastructure/ai"
	"nexus/internal/infrastructure/firebase"
	"nexus/internal/infrastructure/memory"
	"nexus/internal/infrastructure/postgres"
	httphandlers "nexus/internal/interfaces/http"
	"nexus/internal/interfaces/scheduler"
	"nexus/internal/shared/auth"
	"nexus/internal/shared/config"
	"nexus/internal/shared/messages"
	"nexus/internal/shared/telemetry"
)

// storage is one backend's set of repositories
type storage struct {
	accounts      account.Repository
	transactions  transaction.Repository
	recurring     recurring.Repository
	categories    category.Repository
	messages      bankmsg.Repository
	notifications notification.Repository
	metrics       metrics.Source
	tx            transaction.Transactor
	close         func() error
}

// Dependencies holds all initialized application components.
type Dependencies struct {
	storage *storage

	// Handlers
	AccountHandler      *httphandlers.AccountHandler
	TransactionHandler  *httphandlers.TransactionHandler
	RecurringHandler    *httphandlers.RecurringHandler
	CategoryHandler     *httphandlers.CategoryHandler
	DashboardHandler    *httphandlers.DashboardHandler
	BankMessageHandler  *httphandlers.BankMessageHandler
	NotificationHandler *httphandlers.NotificationHandler

	// Auth
	JWT *auth.JWT

	// Scheduler is nil when disabled
	Scheduler *scheduler.Scheduler

	// Telemetry is nil when OTEL_ENABLED is off
	Telemetry *telemetry.Provider
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	if cfg.Storage.Driver == config.StorageMemory {
		log.Println("Using in-memory storage, data is lost on restart")
		store := memory.New()
		return &storage{
			accounts:      store.Accounts(),
			transactions:  store.Transactions(),
			recurring:     store.Recurring(),
			categories:    store.Categories(),
			messages:      store.Messages(),
			notifications: store.Notifications(),
			metrics:       store,
			tx:            store,
			close:         func() error { return nil },
		}, nil
	}

	db, err := postgres.New(cfg.Database.ConnectionString(), postgres.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}
	log.Println("Connected to database")

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		log.Println("Database schema is up to date")
	}

	return &storage{
		accounts:      postgres.NewAccountRepository(db),
		transactions:  postgres.NewTransactionRepository(db),
		recurring:     postgres.NewRecurringRepository(db),
		categories:    postgres.NewCategoryRepository(db),
		messages:      postgres.NewMessageRepository(db),
		notifications: postgres.NewNotificationRepository(db),
		metrics:       postgres.NewMetricsSource(db),
		tx:            db,
		close:         db.Close,
	}, nil
}

// NewDependencies initializes all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config) (deps *Dependencies, err error) {
	// Providers go in first so the traced DB and worker pool pick them up
	var tel *telemetry.Provider
	if cfg.Telemetry.Enabled {
		tel, err = telemetry.Init(ctx, telemetry.Config{
			ServiceName:  cfg.Telemetry.ServiceName,
			Environment:  cfg.Telemetry.Environment,
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
			SampleRatio:  cfg.Telemetry.SampleRatio,
		})
		if err != nil {
			return nil, err
		}
		defer func() {
			if err != nil {
				shutdownTelemetry(tel)
			}
		}()
	}

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// Push delivery is optional. Without credentials pushes are only logged.
	var messenger notification.Messenger
	if cfg.Firebase.CredentialsFile != "" {
		fcm, err := firebase.NewClient(ctx, cfg.Firebase.CredentialsFile)
		if err != nil {
			store.close()
			return nil, err
		}
		messenger = fcm
		log.Println("Firebase Cloud Messaging enabled")
	}

	var suggesters []bankmsg.Suggester
	if cfg.AI.APIKey != "" {
		suggesters = append(suggesters, ai.New(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model, cfg.AI.Timeout))
		log.Printf("AI category suggestions enabled (model=%s)", cfg.AI.Model)
	}

	// Initialize domain services
	accountService := account.NewService(store.accounts)
	transactionService := transaction.NewService(store.transactions, store.accounts, store.tx)
	recurringService := recurring.NewService(store.recurring, accountService, transactionService, store.tx)
	categoryService := category.NewService(store.categories)
	messageService := bankmsg.NewService(store.messages, categoryService, transactionService, store.tx, suggesters...)
	notificationService := notification.NewService(store.notifications, messenger)
	composer := digest.NewComposer(metrics.NewEngine(store.metrics))

	deps = &Dependencies{
		storage:             store,
		Telemetry:           tel,
		AccountHandler:      httphandlers.NewAccountHandler(accountService),
		TransactionHandler:  httphandlers.NewTransactionHandler(transactionService),
		RecurringHandler:    httphandlers.NewRecurringHandler(recurringService, cfg.Clock),
		CategoryHandler:     httphandlers.NewCategoryHandler(categoryService),
		DashboardHandler:    httphandlers.NewDashboardHandler(composer, cfg.Clock),
		BankMessageHandler:  httphandlers.NewBankMessageHandler(messageService),
		NotificationHandler: httphandlers.NewNotificationHandler(notificationService),
		JWT:                 auth.NewJWT(cfg.JWT.Secret, cfg.JWT.TTL),
	}

	if !cfg.Scheduler.Enabled {
		log.Println("Scheduler is disabled")
		return deps, nil
	}

	providers := []scheduler.JobProvider{scheduler.RecurringJobs(recurringService, cfg.Clock)}
	if cfg.Digest.Enabled {
		catalog := messages.Default()
		if cfg.Digest.MessagesFile != "" {
			catalog, err = messages.Load(cfg.Digest.MessagesFile)
			if err != nil {
				store.close()
				return nil, err
			}
		}
		publisher := digest.NewPublisher(composer, notificationService, catalog, cfg.Digest.Days)
		providers = append(providers, scheduler.DigestJobs(publisher, notificationService, cfg.Clock))
	}

	deps.Scheduler, err = scheduler.New(scheduler.Config{
		ScheduleTimes: cfg.Scheduler.ScheduleTimes,
		WorkerCount:   cfg.Scheduler.WorkerCount,
		JobDelay:      cfg.Scheduler.JobDelay,
		QueueSize:     cfg.Scheduler.QueueSize,
		RunOnStartup:  cfg.Scheduler.RunOnStartup,
		Location:      cfg.Clock.Location,
		Providers:     providers,
	})
	if err != nil {
		store.close()
		return nil, err
	}

	return deps, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.storage != nil {
		if err := d.storage.close(); err != nil {
			log.Printf("Error closing storage: %v", err)
		}
	}
	if d.Telemetry != nil {
		shutdownTelemetry(d.Telemetry)
	}
}

func shutdownTelemetry(p *telemetry.Provider) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down telemetry: %v", err)
	}
}
