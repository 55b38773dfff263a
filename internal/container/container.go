package container

import (
	"github.com/ryanbaill/timetracking-automation/internal/clients"
	"github.com/ryanbaill/timetracking-automation/internal/config"
	"github.com/ryanbaill/timetracking-automation/internal/database"
	"github.com/ryanbaill/timetracking-automation/internal/handlers"
	"github.com/ryanbaill/timetracking-automation/internal/logger"
	"github.com/ryanbaill/timetracking-automation/internal/middleware"
	"github.com/ryanbaill/timetracking-automation/internal/models"
	"github.com/ryanbaill/timetracking-automation/internal/queue"
	"github.com/ryanbaill/timetracking-automation/internal/repositories"
	"github.com/ryanbaill/timetracking-automation/internal/server"
	"github.com/ryanbaill/timetracking-automation/internal/services"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Module provides dependency injection configuration
var Module = fx.Options(
	// Configuration
	fx.Provide(config.LoadConfig),

	// Logging
	fx.Provide(logger.NewLogger),

	// Database
	fx.Provide(database.NewConnection),
	fx.Provide(func(conn *database.Connection) *gorm.DB {
		return conn.DB
	}),
	fx.Provide(database.NewMigrator),
	fx.Provide(database.NewRedisClient),

	// Repositories
	fx.Provide(repositories.NewTimesheetMappingRepository),
	fx.Provide(repositories.NewTaskMappingRepository),
	fx.Provide(repositories.NewJobRecordRepository),
	fx.Provide(repositories.NewBackupEntryRepository),

	// Service clients
	fx.Provide(clients.NewSourceClient),
	fx.Provide(clients.NewTargetClient),

	// Retry queue
	fx.Provide(queue.NewRetryQueue),
	fx.Provide(queue.NewRetryWorker),

	// Services
	fx.Provide(services.NewNotifier),
	fx.Provide(services.NewEntryCreateWorkflow),
	fx.Provide(services.NewEntryUpdateWorkflow),
	fx.Provide(services.NewEntryDeleteWorkflow),
	fx.Provide(services.NewReconciliationService),
	fx.Provide(services.NewCleanupService),
	fx.Provide(services.NewBackupService),

	// Handlers
	fx.Provide(handlers.NewWebhookHandler),
	fx.Provide(handlers.NewSyncHandler),
	fx.Provide(handlers.NewHealthHandler),

	// Middleware
	fx.Provide(middleware.NewAuthenticationMiddleware),

	// Server
	fx.Provide(server.NewServer),

	// Models (for validation)
	fx.Provide(models.NewValidationService),

	// Invoke migrations on startup
	fx.Invoke(func(migrator *database.Migrator) error {
		return migrator.Up()
	}),
)
