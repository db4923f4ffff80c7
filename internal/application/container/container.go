// Package container provides dependency injection for all singleton services
package container

import (
	"fmt"

	"github.com/VendorLens/vendorlens-go/internal/application/services"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/caching/manager"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/messaging"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/observability/logging"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/observability/performance"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/persistence/database"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/persistence/store"
	"github.com/VendorLens/vendorlens-go/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// UI-state services (stateless singletons)
	SessionService    *services.SessionService
	SettingsService   *services.SettingsService
	NavigationService *services.NavigationService
	RestoreService    *services.RestoreService

	// Infrastructure Dependencies
	Logger         *logging.ChanneledLogger
	PerfTracker    *performance.Tracker
	CacheManager   *manager.Manager
	DB             *database.DB
	Store          store.Store
	OpsBroadcaster *messaging.OpsBroadcaster
	LogBroadcaster *logging.LogBroadcaster
}

// NewContainer creates and wires all singleton services
func NewContainer() (*Container, error) {
	logger, err := logging.NewChanneledLogger(logging.DefaultLoggerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	perfTracker := performance.NewTracker(performance.DefaultTrackerConfig())
	cacheManager := manager.NewManager(logger)

	db, err := database.NewConnectionWithLogger(config.DBDriver, config.DBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlStore, err := store.NewSQLStore(db, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize UI-state store: %w", err)
	}

	// The restore service must share the navigation service instance so both
	// operate on the same generation counters.
	navigationService := services.NewNavigationService(cacheManager, sqlStore, logger, perfTracker)

	return &Container{
		SessionService:    services.NewSessionService(cacheManager, sqlStore, logger, perfTracker),
		SettingsService:   services.NewSettingsService(cacheManager, sqlStore, logger, perfTracker),
		NavigationService: navigationService,
		RestoreService:    services.NewRestoreService(cacheManager, navigationService, logger, perfTracker),

		Logger:         logger,
		PerfTracker:    perfTracker,
		CacheManager:   cacheManager,
		DB:             db,
		Store:          sqlStore,
		OpsBroadcaster: messaging.NewOpsBroadcaster(cacheManager),
		LogBroadcaster: logging.GetBroadcaster(),
	}, nil
}

// Close releases all container-held resources.
func (c *Container) Close() error {
	if c.LogBroadcaster != nil {
		c.LogBroadcaster.Shutdown()
	}
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			return err
		}
	}
	if c.Logger != nil {
		return c.Logger.Close()
	}
	return nil
}
