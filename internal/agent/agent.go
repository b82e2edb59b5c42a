package agent

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"

	"github.com/mwantia/fabric/pkg/container"
	"github.com/mwantia/poifilters/internal/config"
	"github.com/mwantia/poifilters/pkg/catalog"
	"github.com/mwantia/poifilters/pkg/db/store"
	"github.com/mwantia/poifilters/pkg/log"
	"github.com/mwantia/poifilters/pkg/poi"
	"github.com/mwantia/poifilters/pkg/taxonomy"
)

type Agent struct {
	mutex sync.RWMutex
	wait  sync.WaitGroup

	cfg *config.Config
	sc  *container.ServiceContainer
	log log.LoggerService

	taxonomy *taxonomy.Source
	store    *store.SQLiteStore
	catalog  *catalog.Catalog
}

func NewAgent(cfg *config.Config) *Agent {
	return &Agent{
		cfg: cfg,
		log: log.NewLoggerService("poifilters", cfg.Log),
	}
}

// NewAgentWithLogger is NewAgent with a caller-provided logger.
func NewAgentWithLogger(cfg *config.Config, logger log.LoggerService) *Agent {
	return &Agent{
		cfg: cfg,
		log: logger,
	}
}

// setupServices builds a fresh container for one Open. The store and catalog
// settings are resolved from it so their collaborators and named loggers
// come from the registered services.
func (a *Agent) setupServices(ctx context.Context) (err error) {
	sc := container.NewServiceContainer()
	sc.AddTagProcessor(log.NewLoggerTagProcessor())

	tx, err := taxonomy.Open(a.cfg.Taxonomy.File, a.cfg.Taxonomy.Locale)
	if err != nil {
		return fmt.Errorf("failed to load taxonomy: %w", err)
	}

	errs := container.Errors{}

	a.log.Debug("Registering 'LoggerService'...")
	errs.Add(container.Register[log.LoggerServiceImpl](sc,
		container.With[log.LoggerService](),
		container.WithInstance(a.log)))

	a.log.Debug("Registering 'Taxonomy'...")
	errs.Add(container.Register[taxonomy.Source](sc,
		container.With[poi.Taxonomy](),
		container.WithInstance(tx)))

	errs.Add(container.Register[*store.SQLiteConfig](sc))
	errs.Add(container.Register[*catalog.Config](sc))

	if err := errs.Errors(); err != nil {
		return fmt.Errorf("failed to register services: %w", err)
	}

	storeCfg, err := container.Resolve[*store.SQLiteConfig](ctx, sc)
	if err != nil {
		return fmt.Errorf("failed to resolve store config: %w", err)
	}
	storeCfg.Path = a.cfg.Metadata.SQLite.Path
	storeCfg.LogLevel = store.ParseQueryLog(a.cfg.Metadata.SQLite.QueryLog)

	fs, err := store.NewSQLiteStore(*storeCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			fs.Close()
		}
	}()

	if err := fs.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect filter store: %w", err)
	}
	if err := fs.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate filter store: %w", err)
	}

	a.log.Debug("Registering 'FilterStore'...")
	if err := container.Register[store.SQLiteStore](sc,
		container.With[store.FilterStore](),
		container.WithInstance(fs)); err != nil {
		return fmt.Errorf("failed to register filter store: %w", err)
	}

	catCfg, err := container.Resolve[*catalog.Config](ctx, sc)
	if err != nil {
		return fmt.Errorf("failed to resolve catalog config: %w", err)
	}
	catCfg.Locale = tx.Locale()

	cat, err := catalog.New(*catCfg)
	if err != nil {
		return err
	}

	a.sc = sc
	a.taxonomy = tx
	a.store = fs
	a.catalog = cat
	return nil
}

// Open loads the taxonomy, connects and migrates the store and builds the catalog.
func (a *Agent) Open(ctx context.Context) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.catalog != nil {
		return nil
	}
	if err := a.setupServices(ctx); err != nil {
		return err
	}

	a.log.Debug("Opened filter store '%s' (locale %s)", a.cfg.Metadata.SQLite.Path, a.taxonomy.Locale())
	return nil
}

func (a *Agent) Catalog() *catalog.Catalog {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	return a.catalog
}

func (a *Agent) Taxonomy() *taxonomy.Source {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	return a.taxonomy
}

// Close releases the container services and the store. The agent can be
// opened again afterwards.
func (a *Agent) Close(ctx context.Context) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	errs := container.Errors{}
	if a.sc != nil {
		if err := a.sc.Cleanup(ctx); err != nil {
			errs.Add(fmt.Errorf("failed to complete service container cleanup: %w", err))
		}
		a.sc = nil
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs.Add(fmt.Errorf("failed to close filter store: %w", err))
		}
		a.store = nil
	}
	a.catalog = nil
	return errs.Errors()
}

// Serve opens the agent and keeps the catalog in sync with the taxonomy file
// until ctx is done or an interrupt arrives.
func (a *Agent) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	if err := a.Open(ctx); err != nil {
		return err
	}

	if a.cfg.Taxonomy.Watch && a.cfg.Taxonomy.File != "" {
		watcher, err := a.watchTaxonomy(ctx)
		if err != nil {
			return err
		}
		defer watcher.Close()
	}

	top := a.Catalog().ListTop(ctx)
	a.log.Info("Serving %d filters", len(top))

	<-ctx.Done()

	shutdown, cancel := context.WithTimeout(context.Background(), a.cfg.Shutdown())
	defer cancel()

	a.wait.Wait()
	return a.Close(shutdown)
}
