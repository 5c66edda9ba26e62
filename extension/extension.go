// Package extension provides the Forge extension adapter for the invoicing
// engine.
//
// It implements the forge.Extension interface to integrate invoicing
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.invoicing" or
// "invoicing" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/invoicing"
	"github.com/xraph/invoicing/invoice"
	"github.com/xraph/invoicing/store"
	"github.com/xraph/invoicing/store/memory"
	mongostore "github.com/xraph/invoicing/store/mongo"
	"github.com/xraph/invoicing/store/sqlstore"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "invoicing"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Invoice lifecycle and ledger engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the invoicing engine as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *invoicing.Engine
	store      store.Store
	engineOpts []invoicing.Option
}

// New creates a new invoicing Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying invoicing engine.
// This is nil until Register is called.
func (e *Extension) Engine() *invoicing.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the invoicing engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Only build a store from config when none was provided programmatically.
	if e.store == nil {
		s, err := e.buildStore(context.Background())
		if err != nil {
			return err
		}
		e.store = s
	}

	eng := invoicing.New(e.store, e.buildEngineOpts()...)
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*invoicing.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("invoicing: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("invoicing: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildStore constructs the storage backend selected by the resolved config.
func (e *Extension) buildStore(ctx context.Context) (store.Store, error) {
	switch e.config.StoreDriver {
	case "", "memory":
		return memory.New(), nil
	case "sqlite":
		if e.config.StoreDSN == "" {
			return nil, errors.New("invoicing: sqlite driver requires store_dsn")
		}
		return sqlstore.OpenSQLite(e.config.StoreDSN)
	case "postgres":
		if e.config.StoreDSN == "" {
			return nil, errors.New("invoicing: postgres driver requires store_dsn")
		}
		return sqlstore.OpenPostgres(e.config.StoreDSN)
	case "mongo":
		if e.config.StoreDSN == "" {
			return nil, errors.New("invoicing: mongo driver requires store_dsn")
		}
		return mongostore.Open(ctx, e.config.StoreDSN, e.config.StoreDatabase)
	default:
		return nil, fmt.Errorf("invoicing: unknown store driver %q", e.config.StoreDriver)
	}
}

// buildEngineOpts constructs invoicing.Option values from the resolved config.
func (e *Extension) buildEngineOpts() []invoicing.Option {
	opts := make([]invoicing.Option, 0, len(e.engineOpts)+1)

	if e.config.TransitionPolicy != "" {
		opts = append(opts, invoicing.WithTransitionPolicy(invoice.TransitionPolicy(e.config.TransitionPolicy)))
	}

	// Append any pass-through engine options.
	opts = append(opts, e.engineOpts...)

	return opts
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("invoicing: configuration is required but not found in config files; " +
				"ensure 'extensions.invoicing' or 'invoicing' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("invoicing: configuration loaded",
		forge.F("disable_routes", e.config.DisableRoutes),
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("base_path", e.config.BasePath),
		forge.F("transition_policy", e.config.TransitionPolicy),
		forge.F("store_driver", e.config.StoreDriver),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.invoicing" first (namespaced pattern).
	if cm.IsSet("extensions.invoicing") {
		if err := cm.Bind("extensions.invoicing", &cfg); err == nil {
			e.Logger().Debug("invoicing: loaded config from file",
				forge.F("key", "extensions.invoicing"),
			)
			return cfg, true
		}
		e.Logger().Warn("invoicing: failed to bind extensions.invoicing config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "invoicing" key.
	if cm.IsSet("invoicing") {
		if err := cm.Bind("invoicing", &cfg); err == nil {
			e.Logger().Debug("invoicing: loaded config from file",
				forge.F("key", "invoicing"),
			)
			return cfg, true
		}
		e.Logger().Warn("invoicing: failed to bind invoicing config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.BasePath == "" {
		cfg.BasePath = defaults.BasePath
	}
	if cfg.TransitionPolicy == "" {
		cfg.TransitionPolicy = defaults.TransitionPolicy
	}
	if cfg.StoreDriver == "" {
		cfg.StoreDriver = defaults.StoreDriver
	}
	if cfg.StoreDatabase == "" {
		cfg.StoreDatabase = defaults.StoreDatabase
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableRoutes {
		yamlConfig.DisableRoutes = true
	}
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.BasePath == "" && programmaticConfig.BasePath != "" {
		yamlConfig.BasePath = programmaticConfig.BasePath
	}
	if yamlConfig.TransitionPolicy == "" && programmaticConfig.TransitionPolicy != "" {
		yamlConfig.TransitionPolicy = programmaticConfig.TransitionPolicy
	}
	if yamlConfig.StoreDriver == "" && programmaticConfig.StoreDriver != "" {
		yamlConfig.StoreDriver = programmaticConfig.StoreDriver
	}
	if yamlConfig.StoreDSN == "" && programmaticConfig.StoreDSN != "" {
		yamlConfig.StoreDSN = programmaticConfig.StoreDSN
	}
	if yamlConfig.StoreDatabase == "" && programmaticConfig.StoreDatabase != "" {
		yamlConfig.StoreDatabase = programmaticConfig.StoreDatabase
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
