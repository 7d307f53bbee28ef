// Package extension provides the Forge extension adapter for Subgate.
//
// It implements the forge.Extension interface to integrate Subgate
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.subgate" or "subgate" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	subgate "github.com/xraph/subgate"
	"github.com/xraph/subgate/store"
	"github.com/xraph/subgate/store/memory"
	"github.com/xraph/subgate/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "subgate"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Subscription billing and entitlement engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Subgate as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *subgate.Engine
	store      store.Store
	engineOpts []subgate.Option
}

// New creates a new Subgate Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Engine instance.
// This is nil until Register is called.
func (e *Extension) Engine() *subgate.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	// Build engine options from resolved config.
	opts := e.buildEngineOpts()

	e.engine = subgate.New(e.store, opts...)

	return vessel.Provide(fapp.Container(), func() (*subgate.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("subgate: extension not initialized")
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
		return errors.New("subgate: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildEngineOpts constructs subgate.Option values from the resolved config.
func (e *Extension) buildEngineOpts() []subgate.Option {
	opts := make([]subgate.Option, 0, len(e.engineOpts)+1)

	if e.config.Owner != "" {
		opts = append(opts, subgate.WithOwner(types.Address(e.config.Owner)))
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
			return errors.New("subgate: configuration is required but not found in config files; " +
				"ensure 'extensions.subgate' or 'subgate' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("subgate: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("owner_configured", e.config.Owner != ""),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.subgate" first (namespaced pattern).
	if cm.IsSet("extensions.subgate") {
		if err := cm.Bind("extensions.subgate", &cfg); err == nil {
			e.Logger().Debug("subgate: loaded config from file",
				forge.F("key", "extensions.subgate"),
			)
			return cfg, true
		}
		e.Logger().Warn("subgate: failed to bind extensions.subgate config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "subgate" key.
	if cm.IsSet("subgate") {
		if err := cm.Bind("subgate", &cfg); err == nil {
			e.Logger().Debug("subgate: loaded config from file",
				forge.F("key", "subgate"),
			)
			return cfg, true
		}
		e.Logger().Warn("subgate: failed to bind subgate config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.Owner == "" && programmaticConfig.Owner != "" {
		yamlConfig.Owner = programmaticConfig.Owner
	}

	return e.mergeWithDefaults(yamlConfig)
}
