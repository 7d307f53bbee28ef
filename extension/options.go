package extension

import (
	subgate "github.com/xraph/subgate"
	"github.com/xraph/subgate/plugin"
	"github.com/xraph/subgate/store"
	"github.com/xraph/subgate/types"
)

// Option configures the Subgate Forge extension.
type Option func(*Extension)

// WithStore sets the store for the engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithEngineOption passes a subgate.Option through to the underlying engine.
func WithEngineOption(opt subgate.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers an engine plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, subgate.WithPlugin(p))
	}
}

// WithSender sets the outbound transfer primitive.
func WithSender(s subgate.Sender) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, subgate.WithSender(s))
	}
}

// WithOwner sets the address authorized for owner-gated operations.
func WithOwner(owner types.Address) Option {
	return func(e *Extension) {
		e.config.Owner = owner.String()
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
