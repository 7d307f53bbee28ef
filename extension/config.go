package extension

// Config holds the Subgate extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.subgate" or "subgate" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Owner is the address authorized for owner-gated operations
	// (catalog and configuration changes). Empty leaves the engine
	// without an authorized owner unless one is set programmatically.
	Owner string `json:"owner" mapstructure:"owner" yaml:"owner"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{}
}
