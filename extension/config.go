package extension

// Config holds the invoicing extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.invoicing" or "invoicing" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for invoicing routes (default: "/invoicing").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// TransitionPolicy selects how mark-paid transitions are validated:
	// "permissive" (default) or "strict".
	TransitionPolicy string `json:"transition_policy" mapstructure:"transition_policy" yaml:"transition_policy"`

	// StoreDriver selects the storage backend when no store is provided
	// programmatically: "memory" (default), "sqlite", "postgres", or "mongo".
	StoreDriver string `json:"store_driver" mapstructure:"store_driver" yaml:"store_driver"`

	// StoreDSN is the driver-specific connection string: a file path for
	// sqlite, a DSN for postgres, a URI for mongo. Ignored for the memory
	// driver.
	StoreDSN string `json:"store_dsn" mapstructure:"store_dsn" yaml:"store_dsn"`

	// StoreDatabase is the mongo database name (default: "invoicing").
	StoreDatabase string `json:"store_database" mapstructure:"store_database" yaml:"store_database"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BasePath:         "/invoicing",
		TransitionPolicy: "permissive",
		StoreDriver:      "memory",
		StoreDatabase:    "invoicing",
	}
}
