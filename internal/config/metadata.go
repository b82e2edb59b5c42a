package config

// MetadataConfig holds filter store configuration
type MetadataConfig struct {
	Type   string               `mapstructure:"type"   yaml:"type"`
	SQLite MetadataSQLiteConfig `mapstructure:"sqlite" yaml:"sqlite"`
}

// MetadataSQLiteConfig holds SQLite-specific configuration
type MetadataSQLiteConfig struct {
	Path string `mapstructure:"path"      yaml:"path"`
	// QueryLog is the SQL log level: silent, error, warn or info.
	QueryLog string `mapstructure:"query_log" yaml:"query_log"`
}
