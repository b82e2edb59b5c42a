package config

// TaxonomyConfig selects the POI taxonomy and the locale used to display it.
// An empty File uses the built-in taxonomy.
type TaxonomyConfig struct {
	File   string `mapstructure:"file"   yaml:"file"`
	Locale string `mapstructure:"locale" yaml:"locale"`
	Watch  bool   `mapstructure:"watch"  yaml:"watch"`
}
