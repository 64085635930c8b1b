package model

import "time"

// Config holds all runtime settings. Field tags serve both yaml.v3 (config show/init)
// and viper's mapstructure decoding.
type Config struct {
	Keys         []KeyConfig        `yaml:"keys" mapstructure:"keys"`
	Document     DocumentConfig     `yaml:"document" mapstructure:"document"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// KeyConfig binds a violation key to the location of its rule set
type KeyConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Rules string `yaml:"rules" mapstructure:"rules"` // File path or http(s) URL; empty = no rules
}

// DocumentConfig controls document text extraction
type DocumentConfig struct {
	SkipFirstPage bool `yaml:"skip_first_page" mapstructure:"skip_first_page"` // Drop the PDF cover page
	MaxPages      int  `yaml:"max_pages" mapstructure:"max_pages"`             // 0 = no limit
	ValidatePDF   bool `yaml:"validate_pdf" mapstructure:"validate_pdf"`       // Run pdfcpu validation first
}

// HTTPConfig controls remote document and rule fetching
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RetryAttempts int           `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// CacheConfig controls the extracted-page cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig controls batch parallelism
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig limits remote document fetches per host in batch mode
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"` // <= 0 disables limiting
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	TopN           int    `yaml:"top_n" mapstructure:"top_n"`
	OtherTitle     string `yaml:"other_title" mapstructure:"other_title"`
	IncludeDetails bool   `yaml:"include_details" mapstructure:"include_details"`
	Verbose        bool   `yaml:"verbose" mapstructure:"verbose"`
	NoColor        bool   `yaml:"no_color" mapstructure:"no_color"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Keys: []KeyConfig{
			{Key: "С5", Rules: "data/rules_c5.txt"},
			{Key: "С10", Rules: "data/rules_c10.txt"},
		},
		Document: DocumentConfig{
			SkipFirstPage: true,
			MaxPages:      0,
			ValidatePDF:   false,
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "Inspectra/0.1 (+https://github.com/ppiankov/inspectra)",
			MaxBodyBytes:  20_000_000,
			RetryAttempts: 3,
			RetryDelay:    500 * time.Millisecond,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".inspectra-cache",
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         4,
		},
		Output: OutputConfig{
			TopN:       3,
			OtherTitle: DefaultOtherTitle,
		},
	}
}

// KeyNames returns the configured violation keys in order
func (c *Config) KeyNames() []string {
	names := make([]string, len(c.Keys))
	for i, k := range c.Keys {
		names[i] = k.Key
	}
	return names
}
