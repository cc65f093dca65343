package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Registry      RegistryConfig      `toml:"registry"`
	Tunables      TunablesConfig      `toml:"tunables"`
	Observability ObservabilityConfig `toml:"observability"`
}

// RegistryConfig controls how many catalogs the process keeps warm at once
// and what a default startup catalog is built from.
type RegistryConfig struct {
	Capacity    int      `toml:"capacity"`
	HTMLBaseURL string   `toml:"html_base_url"`
	Sources     []string `toml:"sources"`
}

// TunablesConfig overrides the package-level scoring tunables. Zero values
// mean "use the package default" — see catalogmatch.TopK,
// catalogmatch.SimilarityThreshold, and friends.
type TunablesConfig struct {
	TopK                int     `toml:"top_k"`
	SimilarityThreshold float64 `toml:"similarity_threshold"`
}

type ObservabilityConfig struct {
	Enabled     bool   `toml:"enabled"`
	ServiceName string `toml:"service_name"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Registry: RegistryConfig{
			Capacity: 3,
		},
		Tunables: TunablesConfig{
			TopK:                5,
			SimilarityThreshold: 0.35,
		},
		Observability: ObservabilityConfig{
			Enabled:     false,
			ServiceName: "catalogmatch",
		},
	}
}

// Load reads config: defaults -> TOML file -> env vars (env wins).
func Load(path string) Config {
	cfg := Default()

	if path == "" {
		path = "catalogmatch.toml"
	}

	if data, err := os.ReadFile(path); err == nil {
		_ = toml.Unmarshal(data, &cfg)
	}

	if v := os.Getenv("CATALOGMATCH_REGISTRY_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Registry.Capacity = n
		}
	}
	if v := os.Getenv("CATALOGMATCH_HTML_BASE_URL"); v != "" {
		cfg.Registry.HTMLBaseURL = v
	}
	if os.Getenv("CATALOGMATCH_OBSERVABILITY_ENABLED") == "true" || os.Getenv("CATALOGMATCH_OBSERVABILITY_ENABLED") == "1" {
		cfg.Observability.Enabled = true
	}
	if v := os.Getenv("CATALOGMATCH_SERVICE_NAME"); v != "" {
		cfg.Observability.ServiceName = v
	}

	return cfg
}
