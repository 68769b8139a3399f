package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/tradeflow/core/allocation"
	"github.com/kilianp07/tradeflow/core/generator"
	"github.com/kilianp07/tradeflow/core/metrics"
	"github.com/kilianp07/tradeflow/core/runlog"
	"github.com/kilianp07/tradeflow/infra/flowstore"
	"github.com/kilianp07/tradeflow/infra/monitoring"
)

type Config struct {
	Sources    SourcesConfig           `json:"sources"`
	Years      YearsConfig             `json:"years"`
	Allocation allocation.Config       `json:"allocation"`
	Generator  generator.Config        `json:"generator"`
	Output     OutputConfig            `json:"output"`
	Store      flowstore.Config        `json:"store"`
	Metrics    metrics.Config          `json:"metrics"`
	RunLog     runlog.Config           `json:"runlog"`
	Sentry     monitoring.SentryConfig `json:"sentry"`
	Server     ServerConfig            `json:"server"`
}

// Load reads the configuration file at path, applies K_ prefixed environment
// overrides (K_OUTPUT__PATH sets output.path) and validates the result. An
// empty path loads the environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills unset fields of every section.
func (c *Config) SetDefaults() {
	c.Allocation.SetDefaults()
	if c.Generator.Tolerance <= 0 {
		c.Generator.Tolerance = c.Allocation.Tolerance
	}
	if c.Generator.Authority == "" {
		c.Generator.Authority = c.Allocation.Authority
	}
	c.Generator.SetDefaults()
	c.Output.SetDefaults()
	c.Store.SetDefaults()
	c.RunLog.SetDefaults()
	c.Server.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Years.Validate(); err != nil {
		return fmt.Errorf("years: %w", err)
	}
	if err := c.Allocation.Validate(); err != nil {
		return fmt.Errorf("allocation: %w", err)
	}
	if err := c.Generator.Validate(); err != nil {
		return fmt.Errorf("generator: %w", err)
	}
	if c.Generator.Authority != c.Allocation.Authority {
		return fmt.Errorf("generator.authority %q conflicts with allocation.authority %q", c.Generator.Authority, c.Allocation.Authority)
	}
	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := c.RunLog.Validate(); err != nil {
		return fmt.Errorf("runlog: %w", err)
	}
	return nil
}
