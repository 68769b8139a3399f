package allocation

import (
	"fmt"

	"github.com/kilianp07/tradeflow/core/factory"
)

// Config selects and tunes the allocation strategy.
type Config struct {
	// Strategy names a registered strategy ("proportional", "largest_remaining"
	// or "random") and its settings.
	Strategy factory.ModuleConfig `json:"strategy"`
	// Authority is "export" (default) or "import".
	Authority Authority `json:"authority"`
	// Tolerance is the relative import deviation counted as a match in reports.
	Tolerance float64 `json:"tolerance"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Strategy.Type == "" {
		c.Strategy.Type = StrategyProportional
	}
	if c.Authority == "" {
		c.Authority = AuthorityExport
	}
	if c.Tolerance <= 0 {
		c.Tolerance = DefaultTolerance
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Authority != AuthorityExport && c.Authority != AuthorityImport {
		return fmt.Errorf("unknown authority %q", c.Authority)
	}
	if c.Tolerance < 0 || c.Tolerance >= 1 {
		return fmt.Errorf("tolerance must be in [0,1), got %v", c.Tolerance)
	}
	return nil
}
