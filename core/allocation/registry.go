package allocation

import (
	"fmt"

	"github.com/kilianp07/tradeflow/core/factory"
)

const (
	StrategyProportional     = "proportional"
	StrategyLargestRemaining = "largest_remaining"
	StrategyRandom           = "random"
)

var strategies = factory.NewRegistry[Allocator]()

func init() {
	_ = RegisterStrategy(StrategyProportional, func(map[string]any) (Allocator, error) {
		return NewProportional(), nil
	})
	_ = RegisterStrategy(StrategyLargestRemaining, func(map[string]any) (Allocator, error) {
		return NewLargestRemaining(), nil
	})
	_ = RegisterStrategy(StrategyRandom, func(conf map[string]any) (Allocator, error) {
		var c struct {
			Seed                  uint64  `json:"seed"`
			LargeChunkProbability float64 `json:"large_chunk_probability"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		a := NewRandomChunk(c.Seed)
		if c.LargeChunkProbability > 0 {
			a.LargeChunkProbability = c.LargeChunkProbability
		}
		return a, nil
	})
}

// RegisterStrategy adds an allocation strategy identified by name.
func RegisterStrategy(name string, f factory.Factory[Allocator]) error {
	return strategies.Register(name, f)
}

// Strategies lists the registered strategy names.
func Strategies() []string { return strategies.Names() }

// New builds the allocator described by cfg, including the authority switch.
func New(cfg Config) (Allocator, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a, err := strategies.Create(cfg.Strategy)
	if err != nil {
		return nil, fmt.Errorf("allocation strategy: %w", err)
	}
	return WithAuthority(a, cfg.Authority)
}
