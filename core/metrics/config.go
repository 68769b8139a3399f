package metrics

import "github.com/kilianp07/tradeflow/core/factory"

// Config lists the metrics sinks a run reports to.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
}
