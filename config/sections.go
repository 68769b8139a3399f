package config

import (
	"fmt"

	"github.com/kilianp07/tradeflow/infra/blob"
	"github.com/kilianp07/tradeflow/pkg/export"
)

// SourcesConfig points at the aggregate tables.
type SourcesConfig struct {
	Exports string `json:"exports"`
	Imports string `json:"imports"`
}

// YearsConfig restricts the processed years. List wins over the range; an
// empty section means every year found in the tables.
type YearsConfig struct {
	From int   `json:"from"`
	To   int   `json:"to"`
	List []int `json:"list"`
}

// Validate checks the range.
func (y YearsConfig) Validate() error {
	if y.From != 0 && y.To != 0 && y.From > y.To {
		return fmt.Errorf("from %d is after to %d", y.From, y.To)
	}
	return nil
}

// Resolve returns the selected years among available, keeping their order.
func (y YearsConfig) Resolve(available []int) []int {
	if len(y.List) > 0 {
		return append([]int(nil), y.List...)
	}
	var out []int
	for _, yr := range available {
		if y.From != 0 && yr < y.From {
			continue
		}
		if y.To != 0 && yr > y.To {
			continue
		}
		out = append(out, yr)
	}
	return out
}

// OutputConfig describes where generated records go.
type OutputConfig struct {
	Path   string        `json:"path"`
	Format export.Format `json:"format"`
	S3     blob.Config   `json:"s3"`
}

// SetDefaults fills unset fields.
func (o *OutputConfig) SetDefaults() {
	if o.Path == "" {
		o.Path = "flows.csv"
	}
	if o.Format == "" {
		o.Format = export.FormatFromPath(o.Path)
	}
}

// Validate checks the format.
func (o OutputConfig) Validate() error {
	switch o.Format {
	case export.FormatCSV, export.FormatJSON, export.FormatXLSX:
		return nil
	default:
		return fmt.Errorf("unsupported format %q", o.Format)
	}
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Addr        string `json:"addr"`
	MetricsAddr string `json:"metrics_addr"`
	Token       string `json:"token"`
}

// SetDefaults fills unset fields.
func (s *ServerConfig) SetDefaults() {
	if s.Addr == "" {
		s.Addr = ":8080"
	}
}
