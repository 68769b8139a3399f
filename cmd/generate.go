package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/tradeflow/app"
	"github.com/kilianp07/tradeflow/config"
	"github.com/kilianp07/tradeflow/core/allocation"
	"github.com/kilianp07/tradeflow/core/model"
	"github.com/kilianp07/tradeflow/pkg/export"
)

type generateFlags struct {
	exports     string
	imports     string
	output      string
	strategy    string
	seed        uint64
	years       []int
	from, to    int
	workers     int
	fillMissing bool
	authority   string
}

var genFlags generateFlags

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Allocate bilateral flows from export and import tables",
	RunE:  runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&genFlags.exports, "exports", "", "export table (csv or xlsx)")
	f.StringVar(&genFlags.imports, "imports", "", "import table (csv or xlsx)")
	f.StringVarP(&genFlags.output, "output", "o", "", "output file (.csv, .json or .xlsx)")
	f.StringVar(&genFlags.strategy, "strategy", "", "allocation strategy: proportional, largest_remaining or random")
	f.Uint64Var(&genFlags.seed, "seed", 0, "seed for the random strategy")
	f.IntSliceVar(&genFlags.years, "years", nil, "years to allocate")
	f.IntVar(&genFlags.from, "from", 0, "first year to allocate")
	f.IntVar(&genFlags.to, "to", 0, "last year to allocate")
	f.IntVar(&genFlags.workers, "workers", 0, "years allocated concurrently")
	f.BoolVar(&genFlags.fillMissing, "fill-missing", false, "emit a zero flow for exporters without any flow")
	f.StringVar(&genFlags.authority, "authority", "", "side kept exact: export or import")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := genFlags.apply(cmd, cfg); err != nil {
		return err
	}
	return withService(cfg, func(ctx context.Context, svc *app.Service) error {
		res, err := svc.Generate(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, r := range res.Reports {
			if r.Status != model.StatusAllocated {
				fmt.Fprintf(out, "%d\t%s\t%s\n", r.Year, r.Status, r.Error)
				continue
			}
			fmt.Fprintf(out, "%d\t%s\trecords=%d supply=%d demand=%d max_rel_dev=%.4f\n",
				r.Year, r.Status, r.Records, r.TotalSupply, r.TotalDemand, r.MaxRelDeviation)
		}
		fmt.Fprintf(out, "run %s: %d records, %d skipped, %d failed -> %s\n",
			res.RunID, res.Summary.Records, res.Summary.Skipped, res.Summary.Failed, cfg.Output.Path)
		return nil
	})
}

// apply overrides the configuration with the flags set on the command line.
func (g generateFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if g.exports != "" {
		cfg.Sources.Exports = g.exports
	}
	if g.imports != "" {
		cfg.Sources.Imports = g.imports
	}
	if g.output != "" {
		cfg.Output.Path = g.output
		cfg.Output.Format = export.FormatFromPath(g.output)
	}
	if g.strategy != "" && g.strategy != cfg.Allocation.Strategy.Type {
		cfg.Allocation.Strategy.Type = g.strategy
		cfg.Allocation.Strategy.Conf = nil
	}
	if f.Changed("seed") {
		if cfg.Allocation.Strategy.Conf == nil {
			cfg.Allocation.Strategy.Conf = map[string]any{}
		}
		cfg.Allocation.Strategy.Conf["seed"] = g.seed
	}
	if len(g.years) > 0 {
		cfg.Years.List = g.years
	}
	if f.Changed("from") {
		cfg.Years.From = g.from
	}
	if f.Changed("to") {
		cfg.Years.To = g.to
	}
	if g.workers > 0 {
		cfg.Generator.Workers = g.workers
	}
	if g.fillMissing {
		cfg.Generator.FillMissing = true
	}
	if g.authority != "" {
		cfg.Allocation.Authority = allocation.Authority(g.authority)
		cfg.Generator.Authority = cfg.Allocation.Authority
	}
	if cfg.Sources.Exports == "" || cfg.Sources.Imports == "" {
		return fmt.Errorf("both --exports and --imports are required")
	}
	return cfg.Validate()
}
