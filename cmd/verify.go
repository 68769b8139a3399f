package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/tradeflow/core/allocation"
	"github.com/kilianp07/tradeflow/core/dataset"
	"github.com/kilianp07/tradeflow/core/generator"
	"github.com/kilianp07/tradeflow/core/model"
	"github.com/kilianp07/tradeflow/core/query"
	"github.com/kilianp07/tradeflow/pkg/export"
)

var (
	verifyFile string
	verifyJSON bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check a generated file against the source tables",
	RunE:  runVerify,
}

func init() {
	verifyCmd.Flags().StringVarP(&verifyFile, "file", "f", "", "generated flows file (defaults to output.path)")
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "print reports as JSON")
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	path := verifyFile
	if path == "" {
		path = cfg.Output.Path
	}
	exports, err := dataset.Load(cfg.Sources.Exports)
	if err != nil {
		return fmt.Errorf("load exports: %w", err)
	}
	imports, err := dataset.Load(cfg.Sources.Imports)
	if err != nil {
		return fmt.Errorf("load imports: %w", err)
	}
	flows, err := export.ReadFile(path)
	if err != nil {
		return err
	}
	years := cfg.Years.Resolve(generator.Years(exports, imports))
	reports, verr := verifyYears(cfg.Allocation.Authority, cfg.Allocation.Tolerance, years, exports, imports, flows)

	out := cmd.OutOrStdout()
	if verifyJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return err
		}
		return verr
	}
	for _, r := range reports {
		fmt.Fprintf(out, "%d\trecords=%d supply=%d demand=%d emitted=%d export_mismatches=%d max_abs_dev=%d max_rel_dev=%.4f within_tolerance=%d/%d\n",
			r.Year, r.Records, r.TotalSupply, r.TotalDemand, r.TotalEmitted, len(r.ExportMismatches),
			r.MaxAbsDeviation, r.MaxRelDeviation, r.WithinTolerance, len(r.Deviations))
	}
	return verr
}

// verifyYears checks the selected years present in both tables. The returned
// error joins the violations of the authoritative side.
func verifyYears(auth allocation.Authority, tolerance float64, years []int, exports, imports *dataset.Table, flows []model.Flow) ([]allocation.Report, error) {
	var (
		reports []allocation.Report
		errs    []error
	)
	seen := make(map[int]bool, len(years))
	for _, year := range years {
		if seen[year] || !exports.HasYear(year) || !imports.HasYear(year) {
			continue
		}
		seen[year] = true
		supply, err := exports.Vector(year)
		if err != nil {
			return nil, err
		}
		demand, err := imports.Vector(year)
		if err != nil {
			return nil, err
		}
		if len(supply) == 0 || len(demand) == 0 {
			continue
		}
		yf := query.Apply(flows, query.Filter{Year: year})
		rep := allocation.Verify(year, yf, supply, demand, tolerance)
		reports = append(reports, rep)
		if auth == allocation.AuthorityImport {
			errs = append(errs, allocation.CheckImports(year, yf, demand))
		} else {
			errs = append(errs, rep.Err())
		}
	}
	return reports, errors.Join(errs...)
}
