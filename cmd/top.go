package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/tradeflow/core/query"
	"github.com/kilianp07/tradeflow/pkg/export"
)

var (
	topFile string
	topSide string
	topN    int
	topYear int
)

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Rank exporters or importers of a generated file",
	RunE:  runTop,
}

func init() {
	topCmd.Flags().StringVarP(&topFile, "file", "f", "flows.csv", "generated flows file")
	topCmd.Flags().StringVar(&topSide, "side", "exporters", "exporters or importers")
	topCmd.Flags().IntVarP(&topN, "limit", "n", 10, "number of countries, 0 for all")
	topCmd.Flags().IntVar(&topYear, "year", 0, "restrict to one year")
	rootCmd.AddCommand(topCmd)
}

func runTop(cmd *cobra.Command, args []string) error {
	flows, err := export.ReadFile(topFile)
	if err != nil {
		return err
	}
	flows = query.Apply(flows, query.Filter{Year: topYear})
	var ranked []query.Ranked
	switch topSide {
	case "exporters":
		ranked = query.TopExporters(flows, topN)
	case "importers":
		ranked = query.TopImporters(flows, topN)
	default:
		return fmt.Errorf("unknown side %q", topSide)
	}
	for i, r := range ranked {
		fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%d\n", i+1, r.Country, r.Quantity)
	}
	return nil
}
