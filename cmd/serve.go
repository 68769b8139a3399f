package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kilianp07/tradeflow/app"
)

var (
	serveFile string
	serveAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve generated flows over HTTP",
	Long: "Serve generated flows over HTTP. Records come from --file when set, " +
		"otherwise from the latest run of the configured flow store, otherwise from output.path.",
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveFile, "file", "f", "", "generated flows file")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (defaults to server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	return withService(cfg, func(ctx context.Context, svc *app.Service) error {
		src, err := svc.Source(serveFile)
		if err != nil {
			return err
		}
		return svc.Serve(ctx, src)
	})
}
