package cli

import (
	"github.com/spf13/cobra"

	"github.com/inkwell-network/inkwell/internal/daemon"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the engine daemon",
	Long:  `Start the HTTP API server and block until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := daemon.Load(configPath)
		if err != nil {
			return err
		}
		return daemon.Run(cfg)
	},
}
