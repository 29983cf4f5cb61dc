// Command token2049 runs the natural-language payment assistant: an HTTP
// and websocket server, a terminal chat, and a few wallet utilities.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/derek2403/token2049/config"
	"github.com/derek2403/token2049/logging"
)

var (
	// Global flags
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "token2049",
	Short: "Natural-language crypto payments on Celo",
	Long: `token2049 turns chat messages into Celo transactions.

Messages may mention contacts with @name and dollar amounts with $N. The
assistant prepares a transfer, a split bill or a stake, and nothing is
signed until the action is confirmed.

Configuration comes from an optional YAML file, a .env file and
TOKEN2049_* environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		logger, err = logging.New(cfg.Log.Level)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd, chatCmd, watchCmd, contactsCmd, balanceCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
