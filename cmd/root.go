package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/equity-research/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "equity-research",
	Short: "Stock analysis pipeline and API",
	Long:  "Runs staged equity analyses (news research, market data, narrative synthesis) as background jobs, served over a polling HTTP API or as one-shot CLI runs.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
