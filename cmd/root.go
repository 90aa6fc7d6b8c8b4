package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/math-mentor/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "math-mentor",
	Short: "Step-by-step math problem solver",
	Long:  "Classifies questions, runs the parser/router/solver/verifier/explainer stages against an LLM completion endpoint, and returns structured LaTeX solutions.",
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
