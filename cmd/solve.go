package main

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/math-mentor/internal/model"
)

var (
	solveConfidence float64
	solveMode       string
	solveHITL       bool
)

var solveCmd = &cobra.Command{
	Use:   "solve <question>",
	Short: "Solve one question and print the response JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := initPipeline(cfg)
		if err != nil {
			return err
		}

		q := model.Question{
			Text:         strings.Join(args, " "),
			InputMode:    solveMode,
			Confidence:   solveConfidence,
			RequiresHITL: solveHITL,
		}
		return runSolve(cmd.Context(), p, q, cmd.OutOrStdout())
	},
}

func init() {
	solveCmd.Flags().Float64Var(&solveConfidence, "confidence", 1.0, "caller confidence in the input text")
	solveCmd.Flags().StringVar(&solveMode, "mode", "text", "input mode (text, image, audio)")
	solveCmd.Flags().BoolVar(&solveHITL, "hitl", false, "mark the input as requiring human review")
	rootCmd.AddCommand(solveCmd)
}

func runSolve(ctx context.Context, s solver, q model.Question, out io.Writer) error {
	resp, err := s.Solve(ctx, q)
	if err != nil {
		return eris.Wrap(err, "solve")
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return eris.Wrap(err, "solve: encode response")
	}
	return nil
}
