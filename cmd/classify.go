package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/math-mentor/internal/pipeline"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <text>",
	Short: "Report whether text is a math question or casual conversation",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runClassify(strings.Join(args, " "), cmd.OutOrStdout())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(text string, out io.Writer) {
	c := pipeline.Classify(text)
	kind := "casual"
	if c.IsMath {
		kind = "math"
	}
	fmt.Fprintf(out, "%s (signal: %s)\n", kind, c.Signal)
	if !c.IsMath {
		fmt.Fprintf(out, "reply: %s\n", pipeline.CasualReply(text))
	}
}
