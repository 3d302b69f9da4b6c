package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vouch",
	Short: "Multi-stage verification for AI-generated code",
	Long: `Vouch verifies AI-generated code through independent stages and
aggregates them into a single weighted score:

- Static analysis: syntax, required patterns, security scan, lint
- Specification matching: requirement coverage scored by an LLM
- Runtime validation: generated test cases executed in a sandbox
- Peer review: a second model reviews the code
- Consensus: multiple models vote on correctness

Code passing the 0.85 threshold is verified; failing code can be
iteratively corrected from the failure digest.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(correctCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
