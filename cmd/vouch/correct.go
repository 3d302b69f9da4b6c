package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/verdictproj/vouch/internal/dashboard"
)

var (
	correctOutput      string
	correctMaxAttempts int
)

var correctCmd = &cobra.Command{
	Use:   "correct <code-file>",
	Short: "Verify code and iteratively correct it until it passes",
	Long: `Correct runs the verification pipeline and, when the code fails,
regenerates it from the failure digest and verifies again, up to the attempt
limit. The final candidate is printed to stdout or written with --output.

Requirement flags are shared with the verify command.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := readCode(args[0])
		if err != nil {
			return err
		}

		req, err := loadRequirements()
		if err != nil {
			return err
		}

		a, err := buildApp(verifyDesignDir)
		if err != nil {
			return err
		}
		defer a.close()

		corrector := a.corrector
		if correctMaxAttempts > 0 {
			corrector = newCorrectorWithAttempts(a, correctMaxAttempts)
		}

		outcome, err := corrector.Run(cmd.Context(), code, req, a.retrievalContext(req))
		if err != nil {
			return err
		}

		if a.feedback != nil && outcome.Report != nil {
			if err := a.feedback.Record(outcome.Report); err != nil {
				a.logger.Warn().Err(err).Msg("failed to record feedback")
			}
		}

		fmt.Fprintln(os.Stderr, dashboard.RenderCorrection(outcome))

		if correctOutput != "" {
			if err := os.WriteFile(correctOutput, []byte(outcome.Code), 0o644); err != nil {
				return fmt.Errorf("write corrected code: %w", err)
			}
			fmt.Fprintf(os.Stderr, "wrote %s\n", correctOutput)
		} else {
			fmt.Println(outcome.Code)
		}

		if !outcome.Verified {
			color.Red("not verified after %d attempt(s)", outcome.Attempts)
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	correctCmd.Flags().StringVarP(&correctOutput, "output", "o", "", "Write the final candidate to a file")
	correctCmd.Flags().IntVar(&correctMaxAttempts, "max-attempts", 0, "Override the configured attempt limit")

	correctCmd.Flags().StringVarP(&verifyRequirementsFile, "requirements", "r", "", "Requirements file (YAML or JSON)")
	correctCmd.Flags().StringVar(&verifyLanguage, "language", "", "Source language of the code")
	correctCmd.Flags().StringVar(&verifyDescription, "description", "", "Requirement description")
	correctCmd.Flags().StringArrayVar(&verifyPatterns, "pattern", nil, "Required pattern (repeatable)")
	correctCmd.Flags().StringArrayVar(&verifyRules, "rule", nil, "Style rule (repeatable)")
	correctCmd.Flags().StringVar(&verifyDesign, "design", "", "Design reference to compare against")
	correctCmd.Flags().StringVar(&verifyDesignDir, "design-dir", "", "Directory holding design artifacts")
}
