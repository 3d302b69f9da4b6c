package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/verdictproj/vouch/internal/dashboard"
	"github.com/verdictproj/vouch/pkg/models"
)

var (
	verifyRequirementsFile string
	verifyLanguage         string
	verifyDescription      string
	verifyPatterns         []string
	verifyRules            []string
	verifyDesign           string
	verifyDesignDir        string
	verifyJSON             bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify <code-file>",
	Short: "Verify a piece of generated code against its requirements",
	Long: `Verify runs the full verification pipeline against the code in the
given file ("-" reads from stdin) and prints the scored report.

Requirements come from a YAML or JSON file (--requirements) and can be
overridden or supplied directly with --language, --description, --pattern
and --rule.

The command exits non-zero when the code does not reach the verification
threshold.`,
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

		report, err := a.pipeline.Verify(cmd.Context(), code, req, a.retrievalContext(req))
		if err != nil {
			return err
		}

		if a.feedback != nil {
			if err := a.feedback.Record(report); err != nil {
				a.logger.Warn().Err(err).Msg("failed to record feedback")
			}
		}

		if verifyJSON {
			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
		} else {
			fmt.Println(dashboard.Render(report))
		}

		if !report.Verified {
			color.Red("verification failed (score %.3f)", report.Score)
			os.Exit(1)
		}
		color.Green("verification passed (score %.3f)", report.Score)
		return nil
	},
}

func init() {
	verifyCmd.Flags().StringVarP(&verifyRequirementsFile, "requirements", "r", "", "Requirements file (YAML or JSON)")
	verifyCmd.Flags().StringVar(&verifyLanguage, "language", "", "Source language of the code")
	verifyCmd.Flags().StringVar(&verifyDescription, "description", "", "Requirement description")
	verifyCmd.Flags().StringArrayVar(&verifyPatterns, "pattern", nil, "Required pattern (repeatable)")
	verifyCmd.Flags().StringArrayVar(&verifyRules, "rule", nil, "Style rule (repeatable)")
	verifyCmd.Flags().StringVar(&verifyDesign, "design", "", "Design reference to compare against")
	verifyCmd.Flags().StringVar(&verifyDesignDir, "design-dir", "", "Directory holding design artifacts")
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "Print the raw report as JSON")
}

// readCode loads the candidate code from a file, or stdin for "-".
func readCode(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read code: %w", err)
	}
	return string(data), nil
}

// loadRequirements merges the requirements file with flag overrides.
func loadRequirements() (models.Requirements, error) {
	var req models.Requirements

	if verifyRequirementsFile != "" {
		data, err := os.ReadFile(verifyRequirementsFile)
		if err != nil {
			return req, fmt.Errorf("read requirements: %w", err)
		}
		switch strings.ToLower(filepath.Ext(verifyRequirementsFile)) {
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(data, &req); err != nil {
				return req, fmt.Errorf("parse requirements: %w", err)
			}
		default:
			if err := json.Unmarshal(data, &req); err != nil {
				return req, fmt.Errorf("parse requirements: %w", err)
			}
		}
	}

	if verifyLanguage != "" {
		req.Language = verifyLanguage
	}
	if verifyDescription != "" {
		req.Description = verifyDescription
	}
	if len(verifyPatterns) > 0 {
		req.Patterns = verifyPatterns
	}
	if len(verifyRules) > 0 {
		req.Rules = verifyRules
	}
	if verifyDesign != "" {
		req.DesignReference = verifyDesign
	}
	return req, nil
}
