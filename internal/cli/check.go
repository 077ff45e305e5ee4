package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/permgate/internal/scenario"
)

var (
	checkScenario string
	checkFormat   string
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkScenario, "scenario", "", "Glob pattern for scenario YAML files (required)")
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "text", "Output format (text|json)")
	checkCmd.MarkFlagRequired("scenario")
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run permission-gate assertions from scenario files",
	Long: "Loads scenario YAML files matching a glob pattern, runs each case\n" +
		"through request building and result classification, and reports\n" +
		"pass/fail.\n\n" +
		"Exit code 0 if all cases pass, 1 if any fail.",
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	results, err := loadScenarios(checkScenario)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch checkFormat {
	case "json":
		s, err := scenario.FormatJSON(results)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, s)
	default:
		fmt.Fprint(out, scenario.FormatText(results))
	}

	for _, r := range results {
		if r.Failed > 0 {
			os.Exit(1)
		}
	}
	return nil
}

func loadScenarios(pattern string) ([]*scenario.RunResult, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no scenario files match pattern: %s", pattern)
	}

	var results []*scenario.RunResult
	for _, path := range matches {
		r, err := scenario.LoadAndRun(path, requirementsPath)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		results = append(results, r)
	}
	return results, nil
}
