package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	requirementsPath string
	logLevel         string
)

var rootCmd = &cobra.Command{
	Use:   "permgate",
	Short: "Runtime permission gate for mobile app launch",
	Long: "Computes which runtime permissions an app still has to request for its\n" +
		"platform profile, and classifies the platform's grant results as\n" +
		"all granted or some denied.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := parseLevel(logLevel)
		if err != nil {
			return err
		}
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&requirementsPath, "requirements", "", "Path to requirements YAML (default ~/.permgate/requirements.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug|info|warn|error)")
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid --log-level %q: %w", s, err)
	}
	return level, nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
