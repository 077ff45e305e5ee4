package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/permgate/internal/platform"
	"github.com/ppiankov/permgate/internal/requirement"
)

func init() {
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Validate the requirements file on every change",
	Long: "Watches the requirements file and prints the effective candidate\n" +
		"lists each time it reloads cleanly. Invalid edits are logged and the\n" +
		"previous set stays in effect. Stops on SIGINT/SIGTERM.",
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	path := requirementsPath
	if path == "" {
		path = requirement.DefaultPath()
	}

	out := cmd.OutOrStdout()
	w, err := requirement.NewWatcher(path, func(cfg *requirement.Config, hash string) {
		fmt.Fprintf(out, "reloaded %s (%s)\n", path, hash)
		for _, p := range platform.Profiles() {
			fmt.Fprintf(out, "  %s: %v\n", p, cfg.Candidates(p))
		}
	}, slog.Default())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	fmt.Fprintf(out, "watching %s\n", path)
	return w.Run(ctx)
}
