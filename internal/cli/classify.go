package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/permgate/internal/audit"
	"github.com/ppiankov/permgate/internal/gate"
	"github.com/ppiankov/permgate/internal/model"
	"github.com/ppiankov/permgate/internal/platform"
	"github.com/ppiankov/permgate/internal/report"
	"github.com/ppiankov/permgate/internal/requirement"
)

var (
	classifyToken   string
	classifyProfile string
	classifyAudit   string
)

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().StringVar(&classifyToken, "token", "", "Correlation token of the request")
	classifyCmd.Flags().StringVar(&classifyProfile, "profile", "", "Platform profile recorded with the outcome")
	classifyCmd.Flags().StringVar(&classifyAudit, "audit", "", "Append the outcome to this audit log")
}

var classifyCmd = &cobra.Command{
	Use:   "classify <permission>=<granted|denied>...",
	Short: "Classify a grant-result batch",
	Long: "Classifies a batch of per-permission grant results as all_granted or\n" +
		"some_denied and prints the outcome. With --audit the outcome is also\n" +
		"appended to the hash-chained audit log.",
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func parseBatch(args []string) (model.Batch, []model.PermissionID, error) {
	batch := make(model.Batch, len(args))
	var order []model.PermissionID
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, nil, fmt.Errorf("invalid result %q: want <permission>=<granted|denied>", arg)
		}
		id := model.ParsePermission(k)
		if _, dup := batch[id]; dup {
			return nil, nil, fmt.Errorf("duplicate result for %s", id)
		}
		batch[id] = model.ParseGrantStatus(v)
		order = append(order, id)
	}
	return batch, order, nil
}

func runClassify(cmd *cobra.Command, args []string) error {
	batch, order, err := parseBatch(args)
	if err != nil {
		return err
	}

	outcome := gate.Outcome{
		Token:          classifyToken,
		Classification: gate.ClassifyResult(batch),
		Requested:      order,
		Denied:         gate.Denied(batch, order),
	}
	if classifyProfile != "" {
		outcome.Profile, err = platform.Parse(classifyProfile)
		if err != nil {
			return err
		}
	}

	_, hash, err := requirement.LoadConfigWithHash(requirementsPath)
	if err != nil {
		return err
	}

	sinks := report.MultiSink{report.LogSink{Logger: slog.Default()}}
	if classifyAudit != "" {
		l, err := audit.Open(classifyAudit)
		if err != nil {
			return err
		}
		defer l.Close()
		sinks = append(sinks, report.AuditSink{Log: l})
	}
	if err := sinks.Emit(context.Background(), report.FromOutcome(outcome, hash)); err != nil {
		return err
	}

	out, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
