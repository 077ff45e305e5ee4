package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/permgate/internal/audit"
)

var tailLines int

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditVerifyCmd)
	auditCmd.AddCommand(auditTailCmd)
	auditCmd.AddCommand(auditSummaryCmd)
	auditTailCmd.Flags().IntVarP(&tailLines, "lines", "n", 10, "Number of recent entries to show")
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit log operations",
	Long:  "Commands for verifying and inspecting the hash-chained log of permission outcomes.",
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify [path]",
	Short: "Verify hash chain integrity of an audit log",
	Long:  "Walks the JSONL audit log and validates that every entry's prev_hash\nmatches the SHA-256 of the previous entry. Exits 0 if valid, 1 if tampered.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuditVerify,
}

var auditTailCmd = &cobra.Command{
	Use:   "tail [path]",
	Short: "Show recent audit log entries",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuditTail,
}

var auditSummaryCmd = &cobra.Command{
	Use:   "summary [path]",
	Short: "Count outcomes and denials per permission",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := audit.ReadAll(auditPath(args))
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), audit.FormatSummary(audit.Summarize(entries)))
		return nil
	},
}

func auditPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return audit.DefaultPath()
}

func runAuditVerify(cmd *cobra.Command, args []string) error {
	result := audit.Verify(auditPath(args))
	if result.Valid {
		fmt.Fprintf(cmd.OutOrStdout(), "OK: %d entries verified\n", result.Lines)
		return nil
	}
	fmt.Fprintf(os.Stderr, "FAILED at line %d: %s\n", result.ErrorLine, result.Error)
	os.Exit(1)
	return nil
}

func runAuditTail(cmd *cobra.Command, args []string) error {
	entries, err := audit.Tail(auditPath(args), tailLines)
	if err != nil {
		return err
	}
	for _, e := range entries {
		out, _ := json.MarshalIndent(e, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
	}
	return nil
}
