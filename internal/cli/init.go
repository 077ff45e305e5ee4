package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/permgate/internal/requirement"
)

var initForce bool

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing requirements file")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default requirement set to ~/.permgate/requirements.yaml",
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	path := requirementsPath
	if path == "" {
		path = requirement.DefaultPath()
	}
	if path == "" {
		return fmt.Errorf("cannot determine home directory; pass --requirements")
	}

	out := cmd.OutOrStdout()
	wrote, err := writeIfMissing(path, requirement.DefaultConfigYAML())
	if err != nil {
		return err
	}
	if !wrote {
		fmt.Fprintf(out, "%s already exists (use --force to overwrite).\n", path)
		return nil
	}
	fmt.Fprintf(out, "Created %s\n\nCheck it with:\n  permgate candidates --requirements %s\n", path, path)
	return nil
}

// writeIfMissing writes content unless the file exists and --force is unset.
func writeIfMissing(path, content string) (bool, error) {
	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}
