package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/permgate/internal/gate"
	"github.com/ppiankov/permgate/internal/model"
	"github.com/ppiankov/permgate/internal/platform"
	"github.com/ppiankov/permgate/internal/requirement"
)

var (
	requestSDK     int
	requestProfile string
	requestGranted []string
	requestFormat  string
)

func init() {
	rootCmd.AddCommand(requestCmd)
	rootCmd.AddCommand(candidatesCmd)
	requestCmd.Flags().IntVar(&requestSDK, "sdk", 0, "Android API level of the device")
	requestCmd.Flags().StringVar(&requestProfile, "profile", "", "Platform profile (legacy-storage|scoped-media); overrides --sdk")
	requestCmd.Flags().StringSliceVar(&requestGranted, "granted", nil, "Permissions already granted (aliases or manifest names)")
	requestCmd.Flags().StringVarP(&requestFormat, "format", "f", "json", "Output format (text|json)")
}

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Compute the permissions an app still has to request",
	Long: "Evaluates the requirement set for the device's platform profile and\n" +
		"prints every required permission that is not already granted, with\n" +
		"the correlation token a host would pass to the platform.\n\n" +
		"An empty request means nothing has to be asked.",
	RunE: runRequest,
}

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "List the required permissions per platform profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requirement.LoadConfig(requirementsPath)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "scoped-media from SDK %d\n", cfg.ScopedMediaMinSDK)
		for _, p := range platform.Profiles() {
			fmt.Fprintf(out, "%s:\n", p)
			for _, id := range cfg.Candidates(p) {
				fmt.Fprintf(out, "  %s\n", id)
			}
		}
		return nil
	},
}

func resolveProfile(cfg *requirement.Config, name string, sdk int) (platform.Profile, error) {
	if name != "" {
		return platform.Parse(name)
	}
	if sdk > 0 {
		return cfg.ProfileForSDK(sdk), nil
	}
	return "", fmt.Errorf("--profile or --sdk is required")
}

func runRequest(cmd *cobra.Command, args []string) error {
	cfg, err := requirement.LoadConfig(requirementsPath)
	if err != nil {
		return err
	}
	profile, err := resolveProfile(cfg, requestProfile, requestSDK)
	if err != nil {
		return err
	}

	granted := make(map[model.PermissionID]bool)
	for _, id := range model.ParsePermissions(requestGranted) {
		granted[id] = true
	}

	tracker := gate.NewTracker(gate.New(cfg))
	req := tracker.Begin(profile, func(id model.PermissionID) model.GrantStatus {
		if granted[id] {
			return model.Granted
		}
		return model.Denied
	})

	return writeRequest(cmd.OutOrStdout(), req, requestFormat)
}

func writeRequest(w io.Writer, req gate.Request, format string) error {
	if format == "text" {
		if req.Empty() {
			fmt.Fprintf(w, "%s: all required permissions granted\n", req.Profile)
			return nil
		}
		ids := make([]string, len(req.Permissions))
		for i, id := range req.Permissions {
			ids[i] = string(id)
		}
		fmt.Fprintf(w, "%s: request %s (token %s)\n", req.Profile, strings.Join(ids, ", "), req.Token)
		return nil
	}
	out, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(out))
	return nil
}
