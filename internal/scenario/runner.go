package scenario

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/permgate/internal/gate"
	"github.com/ppiankov/permgate/internal/model"
	"github.com/ppiankov/permgate/internal/platform"
	"github.com/ppiankov/permgate/internal/requirement"
)

// Outcome labels beyond the two classifications.
const (
	ExpectNone     = "none"
	ExpectMismatch = "mismatch"
)

// Run evaluates all cases of s against cfg. Each case gets a fresh Tracker,
// so cases are independent.
func Run(s *Scenario, cfg *requirement.Config) (*RunResult, error) {
	profile, err := resolveProfile(s, cfg)
	if err != nil {
		return nil, err
	}
	g := gate.New(cfg)

	result := &RunResult{
		Name:    s.Name,
		Profile: string(profile),
		Total:   len(s.Cases),
	}

	for i, c := range s.Cases {
		cr := runCase(g, profile, c)
		cr.Index = i + 1
		if cr.Passed {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Cases = append(result.Cases, cr)
	}

	return result, nil
}

func resolveProfile(s *Scenario, cfg *requirement.Config) (platform.Profile, error) {
	if s.Profile != "" {
		return platform.Parse(s.Profile)
	}
	if s.SDK > 0 {
		return cfg.ProfileForSDK(s.SDK), nil
	}
	return "", fmt.Errorf("scenario %q: profile or sdk is required", s.Name)
}

func runCase(g *gate.Gate, profile platform.Profile, c Case) CaseResult {
	granted := make(map[model.PermissionID]bool)
	for _, id := range model.ParsePermissions(c.Granted) {
		granted[id] = true
	}
	statusOf := func(id model.PermissionID) model.GrantStatus {
		if granted[id] {
			return model.Granted
		}
		return model.Denied
	}

	tracker := gate.NewTracker(g)
	req := tracker.Begin(profile, statusOf)

	cr := CaseResult{
		Name:          c.Name,
		ActualRequest: toStrings(req.Permissions),
		Expected:      strings.ToLower(c.Expect),
	}
	if c.ExpectRequest != nil {
		cr.ExpectedRequest = toStrings(model.ParsePermissions(c.ExpectRequest))
	}

	switch {
	case req.Empty():
		cr.Actual = ExpectNone
	case c.Results == nil && !c.Stale:
		// No callback delivered; only the request is under test.
		cr.Actual = ""
	default:
		token := req.Token
		if c.Stale {
			token = "stale-" + token
		}
		batch := make(model.Batch, len(c.Results))
		for k, v := range c.Results {
			batch[model.ParsePermission(k)] = model.ParseGrantStatus(v)
		}
		outcome, err := tracker.Resolve(token, batch)
		switch {
		case errors.Is(err, gate.ErrCorrelationMismatch):
			cr.Actual = ExpectMismatch
			cr.Reason = err.Error()
		case err != nil:
			cr.Actual = "error"
			cr.Reason = err.Error()
		default:
			cr.Actual = string(outcome.Classification)
			if len(outcome.Denied) > 0 {
				cr.Reason = "denied: " + strings.Join(toStrings(outcome.Denied), ", ")
			}
		}
	}

	cr.Passed = true
	if cr.ExpectedRequest != nil && !slices.Equal(cr.ExpectedRequest, cr.ActualRequest) {
		cr.Passed = false
	}
	if cr.Expected != "" && cr.Expected != cr.Actual {
		cr.Passed = false
	}
	return cr
}

func toStrings(ids []model.PermissionID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

// Load parses a scenario YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	return &s, nil
}

// LoadAndRun loads a scenario file and the requirement config, then runs.
func LoadAndRun(path, requirementsPath string) (*RunResult, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}

	cfg, err := requirement.LoadConfig(requirementsPath)
	if err != nil {
		return nil, fmt.Errorf("load requirements: %w", err)
	}

	result, err := Run(s, cfg)
	if err != nil {
		return nil, err
	}
	result.File = path
	return result, nil
}
