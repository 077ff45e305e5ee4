package requirement

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/permgate/internal/model"
	"github.com/ppiankov/permgate/internal/platform"
)

// validate is shared; validator caches struct metadata per instance.
var validate = validator.New()

// Config is the declared, version-dependent requirement set.
type Config struct {
	// Always lists permissions required on every profile.
	Always []model.PermissionID `yaml:"always" validate:"dive,required"`
	// Profiles lists the profile-specific permissions.
	Profiles map[platform.Profile][]model.PermissionID `yaml:"profiles" validate:"required,dive,dive,required"`
	// ScopedMediaMinSDK is the API level at which ScopedMedia applies.
	ScopedMediaMinSDK int `yaml:"scoped_media_min_sdk" validate:"gte=1"`
}

// DefaultConfig returns the built-in requirement set: camera everywhere,
// media permissions on Android 13+, external storage before that.
func DefaultConfig() *Config {
	return &Config{
		Always: []model.PermissionID{model.Camera},
		Profiles: map[platform.Profile][]model.PermissionID{
			platform.LegacyStorage: {model.ReadExternalStorage, model.WriteExternalStorage},
			platform.ScopedMedia:   {model.ReadMediaImages, model.ReadMediaVideo},
		},
		ScopedMediaMinSDK: platform.ScopedMediaMinSDK,
	}
}

// Candidates returns the permissions required on p in evaluation order:
// Always first, then the profile list.
func (c *Config) Candidates(p platform.Profile) []model.PermissionID {
	extra := c.Profiles[p]
	out := make([]model.PermissionID, 0, len(c.Always)+len(extra))
	out = append(out, c.Always...)
	out = append(out, extra...)
	return out
}

// ProfileForSDK picks the profile for an API level using this config's threshold.
func (c *Config) ProfileForSDK(level int) platform.Profile {
	return platform.ForSDK(level, c.ScopedMediaMinSDK)
}

// Validate checks field constraints, that every known profile is declared,
// and that no profile's candidate list contains a permission twice.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("requirement config validation failed: %w", err)
	}
	for p := range c.Profiles {
		canonical, err := platform.Parse(string(p))
		if err != nil {
			return fmt.Errorf("profiles: %w", err)
		}
		if canonical != p {
			return fmt.Errorf("profiles: key %q must be spelled %q", p, canonical)
		}
	}
	for _, p := range platform.Profiles() {
		if _, ok := c.Profiles[p]; !ok {
			return fmt.Errorf("profiles: missing %q", p)
		}
		seen := make(map[model.PermissionID]bool)
		for _, id := range c.Candidates(p) {
			if seen[id] {
				return fmt.Errorf("profiles: %q requires %s more than once", p, id)
			}
			seen[id] = true
		}
	}
	return nil
}

// DefaultConfigYAML renders the built-in requirement set as an editable file.
func DefaultConfigYAML() string {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		panic(fmt.Sprintf("marshal default requirements: %v", err))
	}
	return "# permgate requirement set\n" +
		"# always: requested on every profile\n" +
		"# profiles: storage permissions per platform profile\n" +
		"# scoped_media_min_sdk: first API level using scoped-media\n" +
		string(data)
}

// DefaultPath returns ~/.permgate/requirements.yaml, or "" without a home dir.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".permgate", "requirements.yaml")
}

// LoadConfig loads the requirement set from a YAML file.
// Empty path falls back to DefaultPath. Missing file returns defaults.
func LoadConfig(path string) (*Config, error) {
	cfg, _, err := LoadConfigWithHash(path)
	return cfg, err
}

// LoadConfigWithHash loads the requirement set and returns the SHA-256 of the
// raw YAML bytes. When no file exists the hash is that of empty input.
func LoadConfigWithHash(path string) (*Config, string, error) {
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return DefaultConfig(), hashBytes(nil), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), hashBytes(nil), nil
		}
		return nil, "", fmt.Errorf("failed to read requirement config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, "", err
	}
	return cfg, hashBytes(data), nil
}

// Parse decodes YAML over the defaults and validates the result.
// Keys absent from data keep their default values; a profile given in data
// replaces that profile's default list.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	defaults := cfg.Profiles
	cfg.Profiles = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse requirement config: %w", err)
	}
	for i, id := range cfg.Always {
		cfg.Always[i] = model.ParsePermission(string(id))
	}

	profiles, err := normalizeProfiles(cfg.Profiles)
	if err != nil {
		return nil, err
	}
	for p, ids := range defaults {
		if _, ok := profiles[p]; !ok {
			profiles[p] = ids
		}
	}
	cfg.Profiles = profiles

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalizeProfiles re-keys raw profile names to their canonical spelling and
// resolves permission aliases. Two keys naming the same profile are an error.
func normalizeProfiles(raw map[platform.Profile][]model.PermissionID) (map[platform.Profile][]model.PermissionID, error) {
	out := make(map[platform.Profile][]model.PermissionID, len(raw))
	spelled := make(map[platform.Profile]platform.Profile, len(raw))
	for key, ids := range raw {
		p, err := platform.Parse(string(key))
		if err != nil {
			return nil, fmt.Errorf("profiles: %w", err)
		}
		if prev, dup := spelled[p]; dup {
			return nil, fmt.Errorf("profiles: %q and %q both name %q", prev, key, p)
		}
		spelled[p] = key
		for i, id := range ids {
			ids[i] = model.ParsePermission(string(id))
		}
		out[p] = ids
	}
	return out, nil
}

func hashBytes(data []byte) string {
	h := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(h[:])
}
