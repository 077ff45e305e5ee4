package permgate

import "log/slog"

// Option configures a Host at creation time.
type Option func(*hostConfig)

type hostConfig struct {
	profile          Profile
	sdkLevel         int
	requirementsPath string
	requirements     *RequirementConfig
	auditPath        string
	logger           *slog.Logger
	sinks            []Sink
}

// WithProfile fixes the platform profile, overriding WithSDKLevel.
func WithProfile(p Profile) Option {
	return func(c *hostConfig) { c.profile = p }
}

// WithSDKLevel derives the profile from an Android API level.
func WithSDKLevel(level int) Option {
	return func(c *hostConfig) { c.sdkLevel = level }
}

// WithRequirements loads the requirement set from a YAML file. Host.Watch
// reloads it on change.
func WithRequirements(path string) Option {
	return func(c *hostConfig) { c.requirementsPath = path }
}

// WithRequirementConfig uses an in-memory requirement set.
func WithRequirementConfig(cfg *RequirementConfig) Option {
	return func(c *hostConfig) { c.requirements = cfg }
}

// WithAuditLog records every classification in a hash-chained JSONL log.
func WithAuditLog(path string) Option {
	return func(c *hostConfig) { c.auditPath = path }
}

// WithLogger sets the structured logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(c *hostConfig) { c.logger = l }
}

// WithSink adds an extra event sink.
func WithSink(s Sink) Option {
	return func(c *hostConfig) { c.sinks = append(c.sinks, s) }
}
