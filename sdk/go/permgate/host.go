package permgate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ppiankov/permgate/internal/audit"
	"github.com/ppiankov/permgate/internal/gate"
	"github.com/ppiankov/permgate/internal/model"
	"github.com/ppiankov/permgate/internal/platform"
	"github.com/ppiankov/permgate/internal/report"
	"github.com/ppiankov/permgate/internal/requirement"
)

// Host wires the gate to a Platform and reports every classification.
// Safe for concurrent use; overlapping requests are told apart by token.
type Host struct {
	cfg      hostConfig
	platform Platform
	gate     *gate.Gate
	tracker  *gate.Tracker
	sink     report.Sink
	logger   *slog.Logger
	auditLog *audit.Log
}

// New creates a Host for p. Either WithProfile or WithSDKLevel is required.
func New(p Platform, opts ...Option) (*Host, error) {
	if p == nil {
		return nil, errors.New("permgate: nil platform")
	}
	var cfg hostConfig
	for _, o := range opts {
		o(&cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	reqCfg, hash := cfg.requirements, ""
	if reqCfg == nil {
		var err error
		reqCfg, hash, err = requirement.LoadConfigWithHash(cfg.requirementsPath)
		if err != nil {
			return nil, fmt.Errorf("permgate: %w", err)
		}
	} else if err := reqCfg.Validate(); err != nil {
		return nil, fmt.Errorf("permgate: %w", err)
	}

	switch {
	case cfg.profile != "":
		p, err := platform.Parse(string(cfg.profile))
		if err != nil {
			return nil, fmt.Errorf("permgate: %w", err)
		}
		cfg.profile = p
	case cfg.sdkLevel <= 0:
		return nil, errors.New("permgate: platform profile or SDK level required")
	}

	g := gate.New(nil)
	g.SetConfig(reqCfg, hash)

	sinks := report.MultiSink{report.LogSink{Logger: logger}}
	var auditLog *audit.Log
	if cfg.auditPath != "" {
		l, err := audit.Open(cfg.auditPath)
		if err != nil {
			return nil, fmt.Errorf("permgate: %w", err)
		}
		auditLog = l
		sinks = append(sinks, report.AuditSink{Log: l})
	}
	sinks = append(sinks, cfg.sinks...)

	return &Host{
		cfg:      cfg,
		platform: p,
		gate:     g,
		tracker:  gate.NewTracker(g),
		sink:     sinks,
		logger:   logger,
		auditLog: auditLog,
	}, nil
}

// Profile returns the profile the next request is built for. Without
// WithProfile it follows the SDK threshold of the current requirement set.
func (h *Host) Profile() Profile {
	if h.cfg.profile != "" {
		return h.cfg.profile
	}
	return h.gate.Config().ProfileForSDK(h.cfg.sdkLevel)
}

// Start computes the missing permissions and asks the platform for them.
// An empty request means everything is granted and no callback will follow.
func (h *Host) Start(ctx context.Context) (Request, error) {
	req := h.tracker.Begin(h.Profile(), h.platform.CheckPermission)
	if req.Empty() {
		h.logger.DebugContext(ctx, "all required permissions already granted", "profile", string(req.Profile))
		return req, nil
	}

	if err := h.platform.RequestPermissions(req.Permissions, req.Token); err != nil {
		h.tracker.Cancel(req.Token)
		return Request{}, fmt.Errorf("permgate: request permissions: %w", err)
	}
	h.logger.DebugContext(ctx, "permissions requested",
		"token", req.Token, "profile", string(req.Profile), "count", len(req.Permissions))
	return req, nil
}

// OnResult classifies the batch delivered for token and emits one event.
// A batch that matches no outstanding request is logged, discarded, and
// returned as an error wrapping ErrCorrelationMismatch.
func (h *Host) OnResult(ctx context.Context, token string, batch Batch) (Outcome, error) {
	outcome, err := h.tracker.Resolve(token, batch)
	if err != nil {
		report.Discard(ctx, h.logger, token, err)
		return Outcome{}, err
	}
	if err := h.sink.Emit(ctx, report.FromOutcome(outcome, h.gate.ConfigHash())); err != nil {
		return outcome, fmt.Errorf("permgate: report outcome: %w", err)
	}
	return outcome, nil
}

// OnAndroidResult adapts the arrays passed to onRequestPermissionsResult.
func (h *Host) OnAndroidResult(ctx context.Context, token string, permissions []string, grantResults []int) (Outcome, error) {
	return h.OnResult(ctx, token, model.BatchFromAndroid(permissions, grantResults))
}

// Pending returns the number of requests awaiting a callback.
func (h *Host) Pending() int {
	return h.tracker.Pending()
}

// Watch hot-reloads the requirement file given to WithRequirements until ctx
// is cancelled. Without a file it returns immediately.
func (h *Host) Watch(ctx context.Context) error {
	path := h.cfg.requirementsPath
	if path == "" {
		return nil
	}
	w, err := requirement.NewWatcher(path, h.gate.SetConfig, h.logger)
	if err != nil {
		return fmt.Errorf("permgate: %w", err)
	}
	return w.Run(ctx)
}

// Close releases the audit log, if any.
func (h *Host) Close() error {
	if h.auditLog == nil {
		return nil
	}
	return h.auditLog.Close()
}
