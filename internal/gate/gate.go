// Package gate decides which runtime permissions an app still needs and
// classifies the platform's grant results.
package gate

import (
	"sync/atomic"

	"github.com/ppiankov/permgate/internal/model"
	"github.com/ppiankov/permgate/internal/platform"
	"github.com/ppiankov/permgate/internal/requirement"
)

// StatusFunc reports the current grant status of a permission.
type StatusFunc func(id model.PermissionID) model.GrantStatus

// Request is the set of permissions to ask the platform for.
// Token is empty until the request is registered with a Tracker.
type Request struct {
	Token       string               `json:"token,omitempty"`
	Profile     platform.Profile     `json:"profile"`
	Permissions []model.PermissionID `json:"permissions"`
}

// Empty reports whether nothing needs requesting.
func (r Request) Empty() bool {
	return len(r.Permissions) == 0
}

// Contains reports whether id is part of the request.
func (r Request) Contains(id model.PermissionID) bool {
	for _, p := range r.Permissions {
		if p == id {
			return true
		}
	}
	return false
}

// Gate evaluates a requirement set. The set can be swapped at runtime;
// each call sees one consistent snapshot.
type Gate struct {
	cfg  atomic.Pointer[requirement.Config]
	hash atomic.Pointer[string]
}

// New returns a Gate over cfg. A nil cfg uses requirement.DefaultConfig.
func New(cfg *requirement.Config) *Gate {
	g := &Gate{}
	g.SetConfig(cfg, "")
	return g
}

// SetConfig replaces the requirement set. hash identifies the source file
// and is carried on reported outcomes.
func (g *Gate) SetConfig(cfg *requirement.Config, hash string) {
	if cfg == nil {
		cfg = requirement.DefaultConfig()
	}
	g.cfg.Store(cfg)
	g.hash.Store(&hash)
}

// Config returns the active requirement set.
func (g *Gate) Config() *requirement.Config {
	return g.cfg.Load()
}

// ConfigHash returns the hash passed to the last SetConfig.
func (g *Gate) ConfigHash() string {
	return *g.hash.Load()
}

// Candidates returns every permission required on profile.
func (g *Gate) Candidates(profile platform.Profile) []model.PermissionID {
	return g.Config().Candidates(profile)
}

// BuildRequest returns the candidates for profile whose status is not
// Granted, in candidate order. The result is empty iff everything required
// is already granted.
func (g *Gate) BuildRequest(profile platform.Profile, statusOf StatusFunc) Request {
	req := Request{Profile: profile, Permissions: []model.PermissionID{}}
	for _, id := range g.Candidates(profile) {
		if statusOf(id) != model.Granted {
			req.Permissions = append(req.Permissions, id)
		}
	}
	return req
}

// ClassifyResult returns AllGranted iff every entry of batch is Granted.
// An empty batch is vacuously AllGranted; callers never classify a batch
// for an empty request because the platform sends no callback for it.
func ClassifyResult(batch model.Batch) model.Classification {
	for _, status := range batch {
		if status != model.Granted {
			return model.SomeDenied
		}
	}
	return model.AllGranted
}

// Denied returns the permissions of order that batch does not report as
// Granted. Permissions missing from batch count as denied.
func Denied(batch model.Batch, order []model.PermissionID) []model.PermissionID {
	var out []model.PermissionID
	for _, id := range order {
		if batch[id] != model.Granted {
			out = append(out, id)
		}
	}
	return out
}
