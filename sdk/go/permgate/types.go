package permgate

import (
	"github.com/ppiankov/permgate/internal/gate"
	"github.com/ppiankov/permgate/internal/model"
	"github.com/ppiankov/permgate/internal/platform"
	"github.com/ppiankov/permgate/internal/report"
	"github.com/ppiankov/permgate/internal/requirement"
)

type (
	// PermissionID identifies a platform permission by manifest name.
	PermissionID = model.PermissionID
	// GrantStatus is granted or denied.
	GrantStatus = model.GrantStatus
	// Batch maps requested permissions to reported statuses.
	Batch = model.Batch
	// Classification is AllGranted or SomeDenied.
	Classification = model.Classification
	// Profile selects the storage permission set.
	Profile = platform.Profile
	// Request is what the host asks the platform for.
	Request = gate.Request
	// Outcome is a classified result.
	Outcome = gate.Outcome
	// Event is emitted once per classification.
	Event = report.Event
	// Sink receives events.
	Sink = report.Sink
	// RequirementConfig is the declared requirement set.
	RequirementConfig = requirement.Config
)

// DefaultRequirements returns the built-in requirement set.
func DefaultRequirements() *RequirementConfig {
	return requirement.DefaultConfig()
}

const (
	Granted    = model.Granted
	Denied     = model.Denied
	AllGranted = model.AllGranted
	SomeDenied = model.SomeDenied

	LegacyStorage = platform.LegacyStorage
	ScopedMedia   = platform.ScopedMedia
)

// ErrCorrelationMismatch marks a result batch that matched no outstanding request.
var ErrCorrelationMismatch = gate.ErrCorrelationMismatch

// Platform is the host runtime that owns the permission dialogs.
type Platform interface {
	// CheckPermission returns the current OS-level grant state. Must not block.
	CheckPermission(id PermissionID) GrantStatus
	// RequestPermissions shows the system dialog. The result is delivered
	// later to Host.OnResult with the same token.
	RequestPermissions(ids []PermissionID, token string) error
}
