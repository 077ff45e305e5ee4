package gate

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ppiankov/permgate/internal/model"
	"github.com/ppiankov/permgate/internal/platform"
)

// ErrCorrelationMismatch is returned for a result batch that does not belong
// to an outstanding request. The batch must be discarded, not classified.
var ErrCorrelationMismatch = errors.New("correlation mismatch")

// MismatchError describes a discarded result batch.
type MismatchError struct {
	Token  string
	Reason string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: token %q: %s", ErrCorrelationMismatch, e.Token, e.Reason)
}

// Is makes errors.Is(err, ErrCorrelationMismatch) match.
func (e *MismatchError) Is(target error) bool {
	return target == ErrCorrelationMismatch
}

// Outcome is the classification of one resolved request.
type Outcome struct {
	Token          string               `json:"token"`
	Profile        platform.Profile     `json:"profile"`
	Classification model.Classification `json:"classification"`
	Requested      []model.PermissionID `json:"requested"`
	Denied         []model.PermissionID `json:"denied,omitempty"`
}

// Tracker pairs asynchronous result batches with the requests that produced
// them. Safe for concurrent use.
type Tracker struct {
	gate    *Gate
	newID   func() string
	mu      sync.Mutex
	pending map[string]Request
}

// NewTracker returns a Tracker issuing requests from g.
func NewTracker(g *Gate) *Tracker {
	return &Tracker{
		gate:    g,
		newID:   func() string { return uuid.New().String() },
		pending: make(map[string]Request),
	}
}

// Begin builds a request and, when it is non-empty, stamps a fresh token and
// records it as outstanding. Empty requests carry no token.
func (t *Tracker) Begin(profile platform.Profile, statusOf StatusFunc) Request {
	req := t.gate.BuildRequest(profile, statusOf)
	if req.Empty() {
		return req
	}
	req.Token = t.newID()

	t.mu.Lock()
	t.pending[req.Token] = req
	t.mu.Unlock()
	return req
}

// Resolve classifies batch against the outstanding request for token and
// retires the token. Requested permissions absent from batch (an interrupted
// dialog delivers empty results) count as denied.
//
// Unknown, already resolved or cancelled tokens, and batches naming a
// permission that was not requested, yield a *MismatchError. A batch with a
// foreign permission leaves the request outstanding.
func (t *Tracker) Resolve(token string, batch model.Batch) (Outcome, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	req, ok := t.pending[token]
	if !ok {
		return Outcome{}, &MismatchError{Token: token, Reason: "no outstanding request"}
	}
	for id := range batch {
		if !req.Contains(id) {
			return Outcome{}, &MismatchError{Token: token, Reason: fmt.Sprintf("permission %s was not requested", id)}
		}
	}
	delete(t.pending, token)

	complete := make(model.Batch, len(req.Permissions))
	for _, id := range req.Permissions {
		status, ok := batch[id]
		if !ok {
			status = model.Denied
		}
		complete[id] = status
	}

	return Outcome{
		Token:          token,
		Profile:        req.Profile,
		Classification: ClassifyResult(complete),
		Requested:      req.Permissions,
		Denied:         Denied(complete, req.Permissions),
	}, nil
}

// Cancel forgets an outstanding request. Reports whether it existed.
func (t *Tracker) Cancel(token string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pending[token]
	delete(t.pending, token)
	return ok
}

// Pending returns the number of outstanding requests.
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}
