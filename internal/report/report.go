// Package report emits one observability event per classified permission
// request.
package report

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ppiankov/permgate/internal/audit"
	"github.com/ppiankov/permgate/internal/gate"
	"github.com/ppiankov/permgate/internal/model"
)

// Event is the record of one classification.
type Event struct {
	Timestamp        time.Time            `json:"ts"`
	Token            string               `json:"token"`
	Profile          string               `json:"profile"`
	Classification   model.Classification `json:"classification"`
	Requested        []model.PermissionID `json:"requested"`
	Denied           []model.PermissionID `json:"denied,omitempty"`
	RequirementsHash string               `json:"requirements_hash,omitempty"`
}

// FromOutcome builds the event for a resolved request.
func FromOutcome(o gate.Outcome, requirementsHash string) Event {
	return Event{
		Timestamp:        time.Now().UTC(),
		Token:            o.Token,
		Profile:          string(o.Profile),
		Classification:   o.Classification,
		Requested:        o.Requested,
		Denied:           o.Denied,
		RequirementsHash: requirementsHash,
	}
}

// Sink receives classification events.
type Sink interface {
	Emit(ctx context.Context, e Event) error
}

// LogSink writes events to a structured logger: Info when everything was
// granted, Warn otherwise.
type LogSink struct {
	Logger *slog.Logger
}

// Emit implements Sink.
func (s LogSink) Emit(ctx context.Context, e Event) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{
		slog.String("token", e.Token),
		slog.String("profile", e.Profile),
		slog.String("classification", string(e.Classification)),
		slog.Any("requested", ids(e.Requested)),
	}
	if e.Classification == model.AllGranted {
		logger.InfoContext(ctx, "all permissions granted", attrs...)
		return nil
	}
	attrs = append(attrs, slog.Any("denied", ids(e.Denied)))
	logger.WarnContext(ctx, "some permissions denied", attrs...)
	return nil
}

// AuditSink appends events to a hash-chained audit log.
type AuditSink struct {
	Log *audit.Log
}

// Emit implements Sink.
func (s AuditSink) Emit(_ context.Context, e Event) error {
	return s.Log.Record(audit.AuditEntry{
		Timestamp:        e.Timestamp.UTC().Format(audit.TimestampFormat),
		Token:            e.Token,
		Profile:          e.Profile,
		Classification:   string(e.Classification),
		Requested:        ids(e.Requested),
		Denied:           ids(e.Denied),
		RequirementsHash: e.RequirementsHash,
	})
}

// MultiSink fans an event out to every sink and joins their errors.
type MultiSink []Sink

// Emit implements Sink.
func (m MultiSink) Emit(ctx context.Context, e Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard logs a result batch that was dropped for a correlation mismatch.
func Discard(ctx context.Context, logger *slog.Logger, token string, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.WarnContext(ctx, "discarded permission result", slog.String("token", token), slog.String("error", err.Error()))
}

func ids(in []model.PermissionID) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, id := range in {
		out[i] = string(id)
	}
	return out
}
