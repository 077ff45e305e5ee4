package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/permgate/internal/audit"
	"github.com/ppiankov/permgate/internal/gate"
	"github.com/ppiankov/permgate/internal/model"
	"github.com/ppiankov/permgate/internal/platform"
)

func testOutcome(c model.Classification, denied ...model.PermissionID) gate.Outcome {
	return gate.Outcome{
		Token:          "tok-1",
		Profile:        platform.ScopedMedia,
		Classification: c,
		Requested:      []model.PermissionID{model.Camera, model.ReadMediaImages},
		Denied:         denied,
	}
}

func jsonLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestLogSinkAllGranted(t *testing.T) {
	var buf bytes.Buffer
	sink := LogSink{Logger: jsonLogger(&buf)}

	require.NoError(t, sink.Emit(context.Background(), FromOutcome(testOutcome(model.AllGranted), "sha256:x")))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "INFO", rec["level"])
	assert.Equal(t, "all permissions granted", rec["msg"])
	assert.Equal(t, "tok-1", rec["token"])
	assert.Equal(t, "all_granted", rec["classification"])
	assert.NotContains(t, rec, "denied")
}

func TestLogSinkSomeDenied(t *testing.T) {
	var buf bytes.Buffer
	sink := LogSink{Logger: jsonLogger(&buf)}

	require.NoError(t, sink.Emit(context.Background(), FromOutcome(testOutcome(model.SomeDenied, model.Camera), "")))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "some permissions denied", rec["msg"])
	assert.Equal(t, []any{string(model.Camera)}, rec["denied"])
}

func TestAuditSinkRecordsChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	l, err := audit.Open(path)
	require.NoError(t, err)
	sink := AuditSink{Log: l}

	ctx := context.Background()
	require.NoError(t, sink.Emit(ctx, FromOutcome(testOutcome(model.AllGranted), "sha256:a")))
	require.NoError(t, sink.Emit(ctx, FromOutcome(testOutcome(model.SomeDenied, model.ReadMediaImages), "sha256:a")))
	require.NoError(t, l.Close())

	assert.True(t, audit.Verify(path).Valid)
	entries, err := audit.ReadAll(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "scoped-media", entries[1].Profile)
	assert.Equal(t, "some_denied", entries[1].Classification)
	assert.Equal(t, []string{string(model.ReadMediaImages)}, entries[1].Denied)
	assert.Equal(t, "sha256:a", entries[1].RequirementsHash)
}

type failingSink struct{ err error }

func (f failingSink) Emit(context.Context, Event) error { return f.err }

type countingSink struct{ n *int }

func (c countingSink) Emit(context.Context, Event) error {
	*c.n++
	return nil
}

func TestMultiSinkFansOutAndJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	n := 0
	m := MultiSink{failingSink{boom}, countingSink{&n}, countingSink{&n}}

	err := m.Emit(context.Background(), FromOutcome(testOutcome(model.AllGranted), ""))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, n)

	assert.NoError(t, MultiSink{}.Emit(context.Background(), Event{}))
}

func TestDiscardLogsWarning(t *testing.T) {
	var buf bytes.Buffer
	Discard(context.Background(), jsonLogger(&buf), "stale", &gate.MismatchError{Token: "stale", Reason: "no outstanding request"})

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "stale", rec["token"])
	assert.Contains(t, rec["error"], "correlation mismatch")
}
