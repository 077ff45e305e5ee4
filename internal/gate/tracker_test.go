package gate

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/permgate/internal/model"
	"github.com/ppiankov/permgate/internal/platform"
)

func TestBeginStampsTokenOnlyWhenNonEmpty(t *testing.T) {
	tr := NewTracker(New(nil))

	empty := tr.Begin(platform.ScopedMedia, allGranted)
	assert.True(t, empty.Empty())
	assert.Empty(t, empty.Token)
	assert.Equal(t, 0, tr.Pending())

	req := tr.Begin(platform.ScopedMedia, allDenied)
	assert.NotEmpty(t, req.Token)
	assert.Equal(t, 1, tr.Pending())

	other := tr.Begin(platform.ScopedMedia, allDenied)
	assert.NotEqual(t, req.Token, other.Token)
	assert.Equal(t, req.Permissions, other.Permissions)
	assert.Equal(t, 2, tr.Pending())
}

func TestResolveClassifies(t *testing.T) {
	tr := NewTracker(New(nil))
	req := tr.Begin(platform.ScopedMedia, statusFrom(model.Camera))

	out, err := tr.Resolve(req.Token, model.Batch{
		model.ReadMediaImages: model.Granted,
		model.ReadMediaVideo:  model.Denied,
	})
	require.NoError(t, err)
	assert.Equal(t, req.Token, out.Token)
	assert.Equal(t, platform.ScopedMedia, out.Profile)
	assert.Equal(t, model.SomeDenied, out.Classification)
	assert.Equal(t, []model.PermissionID{model.ReadMediaImages, model.ReadMediaVideo}, out.Requested)
	assert.Equal(t, []model.PermissionID{model.ReadMediaVideo}, out.Denied)
	assert.Equal(t, 0, tr.Pending())
}

func TestResolveAllGranted(t *testing.T) {
	tr := NewTracker(New(nil))
	req := tr.Begin(platform.LegacyStorage, allDenied)

	batch := model.Batch{}
	for _, id := range req.Permissions {
		batch[id] = model.Granted
	}
	out, err := tr.Resolve(req.Token, batch)
	require.NoError(t, err)
	assert.Equal(t, model.AllGranted, out.Classification)
	assert.Empty(t, out.Denied)
}

func TestResolveMissingEntriesCountAsDenied(t *testing.T) {
	tr := NewTracker(New(nil))
	req := tr.Begin(platform.LegacyStorage, allDenied)

	out, err := tr.Resolve(req.Token, model.Batch{model.Camera: model.Granted})
	require.NoError(t, err)
	assert.Equal(t, model.SomeDenied, out.Classification)
	assert.Equal(t, []model.PermissionID{model.ReadExternalStorage, model.WriteExternalStorage}, out.Denied)

	req = tr.Begin(platform.LegacyStorage, allDenied)
	out, err = tr.Resolve(req.Token, nil)
	require.NoError(t, err)
	assert.Equal(t, model.SomeDenied, out.Classification)
	assert.Equal(t, req.Permissions, out.Denied)
}

func TestResolveUnknownTokenIsMismatch(t *testing.T) {
	tr := NewTracker(New(nil))
	tr.Begin(platform.ScopedMedia, allDenied)

	_, err := tr.Resolve("never-issued", model.Batch{model.Camera: model.Granted})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorrelationMismatch))

	var mm *MismatchError
	require.ErrorAs(t, err, &mm)
	assert.Equal(t, "never-issued", mm.Token)
	assert.Equal(t, 1, tr.Pending(), "outstanding request must survive a stray callback")
}

func TestResolveDuplicateCallbackIsMismatch(t *testing.T) {
	tr := NewTracker(New(nil))
	req := tr.Begin(platform.ScopedMedia, statusFrom(model.ReadMediaImages, model.ReadMediaVideo))
	batch := model.Batch{model.Camera: model.Granted}

	_, err := tr.Resolve(req.Token, batch)
	require.NoError(t, err)

	_, err = tr.Resolve(req.Token, batch)
	assert.ErrorIs(t, err, ErrCorrelationMismatch)
}

func TestResolveForeignPermissionIsMismatch(t *testing.T) {
	tr := NewTracker(New(nil))
	req := tr.Begin(platform.ScopedMedia, allDenied)

	_, err := tr.Resolve(req.Token, model.Batch{model.WriteExternalStorage: model.Granted})
	require.ErrorIs(t, err, ErrCorrelationMismatch)
	assert.Contains(t, err.Error(), string(model.WriteExternalStorage))
	assert.Equal(t, 1, tr.Pending())

	_, err = tr.Resolve(req.Token, model.Batch{model.Camera: model.Granted})
	assert.NoError(t, err, "request stays resolvable after a rejected batch")
}

func TestCancel(t *testing.T) {
	tr := NewTracker(New(nil))
	req := tr.Begin(platform.ScopedMedia, allDenied)

	assert.True(t, tr.Cancel(req.Token))
	assert.False(t, tr.Cancel(req.Token))
	_, err := tr.Resolve(req.Token, model.Batch{})
	assert.ErrorIs(t, err, ErrCorrelationMismatch)
}

func TestOverlappingRequestsResolveIndependently(t *testing.T) {
	tr := NewTracker(New(nil))
	n := 0
	tr.newID = func() string {
		n++
		return fmt.Sprintf("tok-%d", n)
	}

	a := tr.Begin(platform.ScopedMedia, allDenied)
	b := tr.Begin(platform.LegacyStorage, allDenied)

	outB, err := tr.Resolve(b.Token, model.Batch{model.Camera: model.Granted, model.ReadExternalStorage: model.Granted, model.WriteExternalStorage: model.Granted})
	require.NoError(t, err)
	assert.Equal(t, model.AllGranted, outB.Classification)
	assert.Equal(t, platform.LegacyStorage, outB.Profile)

	outA, err := tr.Resolve(a.Token, model.Batch{model.Camera: model.Denied, model.ReadMediaImages: model.Granted, model.ReadMediaVideo: model.Granted})
	require.NoError(t, err)
	assert.Equal(t, model.SomeDenied, outA.Classification)
	assert.Equal(t, "tok-1", outA.Token)
}

func TestTrackerConcurrentUse(t *testing.T) {
	tr := NewTracker(New(nil))

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := tr.Begin(platform.ScopedMedia, allDenied)
			batch := model.Batch{}
			for _, id := range req.Permissions {
				batch[id] = model.Granted
			}
			if _, err := tr.Resolve(req.Token, batch); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}
	assert.Equal(t, 0, tr.Pending())
}
