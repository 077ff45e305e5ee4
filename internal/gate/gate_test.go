package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/permgate/internal/model"
	"github.com/ppiankov/permgate/internal/platform"
	"github.com/ppiankov/permgate/internal/requirement"
)

func statusFrom(granted ...model.PermissionID) StatusFunc {
	set := make(map[model.PermissionID]bool, len(granted))
	for _, id := range granted {
		set[id] = true
	}
	return func(id model.PermissionID) model.GrantStatus {
		if set[id] {
			return model.Granted
		}
		return model.Denied
	}
}

func allDenied(model.PermissionID) model.GrantStatus { return model.Denied }

func allGranted(model.PermissionID) model.GrantStatus { return model.Granted }

func TestBuildRequestScopedMediaAllDenied(t *testing.T) {
	g := New(nil)
	req := g.BuildRequest(platform.ScopedMedia, allDenied)

	assert.Equal(t, platform.ScopedMedia, req.Profile)
	assert.Equal(t, []model.PermissionID{model.Camera, model.ReadMediaImages, model.ReadMediaVideo}, req.Permissions)
	assert.False(t, req.Contains(model.ReadExternalStorage))
	assert.False(t, req.Contains(model.WriteExternalStorage))
	assert.Empty(t, req.Token)
}

func TestBuildRequestLegacyStorageAllDenied(t *testing.T) {
	g := New(nil)
	req := g.BuildRequest(platform.LegacyStorage, allDenied)

	assert.Equal(t, []model.PermissionID{model.Camera, model.ReadExternalStorage, model.WriteExternalStorage}, req.Permissions)
}

func TestBuildRequestAllGrantedIsEmpty(t *testing.T) {
	g := New(nil)
	for _, p := range platform.Profiles() {
		req := g.BuildRequest(p, allGranted)
		assert.True(t, req.Empty(), "profile %s", p)
		assert.NotNil(t, req.Permissions, "profile %s", p)
	}
}

// Every subset of granted candidates must be excluded from the request, and
// every non-granted candidate included.
func TestBuildRequestDisjointFromGranted(t *testing.T) {
	g := New(nil)
	for _, p := range platform.Profiles() {
		candidates := g.Candidates(p)
		for mask := 0; mask < 1<<len(candidates); mask++ {
			var granted []model.PermissionID
			for i, id := range candidates {
				if mask&(1<<i) != 0 {
					granted = append(granted, id)
				}
			}
			req := g.BuildRequest(p, statusFrom(granted...))

			for _, id := range granted {
				assert.False(t, req.Contains(id), "profile %s mask %b: %s already granted", p, mask, id)
			}
			assert.Len(t, req.Permissions, len(candidates)-len(granted), "profile %s mask %b", p, mask)
			assert.Equal(t, len(granted) == len(candidates), req.Empty())
		}
	}
}

func TestBuildRequestIdempotent(t *testing.T) {
	g := New(nil)
	status := statusFrom(model.ReadMediaVideo)

	first := g.BuildRequest(platform.ScopedMedia, status)
	second := g.BuildRequest(platform.ScopedMedia, status)
	assert.Equal(t, first, second)
}

func TestBuildRequestFollowsConfigSwap(t *testing.T) {
	g := New(nil)
	cfg := requirement.DefaultConfig()
	cfg.Always = nil
	g.SetConfig(cfg, "sha256:custom")

	req := g.BuildRequest(platform.ScopedMedia, allDenied)
	assert.Equal(t, []model.PermissionID{model.ReadMediaImages, model.ReadMediaVideo}, req.Permissions)
	assert.Equal(t, "sha256:custom", g.ConfigHash())
	assert.Same(t, cfg, g.Config())
}

func TestClassifyResult(t *testing.T) {
	tests := []struct {
		name  string
		batch model.Batch
		want  model.Classification
	}{
		{"single granted", model.Batch{model.Camera: model.Granted}, model.AllGranted},
		{"all granted", model.Batch{model.Camera: model.Granted, model.ReadMediaImages: model.Granted, model.ReadMediaVideo: model.Granted}, model.AllGranted},
		{"single denied", model.Batch{model.Camera: model.Denied}, model.SomeDenied},
		{"one of three denied", model.Batch{model.Camera: model.Granted, model.ReadMediaImages: model.Denied, model.ReadMediaVideo: model.Granted}, model.SomeDenied},
		{"all denied", model.Batch{model.Camera: model.Denied, model.ReadExternalStorage: model.Denied}, model.SomeDenied},
		{"unknown status", model.Batch{model.Camera: "limited"}, model.SomeDenied},
		{"empty", model.Batch{}, model.AllGranted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyResult(tt.batch))
		})
	}
}

func TestDeniedKeepsRequestOrder(t *testing.T) {
	order := []model.PermissionID{model.Camera, model.ReadMediaImages, model.ReadMediaVideo}
	batch := model.Batch{model.ReadMediaVideo: model.Denied, model.Camera: model.Denied, model.ReadMediaImages: model.Granted}

	require.Equal(t, []model.PermissionID{model.Camera, model.ReadMediaVideo}, Denied(batch, order))
	assert.Nil(t, Denied(model.Batch{model.Camera: model.Granted}, []model.PermissionID{model.Camera}))
	assert.Equal(t, []model.PermissionID{model.Camera}, Denied(model.Batch{}, []model.PermissionID{model.Camera}))
}
