package platform

import (
	"fmt"
	"strings"
)

// Profile selects which storage permissions apply on the running OS.
type Profile string

const (
	// LegacyStorage uses the blanket external-storage permission pair.
	LegacyStorage Profile = "legacy-storage"
	// ScopedMedia uses the per-media-type permissions introduced in Android 13.
	ScopedMedia Profile = "scoped-media"
)

// ScopedMediaMinSDK is the first API level (TIRAMISU) with scoped media permissions.
const ScopedMediaMinSDK = 33

// Profiles lists every known profile in a stable order.
func Profiles() []Profile {
	return []Profile{LegacyStorage, ScopedMedia}
}

// ForSDK returns the profile for an Android API level, switching to
// ScopedMedia at minScoped. A non-positive minScoped uses ScopedMediaMinSDK.
func ForSDK(level, minScoped int) Profile {
	if minScoped <= 0 {
		minScoped = ScopedMediaMinSDK
	}
	if level >= minScoped {
		return ScopedMedia
	}
	return LegacyStorage
}

// Parse resolves a profile name. Underscores are accepted in place of dashes.
func Parse(s string) (Profile, error) {
	p := Profile(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"))
	switch p {
	case LegacyStorage, ScopedMedia:
		return p, nil
	}
	return "", fmt.Errorf("unknown platform profile %q (want %s or %s)", s, LegacyStorage, ScopedMedia)
}
