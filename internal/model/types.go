package model

import "strings"

// PermissionID identifies a platform runtime permission by its manifest name.
type PermissionID string

const (
	Camera               PermissionID = "android.permission.CAMERA"
	ReadMediaImages      PermissionID = "android.permission.READ_MEDIA_IMAGES"
	ReadMediaVideo       PermissionID = "android.permission.READ_MEDIA_VIDEO"
	ReadExternalStorage  PermissionID = "android.permission.READ_EXTERNAL_STORAGE"
	WriteExternalStorage PermissionID = "android.permission.WRITE_EXTERNAL_STORAGE"
)

// aliases maps the short names accepted on the command line and in scenario
// files to manifest names.
var aliases = map[string]PermissionID{
	"camera":                 Camera,
	"read-media-images":      ReadMediaImages,
	"read-media-video":       ReadMediaVideo,
	"read-external-storage":  ReadExternalStorage,
	"write-external-storage": WriteExternalStorage,
}

// ParsePermission resolves a short alias or passes a manifest name through.
// Unknown values are returned as-is: the set of permissions is open.
func ParsePermission(s string) PermissionID {
	s = strings.TrimSpace(s)
	if id, ok := aliases[strings.ToLower(s)]; ok {
		return id
	}
	return PermissionID(s)
}

// ParsePermissions resolves every entry of ids with ParsePermission.
func ParsePermissions(ids []string) []PermissionID {
	out := make([]PermissionID, 0, len(ids))
	for _, s := range ids {
		out = append(out, ParsePermission(s))
	}
	return out
}

// GrantStatus is the OS-tracked grant state of one permission.
type GrantStatus string

const (
	Granted GrantStatus = "granted"
	Denied  GrantStatus = "denied"
)

// Android PackageManager result codes.
const (
	AndroidPermissionGranted = 0
	AndroidPermissionDenied  = -1
)

// GrantStatusFromAndroid maps a PackageManager result code to a GrantStatus.
// Anything other than PERMISSION_GRANTED counts as denied.
func GrantStatusFromAndroid(code int) GrantStatus {
	if code == AndroidPermissionGranted {
		return Granted
	}
	return Denied
}

// ParseGrantStatus accepts "granted"/"denied" (any case) and the usual
// boolean spellings. Unrecognized values are denied.
func ParseGrantStatus(s string) GrantStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "granted", "grant", "allow", "true", "yes", "0":
		return Granted
	default:
		return Denied
	}
}

// Classification is the binary outcome of a grant-result batch.
type Classification string

const (
	AllGranted Classification = "all_granted"
	SomeDenied Classification = "some_denied"
)

// Batch maps each requested permission to the status the platform reported.
type Batch map[PermissionID]GrantStatus

// BatchFromAndroid builds a Batch from the parallel arrays delivered to
// onRequestPermissionsResult. Extra trailing entries in either slice are
// ignored.
func BatchFromAndroid(permissions []string, grantResults []int) Batch {
	n := len(permissions)
	if len(grantResults) < n {
		n = len(grantResults)
	}
	b := make(Batch, n)
	for i := 0; i < n; i++ {
		b[PermissionID(permissions[i])] = GrantStatusFromAndroid(grantResults[i])
	}
	return b
}
