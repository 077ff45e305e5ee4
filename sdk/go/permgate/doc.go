// Package permgate decides which runtime permissions an app must still
// request and classifies the platform's asynchronous grant results.
//
// Usage:
//
//	host, err := permgate.New(androidBridge, permgate.WithSDKLevel(34))
//	req, err := host.Start(ctx) // calls RequestPermissions when needed
//	...
//	// later, from the permission callback:
//	outcome, err := host.OnAndroidResult(ctx, token, permissions, grantResults)
//	if errors.Is(err, permgate.ErrCorrelationMismatch) {
//	    // stale or duplicate callback, already discarded
//	}
//
// Denial is never an error: it is reported as the SomeDenied classification
// and emitted as a structured event.
package permgate
