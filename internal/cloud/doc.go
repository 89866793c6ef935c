// Package cloud wraps the OpenMotics cloud REST API (v1.1).
//
// Most endpoints are scoped to an installation. Select one with
// SetInstallationID (or pass it to New) before calling them; otherwise they
// fail with ErrNoInstallation without touching the network.
package cloud
