// Package urls provides centralized constants for the documentation and API
// endpoints referenced by error hints and defaults.
//
// Usage:
//
//	import "github.com/evilb/openmotics/internal/urls"
//
//	fmt.Printf("See: %s\n", urls.CloudAPIDocs)
package urls
