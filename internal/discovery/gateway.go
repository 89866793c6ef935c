package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/evilb/openmotics/internal/localgw"
)

// Gateway is a discovered OpenMotics gateway.
type Gateway struct {
	// Name is the mDNS instance name
	Name string

	// Hostname as advertised, e.g. "openmotics-1a2b.local."
	Hostname string

	IP   string
	Port int

	// Metadata holds the TXT records
	Metadata map[string]string

	DiscoveredAt time.Time
}

func (g *Gateway) String() string {
	return fmt.Sprintf("OpenMotics gateway %s (%s) at %s", g.Name, g.Hostname, net.JoinHostPort(g.IP, strconv.Itoa(g.Port)))
}

// Secure reports whether the gateway serves its API over TLS.
func (g *Gateway) Secure() bool {
	return g.Port != 80
}

// BaseURL returns the root URL of the gateway's local API.
func (g *Gateway) BaseURL() string {
	scheme := "https"
	if !g.Secure() {
		scheme = "http"
	}
	return scheme + "://" + net.JoinHostPort(g.IP, strconv.Itoa(g.Port))
}

// LocalConfig returns a local gateway configuration pointing at g. Credentials
// are left for the caller.
func (g *Gateway) LocalConfig() localgw.Config {
	return localgw.Config{
		Host:      g.IP,
		Port:      g.Port,
		PlainHTTP: !g.Secure(),
	}
}

// GetMetadata returns a TXT value, or "" when absent.
func (g *Gateway) GetMetadata(key string) string {
	if g.Metadata == nil {
		return ""
	}
	return g.Metadata[key]
}
