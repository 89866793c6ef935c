package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/evilb/openmotics/internal/logging"
)

const (
	// ServiceType is the service gateways advertise their web interface under
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS browse domain.
	ServiceDomain = "local."

	// DefaultScanTimeout bounds a scan when the caller sets no deadline.
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort applies when an entry carries no port
	DefaultPort = 443

	vendorKey   = "vendor"
	vendorValue = "openmotics"
)

// Matcher decides whether a service entry is an OpenMotics gateway.
type Matcher func(entry *zeroconf.ServiceEntry) bool

// MatchOpenMotics accepts entries whose hostname or instance name mentions
// openmotics, or which carry a vendor=openmotics TXT record.
func MatchOpenMotics(entry *zeroconf.ServiceEntry) bool {
	if strings.Contains(strings.ToLower(entry.HostName), vendorValue) ||
		strings.Contains(strings.ToLower(entry.Instance), vendorValue) {
		return true
	}
	for _, txt := range entry.Text {
		k, v, _ := strings.Cut(txt, "=")
		if strings.EqualFold(k, vendorKey) && strings.EqualFold(v, vendorValue) {
			return true
		}
	}
	return false
}

// MatchAll accepts every HTTP service.
func MatchAll(*zeroconf.ServiceEntry) bool { return true }

// Scanner browses mDNS for gateways.
type Scanner struct {
	Timeout time.Duration
	Match   Matcher
	Logger  *zap.Logger
}

func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
		Match:   MatchOpenMotics,
	}
}

func (s *Scanner) logger() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return logging.GetLogger()
}

// Scan collects gateways until the timeout elapses or ctx is cancelled.
// Duplicate announcements of the same host and port are reported once.
func (s *Scanner) Scan(ctx context.Context) ([]*Gateway, error) {
	var (
		mu       sync.Mutex
		gateways = make([]*Gateway, 0)
		seen     = make(map[string]bool)
	)
	err := s.browse(ctx, func(gw *Gateway) bool {
		key := gw.IP + "|" + fmt.Sprint(gw.Port)
		mu.Lock()
		defer mu.Unlock()
		if !seen[key] {
			seen[key] = true
			gateways = append(gateways, gw)
			s.logger().Debug("gateway discovered", zap.String("name", gw.Name), zap.String("url", gw.BaseURL()))
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	mu.Lock()
	defer mu.Unlock()
	return gateways, nil
}

// Find waits for the gateway whose name or hostname equals name
// (case-insensitive, trailing ".local." optional).
func (s *Scanner) Find(ctx context.Context, name string) (*Gateway, error) {
	want := normalizeName(name)
	found := make(chan *Gateway, 1)
	err := s.browse(ctx, func(gw *Gateway) bool {
		if normalizeName(gw.Name) == want || normalizeName(gw.Hostname) == want {
			select {
			case found <- gw:
			default:
			}
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	select {
	case gw := <-found:
		return gw, nil
	default:
		return nil, fmt.Errorf("gateway %q not found within %s", name, s.timeout())
	}
}

func (s *Scanner) timeout() time.Duration {
	if s.Timeout <= 0 {
		return DefaultScanTimeout
	}
	return s.Timeout
}

// browse runs the resolver and hands every matching gateway to visit until
// visit returns false or the scan ends.
func (s *Scanner) browse(ctx context.Context, visit func(*Gateway) bool) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-entries:
				if !ok {
					return
				}
				gw := s.parseServiceEntry(entry)
				if gw != nil && !visit(gw) {
					cancel()
					return
				}
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	<-consumed
	return nil
}

// parseServiceEntry converts a service entry, or returns nil when it is not a
// gateway or has no address.
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Gateway {
	if entry == nil || entry.HostName == "" {
		return nil
	}
	match := s.Match
	if match == nil {
		match = MatchOpenMotics
	}
	if !match(entry) {
		return nil
	}

	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	metadata := make(map[string]string, len(entry.Text))
	for _, txt := range entry.Text {
		k, v, _ := strings.Cut(txt, "=")
		metadata[k] = v
	}

	name := entry.Instance
	if name == "" {
		name = strings.TrimSuffix(strings.TrimSuffix(entry.HostName, "."), ".local")
	}

	return &Gateway{
		Name:         name,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSuffix(name, "."))
	return strings.TrimSuffix(name, ".local")
}
