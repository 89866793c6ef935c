package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func TestScanner_parseServiceEntry(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantName string
		wantIP   string
		wantPort int
	}{
		{
			name: "gateway hostname with IPv4",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "OpenMotics Gateway"},
				HostName:      "openmotics-1a2b.local.",
				Port:          443,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.4.16")},
				Text:          []string{"path=/"},
			},
			wantName: "OpenMotics Gateway",
			wantIP:   "192.168.4.16",
			wantPort: 443,
		},
		{
			name: "vendor TXT record only",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "Home"},
				HostName:      "home.local.",
				Port:          80,
				AddrIPv4:      []net.IP{net.ParseIP("10.0.0.5")},
				Text:          []string{"vendor=OpenMotics"},
			},
			wantName: "Home",
			wantIP:   "10.0.0.5",
			wantPort: 80,
		},
		{
			name: "no port defaults to 443",
			entry: &zeroconf.ServiceEntry{
				HostName: "OPENMOTICS.local",
				AddrIPv4: []net.IP{net.ParseIP("172.16.0.1")},
			},
			wantName: "OPENMOTICS",
			wantIP:   "172.16.0.1",
			wantPort: 443,
		},
		{
			name: "unrelated http service",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "Printer"},
				HostName:      "printer.local.",
				Port:          80,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.1.1")},
			},
			wantNil: true,
		},
		{
			name: "empty hostname",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "openmotics"},
				AddrIPv4:      []net.IP{net.ParseIP("192.168.1.1")},
			},
			wantNil: true,
		},
		{
			name: "no address",
			entry: &zeroconf.ServiceEntry{
				HostName: "openmotics.local.",
				Port:     443,
			},
			wantNil: true,
		},
		{
			name: "IPv6 only",
			entry: &zeroconf.ServiceEntry{
				HostName: "openmotics.local.",
				Port:     443,
				AddrIPv6: []net.IP{net.ParseIP("fe80::1")},
			},
			wantName: "openmotics",
			wantIP:   "fe80::1",
			wantPort: 443,
		},
		{
			name: "prefers IPv4",
			entry: &zeroconf.ServiceEntry{
				HostName: "openmotics.local.",
				Port:     443,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.50")},
				AddrIPv6: []net.IP{net.ParseIP("fe80::2")},
			},
			wantName: "openmotics",
			wantIP:   "192.168.1.50",
			wantPort: 443,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := scanner.parseServiceEntry(tt.entry)

			if tt.wantNil {
				if gw != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", gw)
				}
				return
			}
			if gw == nil {
				t.Fatal("parseServiceEntry() = nil, want gateway")
			}
			if gw.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", gw.Name, tt.wantName)
			}
			if gw.IP != tt.wantIP {
				t.Errorf("IP = %v, want %v", gw.IP, tt.wantIP)
			}
			if gw.Port != tt.wantPort {
				t.Errorf("Port = %v, want %v", gw.Port, tt.wantPort)
			}
			if gw.Hostname != tt.entry.HostName {
				t.Errorf("Hostname = %v, want %v", gw.Hostname, tt.entry.HostName)
			}
			if time.Since(gw.DiscoveredAt) > time.Second {
				t.Errorf("DiscoveredAt is not recent: %v", gw.DiscoveredAt)
			}
		})
	}
}

func TestScanner_parseServiceEntry_Metadata(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		HostName: "openmotics.local",
		Port:     443,
		AddrIPv4: []net.IP{net.ParseIP("192.168.4.16")},
		Text:     []string{"path=/", "flag", "version=1.0=beta"},
	}

	gw := NewScanner().parseServiceEntry(entry)
	if gw == nil {
		t.Fatal("parseServiceEntry() = nil, want gateway")
	}

	want := map[string]string{"path": "/", "flag": "", "version": "1.0=beta"}
	if len(gw.Metadata) != len(want) {
		t.Errorf("Metadata has %d entries, want %d", len(gw.Metadata), len(want))
	}
	for k, v := range want {
		if got := gw.GetMetadata(k); got != v {
			t.Errorf("GetMetadata(%q) = %q, want %q", k, got, v)
		}
	}
}

func TestScanner_CustomMatcher(t *testing.T) {
	scanner := NewScanner()
	scanner.Match = MatchAll

	gw := scanner.parseServiceEntry(&zeroconf.ServiceEntry{
		HostName: "printer.local.",
		Port:     80,
		AddrIPv4: []net.IP{net.ParseIP("192.168.1.1")},
	})
	if gw == nil {
		t.Fatal("MatchAll should accept any service")
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()
	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
	if scanner.Match == nil {
		t.Error("Match should default to MatchOpenMotics")
	}

	empty := &Scanner{}
	if empty.timeout() != DefaultScanTimeout {
		t.Errorf("zero Timeout should fall back to %v", DefaultScanTimeout)
	}
}

func TestNormalizeName(t *testing.T) {
	tests := map[string]string{
		"OpenMotics.local.": "openmotics",
		"openmotics.local":  "openmotics",
		"Gateway":           "gateway",
		"":                  "",
	}
	for in, want := range tests {
		if got := normalizeName(in); got != want {
			t.Errorf("normalizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

// Live mDNS browsing needs multicast on the host and is exercised manually
// with `omctl discover`.
