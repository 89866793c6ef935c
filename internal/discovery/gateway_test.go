package discovery

import "testing"

func TestGateway_BaseURL(t *testing.T) {
	tests := []struct {
		name string
		gw   *Gateway
		want string
	}{
		{"https default", &Gateway{IP: "192.168.4.16", Port: 443}, "https://192.168.4.16:443"},
		{"plain http", &Gateway{IP: "10.0.0.5", Port: 80}, "http://10.0.0.5:80"},
		{"ipv6", &Gateway{IP: "fe80::1", Port: 8443}, "https://[fe80::1]:8443"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.gw.BaseURL(); got != tt.want {
				t.Errorf("BaseURL() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGateway_LocalConfig(t *testing.T) {
	gw := &Gateway{IP: "10.0.0.5", Port: 80}
	cfg := gw.LocalConfig()
	if cfg.Host != "10.0.0.5" || cfg.Port != 80 || !cfg.PlainHTTP {
		t.Errorf("LocalConfig() = %+v", cfg)
	}
	if got := cfg.BaseURL(); got != gw.BaseURL() {
		t.Errorf("LocalConfig().BaseURL() = %v, want %v", got, gw.BaseURL())
	}
}

func TestGateway_String(t *testing.T) {
	gw := &Gateway{Name: "Home", Hostname: "openmotics.local.", IP: "10.0.0.5", Port: 443}
	want := "OpenMotics gateway Home (openmotics.local.) at 10.0.0.5:443"
	if got := gw.String(); got != want {
		t.Errorf("String() = %v, want %v", got, want)
	}
}

func TestGateway_GetMetadata(t *testing.T) {
	var gw Gateway
	if gw.GetMetadata("path") != "" {
		t.Error("nil metadata should yield empty string")
	}
}
