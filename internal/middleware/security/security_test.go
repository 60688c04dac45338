package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	applog "budgetlens/internal/log"
)

func TestExtractClientIP(t *testing.T) {
	d := NewDetector(applog.Discard())
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"direct", "203.0.113.7:5000", nil, "203.0.113.7"},
		{"untrusted proxy ignored", "203.0.113.7:5000", map[string]string{"X-Forwarded-For": "1.1.1.1"}, "203.0.113.7"},
		{"trusted proxy forwarded", "10.0.0.2:5000", map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.2"}, "198.51.100.1"},
		{"trusted proxy real ip", "127.0.0.1:5000", map[string]string{"X-Real-IP": "198.51.100.9"}, "198.51.100.9"},
		{"bad forwarded value", "127.0.0.1:5000", map[string]string{"X-Forwarded-For": "garbage"}, "127.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := d.ExtractClientIP(r); got != tt.want {
				t.Errorf("ExtractClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAddTrustedProxy(t *testing.T) {
	d := NewDetector(applog.Discard())
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "100.64.1.1:4000"
	r.Header.Set("X-Forwarded-For", "198.51.100.4")

	if got := d.ExtractClientIP(r); got != "100.64.1.1" {
		t.Fatalf("before AddTrustedProxy got %q", got)
	}
	if err := d.AddTrustedProxy("100.64.0.0/10"); err != nil {
		t.Fatalf("AddTrustedProxy: %v", err)
	}
	if got := d.ExtractClientIP(r); got != "198.51.100.4" {
		t.Fatalf("after AddTrustedProxy got %q", got)
	}
	if err := d.AddTrustedProxy("not-a-cidr"); err == nil {
		t.Fatal("expected error for invalid CIDR")
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	d := NewDetector(applog.Discard())
	tests := []struct {
		name   string
		target string
		ua     string
		want   bool
	}{
		{"dashboard", "/ui/analytics", "Mozilla/5.0", false},
		{"scripted download", "/categorize/download/abc", "curl/8.0", false},
		{"dotenv probe", "/.env", "Mozilla/5.0", true},
		{"scanner agent", "/", "sqlmap/1.7", true},
		{"query injection", "/api/series?x=union+select", "Mozilla/5.0", false},
		{"script in query", "/?q=%3Cscript%3E", "Mozilla/5.0", false},
		{"traversal in query", "/?f=../etc/passwd", "Mozilla/5.0", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.target, nil)
			r.Header.Set("User-Agent", tt.ua)
			if got := d.DetectSuspiciousRequest(r); got != tt.want {
				t.Errorf("DetectSuspiciousRequest(%s) = %v, want %v", tt.target, got, tt.want)
			}
		})
	}
}

func TestInspectReasons(t *testing.T) {
	d := NewDetector(applog.Discard())

	r := httptest.NewRequest("TRACE", "/", nil)
	if reason, ok := d.Inspect(r); !ok || reason != "method TRACE" {
		t.Errorf("Inspect(TRACE) = %q, %v", reason, ok)
	}

	r = httptest.NewRequest(http.MethodGet, "/wp-admin/setup.php", nil)
	if reason, _ := d.Inspect(r); reason != "path probe wp-admin" {
		t.Errorf("Inspect(wp-admin) reason = %q", reason)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-For", "1.1.1.1, 2.2.2.2, 3.3.3.3, 4.4.4.4, 5.5.5.5, 6.6.6.6")
	if reason, _ := d.Inspect(r); reason != "forwarding chain too long" {
		t.Errorf("Inspect(long chain) reason = %q", reason)
	}

	if got := d.GetMetrics().SuspiciousRequests; got != 3 {
		t.Errorf("SuspiciousRequests = %d, want 3", got)
	}
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("X-Frame-Options missing")
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must only be sent over TLS")
	}
	csp := rec.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "script-src 'self' https://unpkg.com https://cdn.jsdelivr.net") {
		t.Errorf("CSP missing CDN script sources: %q", csp)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Error("HSTS expected over TLS")
	}
}
