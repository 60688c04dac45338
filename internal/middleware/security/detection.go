// Package security extracts client addresses, flags probing requests and
// sets response security headers.
package security

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync/atomic"

	applog "budgetlens/internal/log"
)

const (
	maxURLLength      = 2048
	maxForwardingHops = 5
)

// Path fragments that only show up when someone is probing for files or
// admin panels this service never serves.
var pathProbes = []string{
	"../", "..\\", "/.env", "/.git", "/.ssh", "wp-admin", "phpmyadmin",
	".php", "etc/passwd", "cmd.exe", "/cgi-bin",
}

// Query values are free text (filters, limits) so only traversal is flagged.
var queryProbes = []string{"../", "..\\", "etc/passwd"}

var scannerAgents = []string{
	"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan", "zgrab", "nuclei",
}

var probeMethods = map[string]bool{
	"TRACE":   true,
	"TRACK":   true,
	"DEBUG":   true,
	"CONNECT": true,
}

// DetectionMetrics counts what the detector has seen since start.
type DetectionMetrics struct {
	SuspiciousRequests int64
	InvalidIPAttempts  int64
}

// Detector resolves client addresses behind trusted proxies and flags
// requests that look like scans.
type Detector struct {
	suspicious     atomic.Int64
	invalidIPs     atomic.Int64
	trustedProxies []*net.IPNet
	logger         *applog.Logger
}

func NewDetector(logger *applog.Logger) *Detector {
	d := &Detector{logger: logger.WithComponent(applog.ComponentSecurity)}
	for _, cidr := range []string{"127.0.0.0/8", "::1/128", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"} {
		if err := d.AddTrustedProxy(cidr); err != nil {
			panic(err)
		}
	}
	return d
}

// AddTrustedProxy trusts forwarding headers from peers inside cidr. Call it
// before the detector starts serving requests.
func (d *Detector) AddTrustedProxy(cidr string) error {
	_, network, err := net.ParseCIDR(strings.TrimSpace(cidr))
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	d.trustedProxies = append(d.trustedProxies, network)
	return nil
}

// Inspect returns a short reason when the request looks like a probe.
func (d *Detector) Inspect(r *http.Request) (string, bool) {
	reason := inspect(r)
	if reason == "" {
		return "", false
	}
	d.suspicious.Add(1)
	return reason, true
}

// DetectSuspiciousRequest reports whether Inspect flags the request.
func (d *Detector) DetectSuspiciousRequest(r *http.Request) bool {
	_, ok := d.Inspect(r)
	return ok
}

func inspect(r *http.Request) string {
	if probeMethods[r.Method] {
		return "method " + r.Method
	}
	if len(r.URL.String()) > maxURLLength {
		return "url too long"
	}
	if p := firstMatch(strings.ToLower(r.URL.Path), pathProbes); p != "" {
		return "path probe " + p
	}
	if p := firstMatch(strings.ToLower(r.URL.RawQuery), queryProbes); p != "" {
		return "query probe " + p
	}
	if a := firstMatch(strings.ToLower(r.UserAgent()), scannerAgents); a != "" {
		return "scanner agent " + a
	}
	if strings.Count(r.Header.Get("X-Forwarded-For"), ",") >= maxForwardingHops {
		return "forwarding chain too long"
	}
	return ""
}

func firstMatch(s string, needles []string) string {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return n
		}
	}
	return ""
}

// ExtractClientIP returns the peer address, or the first valid forwarded
// address when the peer is a trusted proxy.
func (d *Detector) ExtractClientIP(r *http.Request) string {
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peer = r.RemoteAddr
	}
	ip := net.ParseIP(peer)
	if ip == nil {
		d.invalidIPs.Add(1)
		return peer
	}
	if !d.trusted(ip) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if client := strings.TrimSpace(first); net.ParseIP(client) != nil {
			return client
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}
	return peer
}

func (d *Detector) trusted(ip net.IP) bool {
	for _, network := range d.trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

func (d *Detector) GetMetrics() DetectionMetrics {
	return DetectionMetrics{
		SuspiciousRequests: d.suspicious.Load(),
		InvalidIPAttempts:  d.invalidIPs.Load(),
	}
}

// Middleware logs suspicious requests and lets them through; the handlers
// and rate limiter decide what is served.
func (d *Detector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reason, ok := d.Inspect(r); ok {
			fields := applog.NewFields().
				WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent()).
				WithClientIP(d.ExtractClientIP(r)).
				WithReason(reason)
			d.logger.Fields(r.Context(), slog.LevelWarn, "Suspicious request detected", fields)
		}
		next.ServeHTTP(w, r)
	})
}
