package security

import (
	"fmt"
	"net/http"
	"strings"
)

// HeadersConfig describes the security headers sent with every response.
type HeadersConfig struct {
	// ScriptSources are the origins allowed next to 'self' for scripts.
	// The dashboard pulls htmx and Chart.js from CDNs.
	ScriptSources []string

	FrameOptions      string
	ReferrerPolicy    string
	PermissionsPolicy string

	// HSTSMaxAge is in seconds; zero disables the header. It is only sent
	// on TLS connections.
	HSTSMaxAge int
}

func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		ScriptSources:     []string{"https://unpkg.com", "https://cdn.jsdelivr.net"},
		FrameOptions:      "DENY",
		ReferrerPolicy:    "strict-origin-when-cross-origin",
		PermissionsPolicy: "geolocation=(), microphone=(), camera=(), payment=()",
		HSTSMaxAge:        31536000,
	}
}

// ContentSecurityPolicy renders the policy for the dashboard: same-origin
// everything, CDN scripts, inline styles for chart sizing.
func (c HeadersConfig) ContentSecurityPolicy() string {
	scripts := append([]string{"'self'"}, c.ScriptSources...)
	directives := []string{
		"default-src 'self'",
		"script-src " + strings.Join(scripts, " "),
		"style-src 'self' 'unsafe-inline'",
		"img-src 'self' data:",
		"connect-src 'self'",
		"object-src 'none'",
		"frame-ancestors 'none'",
		"base-uri 'self'",
		"form-action 'self'",
	}
	return strings.Join(directives, "; ")
}

type HeadersMiddleware struct {
	static http.Header
	hsts   string
}

// NewHeadersMiddleware renders the header values once.
func NewHeadersMiddleware(config HeadersConfig) *HeadersMiddleware {
	h := http.Header{}
	h.Set("Content-Security-Policy", config.ContentSecurityPolicy())
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Cross-Origin-Opener-Policy", "same-origin")
	h.Set("Cross-Origin-Resource-Policy", "same-origin")
	if config.FrameOptions != "" {
		h.Set("X-Frame-Options", config.FrameOptions)
	}
	if config.ReferrerPolicy != "" {
		h.Set("Referrer-Policy", config.ReferrerPolicy)
	}
	if config.PermissionsPolicy != "" {
		h.Set("Permissions-Policy", config.PermissionsPolicy)
	}

	m := &HeadersMiddleware{static: h}
	if config.HSTSMaxAge > 0 {
		m.hsts = fmt.Sprintf("max-age=%d; includeSubDomains", config.HSTSMaxAge)
	}
	return m
}

func (m *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dst := w.Header()
		for k, v := range m.static {
			dst[k] = v
		}
		if r.TLS != nil && m.hsts != "" {
			dst.Set("Strict-Transport-Security", m.hsts)
		}
		next.ServeHTTP(w, r)
	})
}

// StaticAssetMiddleware lets browsers cache embedded assets for maxAge seconds.
func StaticAssetMiddleware(maxAge int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxAge > 0 {
				w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", maxAge))
			}
			next.ServeHTTP(w, r)
		})
	}
}
