package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"budgetlens/internal/cache"
	"budgetlens/internal/config"
	"budgetlens/internal/core"
	applog "budgetlens/internal/log"
	"budgetlens/internal/middleware/ratelimit"
	"budgetlens/internal/middleware/security"
	"budgetlens/internal/middleware/trace"
	"budgetlens/internal/services"
	appweb "budgetlens/web"
)

// Categorizer predicts labels for single pairs and whole uploads.
type Categorizer interface {
	Predict(ctx context.Context, account, tag string) (services.Prediction, error)
	CategorizeBatch(ctx context.Context, t *core.Table, sourceName string) (*services.BatchResult, error)
}

// DashboardReader builds the analytics view.
type DashboardReader interface {
	Dashboard(ctx context.Context) services.Dashboard
}

// ForecastReader loads the pre-computed forecast.
type ForecastReader interface {
	Load(ctx context.Context) core.Forecast
}

// HistoryReader lists recent batch runs.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]core.Batch, error)
	ExportEnabled() bool
}

// Deps are the use cases the server exposes.
type Deps struct {
	Categorizer Categorizer
	Analytics   DashboardReader
	Forecast    ForecastReader
	// History may be nil when no history backend is configured.
	History HistoryReader
	Options config.Options
}

// ServerConfig tunes request handling.
type ServerConfig struct {
	MaxUploadBytes   int64
	CurrencySymbol   string
	DownloadTTL      time.Duration
	UploadsPerMinute int
	// TrustedProxies extend the private ranges whose forwarding headers
	// are used to find the client address.
	TrustedProxies []string
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		MaxUploadBytes:   10 << 20,
		CurrencySymbol:   "₹",
		DownloadTTL:      15 * time.Minute,
		UploadsPerMinute: 20,
	}
}

type appMetrics struct {
	predictions    int64
	batches        int64
	rowsClassified int64
	downloads      int64
	uptime         time.Time
}

type Server struct {
	http.Server
	templates *template.Template
	deps      Deps
	cfg       ServerConfig
	logger    *applog.Logger

	// Categorized CSVs awaiting download, keyed by batch id.
	downloads    *cache.LRUCache[[]byte]
	cacheManager *cache.Manager

	rateLimiter      *ratelimit.Limiter
	uploadLimiter    *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics

	shutdownOnce sync.Once
	ready        atomic.Bool
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps, cfg ServerConfig, logger *applog.Logger) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultServerConfig().MaxUploadBytes
	}
	if cfg.DownloadTTL <= 0 {
		cfg.DownloadTTL = DefaultServerConfig().DownloadTTL
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	httpLogger := logger.WithComponent(applog.ComponentHTTP)

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       60 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		deps:             deps,
		cfg:              cfg,
		logger:           httpLogger,
		downloads:        cache.NewLRUCache[[]byte](50, cfg.DownloadTTL),
		cacheManager:     cache.NewManager(logger),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		uploadLimiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.UploadsPerMinute}),
		securityDetector: security.NewDetector(logger),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}
	for _, cidr := range cfg.TrustedProxies {
		if err := s.securityDetector.AddTrustedProxy(cidr); err != nil {
			httpLogger.Warn("Ignoring trusted proxy", applog.FieldError, err)
		}
	}
	s.traceMiddleware = trace.NewMiddleware(logger, s.securityDetector.ExtractClientIP)
	s.cacheManager.Register(s.downloads)
	s.cacheManager.StartCleanup(5 * time.Minute)

	t, err := template.New("").Funcs(s.templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		httpLogger.Error("Failed parsing templates", applog.FieldError, err, applog.FieldComponent, applog.ComponentTemplate)
	} else {
		s.templates = t
	}

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		httpLogger.Warn("Failed to mount embedded static FS", "error", err)
	}

	onLimit := func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).
			WarnContext(r.Context(), "Rate limit exceeded", applog.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "Too many requests. Please try again in a minute.").Write(w)
	}
	limitAll := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, onLimit)
	limitUploads := s.uploadLimiter.Middleware(s.securityDetector.ExtractClientIP, onLimit)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.Handle("POST /predict", limitAll(http.HandlerFunc(s.handlePredict)))
	mux.Handle("POST /categorize", limitUploads(http.HandlerFunc(s.handleCategorize)))
	mux.HandleFunc("GET /categorize/download/{id}", s.handleDownload)

	mux.HandleFunc("GET /api/series", s.handleSeriesAPI)
	mux.HandleFunc("GET /api/forecast", s.handleForecastAPI)

	mux.HandleFunc("GET /ui/analytics", s.handleAnalyticsPartial)
	mux.HandleFunc("GET /ui/forecast", s.handleForecastPartial)
	mux.HandleFunc("GET /ui/history", s.handleHistoryPartial)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Handler = s.traceMiddleware.Middleware(
		s.securityDetector.Middleware(
			headers.Middleware(mux)))

	s.ready.Store(s.templates != nil && deps.Categorizer != nil)
	return s
}

// Shutdown stops background routines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.ready.Store(false)
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		s.uploadLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money": func(d decimal.Decimal) string {
			return core.FormatAmount(s.cfg.CurrencySymbol, d)
		},
	}
}
