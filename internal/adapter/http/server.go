package adapthttp

import (
	"context"
	"net/http"

	"dashboard/internal/app"
	"dashboard/internal/domain"
	"dashboard/internal/logging"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/oauth2"
)

// RelayAuth is the token service behind the auth routes.
type RelayAuth interface {
	Login(ctx context.Context, username, password string) (string, domain.UserView, error)
	LoginWithUser(ctx context.Context, username string) (string, domain.UserView, error)
	Verify(ctx context.Context, token string) (domain.UserView, error)
	Logout(ctx context.Context, token string) error
}

// OIDCConfig configures the optional SSO login.
type OIDCConfig struct {
	Enabled      bool
	Provider     *oidc.Provider
	OAuth2Config oauth2.Config
}

// Options holds the optional parts of a Server.
type Options struct {
	OIDC OIDCConfig
	// MetricsRoute is where Prometheus metrics are served. Empty disables it.
	MetricsRoute string
	Log          logging.Logger
}

// Server is the driving HTTP adapter of the relay.
type Server struct {
	auth       RelayAuth
	upstream   app.Upstream
	oidcConfig OIDCConfig
	metricsAt  string
	log        logging.Logger

	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New creates a Server wired to the given services.
func New(auth RelayAuth, upstream app.Upstream, opts Options) *Server {
	if opts.Log == nil {
		opts.Log = logging.Nop{}
	}
	s := &Server{
		auth:       auth,
		upstream:   upstream,
		oidcConfig: opts.OIDC,
		metricsAt:  opts.MetricsRoute,
		log:        opts.Log,
		registry:   prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_http_requests_total",
				Help: "Relay HTTP requests by method and status code.",
			},
			[]string{"method", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "relay_http_request_duration_seconds",
				Help:    "Relay HTTP request latency.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}
	s.registry.MustRegister(s.requests, s.duration)
	return s
}

// Handler returns the root http.Handler for the relay.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	api.HandleFunc("/login", s.handleLogin)
	api.HandleFunc("/logout", s.handleLogout)
	api.HandleFunc("/verify", s.requireToken(s.handleVerify))
	api.HandleFunc("/config", s.handleConfig)

	api.HandleFunc("/sso/login", s.handleSSOLogin)
	api.HandleFunc("/sso/callback", s.handleSSOCallback)

	api.HandleFunc("/openai/generate-text", s.requireToken(s.handleGenerateText))
	api.HandleFunc("/openai/generate-image", s.requireToken(s.handleGenerateImage))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))
	if s.metricsAt != "" {
		root.Handle(s.metricsAt, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	return s.loggingMiddleware(withNoCache(root))
}
