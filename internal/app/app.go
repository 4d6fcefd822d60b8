package app

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/papaburgs/spacegui/internal/live"
	"github.com/papaburgs/spacegui/internal/metrics"
	"github.com/papaburgs/spacegui/internal/querycache"
	"github.com/papaburgs/spacegui/internal/session"
	"github.com/papaburgs/spacegui/internal/spacetraders"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

// Options wires the App to the rest of the process. Only Client is required.
type Options struct {
	Client   *spacetraders.Client
	Cache    *querycache.Cache
	Sessions *session.Store
	Hub      *live.Hub
	// HubDone is closed when the hub stops, see live.NewHandler.
	HubDone <-chan struct{}
	// DB enables credit charts and the action log. It may be nil.
	DB      *sql.DB
	Metrics *metrics.Metrics

	// BackendURL and Token feed the /api proxy.
	BackendURL     string
	Token          string
	AllowedOrigins []string
	// StaticDir serves static files from disk instead of the embedded copy.
	StaticDir      string
	RequestTimeout time.Duration
	// CollectEvery is the collector cadence, used to thin chart data.
	CollectEvery time.Duration
}

// App holds everything the handlers need. Per-viewer state lives in the
// session store, not here.
type App struct {
	client   *spacetraders.Client
	cache    *querycache.Cache
	sessions *session.Store
	hub      *live.Hub
	hubDone  <-chan struct{}
	db       *sql.DB
	metrics  *metrics.Metrics

	backend        *url.URL
	token          string
	allowedOrigins []string
	staticDir      string
	requestTimeout time.Duration
	// collectPointsPerHour is used to change the charts density
	collectPointsPerHour int

	t *template.Template
}

func New(o Options) (*App, error) {
	if o.Client == nil {
		return nil, fmt.Errorf("app needs a backend client")
	}
	backend, err := url.Parse(o.BackendURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	t, err := template.New("").Funcs(funcs).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	a := &App{
		client:         o.Client,
		cache:          o.Cache,
		sessions:       o.Sessions,
		hub:            o.Hub,
		hubDone:        o.HubDone,
		db:             o.DB,
		metrics:        o.Metrics,
		backend:        backend,
		token:          o.Token,
		allowedOrigins: o.AllowedOrigins,
		staticDir:      o.StaticDir,
		requestTimeout: o.RequestTimeout,
		t:              t,
	}
	if a.sessions == nil {
		a.sessions = session.NewStore(0, o.Metrics)
	}
	a.collectPointsPerHour = 12
	if o.CollectEvery > 0 {
		a.collectPointsPerHour = int(time.Hour / o.CollectEvery)
	}
	return a, nil
}

// Routes builds the router.
func (a *App) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", a.HealthHandler)
	if a.metrics != nil {
		r.Method(http.MethodGet, "/metrics", a.metrics.Handler())
	}
	r.Mount("/static", a.staticHandler())
	r.Handle("/api/*", a.proxyHandler())
	if a.hub != nil {
		r.Method(http.MethodGet, "/ws", live.NewHandler(a.hub, a.hubDone, a.checkOrigin))
	}

	r.Group(func(r chi.Router) {
		r.Use(a.sessions.Middleware)
		r.Use(a.withTimeout)

		r.Get("/", a.PageHandler)
		r.Get("/{page}", a.PageHandler)
		r.Get("/partials/sidebar", a.SidebarHandler)
		r.Get("/partials/systems/pick", a.PickWaypointHandler)
		r.Get("/partials/ships/{symbol}/quote/{kind}", a.QuoteHandler)
		r.Get("/partials/{page}", a.PartialHandler)
		r.Post("/select/{symbol}", a.SelectHandler)
		r.Get("/charts/credits", a.LoadChartHandler)
		r.Get("/export", a.ExportHandler)

		r.Route("/actions/ships/{symbol}", func(r chi.Router) {
			r.Post("/scan/{type}", a.ScanHandler)
			r.Post("/survey", a.SurveyHandler)
			r.Post("/security/{feature}", a.SecurityHandler)
			r.Post("/crew/hire", a.CrewHandler)
			r.Post("/crew/{id}/{op}", a.CrewHandler)
			r.Post("/resources/{action}", a.ResourceHandler)
			r.Post("/install", a.RefitHandler)
			r.Post("/remove", a.RefitHandler)
			r.Post("/customize", a.RefitHandler)
			r.Post("/{action}", a.ShipActionHandler)
		})
		r.Post("/actions/automation/route-optimization", a.RouteOptimizationHandler)
		r.Post("/actions/automation/{feature}/configure", a.AutomationHandler)
	})
	return r
}

func (a *App) staticHandler() http.Handler {
	// define static_dir to work on the css without rebuilding
	if a.staticDir != "" {
		return http.StripPrefix("/static/", http.FileServer(http.Dir(a.staticDir)))
	}
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		// the embed directive guarantees the directory
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// withTimeout bounds the backend calls a request can make. The context is
// also cancelled when the browser goes away, which releases shared reads in
// the query cache.
func (a *App) withTimeout(next http.Handler) http.Handler {
	if a.requestTimeout <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), a.requestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *App) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	status := "ok"
	code := http.StatusOK
	if a.db != nil {
		if err := a.db.PingContext(r.Context()); err != nil {
			slog.Warn("health check database ping failed", "error", err)
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"status":%q,"service":"spacegui"}`, status)
}
