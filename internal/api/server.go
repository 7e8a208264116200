// Package api serves the dashboard over HTTP: accounts, file history,
// analysis results, charts and PDF reports.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ProjectApnapan/apnapan-pulse/internal/account"
	"github.com/ProjectApnapan/apnapan-pulse/internal/auth"
	"github.com/ProjectApnapan/apnapan-pulse/internal/session"
	"github.com/ProjectApnapan/apnapan-pulse/internal/store"
	"github.com/ProjectApnapan/apnapan-pulse/internal/survey"
)

// Options tunes the HTTP surface.
type Options struct {
	AllowedOrigins     []string
	MaxUploadBytes     int64
	LoginRatePerMinute int
	ReportTitle        string
	BrandLogo          []byte
}

// Deps are the collaborators behind the handlers.
type Deps struct {
	Accounts *account.Service
	Files    store.FileStore
	Feedback store.FeedbackStore
	Sessions session.Store
	Tokens   *auth.Issuer
	Pipeline *survey.Pipeline
}

// Server holds the handler state.
type Server struct {
	deps    Deps
	opts    Options
	limiter *ipLimiter
	now     func() time.Time
}

// New returns a Server.
func New(deps Deps, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 20 << 20
	}
	if opts.LoginRatePerMinute <= 0 {
		opts.LoginRatePerMinute = 10
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if deps.Pipeline == nil {
		deps.Pipeline = survey.NewPipeline()
	}
	return &Server{
		deps:    deps,
		opts:    opts,
		limiter: newIPLimiter(opts.LoginRatePerMinute),
		now:     time.Now,
	}
}

// Router builds the chi router with middleware and all routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/accounts", s.createAccount)
		r.With(s.limiter.middleware).Post("/login", s.login)
		r.Post("/password/verify", s.verifyReset)
		r.Post("/password/reset", s.resetPassword)
		r.Post("/feedback", s.addFeedback)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Get("/files", s.listFiles)
			r.Post("/files", s.uploadFile)
			r.Get("/files/{name}", s.downloadFile)
			r.Post("/files/{name}/analyze", s.analyzeStored)

			r.Get("/results", s.results)
			r.Get("/results/matched", s.matched)
			r.Get("/results/breakdown", s.breakdown)
			r.Get("/results/distribution", s.distribution)
			r.Get("/results/chart", s.chartPNG)

			r.Get("/report", s.report)
			r.Get("/report/charts", s.chartOptions)
			r.Post("/report/custom", s.customReport)
		})
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
