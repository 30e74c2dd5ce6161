/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Recoverer:  Panic recovery (500 instead of crash)
  2. RequestID:  Unique ID per request for tracing
  3. Logger:     Structured request logging (zap)
  4. CORS:       Cross-origin requests for the dashboard frontend

ROUTE GROUPS:
  /api/hires, /api/terminations, /api/requisitions   Record registration
  /api/records, /api/recruiters                      Lookups
  /api/dashboard, /api/periods/*                     Reporting
  /api/import/*                                      Spreadsheet import
  /api/scenarios/*                                   Demo data
  /*                                                 Static files (frontend)

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - logging/logging.go: RequestLogger
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/warp/talent-tracker/logging"
	"go.uber.org/zap"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, corsOrigins []string, log *zap.Logger) *chi.Mux {
	if log == nil {
		log = zap.NewNop()
	}
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(logging.RequestLogger(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/hires", func(r chi.Router) {
			r.Get("/", h.ListHires)
			r.Post("/", h.CreateHire)
		})

		r.Route("/terminations", func(r chi.Router) {
			r.Get("/", h.ListTerminations)
			r.Post("/", h.CreateTermination)
			r.Put("/{id}", h.UpdateTermination)
		})

		r.Route("/requisitions", func(r chi.Router) {
			r.Get("/", h.ListRequisitions)
			r.Post("/", h.CreateRequisition)
			r.Put("/{id}", h.UpdateRequisition)
		})

		r.Get("/records", h.ListRecords)
		r.Get("/recruiters", h.ListRecruiters)
		r.Get("/dashboard", h.GetDashboard)

		r.Route("/periods", func(r chi.Router) {
			r.Get("/resolve", h.ResolvePeriod)
			r.Get("/options", h.PeriodOptions)
		})

		r.Route("/import", func(r chi.Router) {
			r.Post("/", h.Import)
			r.Get("/runs", h.ListImportRuns)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	// Serve the built dashboard from ./web/dist, then next to the executable.
	staticDir := "./web/dist"
	if _, err := os.Stat(staticDir); os.IsNotExist(err) {
		exe, _ := os.Executable()
		staticDir = filepath.Join(filepath.Dir(exe), "web", "dist")
	}

	if _, err := os.Stat(staticDir); err == nil {
		fileServer := http.FileServer(http.Dir(staticDir))
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			if _, err := os.Stat(filepath.Join(staticDir, r.URL.Path)); os.IsNotExist(err) {
				// SPA routing
				http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
				return
			}
			fileServer.ServeHTTP(w, r)
		})
	} else {
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(landingPage))
		})
	}

	return r
}

const landingPage = `<!DOCTYPE html>
<html>
<head><title>Talent Tracker</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Talent Tracker API</h1>
<p>The dashboard frontend is not built.</p>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/dashboard">/api/dashboard</a> - Dashboard for all time</li>
<li><a href="/api/requisitions">/api/requisitions</a> - Requisitions with coverage</li>
<li><a href="/api/periods/options">/api/periods/options</a> - Period picker options</li>
<li><a href="/api/scenarios">/api/scenarios</a> - Demo scenarios</li>
</ul>
</body>
</html>`
