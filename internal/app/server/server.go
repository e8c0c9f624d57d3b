// Package server assembles the chi router: middleware chain, redirect
// dispatcher, internal API and landing page.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/amethyst/internal/app/dispatch"
	"github.com/atinyakov/amethyst/internal/app/handler"
	"github.com/atinyakov/amethyst/internal/app/service"
	"github.com/atinyakov/amethyst/internal/config"
	"github.com/atinyakov/amethyst/internal/metrics"
	"github.com/atinyakov/amethyst/internal/middleware"
)

// Init builds the HTTP handler. The dispatcher sits in front of routing so
// slug paths never reach the router.
func Init(opts *config.Options, svc service.LinkServiceIface, dispatcher *dispatch.Dispatcher, m *metrics.Metrics, logger *zap.Logger) (*chi.Mux, error) {
	trusted, err := middleware.WithSubnet(opts.TrustedSubnet)
	if err != nil {
		return nil, err
	}

	create := handler.NewCreate(opts.ResultHostname, svc, m, logger, opts.DetailedErrors)
	get := handler.NewGet(svc, logger)

	r := chi.NewRouter()
	r.Use(middleware.WithRequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(middleware.WithTimeout(opts.RequestTimeout))
	r.Use(middleware.WithDispatch(dispatcher, m, logger))

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(trusted)

			r.Handle("/metrics", m.Handler())
			if opts.EnablePprof {
				r.Mount("/debug", chimw.Profiler())
			}
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.WithGZIP)

			r.Post("/create", create.Create)
			r.Get("/get", get.BySlug)
			r.Get("/ping", get.PingDB)
		})
	})

	r.Get("/", handler.Landing(logger))

	if opts.StaticDir != "" {
		static := http.FileServer(http.Dir(opts.StaticDir))
		r.Method(http.MethodGet, "/*", static)
		r.Method(http.MethodHead, "/*", static)
	}

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Route not found", http.StatusNotFound)
	})

	return r, nil
}
