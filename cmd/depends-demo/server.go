package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/junioryono/depends"
	dchi "github.com/junioryono/depends/chi"
	ddig "github.com/junioryono/depends/dig"
	"github.com/junioryono/depends/internal/config"
	"go.uber.org/dig"
)

var errNameTooLong = errors.New("name too long")

// newServer builds the demo router and checks its dependency graph.
func newServer(cfg *config.Config, logger *slog.Logger) (*dchi.Router, error) {
	container := dig.New()
	if err := container.Provide(newVisits); err != nil {
		return nil, err
	}
	ddig.Bind(visitsDep, container)

	r := dchi.NewRouter(
		dchi.WithLogger(logger),
		dchi.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			if errors.Is(err, errNameTooLong) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			logger.Error("request failed", "path", r.URL.Path, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}),
		dchi.WithPanicRecovery(true),
	)

	if cfg.App.FakeClock {
		if err := r.Overrides().Set(systemClock, fixedClock); err != nil {
			return nil, err
		}
		logger.Info("using fixed clock")
	}

	r.Use(middleware.RequestID)
	r.Use(r.ScopeMiddleware())

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, "ok")
	})

	r.Get("/hello", func(w http.ResponseWriter, g Greeting, id RequestID) {
		w.Header().Set("X-Request-Id", string(id))
		fmt.Fprintln(w, g)
	})

	r.Route("/visits", func(r *dchi.Router) {
		r.Post("/", func(w http.ResponseWriter, v Visits, id RequestID, s *depends.Scope) {
			logger.Debug("visit", "request_id", id, "scope", s.ID())
			fmt.Fprintln(w, v.Add())
		})
	})

	if err := r.Injector().Validate(); err != nil {
		return nil, err
	}

	return r, nil
}
