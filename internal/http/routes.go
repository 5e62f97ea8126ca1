// Package http wires the transport layer: router, metrics, and server.
package http

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"

	"github.com/greenmarket/sso/internal/http/middlewares"
)

// Registrar mounts a handler group onto a chi router.
type Registrar interface {
	Register(r chi.Router)
}

// RouterDeps carries everything NewRouter needs. Handlers are passed in
// already built so this package never imports them.
type RouterDeps struct {
	// Public mounts unauthenticated handler groups.
	Public []Registrar
	// Authed mounts handler groups behind the session auth middleware.
	Authed []Registrar

	Auth middlewares.Middleware

	Healthz stdhttp.HandlerFunc
	Readyz  stdhttp.HandlerFunc
	Metrics stdhttp.Handler
}

// NewRouter assembles the service router: recovery and request logging on
// everything, session auth only on the authed group.
func NewRouter(d RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middlewares.WithRequestID())
	r.Use(middlewares.WithRecover())
	r.Use(WithMetrics)
	r.Use(middlewares.WithLogging())

	if d.Healthz != nil {
		r.Get("/healthz", d.Healthz)
	}
	if d.Readyz != nil {
		r.Get("/readyz", d.Readyz)
	}
	if d.Metrics != nil {
		r.Method(stdhttp.MethodGet, "/metrics", d.Metrics)
	}

	r.Group(func(r chi.Router) {
		for _, reg := range d.Public {
			reg.Register(r)
		}
	})

	r.Group(func(r chi.Router) {
		if d.Auth != nil {
			r.Use(d.Auth)
		}
		for _, reg := range d.Authed {
			reg.Register(r)
		}
	})

	return r
}
