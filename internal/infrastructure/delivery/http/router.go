// Package httprouter serves the admin API: readiness, metrics and request submission.
package httprouter

import (
	"context"
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"

	"ytgrab/internal/consts"
	"ytgrab/internal/entity"
	"ytgrab/internal/infrastructure/delivery/http/middleware"
	"ytgrab/internal/infrastructure/delivery/http/request"
	"ytgrab/internal/infrastructure/delivery/http/response"
	"ytgrab/internal/observability"
	"ytgrab/internal/pipeline"
)

// Runner processes a media request to completion.
type Runner interface {
	Run(ctx context.Context, req entity.MediaRequest) pipeline.Result
}

// Gauges reports point-in-time load for the readiness probe.
type Gauges interface {
	InFlight() int
}

// ProxyCounter reports usable proxies. Optional.
type ProxyCounter interface {
	Count() int
	AvailableCount() int
}

// Deps are the router collaborators. Proxies may be nil.
type Deps struct {
	Runner  Runner
	Pool    Gauges
	Proxies ProxyCounter
	Metrics *observability.Metrics
}

// Readiness is the readyz payload.
type Readiness struct {
	InFlight         int `json:"in_flight"`
	InProgress       int `json:"in_progress"`
	ProxiesTotal     int `json:"proxies_total"`
	ProxiesAvailable int `json:"proxies_available"`
	Goroutines       int `json:"goroutines"`
}

type chain []func(http.Handler) http.Handler

func (c chain) then(h http.Handler) http.Handler {
	for _, mw := range slices.Backward(c) {
		h = mw(h)
	}

	return h
}

type Router struct {
	*http.ServeMux
	log         *slog.Logger
	deps        Deps
	globalChain chain
	routeChain  chain
	isSubRouter bool

	// base outlives the HTTP request so submitted work is not canceled with it.
	base context.Context
	jobs *background
}

// background tracks requests submitted through the API that are still running.
type background struct {
	wg      sync.WaitGroup
	running atomic.Int64
}

// New builds the router. Work submitted through it runs under ctx.
func New(ctx context.Context, log *slog.Logger, deps Deps) *Router {
	r := &Router{
		ServeMux: http.NewServeMux(),
		log:      log.With(slog.String("package", "httprouter")),
		deps:     deps,
		base:     ctx,
		jobs:     &background{},
	}

	r.SetGlobalMiddlewares()
	r.SetRoutes()

	return r
}

func (r *Router) Use(middleware ...func(http.Handler) http.Handler) {
	if r.isSubRouter {
		r.routeChain = append(r.routeChain, middleware...)
	} else {
		r.globalChain = append(r.globalChain, middleware...)
	}
}

func (r *Router) Group(fn func(r *Router)) {
	subRouter := &Router{
		ServeMux:    r.ServeMux,
		log:         r.log,
		deps:        r.deps,
		base:        r.base,
		jobs:        r.jobs,
		isSubRouter: true,
		routeChain:  slices.Clone(r.routeChain),
	}

	fn(subRouter)
}

func (r *Router) HandleFunc(pattern string, h http.HandlerFunc) {
	r.Handle(pattern, h)
}

// Handle registers h behind the route chain and counts it under pattern.
func (r *Router) Handle(pattern string, h http.Handler) {
	h = r.routeChain.then(h)
	h = middleware.Metrics(r.deps.Metrics, pattern)(h)

	r.ServeMux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.globalChain.then(r.ServeMux).ServeHTTP(w, req)
}

func (r *Router) SetGlobalMiddlewares() {
	r.Use(
		middleware.Recoverer(r.log),
		middleware.RequestID,
		middleware.Logger(r.log),
	)
}

func (r *Router) SetRoutes() {
	r.HandleFunc("GET /v1/readyz", r.Ready)
	r.Handle("GET /metrics", r.deps.Metrics.Handler())

	r.Group(func(g *Router) {
		g.Use(jsonOnly)
		g.HandleFunc("POST /v1/requests", g.Enqueue)
	})
}

func jsonOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "" {
			if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != "application/json" {
				response.WriteJSON(w, http.StatusUnsupportedMediaType, consts.RespInvalidRequestBody, nil, err)

				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// Ready reports the current load. It always answers 200 once the process serves HTTP.
func (r *Router) Ready(w http.ResponseWriter, _ *http.Request) {
	out := Readiness{
		InProgress: int(r.jobs.running.Load()),
		Goroutines: observability.Goroutines(),
	}

	if r.deps.Pool != nil {
		out.InFlight = r.deps.Pool.InFlight()
	}

	if r.deps.Proxies != nil {
		out.ProxiesTotal = r.deps.Proxies.Count()
		out.ProxiesAvailable = r.deps.Proxies.AvailableCount()
	}

	response.OK(w, consts.RespReady, out)
}

// Enqueue validates a submitted request, answers 202 and runs it in the background.
func (r *Router) Enqueue(w http.ResponseWriter, req *http.Request) {
	log := r.log.With("handler", "Enqueue")
	ctx := req.Context()

	var in request.Enqueue
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		log.ErrorContext(ctx, consts.RespInvalidRequestBody, slog.Any("error", err))
		response.BadRequest(w, consts.RespInvalidRequestBody, err)

		return
	}

	if err := in.Validate(); err != nil {
		log.ErrorContext(ctx, consts.RespUnprocessableEntity, slog.Any("error", err))
		response.UnprocessableEntity(w, consts.RespUnprocessableEntity, err)

		return
	}

	mr := in.MediaRequest()

	r.jobs.running.Add(1)
	r.jobs.wg.Go(func() {
		defer r.jobs.running.Add(-1)

		r.deps.Runner.Run(r.base, mr)
	})

	log.InfoContext(ctx, consts.RespRequestAccepted, slog.Any("request", mr))
	response.Accepted(w, consts.RespRequestAccepted, in)
}

// Wait blocks until every submitted request has finished.
func (r *Router) Wait() {
	r.jobs.wg.Wait()
}
