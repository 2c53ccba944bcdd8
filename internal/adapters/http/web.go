package web

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"poolside/internal/adapters/bookingapi"
	"poolside/internal/adapters/http/middleware"
	"poolside/internal/adapters/http/perf"
	auditStore "poolside/internal/adapters/storage/audit"
	"poolside/internal/adapters/view"
)

// Deps holds the collaborators of the front.
type Deps struct {
	Client    *bookingapi.Client
	Audit     auditStore.Store // optional
	Collector *perf.Collector  // optional
	Renderer  *view.Renderer
}

// Options tunes the front. Zero values fall back to defaults.
type Options struct {
	CSRFKey        []byte
	SecureCookies  bool
	TrustedOrigins []string
	RatePerSecond  float64
	RateBurst      int
	SlowRequestMs  int
	SuccessTTL     time.Duration
	ViewerIdle     time.Duration
	TimetableDays  []string
	AdminToken     string // empty disables /admin/*
}

// Front is the booking front: one Document per browser, rendered on demand.
type Front struct {
	deps    Deps
	opts    Options
	viewers *view.Registry[*viewer]
	limiter *middleware.RateLimiter
	handler http.Handler
}

// New wires the routes and middleware.
// PRE: deps.Client and deps.Renderer are non-nil; opts.CSRFKey is 32 bytes
// POST: Handler() serves the front
func New(deps Deps, opts Options) *Front {
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 10
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 20
	}
	f := &Front{deps: deps, opts: opts}
	f.viewers = view.NewRegistry(opts.ViewerIdle, f.newViewer)
	f.viewers.OnEvict(func(id string, v *viewer) { v.close() })
	f.limiter = middleware.NewRateLimiter(opts.RatePerSecond, opts.RateBurst)
	middleware.SecureCookies = opts.SecureCookies

	mux := http.NewServeMux()
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(view.Static())))
	f.registerRoutes(mux)

	// Outermost last: Timing -> RateLimit -> Viewer -> CSRF -> SecurityHeaders -> Mux
	f.handler = middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(opts.CSRFKey, middleware.CSRFOptions{
			Secure:         opts.SecureCookies,
			TrustedOrigins: opts.TrustedOrigins,
		}),
		middleware.Viewer,
		middleware.RateLimit(f.limiter),
		middleware.Timing(deps.Collector, opts.SlowRequestMs),
	)
	return f
}

// Handler returns the root handler.
func (f *Front) Handler() http.Handler { return f.handler }

// Viewers returns the number of live viewers.
func (f *Front) Viewers() int { return f.viewers.Len() }

// RunJanitor reaps idle viewers and rate limiter entries until ctx is done.
func (f *Front) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reaped := f.viewers.Reap()
			swept := f.limiter.Sweep(5 * time.Minute)
			if reaped > 0 || swept > 0 {
				zap.L().Debug("janitor",
					zap.Int("viewers_reaped", reaped),
					zap.Int("visitors_swept", swept),
					zap.Int("viewers_live", f.viewers.Len()),
				)
			}
		}
	}
}
