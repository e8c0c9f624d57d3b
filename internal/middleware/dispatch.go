package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/amethyst/internal/app/dispatch"
	"github.com/atinyakov/amethyst/internal/metrics"
)

// WithDispatch runs the redirect dispatcher ahead of routing. GET and HEAD
// requests for a slug are answered with a 302; everything else reaches next.
func WithDispatch(d *dispatch.Dispatcher, m *metrics.Metrics, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			decision, err := d.Dispatch(r.Context(), r.URL.Path)
			if err != nil {
				m.Dispatches.WithLabelValues("error").Inc()
				log.Error("slug lookup failed",
					zap.String("request_id", RequestIDFrom(r.Context())),
					zap.String("slug", decision.Slug),
					zap.Error(err),
				)
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}

			if decision.Action == dispatch.PassThrough {
				next.ServeHTTP(w, r)
				return
			}

			outcome := "hit"
			if !decision.Found {
				outcome = "miss"
			}
			m.Dispatches.WithLabelValues(outcome).Inc()

			http.Redirect(w, r, decision.Location, http.StatusFound)
		})
	}
}
