package router

import (
	"context"
	"errors"
	"net/http"
)

type decisionContextKey struct{}

// DecisionFromContext returns the decision Middleware attached to an allowed
// request.
func DecisionFromContext(ctx context.Context) (Decision, bool) {
	d, ok := ctx.Value(decisionContextKey{}).(Decision)
	return d, ok
}

// Middleware enforces g on every request path: redirects become 302
// responses, unknown paths 404, and allowed requests reach next with their
// Decision in the context.
func Middleware(g *Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if g == nil {
				http.Error(w, "navigation guard unavailable", http.StatusInternalServerError)
				return
			}

			d, err := g.Resolve(r.URL.Path)
			if err != nil {
				status := http.StatusInternalServerError
				if errors.Is(err, ErrRedirectLoop) {
					status = http.StatusLoopDetected
				}
				http.Error(w, err.Error(), status)
				return
			}

			switch d.Outcome {
			case Redirect:
				http.Redirect(w, r, d.Target, http.StatusFound)
			case NotFound:
				http.NotFound(w, r)
			default:
				ctx := context.WithValue(r.Context(), decisionContextKey{}, d)
				next.ServeHTTP(w, r.WithContext(ctx))
			}
		})
	}
}
