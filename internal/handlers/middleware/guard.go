package middleware

import (
	"net/http"

	"github.com/nkiryanov/bookadmin/internal/guard"
	"github.com/nkiryanov/bookadmin/internal/handlers/userctx"
	"github.com/nkiryanov/bookadmin/internal/session"
)

type sessionSource interface {
	Snapshot() session.Snapshot
}

// GuardMiddleware lets the request through only when the guard renders the route.
// Otherwise the operator is sent to the login or default view with 303 See Other
func GuardMiddleware(sessions sessionSource, route guard.Route) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap := sessions.Snapshot()

			decision := guard.Decide(snap.State, route, snap.IsAdmin())
			if decision != guard.Render {
				http.Redirect(w, r, decision.Location(), http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r.WithContext(userctx.New(r.Context(), snap)))
		})
	}
}
