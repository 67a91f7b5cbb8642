package http

import (
	"net/http"
	"strings"

	"finanse/internal/auth"
	applog "finanse/internal/log"
)

// authenticate puts the owner of a valid bearer token into the request
// context. Requests without one continue anonymously: reads then see an
// empty ledger and writes fail with 401.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" || s.deps.Auth == nil {
			next.ServeHTTP(w, r)
			return
		}
		owner, err := s.deps.Auth.Verify(token)
		if err != nil {
			applog.FromContext(r.Context()).DebugContext(r.Context(), "Rejected bearer token", applog.FieldError, err)
			next.ServeHTTP(w, r)
			return
		}
		ctx := auth.WithOwner(r.Context(), owner)
		ctx = applog.NewContext(ctx, applog.FromContext(ctx).With(applog.FieldOwner, owner))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
