package http

import (
	"net/http"
	"strings"
	"time"

	"budgetbuddy/internal/auth"
	"budgetbuddy/internal/log"
)

const sessionCookieName = "budgetbuddy_session"

// requireSession resolves the bearer token or session cookie. Browsers are
// redirected to /login; API clients get a 401.
func (s *Server) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.svc.Auth.Authenticate(sessionToken(r))
		if err != nil {
			if wantsHTML(r) {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			ErrorFromErr(r, err).Write(w)
			return
		}

		ctx := auth.WithClaims(r.Context(), claims)
		ctx = log.NewContext(ctx, log.FromContext(ctx).With(log.FieldUserID, claims.UserID))
		next(w, r.WithContext(ctx))
	}
}

func sessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(sessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func (s *Server) sessionCookie(token string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Server) expiredSessionCookie() *http.Cookie {
	c := s.sessionCookie("", 0)
	c.MaxAge = -1
	return c
}
