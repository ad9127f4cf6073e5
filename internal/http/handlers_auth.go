package http

import (
	"net/http"
	"time"

	"budgetbuddy/internal/auth"
	"budgetbuddy/internal/core"
	"budgetbuddy/internal/log"
)

type loginResponse struct {
	User      core.User `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	p, fail := parseBody(r)
	if fail != nil {
		fail.Write(w)
		return
	}
	u, err := s.svc.Auth.Register(r.Context(), p.Get("name"), p.Get("email"), p.GetRaw("password"))
	if err != nil {
		ErrorFromErr(r, err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).JSON(u).Write(w)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	p, fail := parseBody(r)
	if fail != nil {
		fail.Write(w)
		return
	}
	u, token, err := s.svc.Auth.Login(r.Context(), p.Get("email"), p.GetRaw("password"))
	if err != nil {
		ErrorFromErr(r, err).Write(w)
		return
	}

	ttl := s.svc.Auth.SessionTTL()
	log.FromContext(r.Context()).InfoContext(r.Context(), "User logged in", log.FieldUserID, u.ID)
	NewJSONResponse().
		Cookie(s.sessionCookie(token, ttl)).
		JSON(loginResponse{User: u, Token: token, ExpiresAt: time.Now().Add(ttl).UTC()}).
		Write(w)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Status(http.StatusNoContent).Cookie(s.expiredSessionCookie()).Write(w)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.Auth.Me(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		ErrorFromErr(r, err).Write(w)
		return
	}
	NewJSONResponse().JSON(u).Write(w)
}
