package http

import (
	"net/http"

	"budgetbuddy/internal/auth"
	"budgetbuddy/internal/core"
)

type balanceResponse struct {
	UserID  string     `json:"user_id"`
	Balance core.Money `json:"balance"`
	Mode    string     `json:"ledger_mode"`
}

// handleBalance returns the cached ledger total.
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	total, err := s.svc.Ledger.Balance(r.Context(), userID)
	if err != nil {
		ErrorFromErr(r, err).Write(w)
		return
	}
	NewJSONResponse().JSON(balanceResponse{UserID: userID, Balance: total, Mode: string(s.svc.Ledger.Mode())}).Write(w)
}

// handleReconcile compares the cached total with the entries; ?fix=true
// overwrites the cache with the computed value.
func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	fix := ParseBoolParam(r.URL.Query(), "fix", false)
	report, err := s.svc.Reconcile.User(r.Context(), auth.UserID(r.Context()), fix)
	if err != nil {
		ErrorFromErr(r, err).Write(w)
		return
	}
	NewJSONResponse().JSON(report).Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	year, month, err := ParseMonthParam(r.URL.Query())
	if err != nil {
		ErrorFromErr(r, err).Write(w)
		return
	}
	d, err := s.svc.Dashboard.Build(r.Context(), auth.UserID(r.Context()), year, month)
	if err != nil {
		ErrorFromErr(r, err).Write(w)
		return
	}
	NewJSONResponse().JSON(d).Write(w)
}
