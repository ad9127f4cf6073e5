package http

import (
	"net/http"

	"budgetbuddy/internal/auth"
	"budgetbuddy/internal/core"
)

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.svc.Goals.List(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		ErrorFromErr(r, err).Write(w)
		return
	}
	NewJSONResponse().JSON(nonNil(goals)).Write(w)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	p, fail := parseBody(r)
	if fail != nil {
		fail.Write(w)
		return
	}
	g, err := goalFromRequest(p, auth.UserID(r.Context()), "")
	if err == nil {
		g, err = s.svc.Goals.Create(r.Context(), g)
	}
	if err != nil {
		ErrorFromErr(r, err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).JSON(g).Write(w)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	p, fail := parseBody(r)
	if fail != nil {
		fail.Write(w)
		return
	}
	g, err := goalFromRequest(p, auth.UserID(r.Context()), r.PathValue("id"))
	if err == nil {
		g, err = s.svc.Goals.Update(r.Context(), g)
	}
	if err != nil {
		ErrorFromErr(r, err).Write(w)
		return
	}
	NewJSONResponse().JSON(g).Write(w)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Goals.Delete(r.Context(), auth.UserID(r.Context()), r.PathValue("id")); err != nil {
		ErrorFromErr(r, err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// handleAccumulateGoal adds a signed amount; negative values are withdrawals.
func (s *Server) handleAccumulateGoal(w http.ResponseWriter, r *http.Request) {
	p, fail := parseBody(r)
	if fail != nil {
		fail.Write(w)
		return
	}
	amount, err := core.ParseSignedMoney(p.Get("amount"))
	if err != nil {
		ErrorFromErr(r, err).Write(w)
		return
	}
	g, err := s.svc.Goals.Accumulate(r.Context(), auth.UserID(r.Context()), r.PathValue("id"), amount)
	if err != nil {
		ErrorFromErr(r, err).Write(w)
		return
	}
	NewJSONResponse().JSON(g).Write(w)
}

func (s *Server) handleToggleGoal(w http.ResponseWriter, r *http.Request) {
	g, err := s.svc.Goals.ToggleCompleted(r.Context(), auth.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		ErrorFromErr(r, err).Write(w)
		return
	}
	NewJSONResponse().JSON(g).Write(w)
}

func (s *Server) handleListDues(w http.ResponseWriter, r *http.Request) {
	filter, err := core.ParseDueFilter(r.URL.Query().Get("filter"))
	if err != nil {
		ErrorFromErr(r, err).Write(w)
		return
	}
	items, err := s.svc.Dues.List(r.Context(), auth.UserID(r.Context()), filter)
	if err != nil {
		ErrorFromErr(r, err).Write(w)
		return
	}
	NewJSONResponse().JSON(nonNil(items)).Write(w)
}

func (s *Server) handleCreateDue(w http.ResponseWriter, r *http.Request) {
	p, fail := parseBody(r)
	if fail != nil {
		fail.Write(w)
		return
	}
	d, err := dueItemFromRequest(p, auth.UserID(r.Context()), "")
	if err == nil {
		d, err = s.svc.Dues.Create(r.Context(), d)
	}
	if err != nil {
		ErrorFromErr(r, err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).JSON(d).Write(w)
}

func (s *Server) handleUpdateDue(w http.ResponseWriter, r *http.Request) {
	p, fail := parseBody(r)
	if fail != nil {
		fail.Write(w)
		return
	}
	d, err := dueItemFromRequest(p, auth.UserID(r.Context()), r.PathValue("id"))
	if err == nil {
		d, err = s.svc.Dues.Update(r.Context(), d)
	}
	if err != nil {
		ErrorFromErr(r, err).Write(w)
		return
	}
	NewJSONResponse().JSON(d).Write(w)
}

func (s *Server) handleDeleteDue(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Dues.Delete(r.Context(), auth.UserID(r.Context()), r.PathValue("id")); err != nil {
		ErrorFromErr(r, err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleToggleDue(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Dues.TogglePaid(r.Context(), auth.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		ErrorFromErr(r, err).Write(w)
		return
	}
	NewJSONResponse().JSON(d).Write(w)
}

func (s *Server) handleDueCalendar(w http.ResponseWriter, r *http.Request) {
	year, month, err := ParseMonthParam(r.URL.Query())
	if err != nil {
		ErrorFromErr(r, err).Write(w)
		return
	}
	days, err := s.svc.Dues.Calendar(r.Context(), auth.UserID(r.Context()), year, month)
	if err != nil {
		ErrorFromErr(r, err).Write(w)
		return
	}
	NewJSONResponse().JSON(nonNil(days)).Write(w)
}
