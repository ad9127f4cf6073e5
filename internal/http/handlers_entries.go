package http

import (
	"net/http"

	"budgetbuddy/internal/auth"
	"budgetbuddy/internal/core"
)

func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.Incomes.List(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		ErrorFromErr(r, err).Write(w)
		return
	}
	NewJSONResponse().JSON(nonNil(items)).Write(w)
}

func (s *Server) handleGetIncome(w http.ResponseWriter, r *http.Request) {
	in, err := s.svc.Incomes.Get(r.Context(), auth.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		ErrorFromErr(r, err).Write(w)
		return
	}
	NewJSONResponse().JSON(in).Write(w)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	p, fail := parseBody(r)
	if fail != nil {
		fail.Write(w)
		return
	}
	in, err := incomeFromRequest(p, auth.UserID(r.Context()), "")
	if err == nil {
		in, err = s.svc.Incomes.Create(r.Context(), in)
	}
	if err != nil {
		ErrorFromErr(r, err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).JSON(in).Write(w)
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	p, fail := parseBody(r)
	if fail != nil {
		fail.Write(w)
		return
	}
	in, err := incomeFromRequest(p, auth.UserID(r.Context()), r.PathValue("id"))
	if err == nil {
		in, err = s.svc.Incomes.Update(r.Context(), in)
	}
	if err != nil {
		ErrorFromErr(r, err).Write(w)
		return
	}
	NewJSONResponse().JSON(in).Write(w)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Incomes.Delete(r.Context(), auth.UserID(r.Context()), r.PathValue("id")); err != nil {
		ErrorFromErr(r, err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.Expenses.List(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		ErrorFromErr(r, err).Write(w)
		return
	}
	NewJSONResponse().JSON(nonNil(items)).Write(w)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, err := s.svc.Expenses.Get(r.Context(), auth.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		ErrorFromErr(r, err).Write(w)
		return
	}
	NewJSONResponse().JSON(e).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	p, fail := parseBody(r)
	if fail != nil {
		fail.Write(w)
		return
	}
	e, err := expenseFromRequest(p, auth.UserID(r.Context()), "")
	if err == nil {
		e, err = s.svc.Expenses.Create(r.Context(), e)
	}
	if err != nil {
		ErrorFromErr(r, err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).JSON(e).Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	p, fail := parseBody(r)
	if fail != nil {
		fail.Write(w)
		return
	}
	e, err := expenseFromRequest(p, auth.UserID(r.Context()), r.PathValue("id"))
	if err == nil {
		e, err = s.svc.Expenses.Update(r.Context(), e)
	}
	if err != nil {
		ErrorFromErr(r, err).Write(w)
		return
	}
	NewJSONResponse().JSON(e).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Expenses.Delete(r.Context(), auth.UserID(r.Context()), r.PathValue("id")); err != nil {
		ErrorFromErr(r, err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func handleCategories(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(core.Categories()).Write(w)
}

// nonNil makes empty lists encode as [] instead of null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
