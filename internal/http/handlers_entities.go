package http

import (
	"errors"
	"net/http"

	"carteira/internal/core"
)

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, core.ErrAlreadySettled):
		writeError(w, http.StatusConflict, core.ErrAlreadySettled.Error())
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDay),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrInvalidRate),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrEmptyName):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, expensesJSON(s.engine.Snapshot().Expenses))
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	exp, err := req.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	saved, err := s.engine.CreateExpense(r.Context(), authenticatedUser(r), exp)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, expenseJSON(saved))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.engine.DeleteExpense(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListFixedExpenses(w http.ResponseWriter, r *http.Request) {
	filter := s.engine.MonthFilter()
	month, year, err := queryMonthYear(r, filter.Month, filter.Year)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, fixedExpensesJSON(s.engine.FixedExpensesFor(month, year)))
}

func (s *Server) handleCreateFixedExpense(w http.ResponseWriter, r *http.Request) {
	var req fixedExpenseRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	fe, err := req.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	saved, err := s.engine.CreateFixedExpense(r.Context(), fe)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, fixedExpenseJSON(core.FixedExpenseStatus{FixedExpense: saved}))
}

func (s *Server) handleUpdateFixedExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req fixedExpenseRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	fe, err := req.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	fe.ID = id
	if err := s.engine.UpdateFixedExpense(r.Context(), fe); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fixedExpenseJSON(core.FixedExpenseStatus{FixedExpense: fe}))
}

func (s *Server) handleDeleteFixedExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.engine.DeleteFixedExpense(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListFixedIncomes(w http.ResponseWriter, r *http.Request) {
	filter := s.engine.MonthFilter()
	month, year, err := queryMonthYear(r, filter.Month, filter.Year)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, fixedIncomesJSON(s.engine.FixedIncomesFor(month, year)))
}

func (s *Server) handleCreateFixedIncome(w http.ResponseWriter, r *http.Request) {
	var req fixedIncomeRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	fi, err := req.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	saved, err := s.engine.CreateFixedIncome(r.Context(), fi)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, fixedIncomeJSON(core.FixedIncomeStatus{FixedIncome: saved}))
}

func (s *Server) handleUpdateFixedIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req fixedIncomeRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	fi, err := req.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	fi.ID = id
	if err := s.engine.UpdateFixedIncome(r.Context(), fi); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fixedIncomeJSON(core.FixedIncomeStatus{FixedIncome: fi}))
}

func (s *Server) handleDeleteFixedIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.engine.DeleteFixedIncome(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCreditCards(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Snapshot()
	out := make([]creditCardResponse, 0, len(snap.CreditCards))
	for _, cc := range snap.CreditCards {
		out = append(out, creditCardJSON(cc))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCreditCard(w http.ResponseWriter, r *http.Request) {
	var req creditCardRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cc, err := req.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	saved, err := s.engine.CreateCreditCard(r.Context(), cc)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, creditCardJSON(saved))
}

func (s *Server) handleUpdateCreditCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req creditCardRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cc, err := req.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cc.ID = id
	if err := s.engine.UpdateCreditCard(r.Context(), cc); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, creditCardJSON(cc))
}

func (s *Server) handleDeleteCreditCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.engine.DeleteCreditCard(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCashMovements(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Snapshot()
	out := make([]cashMovementResponse, 0, len(snap.CashMovements))
	for _, m := range snap.CashMovements {
		out = append(out, cashMovementJSON(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCashMovement(w http.ResponseWriter, r *http.Request) {
	var req cashMovementRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	m, err := req.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	saved, err := s.engine.CreateCashMovement(r.Context(), authenticatedUser(r), m)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cashMovementJSON(saved))
}

func (s *Server) handleDeleteCashMovement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.engine.DeleteCashMovement(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListInvestments(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Snapshot()
	out := make([]investmentResponse, 0, len(snap.Investments))
	for _, inv := range snap.Investments {
		out = append(out, investmentJSON(inv))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateInvestment(w http.ResponseWriter, r *http.Request) {
	var req investmentRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	inv, err := req.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	saved, err := s.engine.CreateInvestment(r.Context(), authenticatedUser(r), inv)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, investmentJSON(saved))
}

func (s *Server) handleDeleteInvestment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.engine.DeleteInvestment(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Snapshot()
	out := make([]userResponse, 0, len(snap.Users))
	for _, u := range snap.Users {
		out = append(out, userResponse{ID: u.ID, Name: u.Name, Email: u.Email})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	saved, err := s.engine.CreateUser(r.Context(), core.User{Name: req.Name, Email: req.Email})
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, userResponse{ID: saved.ID, Name: saved.Name, Email: saved.Email})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.engine.DeleteUser(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
