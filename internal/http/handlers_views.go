package http

import (
	"net/http"
	"time"

	"carteira/internal/core"
	applog "carteira/internal/log"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	filter := s.engine.MonthFilter()
	month, year, err := queryMonthYear(r, filter.Month, filter.Year)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dashboardJSON(s.engine.Dashboard(month, year)))
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"current_balance": money(s.engine.CurrentBalance()),
	})
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	filter := s.engine.MonthFilter()
	month, year, err := queryMonthYear(r, filter.Month, filter.Year)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, monthlyJSON(s.engine.Monthly(month, year)))
}

func (s *Server) handleCardStatement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter := s.engine.MonthFilter()
	month, year, err := queryMonthYear(r, filter.Month, filter.Year)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	st, err := s.engine.Statement(id, month, year)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statementJSON(st))
}

func (s *Server) handleCardsSummary(w http.ResponseWriter, r *http.Request) {
	filter := s.engine.MonthFilter()
	month, year, err := queryMonthYear(r, filter.Month, filter.Year)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summaryJSON(s.engine.CardsSummary(month, year)))
}

func (s *Server) handleToggleFixedExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req toggleRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	outcome, err := s.engine.ToggleFixedExpensePayment(r.Context(),
		authenticatedUser(r), id, time.Month(req.Month), req.Year, core.Money{Cents: cents})
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	applog.NewStructuredLogger(s.logs).LogSettlement(r.Context(),
		"fixed_expense", id, req.Month, req.Year, cents, string(outcome))
	writeJSON(w, http.StatusOK, map[string]string{"outcome": string(outcome)})
}

func (s *Server) handleToggleFixedIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req toggleRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	outcome, err := s.engine.ToggleFixedIncomeReceipt(r.Context(),
		id, time.Month(req.Month), req.Year, core.Money{Cents: cents})
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	applog.NewStructuredLogger(s.logs).LogSettlement(r.Context(),
		"fixed_income", id, req.Month, req.Year, cents, string(outcome))
	writeJSON(w, http.StatusOK, map[string]string{"outcome": string(outcome)})
}

func (s *Server) handleToggleCreditCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req toggleRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	outcome, err := s.engine.ToggleCreditCardPayment(r.Context(),
		id, time.Month(req.Month), req.Year, core.Money{Cents: cents})
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	applog.NewStructuredLogger(s.logs).LogSettlement(r.Context(),
		"credit_card", id, req.Month, req.Year, cents, string(outcome))
	writeJSON(w, http.StatusOK, map[string]string{"outcome": string(outcome)})
}
