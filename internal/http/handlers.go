package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

type transactionPayload struct {
	ID          string    `json:"id,omitempty"`
	Description string    `json:"description"`
	Amount      string    `json:"amount"`
	CategoryID  string    `json:"categoryId"`
	Date        core.Date `json:"date"`
	Type        string    `json:"type"`
}

type transactionResponse struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	AmountCents int64     `json:"amountCents"`
	CategoryID  string    `json:"categoryId"`
	Date        core.Date `json:"date"`
	Type        string    `json:"type"`
	RuleID      string    `json:"ruleId,omitempty"`
	PeriodKey   string    `json:"periodKey,omitempty"`
	CreatedAt   string    `json:"createdAt"`
	UpdatedAt   string    `json:"updatedAt"`
}

type categoryPayload struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

type rulePayload struct {
	ID             string    `json:"id,omitempty"`
	Description    string    `json:"description"`
	Amount         string    `json:"amount"`
	CategoryID     string    `json:"categoryId"`
	Type           string    `json:"type"`
	Frequency      string    `json:"frequency"`
	StartDate      core.Date `json:"startDate"`
	EndDate        core.Date `json:"endDate"`
	DayOfMonth     int       `json:"dayOfMonth"`
	DayOfWeek      *int      `json:"dayOfWeek"`
	IntervalMonths int       `json:"intervalMonths"`
	IsActive       *bool     `json:"isActive"`
}

type ruleResponse struct {
	ID             string    `json:"id"`
	Description    string    `json:"description"`
	Amount         float64   `json:"amount"`
	AmountCents    int64     `json:"amountCents"`
	CategoryID     string    `json:"categoryId"`
	Type           string    `json:"type"`
	Frequency      string    `json:"frequency"`
	StartDate      core.Date `json:"startDate"`
	EndDate        core.Date `json:"endDate"`
	DayOfMonth     int       `json:"dayOfMonth"`
	DayOfWeek      int       `json:"dayOfWeek"`
	IntervalMonths int       `json:"intervalMonths"`
	IsActive       bool      `json:"isActive"`
	LastGenerated  string    `json:"lastGenerated,omitempty"`
	CreatedAt      string    `json:"createdAt"`
	UpdatedAt      string    `json:"updatedAt"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	txs, err := s.tracker.ListTransactions(r.Context(), filters)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	out := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		out[i] = toTransactionResponse(tx)
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var payload transactionPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	tx, err := payloadToTransaction(payload)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	saved, err := s.tracker.AddTransaction(r.Context(), tx)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	s.summary.Invalidate()
	respondJSON(w, http.StatusCreated, toTransactionResponse(saved))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var payload transactionPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	tx, err := payloadToTransaction(payload)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	tx.ID = r.PathValue("id")
	saved, err := s.tracker.UpdateTransaction(r.Context(), tx)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	s.summary.Invalidate()
	respondJSON(w, http.StatusOK, toTransactionResponse(saved))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete transaction")
		return
	}
	s.summary.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.tracker.ListCategories(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	respondJSON(w, http.StatusOK, cats)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var payload categoryPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	saved, err := s.tracker.AddCategory(r.Context(), core.Category{
		ID: payload.ID, Name: payload.Name, Color: payload.Color, Icon: payload.Icon,
	})
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var payload categoryPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	saved, err := s.tracker.UpdateCategory(r.Context(), core.Category{
		ID: r.PathValue("id"), Name: payload.Name, Color: payload.Color, Icon: payload.Icon,
	})
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete category")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.tracker.ListRules(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list recurring rules")
		return
	}
	out := make([]ruleResponse, len(rules))
	for i, rule := range rules {
		out[i] = toRuleResponse(rule)
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var payload rulePayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rule, err := payloadToRule(payload)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	saved, err := s.tracker.AddRule(r.Context(), rule)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, toRuleResponse(saved))
}

func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	var payload rulePayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rule, err := payloadToRule(payload)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	rule.ID = r.PathValue("id")
	saved, err := s.tracker.UpdateRule(r.Context(), rule)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, toRuleResponse(saved))
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.DeleteRule(r.Context(), r.PathValue("id")); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete recurring rule")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.summary.Summary(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to build summary")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"totalIncome":     summary.TotalIncome.Units(),
		"totalExpenses":   summary.TotalExpenses.Units(),
		"balanceCents":    summary.Balance,
		"monthlyIncome":   summary.MonthlyIncome.Units(),
		"monthlyExpenses": summary.MonthlyExpenses.Units(),
	})
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, _ *http.Request) {
	state := s.sync.State()
	resp := map[string]any{
		"status": string(state.Status),
	}
	if !state.LastSync.IsZero() {
		resp["lastSync"] = core.Timestamp(state.LastSync)
	}
	if state.Error != "" {
		resp["error"] = state.Error
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTriggerSync(w http.ResponseWriter, r *http.Request) {
	if err := s.sync.ManualSync(r.Context()); err != nil {
		if errors.Is(err, services.ErrNoUser) {
			respondError(w, http.StatusConflict, "sync is not configured")
			return
		}
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.handleSyncStatus(w, r)
}

func parseFilters(r *http.Request) (core.TransactionFilters, error) {
	q := r.URL.Query()
	filters := core.TransactionFilters{
		Search:     strings.TrimSpace(q.Get("search")),
		CategoryID: strings.TrimSpace(q.Get("category")),
		Type:       core.TransactionType(strings.TrimSpace(q.Get("type"))),
	}
	if filters.Type != "" {
		if err := filters.Type.Validate(); err != nil {
			return core.TransactionFilters{}, err
		}
	}
	if v := q.Get("from"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.TransactionFilters{}, err
		}
		filters.StartDate = d
	}
	if v := q.Get("to"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.TransactionFilters{}, err
		}
		filters.EndDate = d
	}
	return filters, nil
}

func payloadToTransaction(p transactionPayload) (core.Transaction, error) {
	amount, err := core.ParseMoney(p.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:          p.ID,
		Description: p.Description,
		Amount:      amount,
		CategoryID:  p.CategoryID,
		Date:        p.Date,
		Type:        core.TransactionType(p.Type),
	}, nil
}

func payloadToRule(p rulePayload) (core.RecurringRule, error) {
	amount, err := core.ParseMoney(p.Amount)
	if err != nil {
		return core.RecurringRule{}, err
	}
	rule := core.RecurringRule{
		ID:             p.ID,
		Description:    p.Description,
		Amount:         amount,
		CategoryID:     p.CategoryID,
		Type:           core.TransactionType(p.Type),
		Frequency:      core.Frequency(p.Frequency),
		StartDate:      p.StartDate,
		EndDate:        p.EndDate,
		DayOfMonth:     p.DayOfMonth,
		DayOfWeek:      -1,
		IntervalMonths: p.IntervalMonths,
		IsActive:       true,
	}
	if p.DayOfWeek != nil {
		rule.DayOfWeek = *p.DayOfWeek
	}
	if p.IsActive != nil {
		rule.IsActive = *p.IsActive
	}
	return rule, nil
}

func toTransactionResponse(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		Description: tx.Description,
		Amount:      tx.Amount.Units(),
		AmountCents: tx.Amount.Cents,
		CategoryID:  tx.CategoryID,
		Date:        tx.Date,
		Type:        string(tx.Type),
		RuleID:      tx.RuleID,
		PeriodKey:   tx.PeriodKey,
		CreatedAt:   core.Timestamp(tx.CreatedAt),
		UpdatedAt:   core.Timestamp(tx.UpdatedAt),
	}
}

func toRuleResponse(rule core.RecurringRule) ruleResponse {
	return ruleResponse{
		ID:             rule.ID,
		Description:    rule.Description,
		Amount:         rule.Amount.Units(),
		AmountCents:    rule.Amount.Cents,
		CategoryID:     rule.CategoryID,
		Type:           string(rule.Type),
		Frequency:      string(rule.Frequency),
		StartDate:      rule.StartDate,
		EndDate:        rule.EndDate,
		DayOfMonth:     rule.DayOfMonth,
		DayOfWeek:      rule.DayOfWeek,
		IntervalMonths: rule.IntervalMonths,
		IsActive:       rule.IsActive,
		LastGenerated:  core.Timestamp(rule.LastGenerated),
		CreatedAt:      core.Timestamp(rule.CreatedAt),
		UpdatedAt:      core.Timestamp(rule.UpdatedAt),
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrInvalidFrequency),
		errors.Is(err, core.ErrInvalidDayOfMonth),
		errors.Is(err, core.ErrInvalidDayOfWeek),
		errors.Is(err, core.ErrInvalidInterval),
		errors.Is(err, core.ErrEndBeforeStart):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
