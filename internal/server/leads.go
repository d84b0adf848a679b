package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"leadctl/internal/leadapi"
	"leadctl/internal/query"
	"leadctl/internal/storage"
)

const maxPageSize = 100

func wireLead(l storage.Lead) leadapi.Lead {
	return leadapi.Lead{
		ID:             l.ID,
		FirstName:      l.FirstName,
		LastName:       l.LastName,
		Email:          l.Email,
		Phone:          l.Phone,
		Company:        l.Company,
		City:           l.City,
		State:          l.State,
		Status:         l.Status,
		Source:         l.Source,
		Score:          l.Score,
		LeadValue:      l.LeadValue,
		IsQualified:    l.IsQualified,
		LastActivityAt: l.LastActivityAt,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
}

func storedLead(l leadapi.Lead) storage.Lead {
	return storage.Lead{
		ID:             l.ID,
		FirstName:      l.FirstName,
		LastName:       l.LastName,
		Email:          l.Email,
		Phone:          l.Phone,
		Company:        l.Company,
		City:           l.City,
		State:          l.State,
		Status:         l.Status,
		Source:         l.Source,
		Score:          l.Score,
		LeadValue:      l.LeadValue,
		IsQualified:    l.IsQualified,
		LastActivityAt: l.LastActivityAt,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
}

func (a *app) handleListLeads(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r.URL.Query())
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	leads, total, err := a.store.ListLeads(q)
	if err != nil {
		a.logger.Error("listing leads", "error", err)
		httpError(w, http.StatusInternalServerError, "Failed to fetch leads")
		return
	}

	data := make([]leadapi.Lead, len(leads))
	for i, l := range leads {
		data[i] = wireLead(l)
	}
	totalPages := (total + q.Limit - 1) / q.Limit
	if totalPages < 1 {
		totalPages = 1
	}
	writeJSON(w, http.StatusOK, leadapi.ListResult{
		Data:       data,
		Total:      total,
		TotalPages: totalPages,
	})
}

// parseListQuery decodes the /leads query grammar: page and limit as
// integers, search/status/source as strings, score and lead_value as
// JSON {"gt":n,"lt":n} objects and created_at as {"after":t,"before":t}
// with RFC 3339 timestamps.
func parseListQuery(values url.Values) (storage.LeadQuery, error) {
	q := storage.LeadQuery{Page: 1, Limit: query.DefaultLimit}

	if v := values.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return q, errors.New("page must be a positive integer")
		}
		q.Page = n
	}
	if v := values.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return q, errors.New("limit must be a positive integer")
		}
		if n > maxPageSize {
			n = maxPageSize
		}
		q.Limit = n
	}

	q.Search = strings.TrimSpace(values.Get("search"))

	if v := values.Get("status"); v != "" {
		if !slices.Contains(query.Statuses, v) {
			return q, errors.New("unknown status filter")
		}
		q.Status = v
	}
	if v := values.Get("source"); v != "" {
		if !slices.Contains(query.Sources, v) {
			return q, errors.New("unknown source filter")
		}
		q.Source = v
	}

	var err error
	if q.ScoreGT, q.ScoreLT, err = parseNumericRange(values.Get("score")); err != nil {
		return q, errors.New("score filter is malformed")
	}
	if q.ValueGT, q.ValueLT, err = parseNumericRange(values.Get("lead_value")); err != nil {
		return q, errors.New("lead_value filter is malformed")
	}
	if q.CreatedAfter, q.CreatedBefore, err = parseDateRange(values.Get("created_at")); err != nil {
		return q, errors.New("created_at filter is malformed")
	}
	return q, nil
}

func parseNumericRange(v string) (gt, lt *float64, err error) {
	if v == "" {
		return nil, nil, nil
	}
	var bounds struct {
		GT *float64 `json:"gt"`
		LT *float64 `json:"lt"`
	}
	if err := json.Unmarshal([]byte(v), &bounds); err != nil {
		return nil, nil, err
	}
	return bounds.GT, bounds.LT, nil
}

func parseDateRange(v string) (after, before *time.Time, err error) {
	if v == "" {
		return nil, nil, nil
	}
	var bounds struct {
		After  *time.Time `json:"after"`
		Before *time.Time `json:"before"`
	}
	if err := json.Unmarshal([]byte(v), &bounds); err != nil {
		return nil, nil, err
	}
	return bounds.After, bounds.Before, nil
}

func (a *app) handleGetLead(w http.ResponseWriter, r *http.Request) {
	lead, err := a.store.GetLead(chi.URLParam(r, "id"))
	if errors.Is(err, storage.ErrNotFound) {
		httpError(w, http.StatusNotFound, "Lead not found")
		return
	}
	if err != nil {
		a.logger.Error("getting lead", "error", err)
		httpError(w, http.StatusInternalServerError, "Failed to fetch lead")
		return
	}
	writeJSON(w, http.StatusOK, wireLead(lead))
}

func (a *app) handleCreateLead(w http.ResponseWriter, r *http.Request) {
	var req leadapi.Lead
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := validateLead(&req); msg != "" {
		httpError(w, http.StatusBadRequest, msg)
		return
	}

	now := a.now().UTC()
	req.ID = uuid.NewString()
	req.CreatedAt = now
	req.UpdatedAt = now
	if err := a.store.CreateLead(storedLead(req)); err != nil {
		a.logger.Error("creating lead", "error", err)
		httpError(w, http.StatusInternalServerError, "Failed to create lead")
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (a *app) handleUpdateLead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, err := a.store.GetLead(id)
	if errors.Is(err, storage.ErrNotFound) {
		httpError(w, http.StatusNotFound, "Lead not found")
		return
	}
	if err != nil {
		a.logger.Error("getting lead", "error", err)
		httpError(w, http.StatusInternalServerError, "Failed to update lead")
		return
	}

	var req leadapi.Lead
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := validateLead(&req); msg != "" {
		httpError(w, http.StatusBadRequest, msg)
		return
	}

	req.ID = id
	req.CreatedAt = existing.CreatedAt
	req.UpdatedAt = a.now().UTC()
	if err := a.store.UpdateLead(storedLead(req)); err != nil {
		a.logger.Error("updating lead", "error", err)
		httpError(w, http.StatusInternalServerError, "Failed to update lead")
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (a *app) handleDeleteLead(w http.ResponseWriter, r *http.Request) {
	err := a.store.DeleteLead(chi.URLParam(r, "id"))
	if errors.Is(err, storage.ErrNotFound) {
		httpError(w, http.StatusNotFound, "Lead not found")
		return
	}
	if err != nil {
		a.logger.Error("deleting lead", "error", err)
		httpError(w, http.StatusInternalServerError, "Failed to delete lead")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Lead deleted",
	})
}

// validateLead normalizes and checks an incoming lead body. It returns
// an empty string when the lead is acceptable.
func validateLead(l *leadapi.Lead) string {
	l.FirstName = strings.TrimSpace(l.FirstName)
	l.LastName = strings.TrimSpace(l.LastName)
	l.Email = strings.TrimSpace(l.Email)

	switch {
	case l.FirstName == "":
		return "First name is required"
	case l.Email == "":
		return "Email is required"
	case !validEmail(l.Email):
		return "Email address is invalid"
	}
	if l.Status == "" {
		l.Status = query.StatusNew
	}
	if !slices.Contains(query.Statuses, l.Status) {
		return "Unknown lead status"
	}
	if l.Source == "" {
		l.Source = query.SourceOther
	}
	if !slices.Contains(query.Sources, l.Source) {
		return "Unknown lead source"
	}
	if l.Score < 0 || l.Score > 100 {
		return "Score must be between 0 and 100"
	}
	return ""
}
