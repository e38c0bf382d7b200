// api/internal/api/handlers/alerts.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"pixelfort/api/internal/core/domain"
)

type AlertHandler struct {
	Repo domain.AlertRepository
}

func NewAlertHandler(repo domain.AlertRepository) *AlertHandler {
	return &AlertHandler{Repo: repo}
}

// List handles GET /api/v1/admin/alerts with optional resolved/severity/
// category query filters.
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := domain.AlertFilter{
		Severity: q.Get("severity"),
		Category: q.Get("category"),
	}
	if v := q.Get("resolved"); v != "" {
		resolved := v == "true"
		filter.IsResolved = &resolved
	}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))

	alerts, total, err := h.Repo.GetFilteredAlerts(r.Context(), filter)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"alerts": alerts,
		"total":  total,
	})
}

// Resolve handles POST /api/v1/admin/alerts/{id}/resolve.
func (h *AlertHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid alert id")
		return
	}

	claims, ok := claimsFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	if err := h.Repo.ResolveAlert(r.Context(), id, claims.UserID); err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}
