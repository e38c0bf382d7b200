// api/internal/api/handlers/waitlist.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"pixelfort/api/internal/db/postgres"
)

type WaitlistStore interface {
	Add(ctx context.Context, email string) error
	List(ctx context.Context) ([]postgres.WaitlistEntry, error)
}

type JoinWaitlistRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

type WaitlistHandler struct {
	store WaitlistStore
}

func NewWaitlistHandler(store WaitlistStore) *WaitlistHandler {
	return &WaitlistHandler{store: store}
}

// Join handles POST /api/v1/waitlist — public, unauthenticated.
func (h *WaitlistHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req JoinWaitlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := validate.Struct(req); err != nil {
		HandleError(w, r, err)
		return
	}

	if err := h.store.Add(r.Context(), req.Email); err != nil {
		HandleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{"status": "joined"})
}

// List handles GET /api/v1/admin/waitlist.
func (h *WaitlistHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.List(r.Context())
	if err != nil {
		HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}
