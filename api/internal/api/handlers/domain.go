// api/internal/api/handlers/domain.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"pixelfort/api/internal/core/domain"
	"pixelfort/api/internal/core/services"
)

// ==============================================================================
// 1. Request Payloads (Input Validation)
// ==============================================================================

type CreateDomainRequest struct {
	// fqdn tag rejects malformed hostnames before the service layer spends
	// a provider round trip on them.
	Name       string `json:"name" validate:"required,fqdn,max=255"`
	Visibility string `json:"visibility" validate:"omitempty,oneof=private public"`
}

type SelectDomainRequest struct {
	// DomainID null clears the selection and falls back to the system
	// default at serve time.
	DomainID *uuid.UUID `json:"domain_id"`
}

// ==============================================================================
// 2. The Handler Struct (Dependency Injection)
// ==============================================================================

type DomainHandler struct {
	Lifecycle *services.DomainService
	Access    *services.DomainAccess
}

func NewDomainHandler(lifecycle *services.DomainService, access *services.DomainAccess) *DomainHandler {
	return &DomainHandler{
		Lifecycle: lifecycle,
		Access:    access,
	}
}

// ==============================================================================
// 3. HTTP Methods
// ==============================================================================

// List handles GET /api/v1/domains — every domain the caller may select,
// enriched with live provider status.
func (h *DomainHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	views, err := h.Access.ListSelectable(r.Context(), claims)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, views)
}

// Create handles POST /api/v1/domains — tenant self-service. Admin-only
// fields (default/worker) are not reachable from here.
func (h *DomainHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateDomainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := validate.Struct(req); err != nil {
		HandleError(w, r, err)
		return
	}

	visibility := domain.Visibility(req.Visibility)
	if visibility == "" {
		visibility = domain.VisibilityPrivate
	}

	created, err := h.Lifecycle.CreateDomain(r.Context(), services.CreateDomainInput{
		Name:       req.Name,
		OwnerID:    &claims.UserID,
		Visibility: visibility,
	})
	if err != nil {
		HandleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

// Delete handles DELETE /api/v1/domains/{id}. The service enforces
// ownership; users still pointing at the domain are detached first.
func (h *DomainHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	domainID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid domain ID format")
		return
	}

	if err := h.Lifecycle.DeleteDomain(r.Context(), domainID, claims); err != nil {
		HandleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Select handles PUT /api/v1/users/me/domain — the caller's upload-domain
// choice. Authorization and provisioning state are re-checked at this
// instant, never from a cache.
func (h *DomainHandler) Select(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req SelectDomainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	if err := h.Access.SelectDomain(r.Context(), claims, req.DomainID); err != nil {
		HandleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "selected"})
}
