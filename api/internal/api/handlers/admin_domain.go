// api/internal/api/handlers/admin_domain.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"pixelfort/api/internal/core/domain"
	"pixelfort/api/internal/core/services"
)

type AdminCreateDomainRequest struct {
	Name           string `json:"name" validate:"required,fqdn,max=255"`
	IsDefault      bool   `json:"is_default"`
	IsWorkerDomain bool   `json:"is_worker_domain"`
}

type AdminPatchDomainRequest struct {
	IsActive   *bool `json:"is_active"`
	IsApproved *bool `json:"is_approved"`
	IsDefault  *bool `json:"is_default"`
}

// AdminDomainHandler exposes the operator surface: every route behind it
// sits behind the admin-rank middleware.
type AdminDomainHandler struct {
	Lifecycle *services.DomainService
	Repo      domain.DomainRepository
	Logger    *slog.Logger
}

func NewAdminDomainHandler(lifecycle *services.DomainService, repo domain.DomainRepository, logger *slog.Logger) *AdminDomainHandler {
	return &AdminDomainHandler{Lifecycle: lifecycle, Repo: repo, Logger: logger}
}

// List handles GET /api/v1/admin/domains — every row, enriched with live
// provider status so operators see validation progress without a separate
// refresh call.
func (h *AdminDomainHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Repo.List(r.Context())
	if err != nil {
		HandleError(w, r, err)
		return
	}

	views := make([]domain.DomainView, 0, len(rows))
	for _, d := range rows {
		status, err := h.Lifecycle.CheckStatus(r.Context(), &d)
		if err != nil {
			h.Logger.Warn("Status check failed in admin listing",
				slog.String("domain", d.Name), slog.Any("error", err))
			status = domain.DomainStatus{Status: "unknown", SSLStatus: "unknown"}
		}
		views = append(views, domain.DomainView{Domain: d, DomainStatus: status})
	}

	respondJSON(w, http.StatusOK, views)
}

// Create handles POST /api/v1/admin/domains — administrator-managed
// domains, including the system default and worker domains that bypass
// provider registration.
func (h *AdminDomainHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req AdminCreateDomainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := validate.Struct(req); err != nil {
		HandleError(w, r, err)
		return
	}

	created, err := h.Lifecycle.CreateDomain(r.Context(), services.CreateDomainInput{
		Name:           req.Name,
		IsDefault:      req.IsDefault,
		IsWorkerDomain: req.IsWorkerDomain,
	})
	if err != nil {
		HandleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

// Patch handles PATCH /api/v1/admin/domains/{id} for the three mutable
// flags. is_default routes through the lifecycle service so the
// single-default invariant holds; the other two are plain row updates.
func (h *AdminDomainHandler) Patch(w http.ResponseWriter, r *http.Request) {
	domainID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid domain ID format")
		return
	}

	var req AdminPatchDomainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	if req.IsActive != nil || req.IsApproved != nil {
		patch := domain.DomainPatch{IsActive: req.IsActive, IsApproved: req.IsApproved}
		if err := h.Repo.UpdateFlags(r.Context(), domainID, patch); err != nil {
			HandleError(w, r, err)
			return
		}
	}

	if req.IsDefault != nil {
		if !*req.IsDefault {
			// Unsetting the default directly would leave the system with no
			// fallback hostname; point the slot at another domain instead.
			respondError(w, http.StatusConflict, "set another domain as default instead of unsetting this one")
			return
		}
		if err := h.Lifecycle.SetDefault(r.Context(), domainID); err != nil {
			HandleError(w, r, err)
			return
		}
	}

	updated, err := h.Repo.GetByID(r.Context(), domainID)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/v1/admin/domains/{id} — force delete, only
// allowed while no user references the domain.
func (h *AdminDomainHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
