// api/internal/api/handlers/validation.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/go-acme/lego/v4/challenge/http01"
	"github.com/go-chi/chi/v5"

	"pixelfort/api/internal/core/services"
	"pixelfort/api/internal/core/utils"
)

// ValidationHandler answers the provider's HTTP domain-validation probes.
// The provider hits /.well-known/acme-challenge/{token} on the pending
// hostname; we look the challenge up by Host header and echo the expected
// body. Anything we don't recognize is a 404 — the probe retries anyway.
type ValidationHandler struct {
	Lifecycle *services.DomainService
}

func NewValidationHandler(lifecycle *services.DomainService) *ValidationHandler {
	return &ValidationHandler{Lifecycle: lifecycle}
}

func (h *ValidationHandler) Respond(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	host := r.Host
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}

	wantToken, body, err := h.Lifecycle.PendingValidation(r.Context(), host)
	if err != nil || !utils.ConstantTimeEquals(wantToken, token) {
		http.NotFound(w, r)
		return
	}

	// Sanity check: the probe must arrive on the canonical challenge path.
	if r.URL.Path != http01.ChallengePath(token) {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
