// api/internal/api/handlers/image.go
package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"pixelfort/api/internal/core/domain"
	"pixelfort/api/internal/core/services"
)

type ImageHandler struct {
	Images *services.ImageService
	Blobs  domain.BlobStore
	Repo   domain.ImageRepository
}

func NewImageHandler(images *services.ImageService, blobs domain.BlobStore, repo domain.ImageRepository) *ImageHandler {
	return &ImageHandler{Images: images, Blobs: blobs, Repo: repo}
}

// Upload handles POST /api/v1/images as multipart/form-data with a single
// "file" part.
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(services.MaxImageBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart payload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing file part")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, services.MaxImageBytes+1))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	img, err := h.Images.Upload(r.Context(), claims, header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"image": img,
		"url":   img.URL(),
	})
}

// List handles GET /api/v1/images.
func (h *ImageHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	images, err := h.Images.List(r.Context(), claims)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, images)
}

// Delete handles DELETE /api/v1/images/{id}.
func (h *ImageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	imageID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid image ID format")
		return
	}

	if err := h.Images.Delete(r.Context(), claims, imageID); err != nil {
		HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Serve handles GET /i/{key} — the public serving path. It is the only
// route reachable through custom domains, so it never consults provider
// status: routing correctness was settled at selection time.
func (h *ImageHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	img, err := h.Repo.GetByKey(r.Context(), key)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	data, contentType, err := h.Blobs.Get(r.Context(), img.StorageKey)
	if err != nil {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	if contentType == "" {
		contentType = img.ContentType
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
