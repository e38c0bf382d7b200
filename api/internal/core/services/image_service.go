package services

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"pixelfort/api/internal/core/domain"
)

// MaxImageBytes caps a single upload.
const MaxImageBytes = 25 << 20 // 25 MiB

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
	"image/avif": true,
	"image/svg+xml": true,
}

// ImageService is ordinary upload plumbing: bytes to the blob store, a
// metadata row to Postgres. The only interesting part is resolving which
// hostname the image gets published under, which is the access resolver's
// call, not ours.
type ImageService struct {
	repo   domain.ImageRepository
	blobs  domain.BlobStore
	access *DomainAccess
	logger *slog.Logger
}

func NewImageService(repo domain.ImageRepository, blobs domain.BlobStore, access *DomainAccess, logger *slog.Logger) *ImageService {
	return &ImageService{repo: repo, blobs: blobs, access: access, logger: logger}
}

func (s *ImageService) Upload(ctx context.Context, principal *domain.UserClaims, fileName, contentType string, data []byte) (*domain.Image, error) {
	if len(data) == 0 || len(data) > MaxImageBytes {
		return nil, fmt.Errorf("image size out of bounds: %d bytes", len(data))
	}
	if !allowedImageTypes[strings.ToLower(contentType)] {
		return nil, fmt.Errorf("unsupported content type %q", contentType)
	}

	host, err := s.access.ServingHost(ctx, principal)
	if err != nil {
		return nil, err
	}

	key := uuid.NewString() + strings.ToLower(path.Ext(fileName))
	if err := s.blobs.Put(ctx, key, data, contentType); err != nil {
		return nil, err
	}

	img := &domain.Image{
		OwnerID:     principal.UserID,
		StorageKey:  key,
		FileName:    fileName,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		ServeHost:   host,
	}
	if err := s.repo.Create(ctx, img); err != nil {
		// The blob is already durable; try to reclaim it so a failed insert
		// does not leak storage. Failure here is log-only.
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			s.logger.Warn("Orphaned blob after metadata insert failure",
				slog.String("key", key), slog.Any("error", delErr))
		}
		return nil, err
	}

	return img, nil
}

func (s *ImageService) List(ctx context.Context, principal *domain.UserClaims) ([]domain.Image, error) {
	return s.repo.ListByOwner(ctx, principal.UserID)
}

// Delete removes the metadata row first, then the blob best-effort: a
// dangling object costs cents, a dangling row serves a 404.
func (s *ImageService) Delete(ctx context.Context, principal *domain.UserClaims, id uuid.UUID) error {
	img, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if img.OwnerID != principal.UserID && !principal.IsAdmin() {
		return domain.ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.blobs.Delete(ctx, img.StorageKey); err != nil {
		s.logger.Warn("Blob delete failed after row removal",
			slog.String("key", img.StorageKey), slog.Any("error", err))
	}
	return nil
}
