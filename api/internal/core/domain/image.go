package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Image is the metadata row for one uploaded object. The bytes themselves
// live in the blob store under StorageKey.
type Image struct {
	ID          uuid.UUID `json:"id" db:"id"`
	OwnerID     uuid.UUID `json:"owner_id" db:"owner_id"`
	StorageKey  string    `json:"-" db:"storage_key"`
	FileName    string    `json:"file_name" db:"file_name"`
	ContentType string    `json:"content_type" db:"content_type"`
	SizeBytes   int64     `json:"size_bytes" db:"size_bytes"`

	// ServeHost is the hostname the image was published under, resolved
	// from the uploader's selected domain at upload time.
	ServeHost string `json:"serve_host" db:"serve_host"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// URL is the public address of the image.
func (i *Image) URL() string {
	return "https://" + i.ServeHost + "/i/" + i.StorageKey
}

type ImageRepository interface {
	Create(ctx context.Context, img *Image) error
	GetByID(ctx context.Context, id uuid.UUID) (*Image, error)
	GetByKey(ctx context.Context, key string) (*Image, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Image, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// BlobStore is the narrow contract over object storage. Everything beyond
// put/get/delete is someone else's problem.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, string, error)
	Delete(ctx context.Context, key string) error
}
