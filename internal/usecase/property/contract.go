package property

import (
	"context"
	"io"

	"rentspace/internal/domain"
)

type propertyRepository interface {
	Save(ctx context.Context, p *domain.Property) error
	GetByID(ctx context.Context, id string) (*domain.Property, error)
	Update(ctx context.Context, p *domain.Property) error
	Search(ctx context.Context, filter domain.SearchFilter) ([]domain.Property, error)
	ListByOwner(ctx context.Context, ownerName string) ([]domain.Property, error)
	Delete(ctx context.Context, id string) error
	SavePhoto(ctx context.Context, photo *domain.PropertyPhoto) error
	GetPhotoByID(ctx context.Context, id string) (*domain.PropertyPhoto, error)
	GetPhotosByProperty(ctx context.Context, propertyID string) ([]domain.PropertyPhoto, error)
	UpdatePhotoStatus(ctx context.Context, id string, status domain.PhotoStatus) error
	DeletePhotosByProperty(ctx context.Context, propertyID string) error
	Stats(ctx context.Context) (*domain.Stats, error)
}

type fileRepository interface {
	SaveOriginal(ctx context.Context, path string, data io.Reader, size int64, contentType string) error
	SaveAsset(ctx context.Context, path string, data []byte, contentType string) error
	GetObject(ctx context.Context, path string) (io.ReadCloser, error)
	DeleteObject(ctx context.Context, path string) error
	DeleteObjectsWithPrefix(ctx context.Context, prefix string) error
}

type mediaPipeline interface {
	Process(ctx context.Context, asset domain.InputAsset) (*domain.PipelineResult, error)
}

type taskProducer interface {
	Send(ctx context.Context, task *domain.ReprocessTask) error
}
