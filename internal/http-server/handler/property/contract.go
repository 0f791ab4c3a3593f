package property

import (
	"context"
	"io"

	"rentspace/internal/domain"
	property_uc "rentspace/internal/usecase/property"
)

type propertyUsecase interface {
	CreateProperty(ctx context.Context, input property_uc.CreatePropertyInput, photos []domain.InputAsset) (*domain.Property, []property_uc.PhotoUploadResult, error)
	UpdateProperty(ctx context.Context, id string, input property_uc.CreatePropertyInput, photos []domain.InputAsset) (*domain.Property, []property_uc.PhotoUploadResult, error)
	Search(ctx context.Context, filter domain.SearchFilter) ([]domain.Property, error)
	GetProperty(ctx context.Context, id string) (*domain.Property, []domain.PropertyPhoto, error)
	ListByOwner(ctx context.Context, ownerName string) ([]domain.Property, error)
	DeleteProperty(ctx context.Context, id string) error
	GetPhotoVariant(ctx context.Context, photoID, variant string) (*domain.PropertyPhoto, io.ReadCloser, string, error)
	ReprocessPhoto(ctx context.Context, photoID string) error
	Stats(ctx context.Context) (*domain.Stats, error)
}
