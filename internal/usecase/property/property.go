package property

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"rentspace/internal/domain"
	repoProperty "rentspace/internal/repository/property"
	"rentspace/internal/usecase/pipeline"
)

const (
	PhotoOutcomeProcessed = "processed"
	PhotoOutcomeRejected  = "rejected"
	PhotoOutcomeDuplicate = "duplicate"
	PhotoOutcomeFailed    = "failed"
)

type CreatePropertyInput struct {
	Title       string
	Description string
	Location    string
	Type        string
	Price       int64
	OwnerName   string
	OwnerPhone  string
}

// PhotoUploadResult is the per-file outcome of a photo batch. A rejected,
// duplicate or failed file never aborts the rest of the batch.
type PhotoUploadResult struct {
	Filename string
	Outcome  string
	Message  string
	PhotoID  string
	Warning  string
}

type PropertyUsecase struct {
	repo     propertyRepository
	fileRepo fileRepository
	pipeline mediaPipeline
	producer taskProducer
	logger   *zlog.Zerolog
}

func NewPropertyUsecase(repo propertyRepository, fileRepo fileRepository, pl mediaPipeline, producer taskProducer, logger *zlog.Zerolog) *PropertyUsecase {
	return &PropertyUsecase{
		repo:     repo,
		fileRepo: fileRepo,
		pipeline: pl,
		producer: producer,
		logger:   logger,
	}
}

// CreateProperty saves the listing and runs every uploaded photo through
// the pipeline, collecting a per-file result.
func (u *PropertyUsecase) CreateProperty(ctx context.Context, input CreatePropertyInput, photos []domain.InputAsset) (*domain.Property, []PhotoUploadResult, error) {
	now := time.Now()
	prop := &domain.Property{
		ID:          uuid.New().String(),
		Title:       input.Title,
		Description: input.Description,
		Location:    input.Location,
		Type:        domain.PropertyType(input.Type),
		Price:       input.Price,
		Available:   true,
		OwnerName:   input.OwnerName,
		OwnerPhone:  input.OwnerPhone,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := u.repo.Save(ctx, prop); err != nil {
		return nil, nil, fmt.Errorf("failed to save property: %w", err)
	}

	results := make([]PhotoUploadResult, 0, len(photos))
	for _, photo := range photos {
		results = append(results, u.ingestPhoto(ctx, prop.ID, photo))
	}

	u.logger.Info().
		Str("property_id", prop.ID).
		Str("owner", prop.OwnerName).
		Int("photos", len(photos)).
		Msg("Property created")

	return prop, results, nil
}

func (u *PropertyUsecase) ingestPhoto(ctx context.Context, propertyID string, asset domain.InputAsset) PhotoUploadResult {
	result, err := u.pipeline.Process(ctx, asset)
	if err != nil {
		message := "Failed to read file"
		if errors.Is(err, pipeline.ErrDecode) {
			message = "Unsupported or corrupt image"
		}
		u.logger.Error().Err(err).Str("filename", asset.Filename).Msg("Photo processing failed")
		return PhotoUploadResult{Filename: asset.Filename, Outcome: PhotoOutcomeFailed, Message: message}
	}

	switch result.Outcome {
	case domain.OutcomeRejected:
		return PhotoUploadResult{Filename: asset.Filename, Outcome: PhotoOutcomeRejected, Message: result.Reason}
	case domain.OutcomeDuplicate:
		return PhotoUploadResult{Filename: asset.Filename, Outcome: PhotoOutcomeDuplicate, Message: "Image was already uploaded"}
	}

	photoID := uuid.New().String()
	ext := strings.ToLower(filepath.Ext(asset.Filename))
	originalPath := domain.PathPrefixOriginal + photoID + ext

	if _, err := asset.Reader.Seek(0, io.SeekStart); err != nil {
		u.logger.Error().Err(err).Str("filename", asset.Filename).Msg("Failed to rewind upload")
		return PhotoUploadResult{Filename: asset.Filename, Outcome: PhotoOutcomeFailed, Message: "Failed to read file"}
	}
	if err := u.fileRepo.SaveOriginal(ctx, originalPath, asset.Reader, asset.Size, contentTypeForExt(ext)); err != nil {
		u.logger.Error().Err(err).Str("filename", asset.Filename).Msg("Failed to store original")
		return PhotoUploadResult{Filename: asset.Filename, Outcome: PhotoOutcomeFailed, Message: "Failed to store file"}
	}

	photo := &domain.PropertyPhoto{
		ID:               photoID,
		PropertyID:       propertyID,
		OriginalFilename: asset.Filename,
		OriginalPath:     originalPath,
		OriginalSize:     asset.Size,
		Fingerprint:      result.Fingerprint,
		DesktopPath:      variantPath(propertyID, photoID, result.Desktop.Name),
		MobilePath:       variantPath(propertyID, photoID, result.Mobile.Name),
		WebPPath:         variantPath(propertyID, photoID, result.WebP.Name),
		Warning:          result.Warning,
		Status:           domain.PhotoStatusReady,
		CreatedAt:        time.Now(),
	}

	if err := u.storeVariants(ctx, photo, result); err != nil {
		u.logger.Error().Err(err).Str("photo_id", photoID).Msg("Failed to store variants")
		u.cleanupPhotoObjects(ctx, photo)
		return PhotoUploadResult{Filename: asset.Filename, Outcome: PhotoOutcomeFailed, Message: "Failed to store processed images"}
	}

	if err := u.repo.SavePhoto(ctx, photo); err != nil {
		u.logger.Error().Err(err).Str("photo_id", photoID).Msg("Failed to save photo metadata")
		u.cleanupPhotoObjects(ctx, photo)
		return PhotoUploadResult{Filename: asset.Filename, Outcome: PhotoOutcomeFailed, Message: "Failed to save photo"}
	}

	return PhotoUploadResult{
		Filename: asset.Filename,
		Outcome:  PhotoOutcomeProcessed,
		PhotoID:  photoID,
		Warning:  result.Warning,
	}
}

func (u *PropertyUsecase) storeVariants(ctx context.Context, photo *domain.PropertyPhoto, result *domain.PipelineResult) error {
	variants := []struct {
		path  string
		asset *domain.EncodedAsset
	}{
		{photo.DesktopPath, result.Desktop},
		{photo.MobilePath, result.Mobile},
		{photo.WebPPath, result.WebP},
	}

	for _, v := range variants {
		if err := u.fileRepo.SaveAsset(ctx, v.path, v.asset.Data, v.asset.ContentType); err != nil {
			return err
		}
	}
	return nil
}

func (u *PropertyUsecase) cleanupPhotoObjects(ctx context.Context, photo *domain.PropertyPhoto) {
	prefix := domain.PathPrefixPhotos + photo.PropertyID + "/" + photo.ID + "/"
	if err := u.fileRepo.DeleteObjectsWithPrefix(ctx, prefix); err != nil {
		u.logger.Error().Err(err).Str("prefix", prefix).Msg("Failed to clean up variant objects")
	}
	if err := u.fileRepo.DeleteObject(ctx, photo.OriginalPath); err != nil {
		u.logger.Error().Err(err).Str("path", photo.OriginalPath).Msg("Failed to clean up original object")
	}
}

// UpdateProperty rewrites the listing fields. A non-empty photo batch
// replaces every existing photo; an empty one keeps them.
func (u *PropertyUsecase) UpdateProperty(ctx context.Context, id string, input CreatePropertyInput, photos []domain.InputAsset) (*domain.Property, []PhotoUploadResult, error) {
	prop, err := u.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repoProperty.ErrPropertyNotFound) {
			return nil, nil, ErrPropertyNotFound
		}
		return nil, nil, fmt.Errorf("failed to get property: %w", err)
	}

	prop.Title = input.Title
	prop.Description = input.Description
	prop.Location = input.Location
	prop.Type = domain.PropertyType(input.Type)
	prop.Price = input.Price
	prop.OwnerName = input.OwnerName
	prop.OwnerPhone = input.OwnerPhone
	prop.UpdatedAt = time.Now()

	if err := u.repo.Update(ctx, prop); err != nil {
		if errors.Is(err, repoProperty.ErrPropertyNotFound) {
			return nil, nil, ErrPropertyNotFound
		}
		return nil, nil, fmt.Errorf("failed to update property: %w", err)
	}

	var results []PhotoUploadResult
	if len(photos) > 0 {
		if err := u.removeAllPhotos(ctx, prop.ID); err != nil {
			return nil, nil, err
		}

		results = make([]PhotoUploadResult, 0, len(photos))
		for _, photo := range photos {
			results = append(results, u.ingestPhoto(ctx, prop.ID, photo))
		}
	}

	u.logger.Info().
		Str("property_id", prop.ID).
		Int("replacement_photos", len(photos)).
		Msg("Property updated")

	return prop, results, nil
}

func (u *PropertyUsecase) removeAllPhotos(ctx context.Context, propertyID string) error {
	photos, err := u.repo.GetPhotosByProperty(ctx, propertyID)
	if err != nil {
		return fmt.Errorf("failed to get photos for replacement: %w", err)
	}

	prefix := domain.PathPrefixPhotos + propertyID + "/"
	if err := u.fileRepo.DeleteObjectsWithPrefix(ctx, prefix); err != nil {
		u.logger.Error().Err(err).Str("prefix", prefix).Msg("Failed to delete variant objects")
	}
	for _, photo := range photos {
		if err := u.fileRepo.DeleteObject(ctx, photo.OriginalPath); err != nil {
			u.logger.Error().Err(err).Str("path", photo.OriginalPath).Msg("Failed to delete original object")
		}
	}

	if err := u.repo.DeletePhotosByProperty(ctx, propertyID); err != nil {
		return fmt.Errorf("failed to delete photo rows: %w", err)
	}

	return nil
}

func (u *PropertyUsecase) Search(ctx context.Context, filter domain.SearchFilter) ([]domain.Property, error) {
	properties, err := u.repo.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search properties: %w", err)
	}
	return properties, nil
}

func (u *PropertyUsecase) GetProperty(ctx context.Context, id string) (*domain.Property, []domain.PropertyPhoto, error) {
	prop, err := u.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repoProperty.ErrPropertyNotFound) {
			return nil, nil, ErrPropertyNotFound
		}
		return nil, nil, fmt.Errorf("failed to get property: %w", err)
	}

	photos, err := u.repo.GetPhotosByProperty(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get photos: %w", err)
	}

	return prop, photos, nil
}

func (u *PropertyUsecase) ListByOwner(ctx context.Context, ownerName string) ([]domain.Property, error) {
	properties, err := u.repo.ListByOwner(ctx, ownerName)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return properties, nil
}

func (u *PropertyUsecase) DeleteProperty(ctx context.Context, id string) error {
	photos, err := u.repo.GetPhotosByProperty(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get photos for deletion: %w", err)
	}

	prefix := domain.PathPrefixPhotos + id + "/"
	if err := u.fileRepo.DeleteObjectsWithPrefix(ctx, prefix); err != nil {
		u.logger.Error().Err(err).Str("prefix", prefix).Msg("Failed to delete variant objects")
	}
	for _, photo := range photos {
		if err := u.fileRepo.DeleteObject(ctx, photo.OriginalPath); err != nil {
			u.logger.Error().Err(err).Str("path", photo.OriginalPath).Msg("Failed to delete original object")
		}
	}

	if err := u.repo.DeletePhotosByProperty(ctx, id); err != nil {
		u.logger.Error().Err(err).Str("property_id", id).Msg("Failed to delete photo rows")
	}

	if err := u.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repoProperty.ErrPropertyNotFound) {
			return ErrPropertyNotFound
		}
		return fmt.Errorf("failed to delete property: %w", err)
	}

	u.logger.Info().Str("property_id", id).Msg("Property deleted")
	return nil
}

// GetPhotoVariant streams one encoded variant of a photo.
func (u *PropertyUsecase) GetPhotoVariant(ctx context.Context, photoID, variant string) (*domain.PropertyPhoto, io.ReadCloser, string, error) {
	photo, err := u.repo.GetPhotoByID(ctx, photoID)
	if err != nil {
		if errors.Is(err, repoProperty.ErrPhotoNotFound) {
			return nil, nil, "", ErrPhotoNotFound
		}
		return nil, nil, "", fmt.Errorf("failed to get photo: %w", err)
	}

	var objectPath, contentType string
	switch variant {
	case "", "desktop":
		objectPath, contentType = photo.DesktopPath, domain.ContentTypeJPEG
	case "mobile":
		objectPath, contentType = photo.MobilePath, domain.ContentTypeJPEG
	case "webp":
		objectPath, contentType = photo.WebPPath, domain.ContentTypeWebP
	case "original":
		objectPath, contentType = photo.OriginalPath, contentTypeForExt(path.Ext(photo.OriginalPath))
	default:
		return nil, nil, "", ErrUnknownVariant
	}

	reader, err := u.fileRepo.GetObject(ctx, objectPath)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to get photo object: %w", err)
	}

	return photo, reader, contentType, nil
}

// ReprocessPhoto queues the stored original for a fresh pipeline run.
func (u *PropertyUsecase) ReprocessPhoto(ctx context.Context, photoID string) error {
	photo, err := u.repo.GetPhotoByID(ctx, photoID)
	if err != nil {
		if errors.Is(err, repoProperty.ErrPhotoNotFound) {
			return ErrPhotoNotFound
		}
		return fmt.Errorf("failed to get photo: %w", err)
	}

	if err := u.repo.UpdatePhotoStatus(ctx, photoID, domain.PhotoStatusProcessing); err != nil {
		return fmt.Errorf("failed to update photo status: %w", err)
	}

	task := &domain.ReprocessTask{
		ID:           uuid.New().String(),
		PhotoID:      photo.ID,
		PropertyID:   photo.PropertyID,
		OriginalPath: photo.OriginalPath,
		Filename:     photo.OriginalFilename,
	}

	if err := u.producer.Send(ctx, task); err != nil {
		u.logger.Error().Err(err).Str("photo_id", photoID).Msg("Failed to queue reprocess task")
		if revertErr := u.repo.UpdatePhotoStatus(ctx, photoID, domain.PhotoStatusReady); revertErr != nil {
			u.logger.Error().Err(revertErr).Str("photo_id", photoID).Msg("Failed to revert photo status")
		}
		return fmt.Errorf("failed to queue reprocess task: %w", err)
	}

	u.logger.Info().Str("photo_id", photoID).Str("task_id", task.ID).Msg("Photo queued for reprocessing")
	return nil
}

func (u *PropertyUsecase) Stats(ctx context.Context) (*domain.Stats, error) {
	stats, err := u.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return stats, nil
}

func variantPath(propertyID, photoID, name string) string {
	return domain.PathPrefixPhotos + propertyID + "/" + photoID + "/" + name
}

func contentTypeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	case ".tiff", ".tif":
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}
