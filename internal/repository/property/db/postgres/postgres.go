package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"

	"rentspace/internal/domain"
	"rentspace/internal/repository/property"
)

type PropertiesRepository struct {
	db      *dbpg.DB
	retries retry.Strategy
}

func NewPropertiesRepository(db *dbpg.DB, retries retry.Strategy) *PropertiesRepository {
	return &PropertiesRepository{
		db:      db,
		retries: retries,
	}
}

func (r *PropertiesRepository) Save(ctx context.Context, p *domain.Property) error {
	query := `
		INSERT INTO properties (
			id, title, description, location, type, price,
			available, owner_name, owner_phone, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecWithRetry(ctx, r.retries, query,
		p.ID,
		p.Title,
		p.Description,
		p.Location,
		p.Type,
		p.Price,
		p.Available,
		p.OwnerName,
		p.OwnerPhone,
		p.CreatedAt,
		p.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to save property: %w", err)
	}

	return nil
}

func (r *PropertiesRepository) GetByID(ctx context.Context, id string) (*domain.Property, error) {
	query := `
		SELECT id, title, description, location, type, price,
		       available, owner_name, owner_phone, created_at, updated_at
		FROM properties
		WHERE id = $1
	`

	row, err := r.db.QueryRowWithRetry(ctx, r.retries, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query property: %w", err)
	}

	var p domain.Property
	err = row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.Location,
		&p.Type,
		&p.Price,
		&p.Available,
		&p.OwnerName,
		&p.OwnerPhone,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, property.ErrPropertyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan property: %w", err)
	}

	return &p, nil
}

// Search lists available properties newest first. The price range names
// come from the search form and map to fixed bounds.
func (r *PropertiesRepository) Search(ctx context.Context, filter domain.SearchFilter) ([]domain.Property, error) {
	query := `
		SELECT id, title, description, location, type, price,
		       available, owner_name, owner_phone, created_at, updated_at
		FROM properties
		WHERE available = TRUE
	`
	args := []interface{}{}

	if filter.Location != "" {
		args = append(args, "%"+filter.Location+"%")
		query += fmt.Sprintf(" AND location ILIKE $%d", len(args))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}

	if minPrice, maxPrice, ok := priceBounds(filter.PriceRange); ok {
		args = append(args, minPrice)
		query += fmt.Sprintf(" AND price >= $%d", len(args))
		if maxPrice > 0 {
			args = append(args, maxPrice)
			query += fmt.Sprintf(" AND price <= $%d", len(args))
		}
	}

	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.QueryWithRetry(ctx, r.retries, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search properties: %w", err)
	}
	defer rows.Close()

	return scanProperties(rows)
}

func priceBounds(priceRange string) (int64, int64, bool) {
	switch priceRange {
	case domain.PriceRange1to5k:
		return 1000, 5000, true
	case domain.PriceRange5to10k:
		return 5001, 10000, true
	case domain.PriceRange10to20k:
		return 10001, 20000, true
	case domain.PriceRange20kPlus:
		return 20001, 0, true
	default:
		return 0, 0, false
	}
}

func (r *PropertiesRepository) ListByOwner(ctx context.Context, ownerName string) ([]domain.Property, error) {
	query := `
		SELECT id, title, description, location, type, price,
		       available, owner_name, owner_phone, created_at, updated_at
		FROM properties
		WHERE owner_name = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryWithRetry(ctx, r.retries, query, ownerName)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	defer rows.Close()

	return scanProperties(rows)
}

func (r *PropertiesRepository) Update(ctx context.Context, p *domain.Property) error {
	query := `
		UPDATE properties
		SET title = $1, description = $2, location = $3, type = $4,
		    price = $5, available = $6, owner_name = $7, owner_phone = $8,
		    updated_at = $9
		WHERE id = $10
	`

	result, err := r.db.ExecWithRetry(ctx, r.retries, query,
		p.Title,
		p.Description,
		p.Location,
		p.Type,
		p.Price,
		p.Available,
		p.OwnerName,
		p.OwnerPhone,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update property: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return property.ErrPropertyNotFound
	}

	return nil
}

func (r *PropertiesRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecWithRetry(ctx, r.retries, `DELETE FROM properties WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return property.ErrPropertyNotFound
	}

	return nil
}

func (r *PropertiesRepository) SavePhoto(ctx context.Context, photo *domain.PropertyPhoto) error {
	query := `
		INSERT INTO property_photos (
			id, property_id, original_filename, original_path, original_size,
			fingerprint, desktop_path, mobile_path, webp_path, warning,
			status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecWithRetry(ctx, r.retries, query,
		photo.ID,
		photo.PropertyID,
		photo.OriginalFilename,
		photo.OriginalPath,
		photo.OriginalSize,
		photo.Fingerprint,
		photo.DesktopPath,
		photo.MobilePath,
		photo.WebPPath,
		photo.Warning,
		photo.Status,
		photo.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to save photo: %w", err)
	}

	return nil
}

func (r *PropertiesRepository) GetPhotoByID(ctx context.Context, id string) (*domain.PropertyPhoto, error) {
	query := `
		SELECT id, property_id, original_filename, original_path, original_size,
		       fingerprint, desktop_path, mobile_path, webp_path, warning,
		       status, created_at
		FROM property_photos
		WHERE id = $1 AND status != $2
	`

	row, err := r.db.QueryRowWithRetry(ctx, r.retries, query, id, domain.PhotoStatusDeleted)
	if err != nil {
		return nil, fmt.Errorf("failed to query photo: %w", err)
	}

	var photo domain.PropertyPhoto
	err = row.Scan(
		&photo.ID,
		&photo.PropertyID,
		&photo.OriginalFilename,
		&photo.OriginalPath,
		&photo.OriginalSize,
		&photo.Fingerprint,
		&photo.DesktopPath,
		&photo.MobilePath,
		&photo.WebPPath,
		&photo.Warning,
		&photo.Status,
		&photo.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, property.ErrPhotoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan photo: %w", err)
	}

	return &photo, nil
}

func (r *PropertiesRepository) GetPhotosByProperty(ctx context.Context, propertyID string) ([]domain.PropertyPhoto, error) {
	query := `
		SELECT id, property_id, original_filename, original_path, original_size,
		       fingerprint, desktop_path, mobile_path, webp_path, warning,
		       status, created_at
		FROM property_photos
		WHERE property_id = $1 AND status != $2
		ORDER BY created_at
	`

	rows, err := r.db.QueryWithRetry(ctx, r.retries, query, propertyID, domain.PhotoStatusDeleted)
	if err != nil {
		return nil, fmt.Errorf("failed to query photos: %w", err)
	}
	defer rows.Close()

	var photos []domain.PropertyPhoto
	for rows.Next() {
		var photo domain.PropertyPhoto
		err := rows.Scan(
			&photo.ID,
			&photo.PropertyID,
			&photo.OriginalFilename,
			&photo.OriginalPath,
			&photo.OriginalSize,
			&photo.Fingerprint,
			&photo.DesktopPath,
			&photo.MobilePath,
			&photo.WebPPath,
			&photo.Warning,
			&photo.Status,
			&photo.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, photo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating photos: %w", err)
	}

	return photos, nil
}

func (r *PropertiesRepository) UpdatePhotoVariants(ctx context.Context, photo *domain.PropertyPhoto) error {
	query := `
		UPDATE property_photos
		SET desktop_path = $1, mobile_path = $2, webp_path = $3,
		    warning = $4, status = $5
		WHERE id = $6
	`

	result, err := r.db.ExecWithRetry(ctx, r.retries, query,
		photo.DesktopPath,
		photo.MobilePath,
		photo.WebPPath,
		photo.Warning,
		photo.Status,
		photo.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update photo variants: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return property.ErrPhotoNotFound
	}

	return nil
}

func (r *PropertiesRepository) UpdatePhotoStatus(ctx context.Context, id string, status domain.PhotoStatus) error {
	result, err := r.db.ExecWithRetry(ctx, r.retries,
		`UPDATE property_photos SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update photo status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return property.ErrPhotoNotFound
	}

	return nil
}

func (r *PropertiesRepository) DeletePhotosByProperty(ctx context.Context, propertyID string) error {
	_, err := r.db.ExecWithRetry(ctx, r.retries,
		`DELETE FROM property_photos WHERE property_id = $1`, propertyID)
	if err != nil {
		return fmt.Errorf("failed to delete photos: %w", err)
	}
	return nil
}

func (r *PropertiesRepository) Stats(ctx context.Context) (*domain.Stats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM properties),
			(SELECT COUNT(*) FROM properties WHERE available = TRUE),
			(SELECT COUNT(*) FROM property_photos WHERE status != $1)
	`

	row, err := r.db.QueryRowWithRetry(ctx, r.retries, query, domain.PhotoStatusDeleted)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}

	var stats domain.Stats
	if err := row.Scan(&stats.TotalProperties, &stats.Available, &stats.TotalPhotos); err != nil {
		return nil, fmt.Errorf("failed to scan stats: %w", err)
	}

	return &stats, nil
}

func scanProperties(rows *sql.Rows) ([]domain.Property, error) {
	var properties []domain.Property
	for rows.Next() {
		var p domain.Property
		err := rows.Scan(
			&p.ID,
			&p.Title,
			&p.Description,
			&p.Location,
			&p.Type,
			&p.Price,
			&p.Available,
			&p.OwnerName,
			&p.OwnerPhone,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		properties = append(properties, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating properties: %w", err)
	}

	return properties, nil
}
