package property

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/zlog"

	"rentspace/internal/domain"
	"rentspace/internal/http-server/handler/property/dto"
	property_uc "rentspace/internal/usecase/property"
)

const (
	maxMemory    = 32 << 20
	defaultLimit = 20
)

type PropertyHandler struct {
	usecase  propertyUsecase
	validate *validator.Validate
	logger   *zlog.Zerolog
}

func NewPropertyHandler(usecase propertyUsecase, logger *zlog.Zerolog) *PropertyHandler {
	return &PropertyHandler{
		usecase:  usecase,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *PropertyHandler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	input, assets, prefailed, ok := h.parseListingForm(w, r)
	if !ok {
		return
	}

	prop, uploads, err := h.usecase.CreateProperty(ctx, input, assets)
	if err != nil {
		h.logger.Error().Err(err).Str("title", input.Title).Msg("Failed to create property")
		h.respondError(w, http.StatusInternalServerError, "Failed to create property", err)
		return
	}

	response := dto.CreatePropertyResponse{
		Property: toPropertyResponse(prop, nil),
		Photos:   append(prefailed, toUploadResults(uploads)...),
	}

	h.respondJSON(w, http.StatusCreated, response)
}

func (h *PropertyHandler) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := chi.URLParam(r, "id")
	if id == "" {
		h.respondError(w, http.StatusBadRequest, "Property ID is required", nil)
		return
	}

	input, assets, prefailed, ok := h.parseListingForm(w, r)
	if !ok {
		return
	}

	prop, uploads, err := h.usecase.UpdateProperty(ctx, id, input, assets)
	if err != nil {
		h.handlePropertyError(w, err, id, "Failed to update property")
		return
	}

	response := dto.CreatePropertyResponse{
		Property: toPropertyResponse(prop, nil),
		Photos:   append(prefailed, toUploadResults(uploads)...),
	}

	h.respondJSON(w, http.StatusOK, response)
}

// parseListingForm reads the multipart listing form shared by create and
// update. Invalid photo files become per-file failed outcomes rather than
// failing the whole request; only a malformed form or bad listing fields
// abort (ok=false, response already written).
func (h *PropertyHandler) parseListingForm(w http.ResponseWriter, r *http.Request) (property_uc.CreatePropertyInput, []domain.InputAsset, []dto.PhotoUploadResult, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, domain.DefaultMaxUploadSize)

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to parse multipart form")
		h.respondError(w, http.StatusBadRequest, "Invalid request format", nil)
		return property_uc.CreatePropertyInput{}, nil, nil, false
	}

	price, _ := strconv.ParseInt(r.FormValue("price"), 10, 64)
	req := dto.CreatePropertyRequest{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Location:    r.FormValue("location"),
		Type:        r.FormValue("type"),
		Price:       price,
		OwnerName:   r.FormValue("owner_name"),
		OwnerPhone:  r.FormValue("owner_phone"),
	}

	if err := h.validate.Struct(req); err != nil {
		h.logger.Warn().Err(err).Msg("Invalid property fields")
		h.respondError(w, http.StatusBadRequest, "Invalid property fields", err)
		return property_uc.CreatePropertyInput{}, nil, nil, false
	}

	var files []*multipart.FileHeader
	if r.MultipartForm != nil {
		files = r.MultipartForm.File["photos"]
	}
	assets, prefailed := h.readPhotoFiles(files)

	input := property_uc.CreatePropertyInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Type:        req.Type,
		Price:       req.Price,
		OwnerName:   req.OwnerName,
		OwnerPhone:  req.OwnerPhone,
	}

	return input, assets, prefailed, true
}

func (h *PropertyHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	offset, _ := strconv.Atoi(query.Get("offset"))

	req := dto.SearchRequest{
		Location:   query.Get("location"),
		Type:       query.Get("type"),
		PriceRange: query.Get("price_range"),
		Limit:      limit,
		Offset:     offset,
	}

	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid search parameters", err)
		return
	}

	if req.Limit == 0 {
		req.Limit = defaultLimit
	}

	properties, err := h.usecase.Search(ctx, domain.SearchFilter{
		Location:   req.Location,
		Type:       req.Type,
		PriceRange: req.PriceRange,
		Limit:      req.Limit,
		Offset:     req.Offset,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("Search failed")
		h.respondError(w, http.StatusInternalServerError, "Failed to search properties", err)
		return
	}

	response := dto.SearchResponse{
		Properties: make([]dto.PropertyResponse, 0, len(properties)),
		Count:      len(properties),
	}
	for i := range properties {
		response.Properties = append(response.Properties, toPropertyResponse(&properties[i], nil))
	}

	h.respondJSON(w, http.StatusOK, response)
}

func (h *PropertyHandler) GetProperty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := chi.URLParam(r, "id")
	if id == "" {
		h.respondError(w, http.StatusBadRequest, "Property ID is required", nil)
		return
	}

	prop, photos, err := h.usecase.GetProperty(ctx, id)
	if err != nil {
		h.handlePropertyError(w, err, id, "Failed to get property")
		return
	}

	h.respondJSON(w, http.StatusOK, toPropertyResponse(prop, photos))
}

func (h *PropertyHandler) ListByOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner := chi.URLParam(r, "owner")
	if owner == "" {
		h.respondError(w, http.StatusBadRequest, "Owner name is required", nil)
		return
	}

	properties, err := h.usecase.ListByOwner(ctx, owner)
	if err != nil {
		h.logger.Error().Err(err).Str("owner", owner).Msg("Failed to list properties")
		h.respondError(w, http.StatusInternalServerError, "Failed to list properties", err)
		return
	}

	response := dto.SearchResponse{
		Properties: make([]dto.PropertyResponse, 0, len(properties)),
		Count:      len(properties),
	}
	for i := range properties {
		response.Properties = append(response.Properties, toPropertyResponse(&properties[i], nil))
	}

	h.respondJSON(w, http.StatusOK, response)
}

func (h *PropertyHandler) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := chi.URLParam(r, "id")
	if id == "" {
		h.respondError(w, http.StatusBadRequest, "Property ID is required", nil)
		return
	}

	if err := h.usecase.DeleteProperty(ctx, id); err != nil {
		h.handlePropertyError(w, err, id, "Failed to delete property")
		return
	}

	h.logger.Info().Str("property_id", id).Msg("Property deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (h *PropertyHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := dto.GetPhotoRequest{
		ID:      chi.URLParam(r, "id"),
		Variant: r.URL.Query().Get("variant"),
	}

	if req.ID == "" {
		h.respondError(w, http.StatusBadRequest, "Photo ID is required", nil)
		return
	}

	photo, reader, contentType, err := h.usecase.GetPhotoVariant(ctx, req.ID, req.Variant)
	if err != nil {
		h.handlePhotoError(w, err, req.ID, "Failed to get photo")
		return
	}
	defer reader.Close()

	filename := h.getDownloadFilename(photo.OriginalFilename, req.Variant)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=\"%s\"", filename))
	w.Header().Set("Cache-Control", "public, max-age=3600")

	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Error().
			Err(err).
			Str("photo_id", req.ID).
			Str("variant", req.Variant).
			Msg("Failed to stream photo")
	}
}

func (h *PropertyHandler) ReprocessPhoto(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := chi.URLParam(r, "id")
	if id == "" {
		h.respondError(w, http.StatusBadRequest, "Photo ID is required", nil)
		return
	}

	if err := h.usecase.ReprocessPhoto(ctx, id); err != nil {
		h.handlePhotoError(w, err, id, "Failed to queue reprocessing")
		return
	}

	h.respondJSON(w, http.StatusAccepted, map[string]string{"id": id, "status": string(domain.PhotoStatusProcessing)})
}

func (h *PropertyHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.usecase.Stats(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to get stats")
		h.respondError(w, http.StatusInternalServerError, "Failed to get stats", err)
		return
	}

	h.respondJSON(w, http.StatusOK, dto.StatsResponse{
		TotalProperties: stats.TotalProperties,
		Available:       stats.Available,
		TotalPhotos:     stats.TotalPhotos,
	})
}

// readPhotoFiles buffers each acceptable file. Files that fail validation
// or cannot be read become failed per-file outcomes so the rest of the
// batch still processes.
func (h *PropertyHandler) readPhotoFiles(files []*multipart.FileHeader) ([]domain.InputAsset, []dto.PhotoUploadResult) {
	assets := make([]domain.InputAsset, 0, len(files))
	var failed []dto.PhotoUploadResult

	for _, header := range files {
		if err := h.validateFile(header); err != nil {
			failed = append(failed, dto.PhotoUploadResult{
				Filename: header.Filename,
				Outcome:  property_uc.PhotoOutcomeFailed,
				Message:  err.Error(),
			})
			continue
		}

		fileBytes, err := readFileHeader(header)
		if err != nil {
			h.logger.Warn().Err(err).Str("filename", header.Filename).Msg("Failed to read uploaded file")
			failed = append(failed, dto.PhotoUploadResult{
				Filename: header.Filename,
				Outcome:  property_uc.PhotoOutcomeFailed,
				Message:  "Failed to read file",
			})
			continue
		}

		assets = append(assets, domain.InputAsset{
			Reader:   bytes.NewReader(fileBytes),
			Filename: header.Filename,
			Size:     header.Size,
		})
	}

	return assets, failed
}

func readFileHeader(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

func (h *PropertyHandler) validateFile(handler *multipart.FileHeader) error {
	if handler.Size > domain.DefaultMaxUploadSize {
		return fmt.Errorf("File is too large (max %d MB)", domain.DefaultMaxUploadSize/(1024*1024))
	}

	ext := strings.ToLower(filepath.Ext(handler.Filename))
	if !h.isValidExtension(ext) {
		return fmt.Errorf("Unsupported file format. Allowed: jpg, jpeg, png, gif, webp, bmp")
	}

	contentType := handler.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return fmt.Errorf("File must be an image")
	}

	return nil
}

func (h *PropertyHandler) isValidExtension(ext string) bool {
	allowed := map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".gif":  true,
		".webp": true,
		".bmp":  true,
		".tiff": true,
	}
	return allowed[ext]
}

func (h *PropertyHandler) handlePropertyError(w http.ResponseWriter, err error, propertyID, fallback string) {
	switch {
	case errors.Is(err, property_uc.ErrPropertyNotFound):
		h.logger.Info().Str("property_id", propertyID).Msg("Property not found")
		h.respondError(w, http.StatusNotFound, "Property not found", nil)
	default:
		h.logger.Error().Err(err).Str("property_id", propertyID).Msg(fallback)
		h.respondError(w, http.StatusInternalServerError, fallback, err)
	}
}

func (h *PropertyHandler) handlePhotoError(w http.ResponseWriter, err error, photoID, fallback string) {
	switch {
	case errors.Is(err, property_uc.ErrPhotoNotFound):
		h.logger.Info().Str("photo_id", photoID).Msg("Photo not found")
		h.respondError(w, http.StatusNotFound, "Photo not found", nil)
	case errors.Is(err, property_uc.ErrUnknownVariant):
		h.respondError(w, http.StatusBadRequest, "Unknown variant. Allowed: desktop, mobile, webp, original", nil)
	default:
		h.logger.Error().Err(err).Str("photo_id", photoID).Msg(fallback)
		h.respondError(w, http.StatusInternalServerError, fallback, err)
	}
}

func (h *PropertyHandler) getDownloadFilename(originalName, variant string) string {
	ext := filepath.Ext(originalName)
	name := strings.TrimSuffix(originalName, ext)

	switch variant {
	case "", "desktop":
		return fmt.Sprintf("%s_desktop.jpg", name)
	case "mobile":
		return fmt.Sprintf("%s_mobile.jpg", name)
	case "webp":
		return fmt.Sprintf("%s.webp", name)
	default:
		return originalName
	}
}

func toPropertyResponse(p *domain.Property, photos []domain.PropertyPhoto) dto.PropertyResponse {
	resp := dto.PropertyResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Location:    p.Location,
		Type:        string(p.Type),
		Price:       p.Price,
		Available:   p.Available,
		OwnerName:   p.OwnerName,
		OwnerPhone:  p.OwnerPhone,
		CreatedAt:   p.CreatedAt,
	}

	for _, photo := range photos {
		resp.Photos = append(resp.Photos, dto.PhotoResponse{
			ID:       photo.ID,
			Filename: photo.OriginalFilename,
			Status:   string(photo.Status),
			Warning:  photo.Warning,
		})
	}

	return resp
}

func toUploadResults(uploads []property_uc.PhotoUploadResult) []dto.PhotoUploadResult {
	results := make([]dto.PhotoUploadResult, 0, len(uploads))
	for _, u := range uploads {
		results = append(results, dto.PhotoUploadResult{
			Filename: u.Filename,
			Outcome:  u.Outcome,
			Message:  u.Message,
			PhotoID:  u.PhotoID,
			Warning:  u.Warning,
		})
	}
	return results
}

func (h *PropertyHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Interface("data", data).Msg("Failed to encode response")
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (h *PropertyHandler) respondError(w http.ResponseWriter, status int, message string, err error) {
	response := dto.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	}

	if err != nil {
		response.Details = err.Error()
	}

	h.respondJSON(w, status, response)
}
