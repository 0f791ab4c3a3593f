package property

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"

	"rentspace/internal/domain"
	"rentspace/internal/http-server/handler/property/dto"
	property_uc "rentspace/internal/usecase/property"
)

type fakeUsecase struct {
	createdAssets []domain.InputAsset
	updatedAssets []domain.InputAsset
	updateErr     error
}

func (u *fakeUsecase) CreateProperty(ctx context.Context, input property_uc.CreatePropertyInput, photos []domain.InputAsset) (*domain.Property, []property_uc.PhotoUploadResult, error) {
	u.createdAssets = photos
	results := make([]property_uc.PhotoUploadResult, 0, len(photos))
	for _, p := range photos {
		results = append(results, property_uc.PhotoUploadResult{
			Filename: p.Filename,
			Outcome:  property_uc.PhotoOutcomeProcessed,
			PhotoID:  "photo-" + p.Filename,
		})
	}
	return &domain.Property{ID: "prop1", Title: input.Title, OwnerName: input.OwnerName}, results, nil
}

func (u *fakeUsecase) UpdateProperty(ctx context.Context, id string, input property_uc.CreatePropertyInput, photos []domain.InputAsset) (*domain.Property, []property_uc.PhotoUploadResult, error) {
	if u.updateErr != nil {
		return nil, nil, u.updateErr
	}
	u.updatedAssets = photos
	return &domain.Property{ID: id, Title: input.Title}, nil, nil
}

func (u *fakeUsecase) Search(ctx context.Context, filter domain.SearchFilter) ([]domain.Property, error) {
	return nil, nil
}

func (u *fakeUsecase) GetProperty(ctx context.Context, id string) (*domain.Property, []domain.PropertyPhoto, error) {
	return &domain.Property{ID: id}, nil, nil
}

func (u *fakeUsecase) ListByOwner(ctx context.Context, ownerName string) ([]domain.Property, error) {
	return nil, nil
}

func (u *fakeUsecase) DeleteProperty(ctx context.Context, id string) error { return nil }

func (u *fakeUsecase) GetPhotoVariant(ctx context.Context, photoID, variant string) (*domain.PropertyPhoto, io.ReadCloser, string, error) {
	return nil, nil, "", property_uc.ErrPhotoNotFound
}

func (u *fakeUsecase) ReprocessPhoto(ctx context.Context, photoID string) error { return nil }

func (u *fakeUsecase) Stats(ctx context.Context) (*domain.Stats, error) {
	return &domain.Stats{}, nil
}

func testLogger() *zlog.Zerolog {
	zlog.Init()
	return &zlog.Logger
}

func addFormFile(t *testing.T, w *multipart.Writer, field, filename, contentType string, data []byte) {
	t.Helper()

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, filename))
	header.Set("Content-Type", contentType)

	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
}

func listingForm(t *testing.T, addPhotos func(*multipart.Writer)) (*bytes.Buffer, string) {
	t.Helper()

	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)

	fields := map[string]string{
		"title":       "Two bedroom in Kilimani",
		"description": "Spacious and bright",
		"location":    "Kilimani",
		"type":        "Two bedroom",
		"price":       "15000",
		"owner_name":  "Jane",
		"owner_phone": "0712345678",
	}
	for name, value := range fields {
		require.NoError(t, w.WriteField(name, value))
	}

	if addPhotos != nil {
		addPhotos(w)
	}
	require.NoError(t, w.Close())

	return body, w.FormDataContentType()
}

func TestCreateProperty_InvalidFileBecomesPerFileOutcome(t *testing.T) {
	uc := &fakeUsecase{}
	h := NewPropertyHandler(uc, testLogger())

	body, contentType := listingForm(t, func(w *multipart.Writer) {
		addFormFile(t, w, "photos", "house.jpg", "image/jpeg", []byte("jpeg bytes"))
		addFormFile(t, w, "photos", "malware.exe", "application/octet-stream", []byte("MZ"))
	})

	req := httptest.NewRequest(http.MethodPost, "/api/properties", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.CreateProperty(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp dto.CreatePropertyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Len(t, resp.Photos, 2)
	outcomes := map[string]string{}
	for _, p := range resp.Photos {
		outcomes[p.Filename] = p.Outcome
	}
	require.Equal(t, property_uc.PhotoOutcomeFailed, outcomes["malware.exe"])
	require.Equal(t, property_uc.PhotoOutcomeProcessed, outcomes["house.jpg"])

	// only the acceptable file reaches the usecase
	require.Len(t, uc.createdAssets, 1)
	require.Equal(t, "house.jpg", uc.createdAssets[0].Filename)
}

func TestCreateProperty_MissingFieldsRejected(t *testing.T) {
	h := NewPropertyHandler(&fakeUsecase{}, testLogger())

	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("title", "No other fields"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/properties", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()

	h.CreateProperty(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateProperty_ReturnsUpdatedListing(t *testing.T) {
	uc := &fakeUsecase{}
	h := NewPropertyHandler(uc, testLogger())

	body, contentType := listingForm(t, func(w *multipart.Writer) {
		addFormFile(t, w, "photos", "new.jpg", "image/jpeg", []byte("jpeg bytes"))
	})

	req := httptest.NewRequest(http.MethodPut, "/api/properties/prop1", body)
	req.Header.Set("Content-Type", contentType)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "prop1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rec := httptest.NewRecorder()
	h.UpdateProperty(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, uc.updatedAssets, 1)

	var resp dto.CreatePropertyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "prop1", resp.Property.ID)
}

func TestUpdateProperty_NotFound(t *testing.T) {
	uc := &fakeUsecase{updateErr: property_uc.ErrPropertyNotFound}
	h := NewPropertyHandler(uc, testLogger())

	body, contentType := listingForm(t, nil)

	req := httptest.NewRequest(http.MethodPut, "/api/properties/missing", body)
	req.Header.Set("Content-Type", contentType)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "missing")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rec := httptest.NewRecorder()
	h.UpdateProperty(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
