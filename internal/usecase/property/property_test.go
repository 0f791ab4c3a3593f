package property

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"

	"rentspace/internal/domain"
	repoProperty "rentspace/internal/repository/property"
	"rentspace/internal/usecase/pipeline"
)

type fakeRepo struct {
	mu         sync.Mutex
	properties map[string]*domain.Property
	photos     map[string]*domain.PropertyPhoto
	saveErr    error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		properties: make(map[string]*domain.Property),
		photos:     make(map[string]*domain.PropertyPhoto),
	}
}

func (r *fakeRepo) Save(ctx context.Context, p *domain.Property) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.properties[p.ID] = p
	return nil
}

func (r *fakeRepo) Update(ctx context.Context, p *domain.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.properties[p.ID]; !ok {
		return repoProperty.ErrPropertyNotFound
	}
	r.properties[p.ID] = p
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*domain.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.properties[id]; ok {
		return p, nil
	}
	return nil, repoProperty.ErrPropertyNotFound
}

func (r *fakeRepo) Search(ctx context.Context, filter domain.SearchFilter) ([]domain.Property, error) {
	return nil, nil
}

func (r *fakeRepo) ListByOwner(ctx context.Context, ownerName string) ([]domain.Property, error) {
	return nil, nil
}

func (r *fakeRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.properties, id)
	return nil
}

func (r *fakeRepo) SavePhoto(ctx context.Context, photo *domain.PropertyPhoto) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.photos[photo.ID] = photo
	return nil
}

func (r *fakeRepo) GetPhotoByID(ctx context.Context, id string) (*domain.PropertyPhoto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.photos[id]; ok {
		return p, nil
	}
	return nil, errors.New("photo not found")
}

func (r *fakeRepo) GetPhotosByProperty(ctx context.Context, propertyID string) ([]domain.PropertyPhoto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PropertyPhoto
	for _, p := range r.photos {
		if p.PropertyID == propertyID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeRepo) UpdatePhotoStatus(ctx context.Context, id string, status domain.PhotoStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.photos[id]; ok {
		p.Status = status
	}
	return nil
}

func (r *fakeRepo) DeletePhotosByProperty(ctx context.Context, propertyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.photos {
		if p.PropertyID == propertyID {
			delete(r.photos, id)
		}
	}
	return nil
}

func (r *fakeRepo) Stats(ctx context.Context) (*domain.Stats, error) {
	return &domain.Stats{}, nil
}

type fakeFiles struct {
	mu      sync.Mutex
	objects map[string][]byte
	saveErr error
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{objects: make(map[string][]byte)}
}

func (f *fakeFiles) SaveOriginal(ctx context.Context, path string, data io.Reader, size int64, contentType string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	payload, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[path] = payload
	return nil
}

func (f *fakeFiles) SaveAsset(ctx context.Context, path string, data []byte, contentType string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[path] = data
	return nil
}

func (f *fakeFiles) GetObject(ctx context.Context, path string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[path]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeFiles) DeleteObject(ctx context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, path)
	return nil
}

func (f *fakeFiles) DeleteObjectsWithPrefix(ctx context.Context, prefix string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for path := range f.objects {
		if strings.HasPrefix(path, prefix) {
			delete(f.objects, path)
		}
	}
	return nil
}

type fakePipeline struct {
	result *domain.PipelineResult
	err    error
}

func (p *fakePipeline) Process(ctx context.Context, asset domain.InputAsset) (*domain.PipelineResult, error) {
	return p.result, p.err
}

type fakeProducer struct {
	mu    sync.Mutex
	tasks []*domain.ReprocessTask
	err   error
}

func (p *fakeProducer) Send(ctx context.Context, task *domain.ReprocessTask) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks = append(p.tasks, task)
	return nil
}

func testLogger() *zlog.Zerolog {
	zlog.Init()
	return &zlog.Logger
}

func processedResult() *domain.PipelineResult {
	return &domain.PipelineResult{
		Outcome:     domain.OutcomeProcessed,
		Fingerprint: "abc123",
		Desktop:     &domain.EncodedAsset{Name: "house_desktop.jpg", ContentType: domain.ContentTypeJPEG, Data: []byte("desktop")},
		Mobile:      &domain.EncodedAsset{Name: "house_mobile.jpg", ContentType: domain.ContentTypeJPEG, Data: []byte("mobile")},
		WebP:        &domain.EncodedAsset{Name: "house.webp", ContentType: domain.ContentTypeWebP, Data: []byte("webp")},
	}
}

func photoAsset() domain.InputAsset {
	data := []byte("fake image bytes")
	return domain.InputAsset{
		Reader:   bytes.NewReader(data),
		Filename: "house.jpg",
		Size:     int64(len(data)),
	}
}

func validInput() CreatePropertyInput {
	return CreatePropertyInput{
		Title:      "Two bedroom in Kilimani",
		Location:   "Kilimani",
		Type:       "Two bedroom",
		Price:      15000,
		OwnerName:  "Jane",
		OwnerPhone: "0712345678",
	}
}

func TestCreateProperty_ProcessedPhoto(t *testing.T) {
	repo := newFakeRepo()
	files := newFakeFiles()
	uc := NewPropertyUsecase(repo, files, &fakePipeline{result: processedResult()}, &fakeProducer{}, testLogger())

	prop, uploads, err := uc.CreateProperty(context.Background(), validInput(), []domain.InputAsset{photoAsset()})
	require.NoError(t, err)
	require.NotEmpty(t, prop.ID)
	require.True(t, prop.Available)

	require.Len(t, uploads, 1)
	require.Equal(t, PhotoOutcomeProcessed, uploads[0].Outcome)
	require.NotEmpty(t, uploads[0].PhotoID)

	photo, err := repo.GetPhotoByID(context.Background(), uploads[0].PhotoID)
	require.NoError(t, err)
	require.Equal(t, domain.PhotoStatusReady, photo.Status)
	require.Equal(t, "abc123", photo.Fingerprint)

	// original plus three variants
	require.Len(t, files.objects, 4)
	require.Contains(t, files.objects, photo.OriginalPath)
	require.Contains(t, files.objects, photo.DesktopPath)
	require.Contains(t, files.objects, photo.MobilePath)
	require.Contains(t, files.objects, photo.WebPPath)
}

func TestCreateProperty_RejectedPhoto(t *testing.T) {
	repo := newFakeRepo()
	result := &domain.PipelineResult{Outcome: domain.OutcomeRejected, Reason: "Malicious content detected!"}
	uc := NewPropertyUsecase(repo, newFakeFiles(), &fakePipeline{result: result}, &fakeProducer{}, testLogger())

	_, uploads, err := uc.CreateProperty(context.Background(), validInput(), []domain.InputAsset{photoAsset()})
	require.NoError(t, err)

	require.Len(t, uploads, 1)
	require.Equal(t, PhotoOutcomeRejected, uploads[0].Outcome)
	require.Equal(t, "Malicious content detected!", uploads[0].Message)
	require.Empty(t, repo.photos)
}

func TestCreateProperty_DuplicatePhoto(t *testing.T) {
	repo := newFakeRepo()
	result := &domain.PipelineResult{Outcome: domain.OutcomeDuplicate, Fingerprint: "abc123"}
	uc := NewPropertyUsecase(repo, newFakeFiles(), &fakePipeline{result: result}, &fakeProducer{}, testLogger())

	_, uploads, err := uc.CreateProperty(context.Background(), validInput(), []domain.InputAsset{photoAsset()})
	require.NoError(t, err)

	require.Len(t, uploads, 1)
	require.Equal(t, PhotoOutcomeDuplicate, uploads[0].Outcome)
	require.Empty(t, repo.photos)
}

func TestCreateProperty_DecodeFailure(t *testing.T) {
	pipelineErr := errors.New("bad header")
	uc := NewPropertyUsecase(newFakeRepo(), newFakeFiles(),
		&fakePipeline{err: errors.Join(pipeline.ErrDecode, pipelineErr)}, &fakeProducer{}, testLogger())

	_, uploads, err := uc.CreateProperty(context.Background(), validInput(), []domain.InputAsset{photoAsset()})
	require.NoError(t, err)

	require.Len(t, uploads, 1)
	require.Equal(t, PhotoOutcomeFailed, uploads[0].Outcome)
	require.Equal(t, "Unsupported or corrupt image", uploads[0].Message)
}

func TestCreateProperty_StorageFailureCleansUp(t *testing.T) {
	repo := newFakeRepo()
	files := newFakeFiles()
	files.saveErr = errors.New("bucket unavailable")
	uc := NewPropertyUsecase(repo, files, &fakePipeline{result: processedResult()}, &fakeProducer{}, testLogger())

	_, uploads, err := uc.CreateProperty(context.Background(), validInput(), []domain.InputAsset{photoAsset()})
	require.NoError(t, err)

	require.Len(t, uploads, 1)
	require.Equal(t, PhotoOutcomeFailed, uploads[0].Outcome)
	require.Empty(t, repo.photos)
}

func TestUpdateProperty_RewritesFields(t *testing.T) {
	repo := newFakeRepo()
	repo.properties["prop1"] = &domain.Property{
		ID:         "prop1",
		Title:      "Old title",
		Location:   "Old town",
		Price:      5000,
		Available:  true,
		OwnerName:  "Jane",
		OwnerPhone: "0700000000",
	}
	uc := NewPropertyUsecase(repo, newFakeFiles(), &fakePipeline{}, &fakeProducer{}, testLogger())

	input := validInput()
	input.Title = "Renovated two bedroom"
	input.OwnerPhone = "0711111111"

	prop, uploads, err := uc.UpdateProperty(context.Background(), "prop1", input, nil)
	require.NoError(t, err)
	require.Empty(t, uploads)

	require.Equal(t, "Renovated two bedroom", prop.Title)
	require.Equal(t, "0711111111", prop.OwnerPhone)
	require.Equal(t, "Renovated two bedroom", repo.properties["prop1"].Title)
	require.True(t, prop.Available)
}

func TestUpdateProperty_ReplacesPhotoBatch(t *testing.T) {
	repo := newFakeRepo()
	files := newFakeFiles()
	repo.properties["prop1"] = &domain.Property{ID: "prop1", OwnerName: "Jane"}
	repo.photos["old"] = &domain.PropertyPhoto{
		ID:           "old",
		PropertyID:   "prop1",
		OriginalPath: "originals/old.jpg",
	}
	files.objects["originals/old.jpg"] = []byte("x")
	files.objects["photos/prop1/old/house_desktop.jpg"] = []byte("x")
	uc := NewPropertyUsecase(repo, files, &fakePipeline{result: processedResult()}, &fakeProducer{}, testLogger())

	_, uploads, err := uc.UpdateProperty(context.Background(), "prop1", validInput(), []domain.InputAsset{photoAsset()})
	require.NoError(t, err)

	require.Len(t, uploads, 1)
	require.Equal(t, PhotoOutcomeProcessed, uploads[0].Outcome)

	_, hasOld := repo.photos["old"]
	require.False(t, hasOld)
	require.NotContains(t, files.objects, "originals/old.jpg")
	require.NotContains(t, files.objects, "photos/prop1/old/house_desktop.jpg")

	newPhoto, err := repo.GetPhotoByID(context.Background(), uploads[0].PhotoID)
	require.NoError(t, err)
	require.Contains(t, files.objects, newPhoto.OriginalPath)
	require.Contains(t, files.objects, newPhoto.DesktopPath)
}

func TestUpdateProperty_EmptyBatchKeepsPhotos(t *testing.T) {
	repo := newFakeRepo()
	files := newFakeFiles()
	repo.properties["prop1"] = &domain.Property{ID: "prop1"}
	repo.photos["keep"] = &domain.PropertyPhoto{ID: "keep", PropertyID: "prop1", OriginalPath: "originals/keep.jpg"}
	files.objects["originals/keep.jpg"] = []byte("x")
	uc := NewPropertyUsecase(repo, files, &fakePipeline{}, &fakeProducer{}, testLogger())

	_, _, err := uc.UpdateProperty(context.Background(), "prop1", validInput(), nil)
	require.NoError(t, err)

	require.Contains(t, repo.photos, "keep")
	require.Contains(t, files.objects, "originals/keep.jpg")
}

func TestUpdateProperty_UnknownID(t *testing.T) {
	uc := NewPropertyUsecase(newFakeRepo(), newFakeFiles(), &fakePipeline{}, &fakeProducer{}, testLogger())

	_, _, err := uc.UpdateProperty(context.Background(), "missing", validInput(), nil)
	require.ErrorIs(t, err, ErrPropertyNotFound)
}

func TestGetPhotoVariant_UnknownVariant(t *testing.T) {
	repo := newFakeRepo()
	repo.photos["p1"] = &domain.PropertyPhoto{ID: "p1", Status: domain.PhotoStatusReady}
	uc := NewPropertyUsecase(repo, newFakeFiles(), &fakePipeline{}, &fakeProducer{}, testLogger())

	_, _, _, err := uc.GetPhotoVariant(context.Background(), "p1", "thumbnail")
	require.ErrorIs(t, err, ErrUnknownVariant)
}

func TestGetPhotoVariant_StreamsDesktop(t *testing.T) {
	repo := newFakeRepo()
	files := newFakeFiles()
	repo.photos["p1"] = &domain.PropertyPhoto{
		ID:          "p1",
		DesktopPath: "photos/prop/p1/house_desktop.jpg",
		Status:      domain.PhotoStatusReady,
	}
	files.objects["photos/prop/p1/house_desktop.jpg"] = []byte("jpeg bytes")
	uc := NewPropertyUsecase(repo, files, &fakePipeline{}, &fakeProducer{}, testLogger())

	_, reader, contentType, err := uc.GetPhotoVariant(context.Background(), "p1", "desktop")
	require.NoError(t, err)
	defer reader.Close()

	require.Equal(t, domain.ContentTypeJPEG, contentType)
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.Equal(t, []byte("jpeg bytes"), data)
}

func TestReprocessPhoto_QueuesTask(t *testing.T) {
	repo := newFakeRepo()
	repo.photos["p1"] = &domain.PropertyPhoto{
		ID:           "p1",
		PropertyID:   "prop1",
		OriginalPath: "originals/p1.jpg",
		Status:       domain.PhotoStatusReady,
	}
	producer := &fakeProducer{}
	uc := NewPropertyUsecase(repo, newFakeFiles(), &fakePipeline{}, producer, testLogger())

	require.NoError(t, uc.ReprocessPhoto(context.Background(), "p1"))

	require.Len(t, producer.tasks, 1)
	require.Equal(t, "p1", producer.tasks[0].PhotoID)
	require.Equal(t, "originals/p1.jpg", producer.tasks[0].OriginalPath)
	require.Equal(t, domain.PhotoStatusProcessing, repo.photos["p1"].Status)
}

func TestReprocessPhoto_SendFailureRevertsStatus(t *testing.T) {
	repo := newFakeRepo()
	repo.photos["p1"] = &domain.PropertyPhoto{ID: "p1", Status: domain.PhotoStatusReady}
	producer := &fakeProducer{err: errors.New("broker down")}
	uc := NewPropertyUsecase(repo, newFakeFiles(), &fakePipeline{}, producer, testLogger())

	require.Error(t, uc.ReprocessPhoto(context.Background(), "p1"))
	require.Equal(t, domain.PhotoStatusReady, repo.photos["p1"].Status)
}

func TestDeleteProperty_RemovesPhotosAndObjects(t *testing.T) {
	repo := newFakeRepo()
	files := newFakeFiles()
	repo.properties["prop1"] = &domain.Property{ID: "prop1"}
	repo.photos["p1"] = &domain.PropertyPhoto{
		ID:           "p1",
		PropertyID:   "prop1",
		OriginalPath: "originals/p1.jpg",
	}
	files.objects["originals/p1.jpg"] = []byte("x")
	files.objects["photos/prop1/p1/house_desktop.jpg"] = []byte("x")
	uc := NewPropertyUsecase(repo, files, &fakePipeline{}, &fakeProducer{}, testLogger())

	require.NoError(t, uc.DeleteProperty(context.Background(), "prop1"))

	require.Empty(t, repo.properties)
	require.Empty(t, repo.photos)
	require.Empty(t, files.objects)
}
