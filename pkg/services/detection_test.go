package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cropmind/cropmind-engine/pkg/apperrors"
	"github.com/cropmind/cropmind-engine/pkg/inference"
	"github.com/cropmind/cropmind-engine/pkg/models"
)

type mockDetectionRepo struct {
	InsertFunc  func(ctx context.Context, detection *models.Detection) error
	ListAllFunc func(ctx context.Context) ([]*models.Detection, error)

	InsertCalls  int
	ListAllCalls int
}

func (m *mockDetectionRepo) Insert(ctx context.Context, detection *models.Detection) error {
	m.InsertCalls++
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, detection)
	}
	detection.ID = uuid.New()
	return nil
}

func (m *mockDetectionRepo) ListAll(ctx context.Context) ([]*models.Detection, error) {
	m.ListAllCalls++
	if m.ListAllFunc != nil {
		return m.ListAllFunc(ctx)
	}
	return []*models.Detection{}, nil
}

func TestDetectionService_Analyze(t *testing.T) {
	analyzer := &inference.MockAnalyzer{
		AnalyzeImageFunc: func(ctx context.Context, image []byte, mimeType string) (*inference.Analysis, error) {
			assert.Equal(t, []byte("fake-image"), image)
			assert.Equal(t, "image/png", mimeType)
			return &inference.Analysis{
				Text: "**1. Detected Pest:** Aphid **2. Remedies:** Neem oil, Soap spray **3. Suggested Treatment:** Apply weekly",
			}, nil
		},
	}
	repo := &mockDetectionRepo{}
	svc := NewDetectionService(analyzer, repo, zap.NewNop())

	result, err := svc.Analyze(context.Background(), []byte("fake-image"), "image/png")

	require.NoError(t, err)
	assert.Equal(t, "Aphid", result.Draft.PestName)
	assert.Equal(t, []string{"Neem oil", "Soap spray"}, result.Draft.Remedies)
	assert.Equal(t, "Apply weekly", result.Draft.Treatment)
	assert.Contains(t, result.Raw, "Detected Pest")
	assert.Equal(t, 1, analyzer.AnalyzeImageCalls)
	assert.Zero(t, repo.InsertCalls, "analyze must not persist")
}

func TestDetectionService_AnalyzeProviderError(t *testing.T) {
	providerErr := &inference.Error{Type: inference.ErrorTypeEndpoint, Message: "bad gateway", StatusCode: 502}
	analyzer := &inference.MockAnalyzer{
		AnalyzeImageFunc: func(ctx context.Context, image []byte, mimeType string) (*inference.Analysis, error) {
			return nil, providerErr
		},
	}
	repo := &mockDetectionRepo{}
	svc := NewDetectionService(analyzer, repo, zap.NewNop())

	result, err := svc.Analyze(context.Background(), []byte("img"), "image/jpeg")

	require.Error(t, err)
	assert.Nil(t, result)
	var infErr *inference.Error
	require.ErrorAs(t, err, &infErr)
	assert.Equal(t, 502, infErr.StatusCode)
	assert.Zero(t, repo.InsertCalls)
}

func TestDetectionService_AnalyzeUnparseableResponse(t *testing.T) {
	analyzer := &inference.MockAnalyzer{
		AnalyzeImageFunc: func(ctx context.Context, image []byte, mimeType string) (*inference.Analysis, error) {
			return &inference.Analysis{Text: "no pests visible in this image"}, nil
		},
	}
	svc := NewDetectionService(analyzer, &mockDetectionRepo{}, zap.NewNop())

	result, err := svc.Analyze(context.Background(), []byte("img"), "image/jpeg")

	require.NoError(t, err)
	assert.Empty(t, result.Draft.PestName)
	assert.NotNil(t, result.Draft.Remedies)
	assert.Equal(t, "no pests visible in this image", result.Raw)
}

func TestDetectionService_Save(t *testing.T) {
	repo := &mockDetectionRepo{}
	svc := NewDetectionService(&inference.MockAnalyzer{}, repo, zap.NewNop())

	userID := uuid.New()
	imageURL := "/uploads/leaf.jpg"
	detection, err := svc.Save(context.Background(), &models.DetectionDraft{
		PestName:  "Aphid",
		Remedies:  []string{"Neem oil"},
		Treatment: "Apply weekly",
	}, &imageURL, &userID)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, detection.ID)
	assert.Equal(t, "Aphid", detection.PestName)
	assert.Equal(t, &imageURL, detection.ImageURL)
	assert.Equal(t, &userID, detection.UserID)
	assert.Equal(t, 1, repo.InsertCalls)
}

func TestDetectionService_SaveRequiresPestName(t *testing.T) {
	repo := &mockDetectionRepo{}
	svc := NewDetectionService(&inference.MockAnalyzer{}, repo, zap.NewNop())

	for _, draft := range []*models.DetectionDraft{nil, {Remedies: []string{"neem oil"}}} {
		_, err := svc.Save(context.Background(), draft, nil, nil)
		require.ErrorIs(t, err, apperrors.ErrValidation)
	}
	assert.Zero(t, repo.InsertCalls)
}

func TestDetectionService_SaveDefaultsRemedies(t *testing.T) {
	var inserted *models.Detection
	repo := &mockDetectionRepo{
		InsertFunc: func(ctx context.Context, detection *models.Detection) error {
			inserted = detection
			return nil
		},
	}
	svc := NewDetectionService(&inference.MockAnalyzer{}, repo, zap.NewNop())

	_, err := svc.Save(context.Background(), &models.DetectionDraft{PestName: "Aphid"}, nil, nil)

	require.NoError(t, err)
	require.NotNil(t, inserted)
	assert.NotNil(t, inserted.Remedies)
	assert.Empty(t, inserted.Remedies)
}

func TestDetectionService_SaveRepositoryError(t *testing.T) {
	repo := &mockDetectionRepo{
		InsertFunc: func(ctx context.Context, detection *models.Detection) error {
			return errors.New("connection refused")
		},
	}
	svc := NewDetectionService(&inference.MockAnalyzer{}, repo, zap.NewNop())

	_, err := svc.Save(context.Background(), &models.DetectionDraft{PestName: "Aphid"}, nil, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "saving detection")
}

func TestDetectionService_List(t *testing.T) {
	expected := []*models.Detection{
		{ID: uuid.New(), PestName: "Whitefly", Remedies: []string{}},
		{ID: uuid.New(), PestName: "Aphid", Remedies: []string{"neem oil"}},
	}
	repo := &mockDetectionRepo{
		ListAllFunc: func(ctx context.Context) ([]*models.Detection, error) {
			return expected, nil
		},
	}
	svc := NewDetectionService(&inference.MockAnalyzer{}, repo, zap.NewNop())

	detections, err := svc.List(context.Background())

	require.NoError(t, err)
	assert.Equal(t, expected, detections)
	assert.Equal(t, 1, repo.ListAllCalls)
}
