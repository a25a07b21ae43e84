package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cropmind/cropmind-engine/pkg/apperrors"
	"github.com/cropmind/cropmind-engine/pkg/inference"
	"github.com/cropmind/cropmind-engine/pkg/models"
	"github.com/cropmind/cropmind-engine/pkg/repositories"
)

// AnalysisResult pairs the structured draft with the provider's verbatim
// report so callers can surface the raw text alongside parsed fields.
type AnalysisResult struct {
	Draft *models.DetectionDraft
	Raw   string
}

// DetectionService runs pest analysis and manages detection records.
type DetectionService interface {
	// Analyze sends the image to the inference provider and normalizes the
	// response. Nothing is persisted.
	Analyze(ctx context.Context, image []byte, mimeType string) (*AnalysisResult, error)

	// Save validates and persists a detection.
	Save(ctx context.Context, draft *models.DetectionDraft, imageURL *string, userID *uuid.UUID) (*models.Detection, error)

	// List returns all detections, newest first.
	List(ctx context.Context) ([]*models.Detection, error)
}

type detectionService struct {
	analyzer inference.ImageAnalyzer
	repo     repositories.DetectionRepository
	logger   *zap.Logger
}

var _ DetectionService = (*detectionService)(nil)

func NewDetectionService(analyzer inference.ImageAnalyzer, repo repositories.DetectionRepository, logger *zap.Logger) DetectionService {
	return &detectionService{
		analyzer: analyzer,
		repo:     repo,
		logger:   logger.Named("detection"),
	}
}

func (s *detectionService) Analyze(ctx context.Context, image []byte, mimeType string) (*AnalysisResult, error) {
	s.logger.Debug("Analyzing image",
		zap.String("provider", s.analyzer.Provider()),
		zap.Int("image_bytes", len(image)),
		zap.String("mime_type", mimeType))

	start := time.Now()
	analysis, err := s.analyzer.AnalyzeImage(ctx, image, mimeType)
	if err != nil {
		s.logger.Error("Image analysis failed",
			zap.String("provider", s.analyzer.Provider()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, fmt.Errorf("analyzing image: %w", err)
	}

	draft := ParseDetectionReport(analysis.Text)
	s.logger.Info("Image analysis completed",
		zap.String("provider", s.analyzer.Provider()),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("pest_name", draft.PestName),
		zap.Int("remedies", len(draft.Remedies)))

	return &AnalysisResult{Draft: draft, Raw: analysis.Text}, nil
}

func (s *detectionService) Save(ctx context.Context, draft *models.DetectionDraft, imageURL *string, userID *uuid.UUID) (*models.Detection, error) {
	if draft == nil || draft.PestName == "" {
		return nil, fmt.Errorf("%w: pest_name is required", apperrors.ErrValidation)
	}

	remedies := draft.Remedies
	if remedies == nil {
		remedies = []string{}
	}

	detection := &models.Detection{
		PestName:  draft.PestName,
		Remedies:  remedies,
		Treatment: draft.Treatment,
		ImageURL:  imageURL,
		UserID:    userID,
	}
	if err := s.repo.Insert(ctx, detection); err != nil {
		return nil, fmt.Errorf("saving detection: %w", err)
	}

	s.logger.Info("Detection saved",
		zap.String("detection_id", detection.ID.String()),
		zap.String("pest_name", detection.PestName))
	return detection, nil
}

func (s *detectionService) List(ctx context.Context) ([]*models.Detection, error) {
	detections, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing detections: %w", err)
	}
	return detections, nil
}
