package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cropmind/cropmind-engine/pkg/database"
	"github.com/cropmind/cropmind-engine/pkg/models"
)

// DetectionRepository provides data access for persisted detection records.
// Records are append-only: there is no update or delete path.
type DetectionRepository interface {
	// Insert persists a new detection, assigning its ID and CreatedAt.
	Insert(ctx context.Context, detection *models.Detection) error
	// ListAll returns every detection, newest first.
	ListAll(ctx context.Context) ([]*models.Detection, error)
}

type detectionRepository struct {
	db *database.DB
}

// NewDetectionRepository creates a new DetectionRepository.
func NewDetectionRepository(db *database.DB) DetectionRepository {
	return &detectionRepository{db: db}
}

var _ DetectionRepository = (*detectionRepository)(nil)

func (r *detectionRepository) Insert(ctx context.Context, detection *models.Detection) error {
	detection.ID = uuid.New()
	detection.CreatedAt = time.Now()
	if detection.Remedies == nil {
		detection.Remedies = []string{}
	}

	query := `
		INSERT INTO detections (
			id, pest_name, remedies, treatment, image_url, user_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		detection.ID, detection.PestName, detection.Remedies, detection.Treatment,
		detection.ImageURL, detection.UserID, detection.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert detection: %w", err)
	}

	return nil
}

func (r *detectionRepository) ListAll(ctx context.Context) ([]*models.Detection, error) {
	query := `
		SELECT id, pest_name, remedies, treatment, image_url, user_id, created_at
		FROM detections
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list detections: %w", err)
	}
	defer rows.Close()

	detections := make([]*models.Detection, 0)
	for rows.Next() {
		var d models.Detection
		if err := rows.Scan(
			&d.ID, &d.PestName, &d.Remedies, &d.Treatment,
			&d.ImageURL, &d.UserID, &d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		if d.Remedies == nil {
			d.Remedies = []string{}
		}
		detections = append(detections, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating detections: %w", err)
	}

	return detections, nil
}
