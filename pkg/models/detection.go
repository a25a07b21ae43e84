package models

import (
	"time"

	"github.com/google/uuid"
)

// Detection is one persisted pest-identification result.
// Stored in the detections table. Records are immutable: there is no update
// path, only create and read.
type Detection struct {
	ID        uuid.UUID  `json:"id"`
	PestName  string     `json:"pest_name"`
	Remedies  []string   `json:"remedies"`  // ordered, possibly empty, never null in API output
	Treatment string     `json:"treatment"` // free text, defaults to empty
	ImageURL  *string    `json:"image_url,omitempty"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// DetectionDraft is an unpersisted analysis result produced by normalizing the
// inference provider's report. It becomes a Detection only when the client
// explicitly saves it.
type DetectionDraft struct {
	PestName  string   `json:"pest_name"`
	Remedies  []string `json:"remedies"`
	Treatment string   `json:"treatment"`
}
