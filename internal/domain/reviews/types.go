package reviews

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("review not found")
	ErrVenueNotFound = errors.New("venue not found")

	// ErrAggregationConflict surfaces after the bounded internal retries for
	// a transient conflict are exhausted; the operation is safe to retry.
	ErrAggregationConflict = errors.New("aggregate recompute conflict")
)

type Review struct {
	ID         int64     `json:"id"`
	VenueID    int64     `json:"venue_id"`
	AuthorID   int64     `json:"author_id"`
	Rating     float64   `json:"rating"` // 1.0-5.0
	Difficulty *float64  `json:"difficulty,omitempty"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Patch carries the fields an update may change; nil means "leave as is".
// Comment-only edits still trigger a recompute, which is harmless because the
// recompute is idempotent.
type Patch struct {
	Rating     *float64
	Difficulty *float64
	Comment    *string
}

type Store interface {
	CreateReview(ctx context.Context, review *Review) error
	UpdateReview(ctx context.Context, venueID, reviewID int64, patch Patch) (*Review, error)
	DeleteReview(ctx context.Context, venueID, reviewID int64) error
	GetReview(ctx context.Context, venueID, reviewID int64) (*Review, error)
	GetReviews(ctx context.Context, venueID int64) ([]Review, error)
}
