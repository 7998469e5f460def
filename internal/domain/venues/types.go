package venues

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("venue not found")

// ErrInvalidQuery is the sentinel wrapped by every InvalidQueryError, so
// callers can match the whole family with errors.Is.
var ErrInvalidQuery = errors.New("invalid search query")

// InvalidQueryError reports malformed or contradictory search parameters.
// It is always detected before any storage access.
type InvalidQueryError struct {
	Reason string
}

func (e *InvalidQueryError) Error() string {
	return "invalid search query: " + e.Reason
}

func (e *InvalidQueryError) Unwrap() error { return ErrInvalidQuery }

func invalidQuery(reason string) error {
	return &InvalidQueryError{Reason: reason}
}

// Point is a geographic coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Venue is a dive site or dive operator. The two are structurally identical
// for search and aggregation purposes.
//
// AverageRating and AverageDifficulty are nil when the venue has no reviews
// (or none carrying a difficulty); nil is distinct from a numeric zero and
// marshals to JSON null.
type Venue struct {
	ID                int64     `json:"id"`
	OwnerID           *int64    `json:"owner_id,omitempty"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	LocationText      string    `json:"location_text"`
	Directions        string    `json:"directions"`
	Position          *Point    `json:"position,omitempty"`
	Active            bool      `json:"active"`
	AverageRating     *float64  `json:"average_rating"`
	AverageDifficulty *float64  `json:"average_difficulty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// VenueListing is a search hit. DistanceKm is only set when the search had a
// geo filter.
type VenueListing struct {
	Venue
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// SearchResult is one page of matches plus the total match count before
// pagination.
type SearchResult struct {
	Data       []VenueListing `json:"data"`
	TotalCount int            `json:"total_count"`
}

type Store interface {
	Create(ctx context.Context, venue *Venue) error
	GetByID(ctx context.Context, venueID int64) (*Venue, error)
	Update(ctx context.Context, venueID int64, updateData map[string]interface{}) error
	Delete(ctx context.Context, venueID int64) error
	Search(ctx context.Context, q Query) (*SearchResult, error)
}
