package reviews

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// maxAggregateAttempts bounds the internal retries on transient conflicts
// before ErrAggregationConflict is surfaced to the caller.
const maxAggregateAttempts = 3

// sample is one live review's contribution to the venue aggregates.
type sample struct {
	rating     float64
	difficulty *float64
}

// means computes the venue aggregates over the live review set: the plain
// arithmetic mean of ratings, and the mean difficulty over the subset of
// reviews that carry one. An empty input set yields nil, never zero; nil is
// the "no reviews exist" state and is stored as SQL NULL.
func means(samples []sample) (avgRating, avgDifficulty *float64) {
	if len(samples) == 0 {
		return nil, nil
	}

	var ratingSum float64
	var diffSum float64
	var diffCount int
	for _, s := range samples {
		ratingSum += s.rating
		if s.difficulty != nil {
			diffSum += *s.difficulty
			diffCount++
		}
	}

	ar := ratingSum / float64(len(samples))
	avgRating = &ar

	if diffCount > 0 {
		ad := diffSum / float64(diffCount)
		avgDifficulty = &ad
	}
	return avgRating, avgDifficulty
}

// retryable reports whether err is a transient per-venue conflict worth
// another attempt: SQLSTATE 40001 (serialization failure) or 40P01
// (deadlock detected).
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
