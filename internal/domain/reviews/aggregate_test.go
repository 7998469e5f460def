package reviews

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func fp(v float64) *float64 { return &v }

func ratingsOnly(ratings ...float64) []sample {
	out := make([]sample, len(ratings))
	for i, r := range ratings {
		out[i] = sample{rating: r}
	}
	return out
}

func TestMeansEmptySetIsNil(t *testing.T) {
	avgRating, avgDifficulty := means(nil)
	assert.Nil(t, avgRating, "no reviews means null, never zero")
	assert.Nil(t, avgDifficulty)

	avgRating, avgDifficulty = means([]sample{})
	assert.Nil(t, avgRating)
	assert.Nil(t, avgDifficulty)
}

func TestMeansRatingLifecycle(t *testing.T) {
	// ratings [3,4,5] average 4.0
	avg, _ := means(ratingsOnly(3, 4, 5))
	require.NotNil(t, avg)
	assert.InDelta(t, 4.0, *avg, 1e-9)

	// adding a rating of 2 moves the average to 3.5
	avg, _ = means(ratingsOnly(3, 4, 5, 2))
	require.NotNil(t, avg)
	assert.InDelta(t, 3.5, *avg, 1e-9)

	// deleting it restores 4.0
	avg, _ = means(ratingsOnly(3, 4, 5))
	require.NotNil(t, avg)
	assert.InDelta(t, 4.0, *avg, 1e-9)
}

func TestMeansDifficultyOverSubset(t *testing.T) {
	samples := []sample{
		{rating: 5, difficulty: fp(2)},
		{rating: 3},
		{rating: 4, difficulty: fp(4)},
		{rating: 1},
	}

	avgRating, avgDifficulty := means(samples)
	require.NotNil(t, avgRating)
	require.NotNil(t, avgDifficulty)
	assert.InDelta(t, 3.25, *avgRating, 1e-9)
	// only the two reviews carrying a difficulty contribute
	assert.InDelta(t, 3.0, *avgDifficulty, 1e-9)
}

func TestMeansNoDifficultiesIsNil(t *testing.T) {
	avgRating, avgDifficulty := means(ratingsOnly(1, 5))
	require.NotNil(t, avgRating)
	assert.InDelta(t, 3.0, *avgRating, 1e-9)
	assert.Nil(t, avgDifficulty, "difficulty aggregate is null when no review has one")
}

func TestMeansSingleReview(t *testing.T) {
	avgRating, avgDifficulty := means([]sample{{rating: 4.5, difficulty: fp(3.5)}})
	require.NotNil(t, avgRating)
	require.NotNil(t, avgDifficulty)
	assert.Equal(t, 4.5, *avgRating)
	assert.Equal(t, 3.5, *avgDifficulty)
}

// Models N writers hitting the same venue: each appends its review under the
// per-venue lock and recomputes the aggregate from the full live set, exactly
// what the transaction does. The final aggregate must equal the mean of all N
// ratings with no lost updates.
func TestFullRecomputeUnderConcurrentWriters(t *testing.T) {
	const writers = 64

	var (
		mu      sync.Mutex
		live    []sample
		current *float64
	)

	var g errgroup.Group
	for i := 0; i < writers; i++ {
		rating := float64(1 + i%5)
		g.Go(func() error {
			mu.Lock()
			defer mu.Unlock()
			live = append(live, sample{rating: rating})
			current, _ = means(live)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var sum float64
	for i := 0; i < writers; i++ {
		sum += float64(1 + i%5)
	}
	want := sum / writers

	require.NotNil(t, current)
	assert.InDelta(t, want, *current, 1e-9)
	assert.Len(t, live, writers)
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock detected", &pgconn.PgError{Code: "40P01"}, true},
		{"wrapped deadlock", fmt.Errorf("insert review: %w", &pgconn.PgError{Code: "40P01"}), true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"plain error", errors.New("boom"), false},
		{"review not found", ErrNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retryable(tt.err))
		})
	}
}
