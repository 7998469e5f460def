package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"divemap/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

// CreateReview inserts a review and recomputes the owning venue's aggregates
// as one atomic unit of work. Either both effects commit or neither does.
func (r *Repository) CreateReview(ctx context.Context, review *Review) error {
	return r.withVenueTx(ctx, review.VenueID, func(tx pgx.Tx) error {
		query := `
			INSERT INTO reviews (venue_id, author_id, rating, difficulty, comment)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at, updated_at
		`
		err := tx.QueryRow(ctx, query,
			review.VenueID,
			review.AuthorID,
			review.Rating,
			review.Difficulty,
			review.Comment,
		).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert review: %w", err)
		}
		return r.recomputeAggregates(ctx, tx, review.VenueID)
	})
}

// UpdateReview patches a review and recomputes the venue aggregates in the
// same transaction. Recomputing on comment-only edits is harmless.
func (r *Repository) UpdateReview(ctx context.Context, venueID, reviewID int64, patch Patch) (*Review, error) {
	var (
		set  []string
		args []interface{}
		n    = 1
	)
	if patch.Rating != nil {
		set = append(set, fmt.Sprintf("rating = $%d", n))
		args = append(args, *patch.Rating)
		n++
	}
	if patch.Difficulty != nil {
		set = append(set, fmt.Sprintf("difficulty = $%d", n))
		args = append(args, *patch.Difficulty)
		n++
	}
	if patch.Comment != nil {
		set = append(set, fmt.Sprintf("comment = $%d", n))
		args = append(args, *patch.Comment)
		n++
	}
	if len(set) == 0 {
		return r.GetReview(ctx, venueID, reviewID)
	}
	set = append(set, "updated_at = now()")

	query := fmt.Sprintf(`
		UPDATE reviews SET %s
		WHERE id = $%d AND venue_id = $%d
		RETURNING id, venue_id, author_id, rating, difficulty, comment, created_at, updated_at`,
		strings.Join(set, ", "), n, n+1)
	args = append(args, reviewID, venueID)

	var updated Review
	err := r.withVenueTx(ctx, venueID, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, query, args...).Scan(
			&updated.ID,
			&updated.VenueID,
			&updated.AuthorID,
			&updated.Rating,
			&updated.Difficulty,
			&updated.Comment,
			&updated.CreatedAt,
			&updated.UpdatedAt,
		)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("update review: %w", err)
		}
		return r.recomputeAggregates(ctx, tx, venueID)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteReview removes a review and recomputes the venue aggregates in the
// same transaction.
func (r *Repository) DeleteReview(ctx context.Context, venueID, reviewID int64) error {
	return r.withVenueTx(ctx, venueID, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx,
			`DELETE FROM reviews WHERE id = $1 AND venue_id = $2`, reviewID, venueID)
		if err != nil {
			return fmt.Errorf("delete review: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return ErrNotFound
		}
		return r.recomputeAggregates(ctx, tx, venueID)
	})
}

func (r *Repository) GetReview(ctx context.Context, venueID, reviewID int64) (*Review, error) {
	query := `
		SELECT id, venue_id, author_id, rating, difficulty, comment, created_at, updated_at
		FROM reviews
		WHERE id = $1 AND venue_id = $2
	`
	var review Review
	err := r.db.QueryRow(ctx, query, reviewID, venueID).Scan(
		&review.ID,
		&review.VenueID,
		&review.AuthorID,
		&review.Rating,
		&review.Difficulty,
		&review.Comment,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	return &review, nil
}

func (r *Repository) GetReviews(ctx context.Context, venueID int64) ([]Review, error) {
	query := `
		SELECT id, venue_id, author_id, rating, difficulty, comment, created_at, updated_at
		FROM reviews
		WHERE venue_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query, venueID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []Review{}
	for rows.Next() {
		var review Review
		err := rows.Scan(
			&review.ID,
			&review.VenueID,
			&review.AuthorID,
			&review.Rating,
			&review.Difficulty,
			&review.Comment,
			&review.CreatedAt,
			&review.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows reviews: %w", err)
	}
	return reviews, nil
}

// withVenueTx runs fn inside a transaction that first takes a row lock on the
// owning venue, serializing mutations per venue while leaving other venues
// uncontended. Transient conflicts are retried a bounded number of times,
// then surfaced as ErrAggregationConflict.
func (r *Repository) withVenueTx(ctx context.Context, venueID int64, fn func(tx pgx.Tx) error) error {
	var lastErr error
	for attempt := 0; attempt < maxAggregateAttempts; attempt++ {
		err := r.runVenueTx(ctx, venueID, fn)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("%w: %v", ErrAggregationConflict, lastErr)
}

func (r *Repository) runVenueTx(ctx context.Context, venueID int64, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin review tx: %w", err)
	}
	defer tx.Rollback(ctx) // safe even if already committed

	var id int64
	err = tx.QueryRow(ctx, `SELECT id FROM venues WHERE id = $1 FOR UPDATE`, venueID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrVenueNotFound
	}
	if err != nil {
		return fmt.Errorf("lock venue: %w", err)
	}

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// recomputeAggregates reloads the venue's live review set and writes both
// aggregates. A full recomputation from the authoritative rows, never an
// increment of request-local state, so concurrent writers cannot drift it.
// Runs against any Querier; mutation paths pass their transaction.
func (r *Repository) recomputeAggregates(ctx context.Context, q dbx.Querier, venueID int64) error {
	rows, err := q.Query(ctx, `SELECT rating, difficulty FROM reviews WHERE venue_id = $1`, venueID)
	if err != nil {
		return fmt.Errorf("load review set: %w", err)
	}
	defer rows.Close()

	var samples []sample
	for rows.Next() {
		var s sample
		if err := rows.Scan(&s.rating, &s.difficulty); err != nil {
			return fmt.Errorf("scan review sample: %w", err)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows review set: %w", err)
	}
	// pgx allows one active query per connection; release the cursor before
	// the aggregate write below.
	rows.Close()

	avgRating, avgDifficulty := means(samples)

	_, err = q.Exec(ctx, `
		UPDATE venues
		SET average_rating = $1, average_difficulty = $2, updated_at = now()
		WHERE id = $3`,
		avgRating, avgDifficulty, venueID)
	if err != nil {
		return fmt.Errorf("write venue aggregates: %w", err)
	}
	return nil
}
