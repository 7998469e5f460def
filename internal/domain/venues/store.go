package venues

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"divemap/internal/geo"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

// Create inserts a new venue. The search vector is derived from the text
// fields in the same statement, so it is never stale relative to them.
func (r *Repository) Create(ctx context.Context, venue *Venue) error {
	query := `
	INSERT INTO venues (
		owner_id, name, description, location_text, directions,
		position, active, search_vector
	) VALUES (
		$1, $2, $3, $4, $5,
		CASE WHEN $6::float8 IS NULL THEN NULL
		     ELSE ST_SetSRID(ST_MakePoint($6, $7), 4326)::geography END,
		$8,
		` + searchVectorArgsExpr(2, 3, 4, 5) + `
	)
	RETURNING id, created_at, updated_at`

	var lon, lat *float64
	if venue.Position != nil {
		lon, lat = &venue.Position.Lon, &venue.Position.Lat
	}

	args := []any{
		venue.OwnerID,
		venue.Name,
		venue.Description,
		venue.LocationText,
		venue.Directions,
		lon,
		lat,
		venue.Active,
	}

	row := r.db.QueryRow(ctx, query, args...)
	if err := row.Scan(&venue.ID, &venue.CreatedAt, &venue.UpdatedAt); err != nil {
		return fmt.Errorf("insert venue: %w", err)
	}
	return nil
}

// GetByID retrieves a venue by its ID.
func (r *Repository) GetByID(ctx context.Context, venueID int64) (*Venue, error) {
	query := "SELECT " + venueColumns + " FROM venues v WHERE v.id = $1"

	var (
		v        Venue
		lat, lon *float64
	)
	err := r.db.QueryRow(ctx, query, venueID).Scan(venueScanDest(&v, &lat, &lon)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get venue: %w", err)
	}
	setPosition(&v, lat, lon)
	return &v, nil
}

// Update patches a venue's data. Whenever a text field that feeds the search
// vector changes, the vector is recomputed inside the same transaction.
func (r *Repository) Update(ctx context.Context, venueID int64, updateData map[string]interface{}) error {
	if len(updateData) == 0 {
		return nil
	}

	var (
		set        []string
		args       []interface{}
		argCounter = 1
		touchedFTS = false
	)

	for key, value := range updateData {
		if isSearchTextField(key) {
			set = append(set, fmt.Sprintf("%s = $%d", key, argCounter))
			args = append(args, value)
			argCounter++
			touchedFTS = true
			continue
		}
		switch key {
		case "position":
			if value == nil {
				set = append(set, "position = NULL")
				continue
			}
			loc, ok := value.([]float64)
			if !ok || len(loc) != 2 {
				return fmt.Errorf("invalid position data")
			}
			// loc is [latitude, longitude]; ST_MakePoint wants lon first.
			set = append(set, fmt.Sprintf(
				"position = ST_SetSRID(ST_MakePoint($%d, $%d), 4326)::geography", argCounter, argCounter+1,
			))
			args = append(args, loc[1], loc[0])
			argCounter += 2
		case "active":
			set = append(set, fmt.Sprintf("active = $%d", argCounter))
			args = append(args, value)
			argCounter++
		case "owner_id":
			set = append(set, fmt.Sprintf("owner_id = $%d", argCounter))
			args = append(args, value)
			argCounter++
		default:
			return fmt.Errorf("unsupported field: %s", key)
		}
	}
	set = append(set, "updated_at = now()")

	query := fmt.Sprintf("UPDATE venues SET %s WHERE id = $%d",
		strings.Join(set, ", "), argCounter)
	args = append(args, venueID)

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin venue update: %w", err)
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update venue: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}

	if touchedFTS {
		// The column expression sees the values written above because it
		// runs as a second statement in the same transaction.
		recompute := "UPDATE venues SET search_vector = " + searchVectorColumnsExpr + " WHERE id = $1"
		if _, err := tx.Exec(ctx, recompute, venueID); err != nil {
			return fmt.Errorf("recompute search vector: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Delete removes the venue; its reviews go with it via the cascading FK.
func (r *Repository) Delete(ctx context.Context, venueID int64) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM venues WHERE id = $1`, venueID)
	if err != nil {
		return fmt.Errorf("delete venue: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Search renders the spec into one count query and one page query and returns
// the page plus the total match count. Read-only; cancelling ctx cancels the
// underlying queries.
func (r *Repository) Search(ctx context.Context, q Query) (*SearchResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	rq := q.render()

	var total int
	if err := r.db.QueryRow(ctx, rq.CountSQL, rq.CountArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count venues: %w", err)
	}

	rows, err := r.db.Query(ctx, rq.PageSQL, rq.PageArgs...)
	if err != nil {
		return nil, fmt.Errorf("search venues: %w", err)
	}
	defer rows.Close()

	data := []VenueListing{}
	for rows.Next() {
		var (
			l        VenueListing
			lat, lon *float64
		)
		if err := rows.Scan(venueScanDest(&l.Venue, &lat, &lon)...); err != nil {
			return nil, fmt.Errorf("scan venue row: %w", err)
		}
		setPosition(&l.Venue, lat, lon)

		if q.hasGeo && l.Position != nil {
			d := geo.Distance(q.lat, q.lon, l.Position.Lat, l.Position.Lon)
			l.DistanceKm = &d
		}

		data = append(data, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows venues: %w", err)
	}

	return &SearchResult{Data: data, TotalCount: total}, nil
}

// venueScanDest lists the scan targets matching venueColumns order.
func venueScanDest(v *Venue, lat, lon **float64) []any {
	return []any{
		&v.ID, &v.OwnerID, &v.Name, &v.Description, &v.LocationText, &v.Directions,
		lat, lon,
		&v.Active, &v.AverageRating, &v.AverageDifficulty, &v.CreatedAt, &v.UpdatedAt,
	}
}

func setPosition(v *Venue, lat, lon *float64) {
	if lat != nil && lon != nil {
		v.Position = &Point{Lat: *lat, Lon: *lon}
	}
}
