package venues

import (
	"fmt"
	"strings"
)

type SortKey string

const (
	SortByName       SortKey = "name"
	SortByRating     SortKey = "rating"
	SortByDifficulty SortKey = "difficulty"
	SortByRelevance  SortKey = "relevance"
	SortByDistance   SortKey = "distance"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

const (
	// DefaultLimit is the page size used when the caller does not ask for one.
	DefaultLimit = 50
	// MaxLimit caps the page size; larger requests are clamped, not rejected.
	MaxLimit = 100
)

// ParseSortKey maps a query-string value onto a SortKey.
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(s) {
	case SortByName, SortByRating, SortByDifficulty, SortByRelevance, SortByDistance:
		return SortKey(s), nil
	}
	return "", invalidQuery(fmt.Sprintf("unknown sort_by %q", s))
}

// ParseSortOrder maps a query-string value onto a SortOrder.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case SortAsc, SortDesc:
		return SortOrder(s), nil
	}
	return "", invalidQuery(fmt.Sprintf("unknown sort_order %q", s))
}

// Query is an immutable search specification. The zero value is not usable;
// start from NewQuery and derive variants through the With methods, each of
// which returns a modified copy and never touches its receiver. A Query is
// therefore safe to build and hold across goroutines.
//
// All predicates combine with AND. Rendering to SQL happens once, inside
// Store.Search, and is side-effect-free: the same Query against an unchanged
// store yields the same page.
type Query struct {
	text string

	hasGeo   bool
	lat, lon float64
	radiusKm float64

	owner *int64

	ratingMin, ratingMax         *float64
	difficultyMin, difficultyMax *float64

	includeInactive bool

	sortBy   SortKey
	order    SortOrder
	orderSet bool

	skip  int
	limit int
}

// NewQuery returns the default specification: active venues only, sorted by
// name ascending, first page of DefaultLimit results.
func NewQuery() Query {
	return Query{sortBy: SortByName, limit: DefaultLimit}
}

// WithText adds a free-text relevance predicate. Empty or whitespace-only
// input means "no text filter" and is not an error.
func (q Query) WithText(text string) Query {
	q.text = strings.TrimSpace(text)
	return q
}

// WithNear restricts results to venues within radiusKm kilometers of
// (lat, lon), boundary inclusive. Venues without a stored position never
// match.
func (q Query) WithNear(lat, lon, radiusKm float64) Query {
	q.hasGeo = true
	q.lat, q.lon, q.radiusKm = lat, lon, radiusKm
	return q
}

// WithOwner adds an owner equality filter.
func (q Query) WithOwner(ownerID int64) Query {
	q.owner = &ownerID
	return q
}

// WithRatingRange bounds the venue aggregate rating; either bound may be nil.
func (q Query) WithRatingRange(min, max *float64) Query {
	q.ratingMin, q.ratingMax = min, max
	return q
}

// WithDifficultyRange bounds the venue aggregate difficulty; either bound may
// be nil.
func (q Query) WithDifficultyRange(min, max *float64) Query {
	q.difficultyMin, q.difficultyMax = min, max
	return q
}

// IncludeInactive lifts the default active-only filter. Reserved for
// privileged callers; the handler layer enforces who may use it.
func (q Query) IncludeInactive() Query {
	q.includeInactive = true
	return q
}

// WithSort sets the primary sort key. The id tie-break is always appended so
// pagination stays stable when the key has duplicate values.
func (q Query) WithSort(key SortKey) Query {
	q.sortBy = key
	return q
}

// WithSortOrder overrides the default direction. Without an override,
// relevance sorts best-first (descending) and everything else ascending.
func (q Query) WithSortOrder(order SortOrder) Query {
	q.order = order
	q.orderSet = true
	return q
}

// WithPage sets skip and limit. A limit above MaxLimit is clamped at render
// time rather than rejected.
func (q Query) WithPage(skip, limit int) Query {
	q.skip = skip
	q.limit = limit
	return q
}

// Validate checks the spec for contradictions. It runs before any storage
// access; a failure here never reaches the database.
func (q Query) Validate() error {
	if q.hasGeo && q.radiusKm <= 0 {
		return invalidQuery("radius must be greater than zero")
	}
	if q.sortBy == SortByRelevance && q.text == "" {
		return invalidQuery("sort_by=relevance requires a text query")
	}
	if q.sortBy == SortByDistance && !q.hasGeo {
		return invalidQuery("sort_by=distance requires a position and radius")
	}
	if q.ratingMin != nil && q.ratingMax != nil && *q.ratingMin > *q.ratingMax {
		return invalidQuery("rating_min is greater than rating_max")
	}
	if q.difficultyMin != nil && q.difficultyMax != nil && *q.difficultyMin > *q.difficultyMax {
		return invalidQuery("difficulty_min is greater than difficulty_max")
	}
	if q.skip < 0 {
		return invalidQuery("skip must not be negative")
	}
	if q.limit < 1 {
		return invalidQuery("limit must be at least 1")
	}
	return nil
}

func (q Query) effectiveOrder() SortOrder {
	if q.orderSet {
		return q.order
	}
	if q.sortBy == SortByRelevance {
		return SortDesc
	}
	return SortAsc
}

func (q Query) pageLimit() int {
	if q.limit > MaxLimit {
		return MaxLimit
	}
	return q.limit
}

const venueColumns = `v.id, v.owner_id, v.name, v.description, v.location_text, v.directions,
		ST_Y(v.position::geometry), ST_X(v.position::geometry),
		v.active, v.average_rating, v.average_difficulty, v.created_at, v.updated_at`

type renderedQuery struct {
	CountSQL  string
	PageSQL   string
	CountArgs []any
	PageArgs  []any
}

// render turns the spec into one count query and one page query sharing the
// same WHERE clause. Callers must Validate first.
func (q Query) render() renderedQuery {
	var (
		where []string
		args  []any
	)
	next := func() int { return len(args) + 1 }

	if !q.includeInactive {
		where = append(where, "v.active = TRUE")
	}
	if q.owner != nil {
		where = append(where, fmt.Sprintf("v.owner_id = $%d", next()))
		args = append(args, *q.owner)
	}

	textArg := 0
	if q.text != "" {
		textArg = next()
		where = append(where, "v.search_vector @@ "+searchQueryExpr(textArg))
		args = append(args, q.text)
	}

	lonArg, latArg := 0, 0
	if q.hasGeo {
		lonArg, latArg = next(), next()+1
		// ST_DWithin over geography is distance <= radius, boundary
		// inclusive; NULL positions simply never match.
		where = append(where, fmt.Sprintf(
			"ST_DWithin(v.position, ST_SetSRID(ST_MakePoint($%d, $%d), 4326)::geography, $%d)",
			lonArg, latArg, next()+2,
		))
		args = append(args, q.lon, q.lat, q.radiusKm*1000)
	}

	if q.ratingMin != nil {
		where = append(where, fmt.Sprintf("v.average_rating >= $%d", next()))
		args = append(args, *q.ratingMin)
	}
	if q.ratingMax != nil {
		where = append(where, fmt.Sprintf("v.average_rating <= $%d", next()))
		args = append(args, *q.ratingMax)
	}
	if q.difficultyMin != nil {
		where = append(where, fmt.Sprintf("v.average_difficulty >= $%d", next()))
		args = append(args, *q.difficultyMin)
	}
	if q.difficultyMax != nil {
		where = append(where, fmt.Sprintf("v.average_difficulty <= $%d", next()))
		args = append(args, *q.difficultyMax)
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	dir := "ASC"
	if q.effectiveOrder() == SortDesc {
		dir = "DESC"
	}

	var orderBy string
	switch q.sortBy {
	case SortByRating:
		orderBy = "v.average_rating " + dir + " NULLS LAST"
	case SortByDifficulty:
		orderBy = "v.average_difficulty " + dir + " NULLS LAST"
	case SortByRelevance:
		orderBy = "ts_rank_cd(v.search_vector, " + searchQueryExpr(textArg) + ") " + dir
	case SortByDistance:
		orderBy = fmt.Sprintf(
			"ST_Distance(v.position, ST_SetSRID(ST_MakePoint($%d, $%d), 4326)::geography) %s",
			lonArg, latArg, dir,
		)
	default:
		orderBy = "v.name " + dir
	}
	// Deterministic tie-break for stable pagination.
	orderBy += ", v.id ASC"

	countArgs := make([]any, len(args))
	copy(countArgs, args)

	pageSQL := fmt.Sprintf(
		"SELECT %s\n\tFROM venues v%s ORDER BY %s LIMIT $%d OFFSET $%d",
		venueColumns, whereSQL, orderBy, next(), next()+1,
	)
	pageArgs := append(args, q.pageLimit(), q.skip)

	return renderedQuery{
		CountSQL:  "SELECT COUNT(*) FROM venues v" + whereSQL,
		PageSQL:   pageSQL,
		CountArgs: countArgs,
		PageArgs:  pageArgs,
	}
}
