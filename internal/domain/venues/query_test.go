package venues

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }

func TestNewQueryDefaults(t *testing.T) {
	q := NewQuery()
	require.NoError(t, q.Validate())

	rq := q.render()

	assert.Equal(t, "SELECT COUNT(*) FROM venues v WHERE v.active = TRUE", rq.CountSQL)
	assert.Empty(t, rq.CountArgs)

	assert.Contains(t, rq.PageSQL, "WHERE v.active = TRUE")
	assert.Contains(t, rq.PageSQL, "ORDER BY v.name ASC, v.id ASC")
	assert.Equal(t, []any{DefaultLimit, 0}, rq.PageArgs)
}

func TestWithMethodsDoNotMutateReceiver(t *testing.T) {
	base := NewQuery()

	derived := base.
		WithText("coral reef").
		WithNear(25.0, -80.0, 10).
		WithOwner(7).
		WithRatingRange(fp(3), fp(5)).
		IncludeInactive().
		WithSort(SortByDistance).
		WithPage(20, 10)

	assert.Equal(t, NewQuery(), base)
	assert.NotEqual(t, base, derived)
}

func TestEmptyTextEqualsOmitted(t *testing.T) {
	plain := NewQuery()

	for _, text := range []string{"", "   ", "\t\n"} {
		withText := NewQuery().WithText(text)
		assert.Equal(t, plain.render(), withText.render())
	}
}

func TestTextPredicateAndRelevanceSort(t *testing.T) {
	q := NewQuery().WithText("  reef  ").WithSort(SortByRelevance)
	require.NoError(t, q.Validate())

	rq := q.render()

	assert.Contains(t, rq.PageSQL, "v.search_vector @@ websearch_to_tsquery('simple', unaccent($1))")
	// relevance defaults to best-first
	assert.Contains(t, rq.PageSQL, "ts_rank_cd(v.search_vector, websearch_to_tsquery('simple', unaccent($1))) DESC, v.id ASC")
	assert.Equal(t, []any{"reef"}, rq.CountArgs)
}

func TestRelevanceOrderOverride(t *testing.T) {
	q := NewQuery().WithText("reef").WithSort(SortByRelevance).WithSortOrder(SortAsc)
	rq := q.render()
	assert.Contains(t, rq.PageSQL, ") ASC, v.id ASC")
}

func TestGeoPredicate(t *testing.T) {
	q := NewQuery().WithNear(25.0, -80.0, 10).WithSort(SortByDistance)
	require.NoError(t, q.Validate())

	rq := q.render()

	assert.Contains(t, rq.PageSQL,
		"ST_DWithin(v.position, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)")
	assert.Contains(t, rq.PageSQL,
		"ST_Distance(v.position, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) ASC, v.id ASC")
	// lon first, radius converted to meters
	assert.Equal(t, []any{-80.0, 25.0, 10000.0}, rq.CountArgs)
}

func TestAllPredicatesCombineWithAND(t *testing.T) {
	q := NewQuery().
		WithText("wreck").
		WithNear(25.0, -80.0, 25).
		WithOwner(42).
		WithRatingRange(fp(3.5), fp(5)).
		WithDifficultyRange(fp(1), fp(4))
	require.NoError(t, q.Validate())

	rq := q.render()

	assert.Equal(t, 8, strings.Count(rq.CountSQL, " AND ")+1, "expected 8 predicates joined by AND: %s", rq.CountSQL)
	assert.Contains(t, rq.CountSQL, "v.active = TRUE")
	assert.Contains(t, rq.CountSQL, "v.owner_id = $1")
	assert.Contains(t, rq.CountSQL, "v.average_rating >= $6")
	assert.Contains(t, rq.CountSQL, "v.average_rating <= $7")
	assert.Contains(t, rq.CountSQL, "v.average_difficulty >= $8")
	assert.Contains(t, rq.CountSQL, "v.average_difficulty <= $9")
}

func TestIncludeInactiveDropsActiveFilter(t *testing.T) {
	rq := NewQuery().IncludeInactive().render()
	assert.NotContains(t, rq.CountSQL, "v.active")
	assert.Equal(t, "SELECT COUNT(*) FROM venues v", rq.CountSQL)
}

func TestRatingSortUsesNullsLast(t *testing.T) {
	rq := NewQuery().WithSort(SortByRating).WithSortOrder(SortDesc).render()
	assert.Contains(t, rq.PageSQL, "ORDER BY v.average_rating DESC NULLS LAST, v.id ASC")
}

func TestLimitClampedToMax(t *testing.T) {
	q := NewQuery().WithPage(0, 500)
	require.NoError(t, q.Validate())

	rq := q.render()
	assert.Equal(t, []any{MaxLimit, 0}, rq.PageArgs)
}

func TestPaginationRendersStablePages(t *testing.T) {
	q := NewQuery().WithText("reef")

	first := q.WithPage(0, 50).render()
	again := q.WithPage(0, 50).render()
	assert.Equal(t, first, again, "identical specs must render identically")

	second := q.WithPage(50, 50).render()
	assert.Equal(t, first.PageSQL, second.PageSQL)
	assert.Equal(t, first.CountSQL, second.CountSQL)
	// only the OFFSET argument moves between pages
	assert.Equal(t, []any{"reef", 50, 0}, first.PageArgs)
	assert.Equal(t, []any{"reef", 50, 50}, second.PageArgs)
}

func TestCountArgsExcludePagination(t *testing.T) {
	rq := NewQuery().WithText("reef").WithPage(10, 20).render()
	assert.Equal(t, rq.PageArgs[:len(rq.PageArgs)-2], rq.CountArgs)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		q       Query
		wantErr string
	}{
		{"defaults ok", NewQuery(), ""},
		{"zero radius", NewQuery().WithNear(25, -80, 0), "radius"},
		{"negative radius", NewQuery().WithNear(25, -80, -5), "radius"},
		{"relevance without text", NewQuery().WithSort(SortByRelevance), "relevance"},
		{"relevance with whitespace text", NewQuery().WithText("  ").WithSort(SortByRelevance), "relevance"},
		{"distance without position", NewQuery().WithSort(SortByDistance), "distance"},
		{"distance with position ok", NewQuery().WithNear(25, -80, 10).WithSort(SortByDistance), ""},
		{"rating min above max", NewQuery().WithRatingRange(fp(4), fp(2)), "rating_min"},
		{"difficulty min above max", NewQuery().WithDifficultyRange(fp(5), fp(1)), "difficulty_min"},
		{"negative skip", NewQuery().WithPage(-1, 10), "skip"},
		{"zero limit", NewQuery().WithPage(0, 0), "limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidQuery)
			assert.Contains(t, err.Error(), tt.wantErr)

			var iqe *InvalidQueryError
			assert.ErrorAs(t, err, &iqe)
		})
	}
}

func TestParseSortKey(t *testing.T) {
	for _, valid := range []string{"name", "rating", "difficulty", "relevance", "distance"} {
		key, err := ParseSortKey(valid)
		require.NoError(t, err)
		assert.Equal(t, SortKey(valid), key)
	}

	_, err := ParseSortKey("created_at")
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestParseSortOrder(t *testing.T) {
	for _, valid := range []string{"asc", "desc"} {
		order, err := ParseSortOrder(valid)
		require.NoError(t, err)
		assert.Equal(t, SortOrder(valid), order)
	}

	_, err := ParseSortOrder("descending")
	assert.ErrorIs(t, err, ErrInvalidQuery)
}
