package venues

import "fmt"

// The search vector is a pure function of the four text fields, recomputed in
// the same transaction as any write to them. Weight tiers: name is the most
// identifying field (A), description and location text rank next (B),
// directions last (C). The 'simple' configuration plus unaccent keeps matching
// case- and accent-insensitive without language-specific stemming.

// searchVectorArgsExpr renders the weighted tsvector expression over four
// positional arguments, for INSERT statements that carry the field values.
func searchVectorArgsExpr(name, description, locationText, directions int) string {
	return fmt.Sprintf(
		`setweight(to_tsvector('simple', unaccent(coalesce($%d, ''))), 'A')
		|| setweight(to_tsvector('simple', unaccent(coalesce($%d, ''))), 'B')
		|| setweight(to_tsvector('simple', unaccent(coalesce($%d, ''))), 'B')
		|| setweight(to_tsvector('simple', unaccent(coalesce($%d, ''))), 'C')`,
		name, description, locationText, directions,
	)
}

// searchVectorColumnsExpr is the same expression over the venue row's own
// columns, for the recompute statement that follows a text-field UPDATE in
// the same transaction.
const searchVectorColumnsExpr = `setweight(to_tsvector('simple', unaccent(coalesce(name, ''))), 'A')
		|| setweight(to_tsvector('simple', unaccent(coalesce(description, ''))), 'B')
		|| setweight(to_tsvector('simple', unaccent(coalesce(location_text, ''))), 'B')
		|| setweight(to_tsvector('simple', unaccent(coalesce(directions, ''))), 'C')`

// searchQueryExpr compiles the user's query string (bound at the given
// positional argument) with the same configuration the vector was built with,
// so ranking and matching agree.
func searchQueryExpr(arg int) string {
	return fmt.Sprintf("websearch_to_tsquery('simple', unaccent($%d))", arg)
}

// isSearchTextField reports whether a venue update field feeds the search
// vector and therefore forces a recompute.
func isSearchTextField(field string) bool {
	switch field {
	case "name", "description", "location_text", "directions":
		return true
	}
	return false
}
