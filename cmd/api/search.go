package main

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"divemap/internal/domain/venues"
)

// searchVenuesHandler is the venue discovery endpoint. All parameters are
// optional; contradictory combinations come back as 400 before any storage
// access.
//
// GET /v1/venues?query=&lat=&lon=&radius=&owner=&active=&rating_min=&rating_max=
//
//	&difficulty_min=&difficulty_max=&sort_by=&sort_order=&skip=&limit=
func (app *application) searchVenuesHandler(w http.ResponseWriter, r *http.Request) {
	q, err := app.parseSearchQuery(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	result, err := app.store.Venues.Search(r.Context(), q)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (app *application) parseSearchQuery(r *http.Request) (venues.Query, error) {
	qs := r.URL.Query()
	q := venues.NewQuery()

	if text := qs.Get("query"); strings.TrimSpace(text) != "" {
		q = q.WithText(text)
	}

	hasLat, hasLon, hasRadius := qs.Has("lat"), qs.Has("lon"), qs.Has("radius")
	if hasLat || hasLon || hasRadius {
		if !(hasLat && hasLon && hasRadius) {
			return q, &venues.InvalidQueryError{Reason: "lat, lon and radius must be supplied together"}
		}
		lat, err := parseFloatParam(qs, "lat")
		if err != nil {
			return q, err
		}
		lon, err := parseFloatParam(qs, "lon")
		if err != nil {
			return q, err
		}
		radius, err := parseFloatParam(qs, "radius")
		if err != nil {
			return q, err
		}
		q = q.WithNear(lat, lon, radius)
	}

	if raw := qs.Get("owner"); raw != "" {
		ownerID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return q, &venues.InvalidQueryError{Reason: "owner must be an integer id"}
		}
		q = q.WithOwner(ownerID)
	}

	ratingMin, err := parseOptionalFloat(qs, "rating_min")
	if err != nil {
		return q, err
	}
	ratingMax, err := parseOptionalFloat(qs, "rating_max")
	if err != nil {
		return q, err
	}
	if ratingMin != nil || ratingMax != nil {
		q = q.WithRatingRange(ratingMin, ratingMax)
	}

	difficultyMin, err := parseOptionalFloat(qs, "difficulty_min")
	if err != nil {
		return q, err
	}
	difficultyMax, err := parseOptionalFloat(qs, "difficulty_max")
	if err != nil {
		return q, err
	}
	if difficultyMin != nil || difficultyMax != nil {
		q = q.WithDifficultyRange(difficultyMin, difficultyMax)
	}

	if raw := qs.Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return q, &venues.InvalidQueryError{Reason: "active must be a boolean"}
		}
		if !active {
			// Only the gateway-designated admin role may see inactive venues.
			if !isPrivileged(r) {
				return q, &venues.InvalidQueryError{Reason: "active=false requires a privileged caller"}
			}
			q = q.IncludeInactive()
		}
	}

	if raw := qs.Get("sort_by"); raw != "" {
		key, err := venues.ParseSortKey(raw)
		if err != nil {
			return q, err
		}
		q = q.WithSort(key)
	}
	if raw := qs.Get("sort_order"); raw != "" {
		order, err := venues.ParseSortOrder(raw)
		if err != nil {
			return q, err
		}
		q = q.WithSortOrder(order)
	}

	skip, limit := 0, venues.DefaultLimit
	if raw := qs.Get("skip"); raw != "" {
		skip, err = strconv.Atoi(raw)
		if err != nil {
			return q, &venues.InvalidQueryError{Reason: "skip must be an integer"}
		}
	}
	if raw := qs.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			return q, &venues.InvalidQueryError{Reason: "limit must be an integer"}
		}
	}
	q = q.WithPage(skip, limit)

	return q, q.Validate()
}

func parseFloatParam(qs url.Values, key string) (float64, error) {
	v, err := strconv.ParseFloat(qs.Get(key), 64)
	if err != nil {
		return 0, &venues.InvalidQueryError{Reason: key + " must be a number"}
	}
	return v, nil
}

func parseOptionalFloat(qs url.Values, key string) (*float64, error) {
	raw := qs.Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &venues.InvalidQueryError{Reason: key + " must be a number"}
	}
	return &v, nil
}
