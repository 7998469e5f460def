package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"divemap/internal/domain/venues"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateVenue(t *testing.T) {
	vs := &mockVenueStore{}
	app := newTestApp(vs, &mockReviewStore{})

	body := `{"name": "Blue Hole", "location_text": "Dahab, Egypt", "lat": 28.572, "lon": 34.537}`
	rr := doRequest(t, app, httptest.NewRequest(http.MethodPost, "/v1/venues", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rr.Code)

	var resp struct {
		Data venues.Venue `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Data.ID)
	assert.Equal(t, "Blue Hole", resp.Data.Name)
	assert.True(t, resp.Data.Active)
	require.NotNil(t, resp.Data.Position)
	assert.Equal(t, 28.572, resp.Data.Position.Lat)
	assert.Nil(t, resp.Data.AverageRating)
}

func TestCreateVenueValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"description": "no name"}`},
		{"lat without lon", `{"name": "x", "lat": 10}`},
		{"lat out of range", `{"name": "x", "lat": 95, "lon": 0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(&mockVenueStore{}, &mockReviewStore{})
			rr := doRequest(t, app, httptest.NewRequest(http.MethodPost, "/v1/venues", strings.NewReader(tt.body)))
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestGetVenueNotFound(t *testing.T) {
	vs := &mockVenueStore{getErr: venues.ErrNotFound}
	app := newTestApp(vs, &mockReviewStore{})

	rr := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/v1/venues/12", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetVenueBadID(t *testing.T) {
	app := newTestApp(&mockVenueStore{}, &mockReviewStore{})

	rr := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/v1/venues/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdateVenue(t *testing.T) {
	vs := &mockVenueStore{venue: &venues.Venue{ID: 12, Name: "Renamed", Active: true}}
	app := newTestApp(vs, &mockReviewStore{})

	body := `{"name": "Renamed", "lat": 28.5, "lon": 34.5}`
	rr := doRequest(t, app, httptest.NewRequest(http.MethodPatch, "/v1/venues/12", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Renamed", vs.lastUpdate["name"])
	assert.Equal(t, []float64{28.5, 34.5}, vs.lastUpdate["position"])
}

func TestUpdateVenueEmptyPatch(t *testing.T) {
	vs := &mockVenueStore{}
	app := newTestApp(vs, &mockReviewStore{})

	rr := doRequest(t, app, httptest.NewRequest(http.MethodPatch, "/v1/venues/12", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Nil(t, vs.lastUpdate)
}

func TestDeleteVenue(t *testing.T) {
	vs := &mockVenueStore{}
	app := newTestApp(vs, &mockReviewStore{})

	rr := doRequest(t, app, httptest.NewRequest(http.MethodDelete, "/v1/venues/12", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestDeleteVenueNotFound(t *testing.T) {
	vs := &mockVenueStore{deleteErr: venues.ErrNotFound}
	app := newTestApp(vs, &mockReviewStore{})

	rr := doRequest(t, app, httptest.NewRequest(http.MethodDelete, "/v1/venues/12", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
