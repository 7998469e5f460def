package main

import (
	"errors"
	"net/http"
	"strconv"

	"divemap/internal/domain/venues"

	"github.com/go-chi/chi/v5"
)

type createVenuePayload struct {
	Name         string   `json:"name" validate:"required,max=200"`
	Description  string   `json:"description" validate:"max=5000"`
	LocationText string   `json:"location_text" validate:"max=500"`
	Directions   string   `json:"directions" validate:"max=5000"`
	Lat          *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lon          *float64 `json:"lon" validate:"omitempty,gte=-180,lte=180"`
	OwnerID      *int64   `json:"owner_id"`
	Active       *bool    `json:"active"`
}

func (app *application) createVenueHandler(w http.ResponseWriter, r *http.Request) {
	var payload createVenuePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if (payload.Lat == nil) != (payload.Lon == nil) {
		app.badRequestResponse(w, r, errors.New("lat and lon must be supplied together"))
		return
	}

	venue := &venues.Venue{
		OwnerID:      payload.OwnerID,
		Name:         payload.Name,
		Description:  payload.Description,
		LocationText: payload.LocationText,
		Directions:   payload.Directions,
		Active:       true,
	}
	if payload.Active != nil {
		venue.Active = *payload.Active
	}
	if payload.Lat != nil {
		venue.Position = &venues.Point{Lat: *payload.Lat, Lon: *payload.Lon}
	}

	if err := app.store.Venues.Create(r.Context(), venue); err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusCreated, venue)
}

func (app *application) getVenueHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := venueIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	venue, err := app.store.Venues.GetByID(r.Context(), venueID)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, venue)
}

type updateVenuePayload struct {
	Name         *string  `json:"name" validate:"omitempty,max=200"`
	Description  *string  `json:"description" validate:"omitempty,max=5000"`
	LocationText *string  `json:"location_text" validate:"omitempty,max=500"`
	Directions   *string  `json:"directions" validate:"omitempty,max=5000"`
	Lat          *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lon          *float64 `json:"lon" validate:"omitempty,gte=-180,lte=180"`
	Active       *bool    `json:"active"`
}

func (app *application) updateVenueHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := venueIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload updateVenuePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if (payload.Lat == nil) != (payload.Lon == nil) {
		app.badRequestResponse(w, r, errors.New("lat and lon must be supplied together"))
		return
	}

	updateData := map[string]interface{}{}
	if payload.Name != nil {
		updateData["name"] = *payload.Name
	}
	if payload.Description != nil {
		updateData["description"] = *payload.Description
	}
	if payload.LocationText != nil {
		updateData["location_text"] = *payload.LocationText
	}
	if payload.Directions != nil {
		updateData["directions"] = *payload.Directions
	}
	if payload.Lat != nil {
		updateData["position"] = []float64{*payload.Lat, *payload.Lon}
	}
	if payload.Active != nil {
		updateData["active"] = *payload.Active
	}
	if len(updateData) == 0 {
		app.badRequestResponse(w, r, errors.New("no fields to update"))
		return
	}

	if err := app.store.Venues.Update(r.Context(), venueID, updateData); err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	venue, err := app.store.Venues.GetByID(r.Context(), venueID)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, venue)
}

func (app *application) deleteVenueHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := venueIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Venues.Delete(r.Context(), venueID); err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]string{"message": "venue deleted"})
}

func venueIDParam(r *http.Request) (int64, error) {
	venueID, err := strconv.ParseInt(chi.URLParam(r, "venueID"), 10, 64)
	if err != nil {
		return 0, errors.New("invalid venue ID")
	}
	return venueID, nil
}
