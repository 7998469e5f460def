package main

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"divemap/internal/domain/reviews"

	"github.com/go-chi/chi/v5"
)

type createReviewPayload struct {
	Rating     float64  `json:"rating" validate:"required,gte=1,lte=5"`
	Difficulty *float64 `json:"difficulty" validate:"omitempty,gte=1,lte=5"`
	Comment    string   `json:"comment" validate:"max=2000"`
}

func (app *application) createReviewHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := venueIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	authorID, ok := userIDFromRequest(r)
	if !ok {
		app.badRequestResponse(w, r, errors.New("missing authenticated user"))
		return
	}

	var payload createReviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	review := &reviews.Review{
		VenueID:    venueID,
		AuthorID:   authorID,
		Rating:     payload.Rating,
		Difficulty: payload.Difficulty,
		Comment:    payload.Comment,
	}

	// Review write and aggregate recompute commit together; the venue's
	// averages are already up to date when this returns.
	if err := app.store.Reviews.CreateReview(r.Context(), review); err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusCreated, review)
}

func (app *application) getVenueReviewsHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := venueIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	list, err := app.store.Reviews.GetReviews(r.Context(), venueID)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}
	if list == nil {
		list = []reviews.Review{}
	}

	response := map[string]interface{}{
		"reviews":       list,
		"total_reviews": len(list),
	}
	if len(list) > 0 {
		var sum float64
		for _, review := range list {
			sum += review.Rating
		}
		response["average"] = math.Round(sum/float64(len(list))*10) / 10
	}

	app.jsonResponse(w, http.StatusOK, response)
}

type updateReviewPayload struct {
	Rating     *float64 `json:"rating" validate:"omitempty,gte=1,lte=5"`
	Difficulty *float64 `json:"difficulty" validate:"omitempty,gte=1,lte=5"`
	Comment    *string  `json:"comment" validate:"omitempty,max=2000"`
}

func (app *application) updateReviewHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := venueIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	reviewID, err := reviewIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload updateReviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	patch := reviews.Patch{
		Rating:     payload.Rating,
		Difficulty: payload.Difficulty,
		Comment:    payload.Comment,
	}

	review, err := app.store.Reviews.UpdateReview(r.Context(), venueID, reviewID, patch)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, review)
}

func (app *application) deleteReviewHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := venueIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	reviewID, err := reviewIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Reviews.DeleteReview(r.Context(), venueID, reviewID); err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]string{"message": "review deleted"})
}

func reviewIDParam(r *http.Request) (int64, error) {
	reviewID, err := strconv.ParseInt(chi.URLParam(r, "reviewID"), 10, 64)
	if err != nil {
		return 0, errors.New("invalid review ID")
	}
	return reviewID, nil
}
