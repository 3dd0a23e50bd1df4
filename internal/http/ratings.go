package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fridgegram/fridgegram/internal/repository"
)

type ratingRequest struct {
	Rating float64 `json:"rating"`
}

type ratingResponse struct {
	PostID        string  `json:"postId"`
	Rating        float64 `json:"rating"`
	AverageRating float64 `json:"averageRating"`
	RatingsCount  int64   `json:"ratingsCount"`
}

type myRatingResponse struct {
	PostID    string    `json:"postId"`
	Rating    float64   `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}

// handleSubmitRating records an egg rating on a post. A rater gets one
// rating per post, post owners cannot rate their own post, and the refreshed
// aggregate comes back with the response.
func (s *Server) handleSubmitRating(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")
	raterID, ok := userIDFromContext(r.Context())
	if !ok {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}

	var req ratingRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	summary, err := s.repo.Ratings.Submit(r.Context(), repository.RatingSubmitParams{
		PostID:  postID,
		RaterID: raterID,
		Value:   req.Rating,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRatingRange):
			s.metrics.RecordRatingRejected("out_of_range")
			s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "rating must be between 0 and 12 eggs")
		case errors.Is(err, repository.ErrNotFound):
			s.metrics.RecordRatingRejected("post_not_found")
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
		case errors.Is(err, repository.ErrOwnerRating):
			s.metrics.RecordRatingRejected("own_post")
			s.respondError(w, http.StatusForbidden, "OWN_POST", "You cannot rate your own post")
		case errors.Is(err, repository.ErrAlreadyRated):
			s.metrics.RecordRatingRejected("duplicate")
			s.respondError(w, http.StatusConflict, "ALREADY_RATED", "You have already rated this post")
		default:
			s.logger.Printf("submit rating error: %v", err)
			s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process rating")
		}
		return
	}
	s.metrics.RecordRatingSubmitted()

	s.respondJSON(w, http.StatusCreated, ratingResponse{
		PostID:        postID,
		Rating:        req.Rating,
		AverageRating: summary.Average,
		RatingsCount:  summary.Count,
	})
}

// handleGetMyRating reports whether the caller already rated the post, so
// the client can disable the rating control.
func (s *Server) handleGetMyRating(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")
	raterID, ok := userIDFromContext(r.Context())
	if !ok {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}

	rating, err := s.repo.Ratings.Get(r.Context(), postID, raterID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
			return
		}
		s.logger.Printf("get rating error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch rating")
		return
	}

	s.respondJSON(w, http.StatusOK, myRatingResponse{
		PostID:    rating.PostID,
		Rating:    rating.Value,
		CreatedAt: rating.CreatedAt,
	})
}
