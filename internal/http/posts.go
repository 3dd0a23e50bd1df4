package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fridgegram/fridgegram/internal/domain"
	"github.com/fridgegram/fridgegram/internal/repository"
)

// maxUploadBody caps a fridge photo upload.
const maxUploadBody = 10 << 20 // 10 MiB

const maxDescriptionLen = 2000

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type postResponse struct {
	ID            string           `json:"id"`
	OwnerID       string           `json:"ownerId"`
	Owner         *profileResponse `json:"owner,omitempty"`
	ImageURL      string           `json:"imageUrl"`
	Description   string           `json:"description,omitempty"`
	AverageRating float64          `json:"averageRating"`
	RatingsCount  int64            `json:"ratingsCount"`
	CreatedAt     time.Time        `json:"createdAt"`
}

type postCreateResponse struct {
	postResponse
	Streak int `json:"streak"`
}

type feedResponse struct {
	Items      []postResponse `json:"items"`
	NextCursor *string        `json:"nextCursor,omitempty"`
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	filters, err := buildPostFilters(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	result, err := s.repo.Posts.List(r.Context(), filters)
	if err != nil {
		s.logger.Printf("list posts error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list posts")
		return
	}

	ownerIDs := make([]string, 0, len(result.Items))
	for _, post := range result.Items {
		ownerIDs = append(ownerIDs, post.Owner)
	}
	owners := s.cache.GetMany(r.Context(), ownerIDs)

	items := make([]postResponse, 0, len(result.Items))
	for _, post := range result.Items {
		resp := toPostResponse(post)
		if owner, ok := owners[post.Owner]; ok {
			ownerResp := toProfileResponse(owner)
			resp.Owner = &ownerResp
		}
		items = append(items, resp)
	}

	s.respondJSON(w, http.StatusOK, feedResponse{
		Items:      items,
		NextCursor: result.NextCursor,
	})
}

func buildPostFilters(query url.Values) (repository.PostListFilters, error) {
	var filters repository.PostListFilters

	if val := strings.TrimSpace(query.Get("owner")); val != "" {
		filters.Owner = &val
	}
	if val := strings.TrimSpace(query.Get("limit")); val != "" {
		limit, err := strconv.Atoi(val)
		if err != nil {
			return filters, fmt.Errorf("invalid limit value")
		}
		filters.Limit = limit
	}
	if val := strings.TrimSpace(query.Get("cursor")); val != "" {
		cursor, err := repository.DecodeCursor(val)
		if err != nil {
			return filters, fmt.Errorf("invalid cursor")
		}
		filters.Cursor = cursor
	}
	return filters, nil
}

// handleCreatePost accepts a multipart upload with an image part and an
// optional description, stores the photo, creates the post, and then updates
// the owner's streak. A streak failure never fails the upload.
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxUploadBody); err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Expected multipart form with an image part")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "image part is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "image must be JPEG, PNG, or WebP")
		return
	}

	description := strings.TrimSpace(r.FormValue("description"))
	if len(description) > maxDescriptionLen {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "description too long")
		return
	}

	key := path.Join(userID, uuid.NewString()+ext)
	imageURL, err := s.images.Put(r.Context(), key, file, header.Size, contentType)
	if err != nil {
		s.logger.Printf("store image error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to store image")
		return
	}

	post, err := s.repo.Posts.Create(r.Context(), repository.PostCreateParams{
		Owner:       userID,
		ImageURL:    imageURL,
		Description: description,
	})
	if err != nil {
		s.logger.Printf("create post error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create post")
		return
	}
	s.metrics.RecordPostCreated()

	streakValue := s.tracker.RecordPost(r.Context(), userID)
	if streakValue > 0 {
		s.metrics.RecordStreakUpdate(streakValue)
		s.cache.Invalidate(userID)
	}

	w.Header().Set("Location", "/fridges/"+post.ID)
	s.respondJSON(w, http.StatusCreated, postCreateResponse{
		postResponse: toPostResponse(post),
		Streak:       streakValue,
	})
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	post, err := s.repo.Posts.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
			return
		}
		s.logger.Printf("get post error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch post")
		return
	}

	resp := toPostResponse(post)
	owner := s.cache.Get(r.Context(), post.Owner)
	ownerResp := toProfileResponse(owner)
	resp.Owner = &ownerResp
	s.respondJSON(w, http.StatusOK, resp)
}

func toPostResponse(post domain.Post) postResponse {
	return postResponse{
		ID:            post.ID,
		OwnerID:       post.Owner,
		ImageURL:      post.ImageURL,
		Description:   post.Description,
		AverageRating: post.AverageRating,
		RatingsCount:  post.RatingsCount,
		CreatedAt:     post.CreatedAt,
	}
}
