package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fridgegram/fridgegram/internal/repository"
)

const maxCommentLen = 1000

type commentCreateRequest struct {
	Body string `json:"body"`
}

type commentResponse struct {
	ID        string           `json:"id"`
	PostID    string           `json:"postId"`
	AuthorID  string           `json:"authorId"`
	Author    *profileResponse `json:"author,omitempty"`
	Body      string           `json:"body"`
	CreatedAt time.Time        `json:"createdAt"`
}

type commentListResponse struct {
	Items []commentResponse `json:"items"`
}

// handleListComments returns a post's comments newest first, each annotated
// with the author's profile snapshot from the cache.
func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")
	if _, err := s.repo.Posts.GetByID(r.Context(), postID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
			return
		}
		s.logger.Printf("get post for comments error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list comments")
		return
	}

	comments, err := s.repo.Comments.ListByPost(r.Context(), postID)
	if err != nil {
		s.logger.Printf("list comments error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list comments")
		return
	}

	authorIDs := make([]string, 0, len(comments))
	for _, comment := range comments {
		authorIDs = append(authorIDs, comment.AuthorID)
	}
	authors := s.cache.GetMany(r.Context(), authorIDs)

	items := make([]commentResponse, 0, len(comments))
	for _, comment := range comments {
		resp := commentResponse{
			ID:        comment.ID,
			PostID:    comment.PostID,
			AuthorID:  comment.AuthorID,
			Body:      comment.Body,
			CreatedAt: comment.CreatedAt,
		}
		if author, ok := authors[comment.AuthorID]; ok {
			authorResp := toProfileResponse(author)
			resp.Author = &authorResp
		}
		items = append(items, resp)
	}

	s.respondJSON(w, http.StatusOK, commentListResponse{Items: items})
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")
	authorID, ok := userIDFromContext(r.Context())
	if !ok {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}

	var req commentCreateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "body is required")
		return
	}
	if len(body) > maxCommentLen {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "body too long")
		return
	}

	comment, err := s.repo.Comments.Create(r.Context(), repository.CommentCreateParams{
		PostID:   postID,
		AuthorID: authorID,
		Body:     body,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
			return
		}
		s.logger.Printf("create comment error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create comment")
		return
	}

	author := s.cache.Get(r.Context(), authorID)
	authorResp := toProfileResponse(author)
	s.respondJSON(w, http.StatusCreated, commentResponse{
		ID:        comment.ID,
		PostID:    comment.PostID,
		AuthorID:  comment.AuthorID,
		Author:    &authorResp,
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt,
	})
}
