package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fridgegram/fridgegram/internal/domain"
)

type profileResponse struct {
	ID           string  `json:"id"`
	DisplayName  string  `json:"displayName"`
	PhotoURL     *string `json:"photoUrl,omitempty"`
	JoinDate     string  `json:"joinDate"`
	Streak       int     `json:"streak"`
	LastPostDate *string `json:"lastPostDate,omitempty"`
}

// handleGetProfile serves a public profile snapshot through the cache, so a
// missing or failing lookup still renders a placeholder.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "missing user id")
		return
	}
	profile := s.cache.Get(r.Context(), id)
	s.respondJSON(w, http.StatusOK, toProfileResponse(profile))
}

func toProfileResponse(profile domain.UserProfile) profileResponse {
	resp := profileResponse{
		ID:          profile.ID,
		DisplayName: profile.DisplayName,
		PhotoURL:    profile.PhotoURL,
		JoinDate:    profile.JoinDate.Format(time.RFC3339),
		Streak:      profile.Streak,
	}
	if profile.LastPostDate != nil {
		formatted := profile.LastPostDate.Format(time.RFC3339)
		resp.LastPostDate = &formatted
	}
	return resp
}
