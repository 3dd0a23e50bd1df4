package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fridgegram/fridgegram/internal/identity"
	"github.com/fridgegram/fridgegram/internal/repository"
)

type loginRequest struct {
	ProviderToken string `json:"providerToken"`
}

type loginResponse struct {
	Token   string          `json:"token"`
	Profile profileResponse `json:"profile"`
}

// handleLogin exchanges a provider token for a session. The profile row is
// created on first sign-in and its identity fields refreshed on every later
// one, so the cached snapshot is dropped.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if strings.TrimSpace(req.ProviderToken) == "" {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "providerToken is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(s.cfg.IdentityTimeoutSecs)*time.Second)
	defer cancel()

	ident, err := s.identity.Resolve(ctx, req.ProviderToken)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidToken) {
			s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Provider rejected the token")
			return
		}
		s.logger.Printf("resolve identity failed: %v", err)
		s.respondError(w, http.StatusBadGateway, "IDENTITY_UNAVAILABLE", "Identity provider unavailable")
		return
	}

	profile, _, err := s.repo.Profiles.Upsert(r.Context(), repository.ProfileUpsertParams{
		ID:          ident.Subject,
		DisplayName: ident.DisplayName,
		PhotoURL:    ident.PhotoURL,
	})
	if err != nil {
		s.logger.Printf("upsert profile failed: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to sign in")
		return
	}
	s.cache.Invalidate(profile.ID)

	token, err := s.sessions.Issue(profile.ID)
	if err != nil {
		s.logger.Printf("issue session failed: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to sign in")
		return
	}

	s.respondJSON(w, http.StatusOK, loginResponse{
		Token:   token,
		Profile: toProfileResponse(profile),
	})
}
