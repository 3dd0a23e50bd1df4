// Package identity talks to the external authentication provider. The
// provider is an opaque collaborator: it exchanges a provider token for a
// stable user identifier plus public profile fields.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrInvalidToken is returned when the provider rejects the presented token.
var ErrInvalidToken = errors.New("identity: invalid token")

// Identity is the provider's view of a signed-in user.
type Identity struct {
	Subject     string
	DisplayName string
	PhotoURL    *string
}

// Client defines the contract for resolving provider tokens.
type Client interface {
	Resolve(ctx context.Context, providerToken string) (Identity, error)
}

// HTTPClient implements Client over HTTP.
type HTTPClient struct {
	baseURL *url.URL
	apiKey  string
	client  *http.Client
	logger  *log.Logger
}

// NewHTTPClient constructs a new HTTP-backed identity client.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, logger *log.Logger) (*HTTPClient, error) {
	if logger == nil {
		logger = log.Default()
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse identity url: %w", err)
	}
	return &HTTPClient{
		baseURL: parsed,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger: logger,
	}, nil
}

// Resolve exchanges a provider token for the user's identity.
func (c *HTTPClient) Resolve(ctx context.Context, providerToken string) (Identity, error) {
	rel := &url.URL{Path: "/identity"}
	endpoint := c.baseURL.ResolveReference(rel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return Identity{}, err
	}
	req.Header.Set("Authorization", "Bearer "+providerToken)
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Identity{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var payload apiResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return Identity{}, fmt.Errorf("decode identity response: %w", err)
		}
		return convertToIdentity(payload)
	case http.StatusUnauthorized, http.StatusNotFound:
		return Identity{}, ErrInvalidToken
	default:
		c.logger.Printf("identity: unexpected status %d", resp.StatusCode)
		return Identity{}, fmt.Errorf("identity: upstream returned %d", resp.StatusCode)
	}
}

type apiResponse struct {
	Sub     string  `json:"sub"`
	Name    *string `json:"name"`
	Picture *string `json:"picture"`
}

func convertToIdentity(payload apiResponse) (Identity, error) {
	subject := strings.TrimSpace(payload.Sub)
	if subject == "" {
		return Identity{}, fmt.Errorf("identity: response missing subject")
	}

	name := "FridgeGram User"
	if payload.Name != nil && strings.TrimSpace(*payload.Name) != "" {
		name = strings.TrimSpace(*payload.Name)
	}

	var photo *string
	if payload.Picture != nil && strings.TrimSpace(*payload.Picture) != "" {
		trimmed := strings.TrimSpace(*payload.Picture)
		photo = &trimmed
	}

	return Identity{
		Subject:     subject,
		DisplayName: name,
		PhotoURL:    photo,
	}, nil
}
