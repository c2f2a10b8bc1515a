// Package provider talks to the LLMGrid platform API on behalf of a
// linked account: listing teams, reading the user identity, and minting
// or revoking managed API keys.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// Name is the fixed provider discriminator used on account rows.
	Name = "llmgrid"

	// DefaultBaseURL is the production API endpoint.
	DefaultBaseURL = "https://api.llmgrid.ai"

	// managedKeyPurpose and managedKeyName are constants on purpose:
	// every key this service mints is identifiable as ours in the
	// provider's console.
	managedKeyPurpose = "keywarden-managed"
	managedKeyName    = "Keywarden managed key"

	requestTimeout = 30 * time.Second
)

// Client is an HTTP client for the provider API. All calls are bearer
// authenticated with a linked account's access token.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a provider client. An empty baseURL selects production.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// Team is one organizational unit in the provider's platform. Limited
// teams are visible to the user but ineligible to host managed keys.
type Team struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Limited bool   `json:"limited"`
}

// UserInfo is the subset of the OIDC userinfo response we consume.
type UserInfo struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// ManagedKey is the result of provisioning: the key string is returned
// exactly once by the provider and cannot be re-fetched afterward.
type ManagedKey struct {
	Token string
	ID    string
}

// ListTeams fetches the teams visible to the token's user.
func (c *Client) ListTeams(ctx context.Context, accessToken string) ([]Team, error) {
	var payload struct {
		Teams []Team `json:"teams"`
	}
	if err := c.get(ctx, "/v2/teams", accessToken, &payload); err != nil {
		return nil, err
	}
	return payload.Teams, nil
}

// FetchUserInfo reads the OIDC userinfo document for the token's user.
func (c *Client) FetchUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	var info UserInfo
	if err := c.get(ctx, "/login/oauth/userinfo", accessToken, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// CreateAPIKey asks the provider to mint a team-scoped exchange key.
// Exchange keys trade static reusability for provider-side revocation,
// which is what a managed credential wants. A single failed attempt
// fails the whole grant; the caller may simply re-consent.
func (c *Client) CreateAPIKey(ctx context.Context, accessToken, teamID string) (*ManagedKey, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"purpose":  managedKeyPurpose,
		"name":     managedKeyName,
		"exchange": true,
	})

	endpoint := c.baseURL + "/v1/api-keys?teamId=" + url.QueryEscape(teamID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create api key: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("create api key: provider returned %d: %s", resp.StatusCode, snippet)
	}

	var payload struct {
		APIKeyString string `json:"apiKeyString"`
		APIKey       struct {
			ID string `json:"id"`
		} `json:"apiKey"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("create api key: malformed response: %w", err)
	}
	if payload.APIKeyString == "" || payload.APIKey.ID == "" {
		return nil, fmt.Errorf("create api key: response missing key fields")
	}

	log.Printf("🔑 Provisioned managed key %s for team %s", payload.APIKey.ID, teamID)
	return &ManagedKey{Token: payload.APIKeyString, ID: payload.APIKey.ID}, nil
}

// DeleteAPIKey revokes a managed key remotely. Best-effort: callers log
// the returned error and continue with local cleanup either way.
func (c *Client) DeleteAPIKey(ctx context.Context, accessToken, keyID, teamID string) error {
	endpoint := c.baseURL + "/v1/api-keys/" + url.PathEscape(keyID) + "?teamId=" + url.QueryEscape(teamID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete api key: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("delete api key: provider returned %d", resp.StatusCode)
	}
	return nil
}

// get issues a bearer-authenticated GET and decodes the JSON response.
func (c *Client) get(ctx context.Context, path, accessToken string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("GET %s: provider returned %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// maskToken shortens secrets for log output.
func maskToken(t string) string {
	if len(t) <= 8 {
		return "****"
	}
	return t[:4] + "..." + t[len(t)-4:]
}
