// Package auth implements the session entry points: anonymous session
// bootstrap and the provider OAuth login that links an account to a
// user, migrating anonymous data when the session is upgraded.
package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/keywarden/keywarden/internal/config"
	"github.com/keywarden/keywarden/internal/provider"
	"golang.org/x/oauth2"
)

const stateCookieName = "kw_oauth_state"

// Scopes requested from the provider. api-keys:write is what makes
// managed provisioning possible.
var Scopes = []string{"openid", "email", "profile", "teams:read", "api-keys:write"}

// OAuthConfig builds the oauth2 config for the provider's login app.
func OAuthConfig(cfg *config.Config) *oauth2.Config {
	base := cfg.Provider.BaseURL
	if base == "" {
		base = provider.DefaultBaseURL
	}
	base = strings.TrimRight(base, "/")

	return &oauth2.Config{
		ClientID:     cfg.Provider.ClientID,
		ClientSecret: cfg.Provider.ClientSecret,
		RedirectURL:  cfg.Provider.RedirectURL,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  base + "/login/oauth/authorize",
			TokenURL: base + "/login/oauth/token",
		},
	}
}

// LoginHandler starts the OAuth flow with a per-request state token.
func LoginHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := uuid.New().String()
		http.SetCookie(w, &http.Cookie{
			Name:     stateCookieName,
			Value:    state,
			Path:     "/",
			MaxAge:   int((10 * time.Minute).Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		url := OAuthConfig(cfg).AuthCodeURL(state, oauth2.AccessTypeOffline)
		http.Redirect(w, r, url, http.StatusTemporaryRedirect)
	}
}
