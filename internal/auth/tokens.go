package auth

import (
	"context"
	"log"
	"time"

	"github.com/keywarden/keywarden/internal/config"
	"github.com/keywarden/keywarden/internal/db/models"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

// AccessTokenForAccount returns a usable access token for provider
// calls, refreshing through the OAuth app when the stored token is
// expired and a refresh token is on file. Refresh failure falls back to
// the stored token; the provider will reject it and the caller's normal
// error path applies.
func AccessTokenForAccount(ctx context.Context, database *gorm.DB, cfg *config.Config, account *models.Account) string {
	if account == nil || account.AccessToken == "" {
		return ""
	}
	if account.RefreshToken == "" || account.ExpiresAt.IsZero() ||
		account.ExpiresAt.After(time.Now().Add(time.Minute)) {
		return account.AccessToken
	}

	source := OAuthConfig(cfg).TokenSource(ctx, &oauth2.Token{
		AccessToken:  account.AccessToken,
		RefreshToken: account.RefreshToken,
		Expiry:       account.ExpiresAt,
	})
	fresh, err := source.Token()
	if err != nil {
		log.Printf("⚠️ Token refresh failed for account %s: %v", account.ID, err)
		return account.AccessToken
	}

	if fresh.AccessToken != account.AccessToken {
		account.AccessToken = fresh.AccessToken
		if fresh.RefreshToken != "" {
			account.RefreshToken = fresh.RefreshToken
		}
		account.ExpiresAt = fresh.Expiry
		if err := database.Save(account).Error; err != nil {
			log.Printf("⚠️ Failed to persist refreshed token for account %s: %v", account.ID, err)
		}
	}
	return fresh.AccessToken
}
