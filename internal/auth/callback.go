package auth

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/keywarden/keywarden/internal/config"
	"github.com/keywarden/keywarden/internal/db"
	"github.com/keywarden/keywarden/internal/db/models"
	"github.com/keywarden/keywarden/internal/provider"
	"github.com/keywarden/keywarden/internal/session"
	"gorm.io/gorm"
)

// CallbackHandler finishes the OAuth flow: exchanges the code, links the
// provider account to a user (creating one when the subject is new), and
// migrates ownership when the current session was anonymous. The session
// token returned always belongs to the real user.
func CallbackHandler(database *gorm.DB, cfg *config.Config, client *provider.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stateCookie, err := r.Cookie(stateCookieName)
		if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
			http.Error(w, `{"error": "Invalid state token"}`, http.StatusBadRequest)
			return
		}

		code := r.URL.Query().Get("code")
		token, err := OAuthConfig(cfg).Exchange(r.Context(), code)
		if err != nil {
			log.Printf("⚠️ OAuth code exchange failed: %v", err)
			http.Error(w, `{"error": "Token exchange failed"}`, http.StatusInternalServerError)
			return
		}

		info, err := client.FetchUserInfo(r.Context(), token.AccessToken)
		if err != nil || info.Sub == "" {
			log.Printf("⚠️ Userinfo fetch failed after exchange: %v", err)
			http.Error(w, `{"error": "Failed to fetch user identity"}`, http.StatusInternalServerError)
			return
		}

		realUserID, err := linkAccount(database, info, token.AccessToken, token.RefreshToken, token.Expiry)
		if err != nil {
			log.Printf("⚠️ Account linking failed for subject %s: %v", info.Sub, err)
			http.Error(w, `{"error": "Failed to link account"}`, http.StatusInternalServerError)
			return
		}

		// Anonymous upgrade: carry the session's data over to the real
		// user. Migration failure here is surfaced; the link succeeded
		// but the caller must know the data move did not.
		if sessionUserID := session.UserIDFromRequest(r, cfg.JWTSecret); sessionUserID != "" && sessionUserID != realUserID {
			var sessionUser models.User
			if database.First(&sessionUser, "id = ?", sessionUserID).Error == nil && sessionUser.IsAnonymous {
				if err := db.MigrateOwnership(database, sessionUserID, realUserID); err != nil {
					http.Error(w, `{"error": "Account linked but data migration failed"}`, http.StatusInternalServerError)
					return
				}
			}
		}

		sessionToken, err := session.Issue(cfg.JWTSecret, realUserID)
		if err != nil {
			http.Error(w, `{"error": "Failed to issue session"}`, http.StatusInternalServerError)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     session.CookieName,
			Value:    sessionToken,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"token":  sessionToken,
			"userId": realUserID,
			"email":  info.Email,
		})
	}
}

// linkAccount finds or creates the user owning the provider subject and
// upserts the account row with fresh tokens.
func linkAccount(database *gorm.DB, info *provider.UserInfo, accessToken, refreshToken string, expiry time.Time) (string, error) {
	var account models.Account
	err := database.Where("provider = ? AND subject = ?", provider.Name, info.Sub).First(&account).Error
	if err == nil {
		account.AccessToken = accessToken
		if refreshToken != "" {
			account.RefreshToken = refreshToken
		}
		account.ExpiresAt = expiry
		if err := database.Save(&account).Error; err != nil {
			return "", err
		}
		return account.UserID, nil
	}

	user := models.User{
		ID:    uuid.New().String(),
		Email: info.Email,
		Name:  info.Name,
	}
	if err := database.Create(&user).Error; err != nil {
		return "", err
	}

	account = models.Account{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		Provider:     provider.Name,
		Subject:      info.Sub,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiry,
	}
	if err := database.Create(&account).Error; err != nil {
		return "", err
	}

	log.Printf("🔗 Linked %s account for %s", provider.Name, info.Email)
	return user.ID, nil
}
