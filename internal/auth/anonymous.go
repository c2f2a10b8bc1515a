package auth

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/keywarden/keywarden/internal/config"
	"github.com/keywarden/keywarden/internal/db/models"
	"github.com/keywarden/keywarden/internal/session"
	"gorm.io/gorm"
)

// AnonymousHandler mints an anonymous user and a session token for it.
// The user's data is migrated to a real account if they later log in.
func AnonymousHandler(database *gorm.DB, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := models.User{
			ID:          uuid.New().String(),
			IsAnonymous: true,
		}
		if err := database.Create(&user).Error; err != nil {
			http.Error(w, `{"error": "Failed to create session"}`, http.StatusInternalServerError)
			return
		}

		token, err := session.Issue(cfg.JWTSecret, user.ID)
		if err != nil {
			http.Error(w, `{"error": "Failed to issue session"}`, http.StatusInternalServerError)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     session.CookieName,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"token":  token,
			"userId": user.ID,
		})
	}
}
