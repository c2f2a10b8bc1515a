package api

import (
	"encoding/json"
	"net/http"

	"github.com/keywarden/keywarden/internal/db/models"
	"github.com/keywarden/keywarden/internal/session"
)

// WorkflowsHandler lists the caller's workflows. Anonymous users see
// their own rows until migration moves them to a real account.
func WorkflowsHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := session.UserIDFromRequest(r, d.Cfg.JWTSecret)
		if userID == "" {
			http.Error(w, `{"error": "Not authenticated"}`, http.StatusUnauthorized)
			return
		}

		var workflows []models.Workflow
		if err := d.DB.Where("user_id = ?", userID).Order("created_at").Find(&workflows).Error; err != nil {
			http.Error(w, `{"error": "Failed to list workflows"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"workflows": workflows,
			"count":     len(workflows),
		})
	}
}
