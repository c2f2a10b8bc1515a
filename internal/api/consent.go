// Package api holds the HTTP handlers for the consent surface and the
// shared router assembly.
package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/keywarden/keywarden/internal/auth"
	"github.com/keywarden/keywarden/internal/config"
	"github.com/keywarden/keywarden/internal/db"
	"github.com/keywarden/keywarden/internal/keyconfig"
	"github.com/keywarden/keywarden/internal/provider"
	"github.com/keywarden/keywarden/internal/session"
	"gorm.io/gorm"
)

// Deps bundles what the consent handlers need. ManagedKeysEnabled is
// captured at construction, not re-read per call.
type Deps struct {
	DB       *gorm.DB
	Provider *provider.Client
	Codec    *keyconfig.Codec
	Cfg      *config.Config
}

type consentRequest struct {
	TeamID   string `json:"teamId"`
	TeamName string `json:"teamName"`
}

// gate runs the two checks shared by every consent operation: feature
// flag first, then session. Returns the user id, or "" after writing
// the error response.
func (d Deps) gate(w http.ResponseWriter, r *http.Request) string {
	if !d.Cfg.ManagedKeysEnabled {
		http.Error(w, `{"error": "Managed keys are disabled"}`, http.StatusForbidden)
		return ""
	}
	userID := session.UserIDFromRequest(r, d.Cfg.JWTSecret)
	if userID == "" {
		http.Error(w, `{"error": "Not authenticated"}`, http.StatusUnauthorized)
		return ""
	}
	return userID
}

// GrantConsentHandler provisions a managed provider key for the caller:
// resolve the owning team, mint the key remotely, encrypt its config,
// persist the integration row.
func GrantConsentHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := d.gate(w, r)
		if userID == "" {
			return
		}

		account, err := db.FindAccount(d.DB, userID, provider.Name)
		if err != nil {
			log.Printf("⚠️ Account lookup failed for user %s: %v", userID, err)
			http.Error(w, `{"error": "Failed to create managed key"}`, http.StatusInternalServerError)
			return
		}
		if account == nil || account.AccessToken == "" {
			http.Error(w, `{"error": "No linked account"}`, http.StatusBadRequest)
			return
		}
		accessToken := auth.AccessTokenForAccount(r.Context(), d.DB, d.Cfg, account)

		// Missing or empty body is fine, both fields just stay absent.
		var req consentRequest
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&req)
		}

		// An explicit team id always wins over resolution.
		teamID := req.TeamID
		if teamID == "" {
			teamID = d.Provider.ResolveTeam(r.Context(), accessToken)
		}
		if teamID == "" {
			http.Error(w, `{"error": "Could not determine team"}`, http.StatusInternalServerError)
			return
		}

		key, err := d.Provider.CreateAPIKey(r.Context(), accessToken, teamID)
		if err != nil {
			log.Printf("⚠️ Key provisioning failed for user %s team %s: %v", userID, teamID, err)
			http.Error(w, `{"error": "Failed to create managed key"}`, http.StatusInternalServerError)
			return
		}

		encrypted, err := d.Codec.Encode(keyconfig.KeyConfig{
			APIKey:       key.Token,
			ManagedKeyID: key.ID,
			TeamID:       teamID,
		})
		if err != nil {
			log.Printf("⚠️ Config encoding failed for user %s: %v", userID, err)
			http.Error(w, `{"error": "Failed to create managed key"}`, http.StatusInternalServerError)
			return
		}

		integrationID, err := db.InsertManagedIntegration(d.DB, userID, req.TeamName, encrypted)
		if err != nil {
			// A remotely minted key with no local record is a leak; this
			// must fail the grant loudly.
			log.Printf("⚠️ Persisting managed key failed for user %s (remote key %s): %v", userID, key.ID, err)
			http.Error(w, `{"error": "Failed to create managed key"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":              true,
			"hasManagedKey":        true,
			"managedIntegrationId": integrationID,
		})
	}
}

// RevokeConsentHandler revokes one managed key. Remote deletion is
// best-effort and strictly before local deletion: an interruption
// between the two leaves a stray local row (re-discoverable, re-
// deletable), never an orphaned live remote key.
func RevokeConsentHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := d.gate(w, r)
		if userID == "" {
			return
		}

		// Users can hold one managed key per team; an unscoped revoke
		// would be ambiguous.
		integrationID := r.URL.Query().Get("integrationId")
		if integrationID == "" {
			http.Error(w, `{"error": "integrationId is required"}`, http.StatusBadRequest)
			return
		}

		integration, err := db.FindManagedIntegration(d.DB, integrationID, userID)
		if err != nil {
			log.Printf("⚠️ Integration lookup failed for user %s: %v", userID, err)
			http.Error(w, `{"error": "Failed to revoke managed key"}`, http.StatusInternalServerError)
			return
		}
		if integration == nil {
			http.Error(w, `{"error": "Integration not found"}`, http.StatusNotFound)
			return
		}

		// Unreadable config must not leave the row permanently stuck:
		// skip the remote call and clean up locally anyway.
		keyCfg, err := d.Codec.Decode(integration.Config)
		switch {
		case err != nil:
			log.Printf("⚠️ Config decode failed for integration %s, skipping remote revocation: %v", integrationID, err)
		case !keyCfg.CanRevoke():
			log.Printf("⚠️ Integration %s lacks revocation metadata, skipping remote revocation", integrationID)
		default:
			account, err := db.FindAccount(d.DB, userID, provider.Name)
			if err != nil || account == nil || account.AccessToken == "" {
				log.Printf("⚠️ No usable account for remote revocation of integration %s", integrationID)
				break
			}
			accessToken := auth.AccessTokenForAccount(r.Context(), d.DB, d.Cfg, account)
			if err := d.Provider.DeleteAPIKey(r.Context(), accessToken, keyCfg.ManagedKeyID, keyCfg.TeamID); err != nil {
				// Advisory only. A dangling remote key is the lesser harm
				// compared to a local row blocking future grants.
				log.Printf("⚠️ Remote key deletion failed for integration %s (continuing): %v", integrationID, err)
			}
		}

		if err := db.DeleteIntegration(d.DB, integration.ID); err != nil {
			log.Printf("⚠️ Local integration deletion failed for %s: %v", integrationID, err)
			http.Error(w, `{"error": "Failed to revoke managed key"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":       true,
			"hasManagedKey": false,
		})
	}
}

// ConsentStatusHandler lists the caller's managed keys. Team ids are
// included only when the stored config still decodes.
func ConsentStatusHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := d.gate(w, r)
		if userID == "" {
			return
		}

		integrations, err := db.ListManagedIntegrations(d.DB, userID)
		if err != nil {
			http.Error(w, `{"error": "Failed to list managed keys"}`, http.StatusInternalServerError)
			return
		}

		type entry struct {
			ID     string `json:"id"`
			Name   string `json:"name"`
			TeamID string `json:"teamId,omitempty"`
		}
		entries := make([]entry, 0, len(integrations))
		for _, integration := range integrations {
			e := entry{ID: integration.ID, Name: integration.Name}
			if keyCfg, err := d.Codec.Decode(integration.Config); err == nil {
				e.TeamID = keyCfg.TeamID
			}
			entries = append(entries, e)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"hasManagedKey": len(entries) > 0,
			"integrations":  entries,
		})
	}
}
