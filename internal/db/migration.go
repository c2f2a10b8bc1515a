package db

import (
	"log"

	"github.com/keywarden/keywarden/internal/db/models"
	"gorm.io/gorm"
)

// MigrateOwnership reassigns workflows, workflow executions and
// integrations from an anonymous user to the real user it was linked to.
// The three updates run in one transaction: either the whole migration
// commits or none of it does. Idempotent per id pair; a rerun matches
// zero rows.
func MigrateOwnership(database *gorm.DB, anonymousUserID, realUserID string) error {
	var workflows, executions, integrations int64

	err := database.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Workflow{}).
			Where("user_id = ?", anonymousUserID).
			Update("user_id", realUserID)
		if res.Error != nil {
			return res.Error
		}
		workflows = res.RowsAffected

		res = tx.Model(&models.WorkflowExecution{}).
			Where("user_id = ?", anonymousUserID).
			Update("user_id", realUserID)
		if res.Error != nil {
			return res.Error
		}
		executions = res.RowsAffected

		res = tx.Model(&models.Integration{}).
			Where("user_id = ?", anonymousUserID).
			Update("user_id", realUserID)
		if res.Error != nil {
			return res.Error
		}
		integrations = res.RowsAffected

		return nil
	})
	if err != nil {
		log.Printf("⚠️ Ownership migration %s -> %s failed: %v", anonymousUserID, realUserID, err)
		return err
	}

	log.Printf("📦 Migrated ownership %s -> %s (%d workflows, %d executions, %d integrations)",
		anonymousUserID, realUserID, workflows, executions, integrations)
	return nil
}
