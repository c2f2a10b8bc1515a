package db

import (
	"errors"

	"github.com/keywarden/keywarden/internal/db/models"
	"gorm.io/gorm"
)

// ErrPersistence signals that an insert produced no durable row id. A
// remotely provisioned key with no local record cannot be revoked later,
// so callers must treat this as a hard failure.
var ErrPersistence = errors.New("store did not return a generated integration id")

// InsertManagedIntegration persists a freshly provisioned managed key.
// Always a new row, even when the user already has one for another team.
func InsertManagedIntegration(database *gorm.DB, userID, name, encryptedConfig string) (string, error) {
	integration := models.NewManagedIntegration(userID, name, encryptedConfig)
	if err := database.Create(integration).Error; err != nil {
		return "", err
	}
	if integration.ID == "" {
		return "", ErrPersistence
	}
	return integration.ID, nil
}

// FindManagedIntegration looks up one managed provider-key row by the
// exact (id, owner, type, managed) quadruple. Absence is not an error:
// the record pointer is nil and err is nil when no row matches.
func FindManagedIntegration(database *gorm.DB, id, userID string) (*models.Integration, error) {
	var integration models.Integration
	err := database.
		Where("id = ? AND user_id = ? AND type = ? AND is_managed = ?",
			id, userID, models.IntegrationTypeProviderKey, true).
		First(&integration).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &integration, nil
}

// ListManagedIntegrations returns all managed provider-key rows for a user.
func ListManagedIntegrations(database *gorm.DB, userID string) ([]models.Integration, error) {
	var integrations []models.Integration
	err := database.
		Where("user_id = ? AND type = ? AND is_managed = ?",
			userID, models.IntegrationTypeProviderKey, true).
		Order("created_at").
		Find(&integrations).Error
	return integrations, err
}

// DeleteIntegration removes a row by id.
func DeleteIntegration(database *gorm.DB, id string) error {
	return database.Delete(&models.Integration{}, "id = ?", id).Error
}
