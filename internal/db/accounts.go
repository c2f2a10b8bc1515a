package db

import (
	"errors"

	"github.com/keywarden/keywarden/internal/db/models"
	"gorm.io/gorm"
)

// FindAccount returns the user's linked account for the given provider,
// or nil when no account is linked.
func FindAccount(database *gorm.DB, userID, provider string) (*models.Account, error) {
	var account models.Account
	err := database.
		Where("user_id = ? AND provider = ?", userID, provider).
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}
