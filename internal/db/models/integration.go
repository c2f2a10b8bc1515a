package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	// IntegrationTypeProviderKey is the type discriminator for LLMGrid
	// API key integrations, managed or user-supplied.
	IntegrationTypeProviderKey = "llmgrid_api_key"

	// DefaultManagedKeyName is the display label used when the grant
	// request carries no team name.
	DefaultManagedKeyName = "LLMGrid API Key"
)

// Integration is a persisted credential record. Config holds ciphertext
// only; the plaintext key material never leaves the keyconfig codec.
// Rows are immutable once written: a changed credential is a delete
// followed by a fresh insert.
type Integration struct {
	ID        string `gorm:"primaryKey"` // UUID
	UserID    string `gorm:"index"`
	Name      string
	Type      string `gorm:"index"`
	Config    string // encrypted blob, see internal/keyconfig
	IsManaged bool   `gorm:"default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewManagedIntegration builds a system-provisioned credential row.
// Managed rows always carry the fixed type discriminator, so the
// managed/user-supplied split cannot drift per row.
func NewManagedIntegration(userID, name, encryptedConfig string) *Integration {
	if name == "" {
		name = DefaultManagedKeyName
	}
	return &Integration{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		Type:      IntegrationTypeProviderKey,
		Config:    encryptedConfig,
		IsManaged: true,
	}
}

// NewUserIntegration builds a row for a key the user pasted in themselves.
func NewUserIntegration(userID, name, encryptedConfig string) *Integration {
	if name == "" {
		name = DefaultManagedKeyName
	}
	return &Integration{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		Type:      IntegrationTypeProviderKey,
		Config:    encryptedConfig,
		IsManaged: false,
	}
}
