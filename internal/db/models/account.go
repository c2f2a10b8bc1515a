package models

import "time"

// Account stores the OAuth identity and tokens linking a user to the
// upstream LLM platform. One account per (user, provider).
type Account struct {
	ID           string `gorm:"primaryKey"` // UUID
	UserID       string `gorm:"uniqueIndex:idx_user_provider"`
	Provider     string `gorm:"uniqueIndex:idx_user_provider"` // e.g. "llmgrid"
	Subject      string `gorm:"index"`                         // provider-side user id (userinfo sub)
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
