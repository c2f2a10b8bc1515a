package models

import "time"

// User is a gateway user. Anonymous users are created on demand for
// unauthenticated sessions and later merged into a real user when the
// session is linked to a provider identity.
type User struct {
	ID          string `gorm:"primaryKey"` // UUID
	Email       string `gorm:"index"`
	Name        string
	IsAnonymous bool `gorm:"default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
