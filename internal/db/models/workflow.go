package models

import "time"

// Workflow is a saved gateway workflow owned by a user. Ownership moves
// with the user during anonymous-to-real identity migration.
type Workflow struct {
	ID         string `gorm:"primaryKey"` // UUID
	UserID     string `gorm:"index"`
	Name       string
	Definition string // JSON blob, opaque to this service
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// WorkflowExecution records a single run of a workflow.
type WorkflowExecution struct {
	ID         string `gorm:"primaryKey"` // UUID
	WorkflowID string `gorm:"index"`
	UserID     string `gorm:"index"`
	Status     string // "running", "succeeded", "failed"
	StartedAt  time.Time
	FinishedAt *time.Time
	CreatedAt  time.Time
}
