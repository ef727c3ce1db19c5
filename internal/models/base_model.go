package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel provides shared fields for all persistent models.
type BaseModel struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures UUID identifiers are generated automatically.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// EntityStatus is the lifecycle tag shared by permissions and roles. Rows are
// never physically removed; deletion flips the status to StatusDeleted.
type EntityStatus string

const (
	StatusActive  EntityStatus = "active"
	StatusDeleted EntityStatus = "deleted"
)

// Valid reports whether the status is one of the known lifecycle values.
func (s EntityStatus) Valid() bool {
	switch s {
	case StatusActive, StatusDeleted:
		return true
	}
	return false
}
