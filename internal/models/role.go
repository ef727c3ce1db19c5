package models

// RoleType classifies roles by origin.
type RoleType string

const (
	// RoleTypeSystem marks roles created by the bootstrap initializer.
	RoleTypeSystem RoleType = "system"
	// RoleTypeBusiness marks roles curated by operations administrators.
	RoleTypeBusiness RoleType = "business"
	// RoleTypeCustom marks ad-hoc roles created through the admin API.
	RoleTypeCustom RoleType = "custom"
)

// Valid reports whether the role type is one of the known kinds.
func (t RoleType) Valid() bool {
	switch t {
	case RoleTypeSystem, RoleTypeBusiness, RoleTypeCustom:
		return true
	}
	return false
}

type Role struct {
	BaseModel

	Name        string       `gorm:"uniqueIndex;not null" json:"name"`
	Code        string       `gorm:"uniqueIndex;not null" json:"code"`
	Type        RoleType     `gorm:"not null;default:custom" json:"type"`
	Description string       `json:"description"`
	Status      EntityStatus `gorm:"not null;default:active;index" json:"status"`
	IsSystem    bool         `gorm:"default:false" json:"is_system"`

	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions,omitempty"`
	Users       []User       `gorm:"many2many:user_roles;" json:"users,omitempty"`
}
