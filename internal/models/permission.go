package models

// Permission describes a single grantable action. Code carries the canonical
// "module:action[:resource]" form; the parsed triple is stored alongside it and
// protected by a composite unique index so the "absent resource" case (empty
// string) counts as a distinct value.
type Permission struct {
	BaseModel

	Name        string       `gorm:"uniqueIndex;not null" json:"name"`
	Code        string       `gorm:"uniqueIndex;not null" json:"code"`
	Module      string       `gorm:"not null;index;uniqueIndex:idx_permission_scope" json:"module"`
	Action      string       `gorm:"not null;uniqueIndex:idx_permission_scope" json:"action"`
	Resource    string       `gorm:"uniqueIndex:idx_permission_scope" json:"resource"`
	Description string       `json:"description"`
	Status      EntityStatus `gorm:"not null;default:active;index" json:"status"`
	IsSystem    bool         `gorm:"default:false" json:"is_system"`

	Roles []Role `gorm:"many2many:role_permissions;" json:"roles,omitempty"`
}
