package models

// User is owned by the platform's user-management service; the engine only
// reads it to walk the user→role→permission graph.
type User struct {
	BaseModel

	Username    string `gorm:"uniqueIndex;not null" json:"username"`
	Email       string `gorm:"uniqueIndex" json:"email"`
	DisplayName string `json:"display_name"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`

	Roles []Role `gorm:"many2many:user_roles;" json:"roles,omitempty"`
}
