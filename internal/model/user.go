package model

// Role values carried in the access token.
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

// User a login account. Employees may exist without one.
type User struct {
	UserID       string  `gorm:"type:uuid;primaryKey"                          json:"user_id"`
	Email        string  `gorm:"type:varchar(255);not null;uniqueIndex"        json:"email"`
	PasswordHash string  `gorm:"type:varchar(255);not null"                    json:"-"`
	Role         string  `gorm:"type:varchar(20);not null;default:'employee'"  json:"role"`
	StoreID      *string `gorm:"type:uuid"                                     json:"store_id,omitempty"`
	VersionedModel
}

// TableName maps to users.
func (User) TableName() string { return "users" }
