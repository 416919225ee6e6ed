package models

import "gorm.io/gorm"

// Roles assignable to a user. The first registered user becomes an admin.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered account.
type User struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Username string `json:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=3,max=100"`
	Email    string `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password string `json:"-" gorm:"type:varchar(255)"` // bcrypt hash, never serialized
	Role     string `json:"role" gorm:"type:varchar(16);default:user"`
	IsActive bool   `json:"is_active" gorm:"default:true"`
	gorm.Model
}

// IsAdmin reports whether the user currently holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
