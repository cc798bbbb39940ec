package model

import "time"

// User is a back-office account.
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Email        string    `json:"email" bson:"email" validate:"required,email,max=254"`
	Name         string    `json:"name" bson:"name" validate:"max=200"`
	PasswordHash string    `json:"-" bson:"-"`
	Role         string    `json:"role" bson:"role" validate:"required,oneof=admin editor"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Roles.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin:  2,
		RoleEditor: 1,
	}
	return levels[role] >= levels[minimum] && levels[minimum] > 0
}

// Password length bounds. bcrypt ignores input past 72 bytes.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// ValidatePassword checks password length.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return &ValidationError{Field: "password", Message: "must be at least 8 characters"}
	}
	if len(password) > MaxPasswordLength {
		return &ValidationError{Field: "password", Message: "must be at most 72 bytes"}
	}
	return nil
}

