package model

import "github.com/google/uuid"

// NewID returns a time-ordered document id.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ValidID reports whether id could have been produced by NewID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
