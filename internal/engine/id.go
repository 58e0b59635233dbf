package engine

import "github.com/google/uuid"

// NewUID returns a random entry identifier.
func NewUID() string {
	return uuid.NewString()
}
