package core

import (
	"fmt"

	"github.com/google/uuid"
)

// NewResourceID returns a fresh identifier for a GPU resource.
func NewResourceID() uuid.UUID {
	return uuid.New()
}

// ResourceLabel builds a debug label of the form "kind:name#shortid".
func ResourceLabel(kind, name string, id uuid.UUID) string {
	s := id.String()
	return fmt.Sprintf("%s:%s#%s", kind, name, s[:8])
}
