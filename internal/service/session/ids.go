package session

import (
	"fmt"

	"github.com/google/uuid"
)

// NewID returns a fresh session ID.
func NewID() string {
	return uuid.NewString()
}

// ChunkID returns the ID of the n-th chunk of a session.
func ChunkID(sessionId string, n int) string {
	return fmt.Sprintf("%s-chunk-%d", sessionId, n)
}
