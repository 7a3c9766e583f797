package domain

import "github.com/google/uuid"

// ConnID identifies one accepted connection for the lifetime of the process.
type ConnID string

func NewConnID() ConnID {
	return ConnID(uuid.NewString())
}
