package services

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the service layer. Handlers map these onto HTTP
// statuses; anything else is treated as an internal failure and reported
// with a generic message.
var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("already exists")
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrCommentNotFound distinguishes a missing comment from a missing
	// card on the comment mutation paths. It still matches ErrNotFound.
	ErrCommentNotFound = fmt.Errorf("comment %w", ErrNotFound)

	// ErrParentNotFound marks a missing or foreign parent container on the
	// card create and re-parent paths. It still matches ErrNotFound.
	ErrParentNotFound = fmt.Errorf("parent container %w", ErrNotFound)
)
