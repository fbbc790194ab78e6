package repository

import "errors"

// Sentinel errors returned by every Store implementation.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)
