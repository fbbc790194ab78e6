package service

import "errors"

// Sentinel errors surfaced to the HTTP layer.
var (
	ErrNotStarted    = errors.New("service not started")
	ErrBackpressure  = errors.New("ingestion queue full")
	ErrInvalidRecord = errors.New("invalid record")
	ErrInvalidLimit  = errors.New("invalid watchlist limit")
)
