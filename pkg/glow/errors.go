package glow

import "errors"

// Package-level errors.
var (
	// ErrInvalidPort is returned when Config.Port is out of range.
	ErrInvalidPort = errors.New("glow: port must be 0-65535")

	// ErrInvalidTimeout is returned when Config.SendTimeout is negative.
	ErrInvalidTimeout = errors.New("glow: send timeout must not be negative")

	// ErrInvalidWindow is returned when Config.DiscoverWindow is negative.
	ErrInvalidWindow = errors.New("glow: discover window must not be negative")
)
