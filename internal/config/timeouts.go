// Package config provides configuration types and utilities for cliconfig.
// Timeouts and buffer sizes shared across packages live here to avoid magic numbers.
package config

import "time"

// Storage
const (
	// DatabaseOpenTimeout is how long to wait for the bbolt file lock held by
	// another running instance before giving up
	DatabaseOpenTimeout = 5 * time.Second
)

// Updates
const (
	// UpdateCheckTimeout bounds the release lookup
	UpdateCheckTimeout = 15 * time.Second

	// UpdateDownloadTimeout bounds downloading and applying a release archive
	UpdateDownloadTimeout = 5 * time.Minute
)

// Shutdown
const (
	// ShutdownTimeout bounds the whole ordered shutdown
	ShutdownTimeout = 10 * time.Second

	// ShutdownPhaseTimeout bounds a single shutdown phase
	ShutdownPhaseTimeout = 3 * time.Second
)

// Event Bus Buffer Sizes
const (
	// EventChannelBufferSize is the buffer size for individual event subscriptions
	EventChannelBufferSize = 100

	// EventChannelBufferSizeAll is the buffer size for subscribing to all events
	EventChannelBufferSizeAll = 500
)

// Display defaults
const (
	// DefaultPathMaxLength is the default length paths are truncated to for display
	DefaultPathMaxLength = 50

	// DefaultRecentFilesLimit is how many recently opened config files are remembered
	DefaultRecentFilesLimit = 10
)
