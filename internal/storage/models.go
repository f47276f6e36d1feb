package storage

import (
	"encoding/json"
	"errors"
)

// Bucket names for bbolt database
const (
	NamespacesBucket = "namespaces"
	MetaBucket       = "meta"
)

// Meta keys
const (
	SchemaVersionKey = "schema"
)

// Current schema version
const CurrentSchemaVersion = 1

// Namespaces under which the stores are persisted. The names and value
// shapes match what earlier releases wrote, so existing state keeps loading.
const (
	VisibilityNamespace  = "cli-config-tool-visibility"
	PreferencesNamespace = "cli-config-editor"
	RecentFilesNamespace = "cli-config-editor-recent-files"

	// DismissedUpdateNamespace holds a bare JSON string, the skipped version.
	DismissedUpdateNamespace = "dismissedUpdateVersion"
)

// ErrNotFound is returned when a namespace has never been written.
var ErrNotFound = errors.New("not found")

// Envelope wraps a persisted store state together with its format version:
//
//	{"state": {...}, "version": 0}
type Envelope[T any] struct {
	State   T   `json:"state"`
	Version int `json:"version"`
}

// MarshalBinary implements encoding.BinaryMarshaler
func (e *Envelope[T]) MarshalBinary() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler
func (e *Envelope[T]) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, e)
}
