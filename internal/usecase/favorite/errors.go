// Package favorite implements the favorites store: a URL-unique, ordered set of articles
// that the reader saved for offline reading. The set is loaded once from the device
// store and persisted after every mutation.
package favorite

import "errors"

var (
	// ErrNotPersisted indicates a toggle took effect in memory but could not be saved.
	// Callers should ask the user to try again.
	ErrNotPersisted = errors.New("favorites not persisted")

	// ErrNotLoaded indicates the stored set could not be read, so a toggle was refused
	// rather than overwriting it.
	ErrNotLoaded = errors.New("favorites not loaded")

	// ErrMalformedSnapshot indicates the stored favorites could not be decoded.
	// The set starts empty when this happens.
	ErrMalformedSnapshot = errors.New("malformed favorites snapshot")
)
