package metadata

import "errors"

var (
	// ErrIO indicates the backing record could not be read, written or renamed.
	// The in-memory record is unchanged when a mutation fails with ErrIO.
	ErrIO = errors.New("metadata: i/o failure")
	// ErrCorrupt indicates the backing record exists but cannot be parsed.
	ErrCorrupt = errors.New("metadata: record is corrupt")
	// ErrUnreadableArtifact indicates a file being registered is missing or unreadable.
	ErrUnreadableArtifact = errors.New("metadata: artifact missing or unreadable")
	ErrInvalidFilename    = errors.New("metadata: invalid filename")
	ErrInvalidInfo        = errors.New("metadata: invalid entry info")
	ErrInvalidConfig      = errors.New("metadata: invalid configuration update")
)
