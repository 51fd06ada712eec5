package metadata

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	metadataFileName = "metadata.json"
	tempSuffix       = ".tmp"
	quarantinePrefix = "metadata_corrupted_"
	quarantineSuffix = ".json"

	maxFilenameLength = 255

	maxQuarantineAttempts = 100
)

// ValidateFilename checks that name is a single path element the store may track.
func ValidateFilename(name string) error {
	if name == "" {
		return fmt.Errorf("%w: filename cannot be empty", ErrInvalidFilename)
	}
	if len(name) > maxFilenameLength {
		return fmt.Errorf("%w: filename exceeds %d bytes", ErrInvalidFilename, maxFilenameLength)
	}
	if strings.Contains(name, "\x00") {
		return fmt.Errorf("%w: null bytes not allowed", ErrInvalidFilename)
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q must be a plain file name inside the store directory", ErrInvalidFilename, name)
	}
	if IsReservedFilename(name) {
		return fmt.Errorf("%w: %q is reserved for the store's own files", ErrInvalidFilename, name)
	}
	return nil
}

// IsReservedFilename reports whether name is one of the store's own files.
func IsReservedFilename(name string) bool {
	if name == metadataFileName || name == metadataFileName+tempSuffix {
		return true
	}
	return strings.HasPrefix(name, quarantinePrefix) && strings.HasSuffix(name, quarantineSuffix)
}

// IsBackupVariant reports whether name follows the backup naming convention.
func IsBackupVariant(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "backup") || strings.HasSuffix(lower, ".bak")
}
