package application

import (
	"errors"
	"fmt"

	"github.com/choplin/savemeta/internal/metadata"
)

// RegisterInput aggregates the information needed to register a batch of files.
type RegisterInput struct {
	Filenames       []string
	SizeBytes       *int64
	ProducerVersion string
	ProducerLevel   int
}

// RegisterFiles registers every named file, continuing past failures. It returns
// the entries that were registered and the joined errors of those that were not.
func RegisterFiles(store *metadata.Store, input RegisterInput) ([]metadata.FileEntry, error) {
	if len(input.Filenames) == 0 {
		return nil, errors.New("at least one filename is required")
	}
	if input.SizeBytes != nil && len(input.Filenames) > 1 {
		return nil, fmt.Errorf("%w: an explicit size applies to a single file", metadata.ErrInvalidInfo)
	}

	info := metadata.EntryInfo{
		SizeBytes:       input.SizeBytes,
		ProducerVersion: input.ProducerVersion,
		ProducerLevel:   input.ProducerLevel,
	}

	entries := make([]metadata.FileEntry, 0, len(input.Filenames))
	var errs []error
	for _, name := range input.Filenames {
		entry, err := store.Register(name, info)
		if err != nil {
			errs = append(errs, fmt.Errorf("register %s: %w", name, err))
			continue
		}
		entries = append(entries, entry)
	}
	return entries, errors.Join(errs...)
}

// UnregisterFiles forgets every named file and returns the names that were
// tracked beforehand.
func UnregisterFiles(store *metadata.Store, filenames []string) ([]string, error) {
	if len(filenames) == 0 {
		return nil, errors.New("at least one filename is required")
	}

	var tracked []string
	for _, name := range filenames {
		if _, ok := store.Entry(name); ok {
			tracked = append(tracked, name)
		}
	}
	if _, err := store.Prune(filenames); err != nil {
		return nil, err
	}
	return tracked, nil
}
