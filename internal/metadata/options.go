package metadata

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/choplin/savemeta/internal/checksum"
	"github.com/choplin/savemeta/internal/filesystem"
)

// Options configures a Store.
type Options struct {
	FS        filesystem.FS
	Logger    zerolog.Logger
	Clock     func() time.Time
	Algorithm checksum.Algorithm
	FileMode  os.FileMode // Permission bits for metadata.json and exports
	DirMode   os.FileMode // Permission bits when creating the store directory
}

// OptionFunc is a functional option for Open.
type OptionFunc func(opts *Options)

// WithFS replaces the host filesystem, mainly for fault injection in tests.
func WithFS(fsys filesystem.FS) OptionFunc {
	return func(opts *Options) {
		opts.FS = fsys
	}
}

// WithLogger sets the logger used for corruption warnings and swallowed
// telemetry failures. The default discards everything.
func WithLogger(logger zerolog.Logger) OptionFunc {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithClock sets the time source for entry and statistics timestamps.
func WithClock(now func() time.Time) OptionFunc {
	return func(opts *Options) {
		opts.Clock = now
	}
}

// WithAlgorithm sets the digest used for new registrations. Existing entries
// keep the algorithm they were registered with.
func WithAlgorithm(alg checksum.Algorithm) OptionFunc {
	return func(opts *Options) {
		opts.Algorithm = alg
	}
}

// WithFileMode sets the permission bits for files the store writes.
func WithFileMode(mode os.FileMode) OptionFunc {
	return func(opts *Options) {
		opts.FileMode = mode
	}
}

func defaultOptions() *Options {
	return &Options{
		FS:        filesystem.OS{},
		Logger:    zerolog.Nop(),
		Clock:     time.Now,
		Algorithm: checksum.Default,
		FileMode:  0o644,
		DirMode:   0o755,
	}
}
