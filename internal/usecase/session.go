package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/choplin/savemeta/internal/checksum"
	"github.com/choplin/savemeta/internal/config"
	"github.com/choplin/savemeta/internal/database"
	"github.com/choplin/savemeta/internal/integrity"
	"github.com/choplin/savemeta/internal/metadata"
	"github.com/choplin/savemeta/internal/services"
)

// SessionOptions controls how a Session is opened.
type SessionOptions struct {
	Config *config.Config
	Logger zerolog.Logger

	// StoreDir overrides Config.StoreDir when set.
	StoreDir string

	// NoJournal disables the audit journal regardless of Config.
	NoJournal bool
}

// Session wires a metadata Store, its integrity Service and, when enabled, the
// audit journal for one store directory.
type Session struct {
	Store     *metadata.Store
	Integrity *integrity.Service

	journal *services.JournalService
	dbCtx   *database.Context
	logger  zerolog.Logger
}

// OpenSession opens the store described by opts. A journal that cannot be
// opened is logged and skipped.
func OpenSession(opts SessionOptions) (*Session, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	dir := cfg.StoreDir
	if opts.StoreDir != "" {
		dir = config.ExpandPath(opts.StoreDir)
	}

	alg, err := checksum.ParseAlgorithm(cfg.Checksum)
	if err != nil {
		return nil, err
	}

	store, err := metadata.Open(dir,
		metadata.WithLogger(opts.Logger),
		metadata.WithAlgorithm(alg),
	)
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", dir, err)
	}

	s := &Session{
		Store:     store,
		Integrity: integrity.New(store),
		logger:    opts.Logger,
	}

	if cfg.Journal.Enabled && !opts.NoJournal {
		dbCtx, err := database.CreateDatabase(cfg.Journal.Path)
		if err != nil {
			s.logger.Warn().Err(err).Str("path", cfg.Journal.Path).Msg("audit journal unavailable")
		} else {
			s.dbCtx = dbCtx
			s.journal = services.NewJournalService(dbCtx)
		}
	}

	return s, nil
}

// JournalEnabled reports whether runs are being recorded.
func (s *Session) JournalEnabled() bool {
	return s.journal != nil
}

// Close releases the journal connection.
func (s *Session) Close() error {
	return database.CloseDatabase(s.dbCtx)
}

// ValidationOutcome is a validation report and the journal run it was recorded as.
type ValidationOutcome struct {
	Report integrity.Report `json:"report"`
	RunID  string           `json:"runId,omitempty"`
}

// Validate checks the named files, or every tracked file when none are named,
// and records the run in the journal.
func (s *Session) Validate(ctx context.Context, filenames []string) ValidationOutcome {
	var report integrity.Report
	if len(filenames) == 0 {
		report = s.Integrity.ValidateAll()
	} else {
		report = s.Integrity.ValidateFiles(filenames)
	}

	outcome := ValidationOutcome{Report: report}
	if s.journal != nil {
		id, err := s.journal.RecordValidation(ctx, s.Store.Dir(), report)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to journal validation run")
		} else {
			outcome.RunID = id
		}
	}
	return outcome
}

// ReconcileOutcome lists the entries a reconciliation pruned.
type ReconcileOutcome struct {
	Removed []string `json:"removed"`
	RunID   string   `json:"runId,omitempty"`
}

// Reconcile prunes entries whose files are gone and records the run.
func (s *Session) Reconcile(ctx context.Context) (ReconcileOutcome, error) {
	startedAt := time.Now().UTC()
	removed, err := s.Integrity.ReconcileDetailed()
	if err != nil {
		return ReconcileOutcome{}, err
	}
	if removed == nil {
		removed = []string{}
	}

	outcome := ReconcileOutcome{Removed: removed}
	if s.journal != nil {
		id, err := s.journal.RecordReconcile(ctx, s.Store.Dir(), startedAt, removed)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to journal reconcile run")
		} else {
			outcome.RunID = id
		}
	}
	return outcome, nil
}

// History lists recent journal runs for this store.
func (s *Session) History(ctx context.Context, limit int) ([]database.RunRecord, error) {
	if s.journal == nil {
		return nil, ErrJournalDisabled
	}
	return s.journal.History(ctx, s.Store.Dir(), limit)
}

// Run returns one journal run and its findings.
func (s *Session) Run(ctx context.Context, id string) (*services.RunDetail, error) {
	if s.journal == nil {
		return nil, ErrJournalDisabled
	}
	return s.journal.Run(ctx, id)
}
