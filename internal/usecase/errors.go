package usecase

import "errors"

// ErrJournalDisabled is returned by journal reads when no journal is open.
var ErrJournalDisabled = errors.New("audit journal is disabled")
