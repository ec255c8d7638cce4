// Package jobs is the batch job-run ledger. Every background batch gets a
// row at start and a terminal status with counters at the end; callers poll
// it for observability. It is never used for control flow between
// components.
package jobs

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lukemunn/edgebot/internal/database"
)

// Job statuses
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFail    = "fail"
)

type Ledger struct {
	db *database.Database
}

func NewLedger(db *database.Database) *Ledger {
	return &Ledger{db: db}
}

// Start inserts a running ledger row and returns its id.
func (l *Ledger) Start(name, details string) (string, error) {
	run := &database.JobRun{
		ID:        uuid.NewString(),
		Name:      name,
		Status:    StatusRunning,
		Details:   details,
		StartedAt: time.Now(),
	}
	if err := l.db.CreateJobRun(run); err != nil {
		return "", err
	}
	return run.ID, nil
}

// Finish records the terminal state and counters of a run. Per-unit errors
// downgrade success to partial; they never make a run fail on their own.
func (l *Ledger) Finish(id, status string, fetched, inserted, skipped, errors int, details string) {
	run, err := l.db.GetJobRun(id)
	if err != nil || run == nil {
		log.Error().Err(err).Str("job", id).Msg("Ledger row lookup failed")
		return
	}

	now := time.Now()
	run.Status = status
	run.Fetched = fetched
	run.Inserted = inserted
	run.Skipped = skipped
	run.Errors = errors
	if details != "" {
		run.Details = details
	}
	run.FinishedAt = &now

	if err := l.db.UpdateJobRun(run); err != nil {
		log.Error().Err(err).Str("job", id).Msg("Ledger update failed")
	}
}

// Outcome derives the terminal status from counters: any progress with unit
// errors is partial, error-free runs are success.
func Outcome(errors, progressed int) string {
	switch {
	case errors == 0:
		return StatusSuccess
	case progressed > 0:
		return StatusPartial
	default:
		return StatusFail
	}
}
