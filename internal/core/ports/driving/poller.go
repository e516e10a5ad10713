package driving

import (
	"context"
	"time"
)

// Poller runs the answer loop against the forum.
type Poller interface {
	// RunCycle processes the current unread feed once.
	// Per-post failures are logged and counted, never returned.
	// An error is returned only when the feed could not be listed or ctx ended.
	RunCycle(ctx context.Context) (CycleStats, error)

	// Run repeats RunCycle every poll interval until ctx is cancelled.
	Run(ctx context.Context) error
}

// CycleStats summarises one poll cycle.
type CycleStats struct {
	// Cycle is the 1-based cycle counter.
	Cycle int

	// Listed is the number of unread feed entries.
	Listed int

	// Skipped counts posts already present in the ledger.
	Skipped int

	// Ineligible counts posts marked without an answer.
	Ineligible int

	// Answered counts posts answered (instructor answer or follow-up).
	Answered int

	// Drafted counts answers generated but not posted (dry run).
	Drafted int

	// Failed counts posts left unmarked for the next cycle.
	Failed int

	// Duration is the wall time of the cycle.
	Duration time.Duration
}
