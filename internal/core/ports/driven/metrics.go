package driven

import "time"

// MetricsRecorder receives operational measurements from the services.
// Implementations must be safe for concurrent use.
type MetricsRecorder interface {
	// ObserveCycle records one completed poll cycle.
	ObserveCycle(duration time.Duration)

	// CountPost records the outcome of handling one feed entry.
	CountPost(outcome string)

	// CountGenerationFailure records a failed generation by result kind.
	CountGenerationFailure(kind string)

	// ObserveRetrieval records the latency of one context retrieval.
	ObserveRetrieval(duration time.Duration)
}
