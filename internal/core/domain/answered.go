package domain

import "time"

// AnsweredRecord is a ledger row: the post was either answered by the bot
// or judged permanently ineligible. Records are written once and never updated.
type AnsweredRecord struct {
	// PostID is the platform identifier and primary key.
	PostID string

	// PostNumber is the display number at the time of handling.
	PostNumber int

	// AnsweredAt is when the record was written (UTC).
	AnsweredAt time.Time
}
