package integration

import "context"

// Status is what the email marketing integration reports about itself.
type Status struct {
	// Present is false when the integration is not installed or unreachable.
	Present bool
	// Configured is the integration's own configuration-check predicate.
	Configured bool
	// SubmitAvailable reports that both the user submission job and the
	// handle-or-queue entry point exist.
	SubmitAvailable bool
}

// Ready reports whether users can be handed to the integration.
func (s Status) Ready() bool {
	return s.Present && s.Configured && s.SubmitAvailable
}

// SubmissionJob is a user submission built by the integration. Handoff gives
// it to the integration's queue; delivery and retries belong to the
// integration from that point on.
type SubmissionJob interface {
	Handoff(ctx context.Context) error
}

// Integration abstracts the email marketing integration. The concrete job
// type stays owned by the integration; callers only construct and hand off.
type Integration interface {
	Status(ctx context.Context) Status
	NewSubmissionJob(userID int64, subscribed bool) (SubmissionJob, error)
}
