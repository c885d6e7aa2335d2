package integration

import (
	"context"
	"sync"
)

// FakeIntegration is an in-memory Integration used in unit tests. It records
// every successful handoff.
type FakeIntegration struct {
	mu       sync.Mutex
	status   Status
	handoffs []int64

	// Optional error overrides, set in tests to simulate failure paths.
	NewJobErr    error
	HandoffErr   error
	HandoffPanic bool
}

// NewFakeIntegration returns a fake reporting itself ready.
func NewFakeIntegration() *FakeIntegration {
	return &FakeIntegration{status: Status{Present: true, Configured: true, SubmitAvailable: true}}
}

func (f *FakeIntegration) SetStatus(s Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = s
}

func (f *FakeIntegration) Status(context.Context) Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *FakeIntegration) NewSubmissionJob(userID int64, subscribed bool) (SubmissionJob, error) {
	if f.NewJobErr != nil {
		return nil, f.NewJobErr
	}
	return &fakeJob{f: f, userID: userID, subscribed: subscribed}, nil
}

// Handoffs returns the user ids handed off so far, in order.
func (f *FakeIntegration) Handoffs() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.handoffs...)
}

type fakeJob struct {
	f          *FakeIntegration
	userID     int64
	subscribed bool
}

func (j *fakeJob) Handoff(context.Context) error {
	if j.f.HandoffPanic {
		panic("handoff exploded")
	}
	if j.f.HandoffErr != nil {
		return j.f.HandoffErr
	}
	j.f.mu.Lock()
	defer j.f.mu.Unlock()
	j.f.handoffs = append(j.f.handoffs, j.userID)
	return nil
}

var _ Integration = (*FakeIntegration)(nil)
