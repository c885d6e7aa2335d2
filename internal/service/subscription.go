package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ricirt/consent-sync/internal/auth"
	"github.com/ricirt/consent-sync/internal/domain"
	"github.com/ricirt/consent-sync/internal/hooks"
	"github.com/ricirt/consent-sync/internal/integration"
	"github.com/ricirt/consent-sync/internal/repository"
)

// Form field names shared with the consent checkbox.
const (
	CheckboxField = domain.ConsentField
	NonceField    = "_swp_mc_subscribe_nonce"
	NonceAction   = "swp_mc_subscribe_save"
)

// Source labels where a subscribe attempt came from.
type Source string

const (
	SourceConsent Source = "consent"
	SourceBatch   Source = "batch"
)

// Outcome is the result of one per-user subscribe attempt.
type Outcome string

const (
	OutcomeQueued        Outcome = "queued"
	OutcomeHandoffFailed Outcome = "handoff_failed"
	OutcomeUnavailable   Outcome = "integration_unavailable"
	OutcomeNoUser        Outcome = "no_user"
	OutcomeNoEmail       Outcome = "no_email"
	OutcomeSubscribed    Outcome = "already_subscribed"
	OutcomeUnsubscribed  Outcome = "unsubscribed"
)

// NonceVerifier checks form nonces.
type NonceVerifier interface {
	Verify(token, action string, actorID int64) bool
}

// Option customizes a SubscriptionService.
type Option func(*SubscriptionService)

// WithOutcomeHook reports every per-user outcome (used for metrics).
func WithOutcomeHook(fn func(source, outcome string)) Option {
	return func(s *SubscriptionService) {
		if fn != nil {
			s.onOutcome = fn
		}
	}
}

// SubscriptionService flips a user's subscription flag and hands a
// submission job to the integration. The flag is the idempotency guard:
// users already at '1' or 'unsubscribed' are never handed off again.
type SubscriptionService struct {
	repo      repository.UserRepository
	integ     integration.Integration
	nonces    NonceVerifier
	logger    *zap.Logger
	onOutcome func(source, outcome string)
}

func NewSubscriptionService(
	repo repository.UserRepository,
	integ integration.Integration,
	nonces NonceVerifier,
	logger *zap.Logger,
	opts ...Option,
) *SubscriptionService {
	s := &SubscriptionService{
		repo:      repo,
		integ:     integ,
		nonces:    nonces,
		logger:    logger,
		onOutcome: func(string, string) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SubscriptionService) NonceField() string  { return NonceField }
func (s *SubscriptionService) NonceAction() string { return NonceAction }

// RegisterSaveHooks subscribes the save handlers on the host.
func (s *SubscriptionService) RegisterSaveHooks(h hooks.Host) {
	h.OnSave(hooks.UserRegister, s.OnUserRegister)
	h.OnSave(hooks.ProfileUpdate, s.OnProfileUpdate)
}

// OnUserRegister handles a user created from the admin new-user screen.
func (s *SubscriptionService) OnUserRegister(ctx context.Context, ev hooks.SaveEvent) {
	if !ev.Actor.Admin || !ev.Actor.Can(auth.CapCreateUsers) {
		return
	}
	if !s.consentGiven(ev) {
		return
	}
	s.subscribeFromHook(ctx, ev.UserID)
}

// OnProfileUpdate handles a save from the edit-profile screens.
func (s *SubscriptionService) OnProfileUpdate(ctx context.Context, ev hooks.SaveEvent) {
	if !ev.Actor.Admin || !ev.Actor.CanEditUser(ev.UserID) {
		return
	}
	if !s.consentGiven(ev) {
		return
	}
	s.subscribeFromHook(ctx, ev.UserID)
}

func (s *SubscriptionService) subscribeFromHook(ctx context.Context, userID int64) {
	if _, err := s.SubscribeAndQueue(ctx, userID); err != nil {
		s.logger.Error("subscribe on save failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// consentGiven applies the nonce and checkbox checks. A missing nonce is
// tolerated; a present but invalid one blocks the save.
func (s *SubscriptionService) consentGiven(ev hooks.SaveEvent) bool {
	if ev.Form.Has(NonceField) && !s.nonces.Verify(ev.Form.Get(NonceField), NonceAction, ev.Actor.ID) {
		s.logger.Debug("subscribe nonce rejected", zap.Int64("user_id", ev.UserID))
		return false
	}
	return checked(ev.Form.Get(CheckboxField))
}

// checked treats the values the host considers empty as unchecked.
func checked(v string) bool {
	return v != "" && v != "0"
}

// SubscribeAndQueue subscribes a single user if the integration is ready.
// An unready integration is a silent no-op.
func (s *SubscriptionService) SubscribeAndQueue(ctx context.Context, userID int64) (Outcome, error) {
	if !s.integ.Status(ctx).Ready() {
		s.record(SourceConsent, OutcomeUnavailable)
		return OutcomeUnavailable, nil
	}
	return s.QueueUser(ctx, userID, SourceConsent)
}

// QueueUser is the per-user step shared with batch workers. It re-reads the
// user and flag immediately before mutating, so concurrent callers never
// hand the same user off twice once the flag is '1'. Submission errors are
// logged and swallowed; the integration owns delivery from here.
func (s *SubscriptionService) QueueUser(ctx context.Context, userID int64, source Source) (Outcome, error) {
	log := s.logger.With(zap.Int64("user_id", userID), zap.String("source", string(source)))

	user, err := s.repo.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return s.record(source, OutcomeNoUser), nil
	}
	if err != nil {
		return "", fmt.Errorf("load user %d: %w", userID, err)
	}
	if !user.HasEmail() {
		return s.record(source, OutcomeNoEmail), nil
	}

	flag, err := s.repo.GetFlag(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("read flag for user %d: %w", userID, err)
	}
	if !flag.Queueable() {
		if flag == domain.FlagUnsubscribed {
			return s.record(source, OutcomeUnsubscribed), nil
		}
		return s.record(source, OutcomeSubscribed), nil
	}

	if err := s.repo.SetFlag(ctx, userID, domain.FlagSubscribed); err != nil {
		return "", fmt.Errorf("flag user %d: %w", userID, err)
	}

	if err := s.handoff(ctx, userID); err != nil {
		log.Warn("submission handoff failed", zap.Error(err))
		return s.record(source, OutcomeHandoffFailed), nil
	}

	log.Debug("user queued for subscription")
	return s.record(source, OutcomeQueued), nil
}

func (s *SubscriptionService) handoff(ctx context.Context, userID int64) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("submission panicked: %v", rec)
		}
	}()

	job, err := s.integ.NewSubmissionJob(userID, true)
	if err != nil {
		return fmt.Errorf("build submission: %w", err)
	}
	return job.Handoff(ctx)
}

func (s *SubscriptionService) record(source Source, outcome Outcome) Outcome {
	s.onOutcome(string(source), string(outcome))
	return outcome
}
