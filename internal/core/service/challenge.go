package service

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/yndnr/mobsession-go/internal/core/domain"
	"github.com/yndnr/mobsession-go/internal/telemetry/logger"
	"github.com/yndnr/mobsession-go/internal/telemetry/metric"
)

// DefaultPhoneDelay is the pause between requesting an SMS code and
// reading it from the phone inbox.
const DefaultPhoneDelay = 1500 * time.Millisecond

// Challenge is one in-progress checkpoint verification.
type Challenge interface {
	// Type returns the verification kind.
	Type() domain.ChallengeType

	// Phone submits a phone number and triggers an SMS code.
	Phone(ctx context.Context, number string) (Challenge, error)

	// Code submits a verification code and completes the challenge.
	Code(ctx context.Context, code string) (*Session, error)
}

// ChallengeOpener turns a checkpoint descriptor into a live Challenge.
type ChallengeOpener interface {
	Open(ctx context.Context, s *Session, cp domain.Checkpoint) (Challenge, error)
}

// PhoneInbox is the SMS side-channel.
type PhoneInbox interface {
	GetPhones(ctx context.Context) ([]string, error)
	GetLastVerificationCode(ctx context.Context, number string) (string, error)
}

// EmailInbox is the mailbox side-channel of one address.
type EmailInbox interface {
	GetLastVerificationCode(ctx context.Context) (string, error)
}

// EmailInboxFactory opens the mailbox of address.
type EmailInboxFactory func(address, password string) (EmailInbox, error)

// VerificationChannels are the side-channel handles of one account.
type VerificationChannels struct {
	Email         string
	EmailPassword string
	Phone         PhoneInbox
}

// ResolverOption configures a ChallengeResolver.
type ResolverOption func(*ChallengeResolver)

// WithPhoneDelay overrides DefaultPhoneDelay.
func WithPhoneDelay(d time.Duration) ResolverOption {
	return func(r *ChallengeResolver) { r.phoneDelay = d }
}

// WithPicker overrides the random phone selection. pick(n) must return
// an index in [0, n).
func WithPicker(pick func(n int) int) ResolverOption {
	return func(r *ChallengeResolver) { r.pick = pick }
}

// WithSleeper overrides the delay implementation.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) ResolverOption {
	return func(r *ChallengeResolver) { r.sleep = sleep }
}

// WithResolverMetrics reports challenge outcomes to reg.
func WithResolverMetrics(reg *metric.Registry) ResolverOption {
	return func(r *ChallengeResolver) { r.metrics = reg }
}

// ChallengeResolver completes checkpoints using the phone or email
// side-channel. Bad codes are not retried.
type ChallengeResolver struct {
	opener     ChallengeOpener
	mailbox    EmailInboxFactory
	phoneDelay time.Duration
	pick       func(n int) int
	sleep      func(ctx context.Context, d time.Duration) error
	metrics    *metric.Registry
}

// NewChallengeResolver creates a resolver. mailbox may be nil when no
// email side-channel exists.
func NewChallengeResolver(opener ChallengeOpener, mailbox EmailInboxFactory, opts ...ResolverOption) *ChallengeResolver {
	r := &ChallengeResolver{
		opener:     opener,
		mailbox:    mailbox,
		phoneDelay: DefaultPhoneDelay,
		pick:       rand.IntN,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve opens the challenge behind cerr and completes it through the
// side-channel matching its type.
func (r *ChallengeResolver) Resolve(ctx context.Context, s *Session, cerr *domain.CheckpointError, ch VerificationChannels) (*Session, error) {
	if s == nil {
		return nil, domain.ErrMissingArgument.WithDetails("session")
	}
	if cerr == nil {
		return nil, domain.ErrMissingArgument.WithDetails("checkpoint")
	}
	if r.opener == nil {
		return nil, domain.ErrChallengeNotImplemented.WithDetails("no challenge opener").WithCause(cerr)
	}
	ctx = s.context(ctx)

	challenge, err := r.opener.Open(ctx, s, cerr.Checkpoint)
	if err != nil {
		r.metrics.ObserveChallenge(string(domain.ChallengeTypeOther), err)
		return nil, err
	}

	typ := challenge.Type()
	log := logger.L(ctx).With("challenge", typ)
	log.Info("resolving challenge", "checkpoint", cerr.Checkpoint.URL)

	var resolved *Session
	switch typ {
	case domain.ChallengeTypePhone:
		resolved, err = r.resolvePhone(ctx, challenge, ch.Phone)
	case domain.ChallengeTypeEmail:
		resolved, err = r.resolveEmail(ctx, challenge, ch.Email, ch.EmailPassword)
	default:
		err = domain.ErrChallengeNotImplemented.WithDetails(string(typ))
	}

	r.metrics.ObserveChallenge(string(typ), err)
	if err != nil {
		log.Warn("challenge failed", "error", err)
		return nil, err
	}

	if resolved == nil {
		resolved = s
	}
	resolved.persist(ctx)
	log.Info("challenge resolved")
	return resolved, nil
}

func (r *ChallengeResolver) resolvePhone(ctx context.Context, challenge Challenge, inbox PhoneInbox) (*Session, error) {
	if inbox == nil {
		return nil, domain.ErrSideChannelUnavailable.WithDetails("phone")
	}

	// 1. Pick one number from the pool
	phones, err := inbox.GetPhones(ctx)
	if err != nil {
		return nil, err
	}
	if len(phones) == 0 {
		return nil, domain.ErrNoPhoneAvailable
	}
	number := phones[r.pick(len(phones))]
	logger.L(ctx).Debug("submitting phone number", "phone", logger.MaskIdentifier(number))

	// 2. Trigger the SMS
	next, err := challenge.Phone(ctx, number)
	if err != nil {
		return nil, err
	}

	// 3. Let the SMS arrive
	if err := r.sleep(ctx, r.phoneDelay); err != nil {
		return nil, err
	}

	// 4. Read and submit the code
	code, err := inbox.GetLastVerificationCode(ctx, number)
	if err != nil {
		return nil, err
	}
	return next.Code(ctx, code)
}

func (r *ChallengeResolver) resolveEmail(ctx context.Context, challenge Challenge, address, password string) (*Session, error) {
	if r.mailbox == nil || address == "" {
		return nil, domain.ErrSideChannelUnavailable.WithDetails("email")
	}

	inbox, err := r.mailbox(address, password)
	if err != nil {
		return nil, err
	}
	code, err := inbox.GetLastVerificationCode(ctx)
	if err != nil {
		return nil, err
	}
	return challenge.Code(ctx, code)
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
