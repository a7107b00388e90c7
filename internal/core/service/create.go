package service

import (
	"context"
	"errors"

	"github.com/yndnr/mobsession-go/internal/core/domain"
	"github.com/yndnr/mobsession-go/internal/telemetry/logger"
	"github.com/yndnr/mobsession-go/internal/telemetry/metric"
)

// CreateParams are the inputs of Establisher.Create.
type CreateParams struct {
	Device   *domain.Device
	Store    CookieStore
	Username string
	Password string
	// Proxy is the proxy URL; "" means direct.
	Proxy string

	// Verification side-channels, used only when a checkpoint is raised.
	Email         string
	EmailPassword string
	Phone         PhoneInbox
}

// Establisher produces usable sessions: it reuses stored cookies, falls
// back to a fresh login and resolves checkpoints.
type Establisher struct {
	resolver *ChallengeResolver
	opts     []Option
	metrics  *metric.Registry
}

// NewEstablisher creates an Establisher. resolver may be nil, in which
// case checkpoints are returned to the caller. opts apply to every
// session it creates.
func NewEstablisher(resolver *ChallengeResolver, opts ...Option) *Establisher {
	var o sessionOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Establisher{
		resolver: resolver,
		opts:     opts,
		metrics:  o.metrics,
	}
}

// Create returns a session for p.Username, trying in order:
//
//  1. the cookies already in p.Store (no request is made),
//  2. a fresh Login when the cookies are not valid,
//  3. the challenge resolver when reuse or login hits a checkpoint.
//
// Any other error is returned unchanged.
func (e *Establisher) Create(ctx context.Context, p CreateParams) (*Session, error) {
	opts := append(append([]Option(nil), e.opts...), WithProxy(p.Proxy))
	s, err := NewSession(p.Device, p.Store, opts...)
	if err != nil {
		return nil, err
	}
	ctx = s.context(ctx)
	ctx = logger.WithTraceID(ctx, domain.GenerateTraceID())
	ctx = logger.WithSession(ctx, p.Username, p.Device.ID())
	log := logger.L(ctx)

	// 1. Reuse
	_, err = s.GetAccountID(ctx)
	e.metrics.ObserveReuse(err)
	if err == nil {
		log.Debug("reusing stored session")
		return s, nil
	}

	// 2. Fresh login
	if errors.Is(err, domain.ErrCookieNotValid) {
		log.Debug("stored cookies not valid, logging in", "reason", err)
		if _, err = Login(ctx, s, p.Username, p.Password); err == nil {
			return s, nil
		}
	}

	// 3. Challenge
	var cerr *domain.CheckpointError
	if !errors.As(err, &cerr) || e.resolver == nil {
		return nil, err
	}
	return e.resolver.Resolve(ctx, s, cerr, VerificationChannels{
		Email:         p.Email,
		EmailPassword: p.EmailPassword,
		Phone:         p.Phone,
	})
}
