package service

import (
	"context"
	"errors"
	"strings"

	"github.com/yndnr/mobsession-go/internal/core/domain"
	"github.com/yndnr/mobsession-go/internal/telemetry/logger"
	"github.com/yndnr/mobsession-go/internal/transport"
)

// errorTypeInactiveUser is the error_type of a disabled account.
const errorTypeInactiveUser = "inactive user"

// qeExperiments is the experiment set synchronized after login.
var qeExperiments = strings.Join([]string{
	"ig_android_profile_contextual_feed",
	"ig_android_direct_inbox_recyclerview",
	"ig_android_feed_seen_state_with_view_info",
	"ig_android_autocomplete_user_list",
}, ",")

// bootstrapStep is one call of the post-login startup sequence.
type bootstrapStep struct {
	name    string
	request func(s *Session, accountID string) *transport.Request
	// tolerateRateLimit swallows ErrRequestsLimit for this step only.
	tolerateRateLimit bool
}

// bootstrapSteps mimic the calls the application makes right after login.
// They run strictly in order: later calls rely on cookies set by earlier ones.
var bootstrapSteps = []bootstrapStep{
	{
		name: "qe sync",
		request: func(s *Session, accountID string) *transport.Request {
			id := accountID
			if id == "" {
				id = s.device.UUID()
			}
			return transport.Post(transport.ResourceQESync).
				GenerateUUID().
				Data(map[string]any{
					"_uid":        accountID,
					"id":          id,
					"_csrftoken":  s.CSRFToken(),
					"experiments": qeExperiments,
				}).
				SignPayload()
		},
	},
	{
		name: "autocomplete user list",
		request: func(*Session, string) *transport.Request {
			return transport.Get(transport.ResourceAutocompleteUserList).Query("version", "2")
		},
		tolerateRateLimit: true,
	},
	{
		name: "timeline feed",
		request: func(*Session, string) *transport.Request {
			return transport.Get(transport.ResourceTimelineFeed)
		},
	},
	{
		name: "recent recipients",
		request: func(*Session, string) *transport.Request {
			return transport.Get(transport.ResourceRecentRecipients)
		},
	},
	{
		name: "inbox",
		request: func(*Session, string) *transport.Request {
			return transport.Get(transport.ResourceInbox)
		},
	},
	{
		name: "megaphone seen main feed",
		request: func(s *Session, _ string) *transport.Request {
			return transport.Post(transport.ResourceMegaphoneLog).
				GenerateUUID().
				Data(map[string]any{
					"type":       "feed_aysf",
					"action":     "seen",
					"reason":     "",
					"device_id":  s.device.ID(),
					"_csrftoken": s.CSRFToken(),
				})
		},
	},
}

// Login authenticates s with username and password and replays the
// application bootstrap sequence.
//
// A checkpoint raised anywhere in the flow is tolerated when the session
// and account cookies were issued anyway; otherwise the checkpoint error
// itself is returned.
func Login(ctx context.Context, s *Session, username, password string) (*Session, error) {
	if s == nil {
		return nil, domain.ErrMissingArgument.WithDetails("session")
	}
	if err := s.alive(); err != nil {
		return nil, err
	}
	ctx = s.context(ctx)
	if logger.TraceIDFromContext(ctx) == "" {
		ctx = logger.WithTraceID(ctx, domain.GenerateTraceID())
	}
	ctx = logger.WithSession(ctx, username, s.device.ID())
	log := logger.L(ctx)

	err := s.login(ctx, username, password)
	if err == nil {
		err = s.bootstrap(ctx)
	}

	if err != nil {
		var cerr *domain.CheckpointError
		if !errors.As(err, &cerr) {
			s.metrics.ObserveLogin(err)
			log.Warn("login failed", "error", err)
			return nil, err
		}

		// The platform may still have issued a usable session.
		if _, idErr := s.GetAccountID(ctx); idErr != nil {
			s.metrics.ObserveLogin(cerr)
			if errors.Is(idErr, domain.ErrCookieNotValid) {
				log.Warn("login stopped at checkpoint", "checkpoint", cerr.Checkpoint.URL)
				return nil, err
			}
			return nil, idErr
		}
		log.Info("checkpoint ignored, session cookies present", "checkpoint", cerr.Checkpoint.URL)
	}

	s.persist(ctx)
	s.metrics.ObserveLogin(nil)
	log.Info("login succeeded")
	return s, nil
}

// login performs the credential exchange.
func (s *Session) login(ctx context.Context, username, password string) error {
	req := transport.Post(transport.ResourceLogin).
		GenerateUUID().
		Data(map[string]any{
			"username":            username,
			"password":            password,
			"login_attempt_count": 0,
			"device_id":           s.device.ID(),
			"guid":                s.device.UUID(),
			"phone_id":            s.device.PhoneID(),
			"_csrftoken":          s.CSRFToken(),
		}).
		SignPayload()

	if err := s.doer.Do(ctx, req, nil); err != nil {
		return mapLoginError(err)
	}
	return nil
}

// mapLoginError turns credential and ban payloads into their error kinds.
// Anything else is returned unchanged.
func mapLoginError(err error) error {
	var rerr *domain.RequestError
	if !errors.As(err, &rerr) {
		return err
	}

	p := rerr.Payload
	switch {
	case p.InvalidCredentials:
		return domain.ErrAuthentication.WithDetails(p.Message).WithCause(err)
	case p.ErrorType == errorTypeInactiveUser:
		return domain.ErrAccountBanned.WithDetails(strings.TrimSpace(p.Message + " " + p.HelpURL)).WithCause(err)
	}
	return err
}

// bootstrap runs bootstrapSteps in order. Responses are discarded.
func (s *Session) bootstrap(ctx context.Context) error {
	accountID, _ := s.store.GetAccountID(ctx)

	for _, step := range bootstrapSteps {
		err := s.doer.Do(ctx, step.request(s, accountID), nil)
		if err == nil {
			continue
		}
		if step.tolerateRateLimit && errors.Is(err, domain.ErrRequestsLimit) {
			logger.L(ctx).Debug("bootstrap step throttled, continuing", "step", step.name)
			continue
		}
		return err
	}
	return nil
}
