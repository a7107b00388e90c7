package platform

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/yndnr/mobsession-go/internal/core/domain"
	"github.com/yndnr/mobsession-go/internal/core/service"
	"github.com/yndnr/mobsession-go/internal/telemetry/logger"
	"github.com/yndnr/mobsession-go/internal/transport"
)

// Challenge step names with special handling.
const (
	stepSelectVerifyMethod = "select_verify_method"
	choicePhone            = "0"
	choiceEmail            = "1"
)

// challengeState is the platform's description of a challenge step.
type challengeState struct {
	Status   string `json:"status"`
	Action   string `json:"action"`
	StepName string `json:"step_name"`
	StepData struct {
		Choice      json.RawMessage `json:"choice"`
		PhoneNumber string          `json:"phone_number"`
		Email       string          `json:"email"`
	} `json:"step_data"`
}

func (st challengeState) choice() string {
	return strings.Trim(string(st.StepData.Choice), `"`)
}

func (st challengeState) done() bool {
	return st.Action == "close" || (st.Status == "ok" && st.StepName == "")
}

// classify maps a challenge step to the verification method it needs.
func classify(st challengeState) domain.ChallengeType {
	if st.StepName == stepSelectVerifyMethod {
		switch st.choice() {
		case choicePhone:
			return domain.ChallengeTypePhone
		case choiceEmail:
			return domain.ChallengeTypeEmail
		}
		return domain.ChallengeTypeOther
	}
	return domain.ParseChallengeType(st.StepName)
}

// ChallengeOpener opens web challenges from checkpoint descriptors.
type ChallengeOpener struct{}

var _ service.ChallengeOpener = ChallengeOpener{}

// Open reads the current step of the checkpoint. When the platform
// suggests email verification, it is selected so that the code is sent.
func (ChallengeOpener) Open(ctx context.Context, s *service.Session, cp domain.Checkpoint) (service.Challenge, error) {
	if cp.APIPath == "" && cp.URL == "" {
		return nil, domain.ErrMissingArgument.WithDetails("checkpoint location")
	}
	c := &WebChallenge{session: s, checkpoint: cp}

	req := c.request(http.MethodGet).
		Query("guid", s.Device().UUID()).
		Query("device_id", s.Device().ID())

	var st challengeState
	if err := s.Do(ctx, req, &st); err != nil {
		return nil, err
	}

	c.typ = classify(st)
	if st.StepName == stepSelectVerifyMethod && c.typ == domain.ChallengeTypeEmail {
		if err := s.Do(ctx, c.post().Set("choice", st.choice()), &st); err != nil {
			return nil, challengeErr(err)
		}
	}
	c.state = st

	logger.L(ctx).Debug("challenge opened", "step", st.StepName, "type", c.typ)
	return c, nil
}

// WebChallenge is a checkpoint driven through the challenge API.
type WebChallenge struct {
	session    *service.Session
	checkpoint domain.Checkpoint
	state      challengeState
	typ        domain.ChallengeType
}

var _ service.Challenge = (*WebChallenge)(nil)

// Type returns the verification method of the current step.
func (c *WebChallenge) Type() domain.ChallengeType { return c.typ }

// Step returns the platform name of the current step.
func (c *WebChallenge) Step() string { return c.state.StepName }

// Phone submits number and asks for an SMS code.
func (c *WebChallenge) Phone(ctx context.Context, number string) (service.Challenge, error) {
	if number == "" {
		return nil, domain.ErrMissingArgument.WithDetails("phone number")
	}
	var st challengeState
	if err := c.session.Do(ctx, c.post().Set("phone_number", number), &st); err != nil {
		return nil, challengeErr(err)
	}
	next := &WebChallenge{
		session:    c.session,
		checkpoint: c.checkpoint,
		state:      st,
		typ:        domain.ChallengeTypePhone,
	}
	return next, nil
}

// Code submits the verification code and completes the challenge.
func (c *WebChallenge) Code(ctx context.Context, code string) (*service.Session, error) {
	code = strings.ReplaceAll(strings.TrimSpace(code), " ", "")
	if code == "" {
		return nil, domain.ErrMissingArgument.WithDetails("verification code")
	}
	var st challengeState
	if err := c.session.Do(ctx, c.post().Set("security_code", code), &st); err != nil {
		return nil, challengeErr(err)
	}
	if !st.done() {
		return nil, domain.ErrChallengeRejected.WithDetails("challenge still open at step " + st.StepName)
	}
	return c.session, nil
}

func (c *WebChallenge) request(method string) *transport.Request {
	req := transport.NewRequest(method, transport.ResourceChallenge)
	if c.checkpoint.APIPath != "" {
		return req.Param("path", c.checkpoint.APIPath)
	}
	return req.AbsoluteURL(c.checkpoint.URL)
}

func (c *WebChallenge) post() *transport.Request {
	return c.request(http.MethodPost).
		GenerateUUID().
		Set("device_id", c.session.Device().ID()).
		Set("guid", c.session.Device().UUID()).
		Set("_csrftoken", c.session.CSRFToken())
}

// challengeErr reports platform refusals as challenge rejections.
func challengeErr(err error) error {
	var rerr *domain.RequestError
	if errors.As(err, &rerr) {
		return domain.ErrChallengeRejected.WithDetails(rerr.Payload.Message).WithCause(err)
	}
	return err
}
