package transport

import (
	"encoding/json"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/yndnr/mobsession-go/internal/core/domain"
)

const maxErrorSnippet = 256

func errUnknownResource(name string) error {
	return domain.ErrInvalidArgument.WithDetails("unknown resource " + name)
}

func errMissingParam(name string) error {
	return domain.ErrMissingArgument.WithDetails("path parameter for resource " + name)
}

// decodeResponse turns an HTTP answer into out or into a domain error.
func decodeResponse(status int, body []byte, out any) error {
	var payload domain.ErrorPayload
	jsonErr := json.Unmarshal(body, &payload)

	if status < http.StatusMultipleChoices && jsonErr == nil && payload.Status != "fail" {
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return domain.ErrParseResponse.WithCause(err)
		}
		return nil
	}

	if jsonErr != nil {
		switch {
		case status == http.StatusTooManyRequests:
			return domain.ErrRequestsLimit.WithDetails(http.StatusText(status))
		case status < http.StatusMultipleChoices:
			return domain.ErrParseResponse.WithCause(jsonErr)
		}
		return &domain.RequestError{
			StatusCode: status,
			Payload:    domain.ErrorPayload{Status: "fail", Message: snippet(body)},
		}
	}

	return mapErrorPayload(status, payload)
}

// mapErrorPayload classifies a parsed failure payload.
func mapErrorPayload(status int, p domain.ErrorPayload) error {
	switch {
	case isCheckpoint(p):
		cp := domain.Checkpoint{URL: p.ChallengeURL, Lock: p.Lock}
		if p.Challenge != nil {
			if cp.URL == "" {
				cp.URL = p.Challenge.URL
			}
			cp.APIPath = p.Challenge.APIPath
			cp.Lock = cp.Lock || p.Challenge.Lock
		}
		return domain.NewCheckpointError(cp, p.Message)
	case status == http.StatusTooManyRequests,
		strings.Contains(strings.ToLower(p.Message), "wait a few minutes"):
		return domain.ErrRequestsLimit.WithDetails(p.Message)
	case p.Message == "login_required":
		return domain.ErrLoginRequired
	default:
		return &domain.RequestError{StatusCode: status, Payload: p}
	}
}

func isCheckpoint(p domain.ErrorPayload) bool {
	switch {
	case p.Message == "checkpoint_required", p.Message == "challenge_required":
		return true
	case p.ErrorType == "checkpoint_challenge_required", p.ErrorType == "challenge_required":
		return true
	}
	return false
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) <= maxErrorSnippet {
		return s
	}
	cut := maxErrorSnippet
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
