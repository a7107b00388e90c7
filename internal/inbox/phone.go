package inbox

import (
	"context"
	"net/url"

	"github.com/yndnr/mobsession-go/internal/core/domain"
	"github.com/yndnr/mobsession-go/internal/core/service"
)

// PhonePool is the SMS gateway holding the pool of receiving numbers.
//
//	GET /numbers                   -> {"numbers": ["+1555..."]}
//	GET /numbers/{number}/messages -> {"messages": [Message...]}
type PhonePool struct {
	http *httpClient
}

var _ service.PhoneInbox = (*PhonePool)(nil)

// NewPhonePool creates a client for the SMS gateway.
func NewPhonePool(cfg Config) (*PhonePool, error) {
	c, err := newHTTPClient(cfg)
	if err != nil {
		return nil, err
	}
	return &PhonePool{http: c}, nil
}

// GetPhones returns the numbers currently available.
func (p *PhonePool) GetPhones(ctx context.Context) ([]string, error) {
	var out struct {
		Numbers []string `json:"numbers"`
	}
	if err := p.http.get(ctx, "/numbers", &out, nil); err != nil {
		return nil, err
	}
	return out.Numbers, nil
}

// GetLastVerificationCode returns the code of the latest SMS to number.
func (p *PhonePool) GetLastVerificationCode(ctx context.Context, number string) (string, error) {
	if number == "" {
		return "", domain.ErrMissingArgument.WithDetails("phone number")
	}
	var out struct {
		Messages []Message `json:"messages"`
	}
	if err := p.http.get(ctx, "/numbers/"+url.PathEscape(number)+"/messages", &out, domain.ErrVerificationCodeNotFound); err != nil {
		return "", err
	}
	code, ok := latestCode(out.Messages)
	if !ok {
		return "", domain.ErrVerificationCodeNotFound.WithDetails("no code for " + number)
	}
	return code, nil
}
