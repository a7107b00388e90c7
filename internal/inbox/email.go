package inbox

import (
	"context"
	"net/url"

	"github.com/yndnr/mobsession-go/internal/core/domain"
	"github.com/yndnr/mobsession-go/internal/core/service"
)

// Mailbox is one address on the mail gateway, authenticated with the
// mailbox credentials.
//
//	GET /mailboxes/{address}/messages -> {"messages": [Message...]}
type Mailbox struct {
	http    *httpClient
	address string
}

var _ service.EmailInbox = (*Mailbox)(nil)

// NewMailbox opens the mailbox of address.
func NewMailbox(cfg Config, address, password string) (*Mailbox, error) {
	if address == "" {
		return nil, domain.ErrMissingArgument.WithDetails("email address")
	}
	c, err := newHTTPClient(cfg)
	if err != nil {
		return nil, err
	}
	c.username, c.password = address, password
	return &Mailbox{http: c, address: address}, nil
}

// MailboxFactory returns a factory opening mailboxes on the gateway of cfg.
func MailboxFactory(cfg Config) service.EmailInboxFactory {
	return func(address, password string) (service.EmailInbox, error) {
		return NewMailbox(cfg, address, password)
	}
}

// GetLastVerificationCode returns the code of the latest message.
func (m *Mailbox) GetLastVerificationCode(ctx context.Context) (string, error) {
	var out struct {
		Messages []Message `json:"messages"`
	}
	if err := m.http.get(ctx, "/mailboxes/"+url.PathEscape(m.address)+"/messages", &out, domain.ErrVerificationCodeNotFound); err != nil {
		return "", err
	}
	code, ok := latestCode(out.Messages)
	if !ok {
		return "", domain.ErrVerificationCodeNotFound.WithDetails("no code for " + m.address)
	}
	return code, nil
}
