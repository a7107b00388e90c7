package platform

import (
	"context"

	"github.com/yndnr/mobsession-go/internal/core/domain"
	"github.com/yndnr/mobsession-go/internal/core/service"
	"github.com/yndnr/mobsession-go/internal/transport"
)

// Accounts looks up account profiles.
type Accounts struct{}

var _ service.AccountLookup = Accounts{}

// GetAccountByID fetches the profile of account id.
func (Accounts) GetAccountByID(ctx context.Context, s *service.Session, id string) (*domain.Account, error) {
	if id == "" {
		return nil, domain.ErrMissingArgument.WithDetails("account id")
	}

	var out struct {
		User domain.Account `json:"user"`
	}
	if err := s.Do(ctx, transport.Get(transport.ResourceUserInfo).Param("id", id), &out); err != nil {
		return nil, err
	}
	if out.User.ID == "" {
		out.User.ID = domain.PK(id)
	}
	return &out.User, nil
}
