package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/yndnr/mobsession-go/internal/cli/output"
	"github.com/yndnr/mobsession-go/internal/config"
	"github.com/yndnr/mobsession-go/internal/cookiestore"
	"github.com/yndnr/mobsession-go/internal/core/service"
	"github.com/yndnr/mobsession-go/internal/inbox"
	"github.com/yndnr/mobsession-go/internal/infra/confloader"
	"github.com/yndnr/mobsession-go/internal/platform"
	"github.com/yndnr/mobsession-go/internal/storage"
	"github.com/yndnr/mobsession-go/internal/telemetry/logger"
	"github.com/yndnr/mobsession-go/internal/telemetry/metric"
)

// environment is what every command needs: configuration, logging,
// metrics and output.
type environment struct {
	cfg     *config.Config
	loader  *confloader.Loader
	log     logger.Logger
	metrics *metric.Registry
	format  output.Format
	wide    bool
	stdout  io.Writer
	stderr  io.Writer
}

// print writes data in the selected format.
func (e *environment) print(data any) error {
	return output.NewFormatter(e.format, e.wide).Format(e.stdout, data)
}

// openKV validates the configuration and opens the cookie storage.
func (e *environment) openKV() (storage.KVEngine, error) {
	if err := config.Verify(e.cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	kv, err := storage.Open(e.cfg.KVConfig(), logger.Slog(e.log))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return kv, nil
}

func (e *environment) openStore(ctx context.Context, kv storage.KVEngine) (*cookiestore.Store, error) {
	var opts []cookiestore.Option
	if e.cfg.API.BaseURL != "" {
		base, err := url.Parse(e.cfg.API.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("api.base_url: %w", err)
		}
		opts = append(opts, cookiestore.WithBaseURL(base))
	}
	return cookiestore.Open(ctx, kv, e.cfg.Account.Username, opts...)
}

// sessionOptions returns the options shared by every session.
func (e *environment) sessionOptions() ([]service.Option, error) {
	cc, err := e.cfg.ClientConfig()
	if err != nil {
		return nil, err
	}
	return []service.Option{
		service.WithClientConfig(cc),
		service.WithLogger(e.log),
		service.WithMetrics(e.metrics),
	}, nil
}

// storedSession opens a session on the persisted cookies without
// contacting the platform.
func (e *environment) storedSession(ctx context.Context, kv storage.KVEngine) (*service.Session, error) {
	device, err := e.cfg.NewDevice()
	if err != nil {
		return nil, err
	}
	store, err := e.openStore(ctx, kv)
	if err != nil {
		return nil, err
	}
	opts, err := e.sessionOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts, service.WithProxy(e.cfg.Proxy.URL))
	return service.NewSession(device, store, opts...)
}

// establish returns a usable session: the stored one when its cookies are
// valid, otherwise a fresh login, resolving checkpoints when enabled.
// Without a password only the stored session can be used.
func (e *environment) establish(ctx context.Context, kv storage.KVEngine) (*service.Session, error) {
	if e.cfg.Account.Password == "" {
		s, err := e.storedSession(ctx, kv)
		if err != nil {
			return nil, err
		}
		if _, err := s.GetAccountID(ctx); err != nil {
			return nil, fmt.Errorf("no password configured: %w", err)
		}
		return s, nil
	}

	device, err := e.cfg.NewDevice()
	if err != nil {
		return nil, err
	}
	store, err := e.openStore(ctx, kv)
	if err != nil {
		return nil, err
	}
	opts, err := e.sessionOptions()
	if err != nil {
		return nil, err
	}

	params := service.CreateParams{
		Device:        device,
		Store:         store,
		Username:      e.cfg.Account.Username,
		Password:      e.cfg.Account.Password,
		Proxy:         e.cfg.Proxy.URL,
		Email:         e.cfg.Account.Email,
		EmailPassword: e.cfg.Account.EmailPassword,
	}

	var resolver *service.ChallengeResolver
	if e.cfg.Challenge.Enabled {
		var mailbox service.EmailInboxFactory
		if gc, ok := e.cfg.Challenge.MailGatewayConfig(); ok {
			mailbox = inbox.MailboxFactory(gc)
		}
		if gc, ok := e.cfg.Challenge.PhoneGatewayConfig(); ok {
			pool, err := inbox.NewPhonePool(gc)
			if err != nil {
				return nil, fmt.Errorf("challenge.phone_gateway: %w", err)
			}
			params.Phone = pool
		}
		resolver = service.NewChallengeResolver(platform.ChallengeOpener{}, mailbox,
			service.WithPhoneDelay(e.cfg.Challenge.PhoneDelay),
			service.WithResolverMetrics(e.metrics),
		)
	}

	return service.NewEstablisher(resolver, opts...).Create(ctx, params)
}

// closeKV closes kv and keeps the first error.
func closeKV(kv storage.KVEngine, err *error) {
	if cerr := kv.Close(); cerr != nil && *err == nil && !errors.Is(cerr, storage.ErrClosed) {
		*err = fmt.Errorf("close storage: %w", cerr)
	}
}
