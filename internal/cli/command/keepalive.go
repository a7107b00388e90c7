package command

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/mobsession-go/internal/config"
	"github.com/yndnr/mobsession-go/internal/cookiestore"
	"github.com/yndnr/mobsession-go/internal/core/domain"
	"github.com/yndnr/mobsession-go/internal/core/service"
	"github.com/yndnr/mobsession-go/internal/infra/confloader"
	"github.com/yndnr/mobsession-go/internal/infra/shutdown"
	"github.com/yndnr/mobsession-go/internal/storage"
	"github.com/yndnr/mobsession-go/internal/telemetry/logger"
	"github.com/yndnr/mobsession-go/internal/telemetry/metric"
)

// KeepaliveCommand returns the keepalive command.
func KeepaliveCommand() *cli.Command {
	return &cli.Command{
		Name:  "keepalive",
		Usage: "Keep the session established until interrupted",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Check interval (overrides keepalive.interval)",
			},
		},
		Action: keepaliveAction,
	}
}

// keeper re-establishes the session whenever its cookies lapse.
type keeper struct {
	env *environment
	kv  storage.KVEngine

	mu      sync.Mutex
	session *service.Session
}

func newKeeper(env *environment, kv storage.KVEngine) *keeper {
	return &keeper{env: env, kv: kv}
}

// check verifies the current session and establishes a new one when there
// is none or its cookies are no longer valid.
func (k *keeper) check(ctx context.Context) error {
	k.mu.Lock()
	s := k.session
	k.mu.Unlock()

	if s != nil {
		_, err := s.GetAccountID(ctx)
		switch {
		case err == nil:
			if err := s.Save(ctx); err != nil {
				k.env.log.Warn("failed to store cookies", "error", err)
			}
			return nil
		case !errors.Is(err, domain.ErrCookieNotValid):
			return err
		}
		k.env.log.Warn("session cookies lapsed, establishing a new session")
	}

	// The configuration is read while establishing; reload waits.
	k.mu.Lock()
	defer k.mu.Unlock()
	next, err := k.env.establish(ctx, k.kv)
	if err != nil {
		return err
	}
	accountID, _ := next.GetAccountID(ctx)
	k.env.log.Info("session established", "account_id", logger.MaskIdentifier(accountID))
	k.session = next
	return nil
}

// reload re-reads the configuration file and applies what can change at
// runtime: the proxy and the log level.
func (k *keeper) reload() {
	cfg := config.Default()
	if err := k.env.loader.Reload(cfg); err != nil {
		k.env.log.Error("configuration reload failed", "error", err)
		return
	}
	if err := config.Verify(cfg); err != nil {
		k.env.log.Error("reloaded configuration is invalid, keeping the current one", "error", err)
		return
	}

	if err := k.setProxy(cfg.Proxy.URL); err != nil {
		k.env.log.Error("failed to apply proxy", "error", err)
		return
	}
	logger.SetLevel(cfg.Log.Level)
	k.env.log.Info("configuration reloaded")
}

func (k *keeper) setProxy(raw string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.session != nil {
		if err := k.session.SetProxy(raw); err != nil {
			return err
		}
	}
	k.env.cfg.Proxy.URL = raw
	return nil
}

// save persists the cookies of the current session.
func (k *keeper) save(ctx context.Context) error {
	k.mu.Lock()
	s := k.session
	k.mu.Unlock()
	if s == nil {
		return nil
	}
	return s.Save(ctx)
}

// run checks the session every interval until ctx is done. Failed checks
// are logged and retried on the next tick.
func (k *keeper) run(ctx context.Context, interval time.Duration) error {
	if err := k.check(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, domain.ErrAuthentication) || errors.Is(err, domain.ErrAccountBanned) ||
			errors.Is(err, domain.ErrDeviceMismatch) {
			return describe(err)
		}
		k.env.log.Error("session check failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := k.check(ctx); err != nil && ctx.Err() == nil {
				k.env.log.Error("session check failed", "error", err)
			}
		}
	}
}

func keepaliveAction(c *cli.Context) (err error) {
	env := getEnv(c)
	if err := config.VerifyAccount(env.cfg); err != nil {
		return err
	}
	interval := env.cfg.Keepalive.Interval
	if c.IsSet("interval") {
		interval = c.Duration("interval")
	}
	if interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}

	kv, err := env.openKV()
	if err != nil {
		return err
	}

	h := shutdown.NewHandler(env.cfg.Keepalive.ShutdownTimeout)
	h.OnShutdown("storage", func(context.Context) error { return kv.Close() })

	k := newKeeper(env, kv)
	h.OnShutdown("session", k.save)

	if env.cfg.Metrics.Enabled {
		srv, err := serveMetrics(env, kv)
		if err != nil {
			_ = h.Shutdown()
			return err
		}
		h.OnShutdown("metrics", srv.Shutdown)
	}

	if path := env.loader.FilePath(); path != "" {
		w, err := confloader.NewWatcher(confloader.WithWatcherLogger(env.log))
		if err != nil {
			env.log.Warn("configuration watcher unavailable", "error", err)
		} else if err := w.Watch(path); err != nil {
			_ = w.Stop()
			env.log.Warn("not watching configuration file", "path", path, "error", err)
		} else {
			w.OnChange(func(string) { k.reload() })
			w.StartAsync()
			h.OnShutdown("watcher", func(context.Context) error { return w.Stop() })
		}
	}

	ctx := h.Context(c.Context)
	env.log.Info("keepalive started", "interval", interval)
	runErr := k.run(ctx, interval)
	env.log.Info("keepalive stopping")

	return errors.Join(runErr, h.Shutdown())
}

// serveMetrics exposes the metrics registry, including storage gauges.
func serveMetrics(env *environment, kv storage.KVEngine) (*http.Server, error) {
	reg := env.metrics.Prometheus()
	reg.MustRegister(metric.NewCollector(func(ctx context.Context) ([]string, error) {
		return cookiestore.List(ctx, kv)
	}))
	if badger, ok := kv.(*storage.BadgerEngine); ok {
		badger.RegisterMetrics(reg)
	}

	ln, err := net.Listen("tcp", env.cfg.Metrics.Addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", env.metrics.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			env.log.Error("metrics server failed", "error", err)
		}
	}()
	env.log.Info("serving metrics", "addr", ln.Addr().String())
	return srv, nil
}
