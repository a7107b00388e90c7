package command

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/mobsession-go/internal/cli/output"
	"github.com/yndnr/mobsession-go/internal/config"
	"github.com/yndnr/mobsession-go/internal/core/domain"
	"github.com/yndnr/mobsession-go/internal/infra/buildinfo"
	"github.com/yndnr/mobsession-go/internal/infra/confloader"
	"github.com/yndnr/mobsession-go/internal/telemetry/logger"
	"github.com/yndnr/mobsession-go/internal/telemetry/metric"
)

const envKey = "env"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "mobsession-cli",
		Usage:   "Establish and keep mobile API sessions",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Before:  setup,
		Commands: []*cli.Command{
			LoginCommand(),
			WhoamiCommand(),
			LogoutCommand(),
			AccountsCommand(),
			MediaCommand(),
			KeepaliveCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Configuration file (default ~/.mobsession/config.yaml)",
			EnvVars: []string{"MOBSESSION_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "username",
			Aliases: []string{"u"},
			Usage:   "Account username (overrides account.username)",
		},
		&cli.StringFlag{
			Name:  "proxy",
			Usage: "Proxy URL, e.g. socks5://127.0.0.1:1080 (overrides proxy.url)",
		},
		&cli.StringFlag{
			Name:  "data-dir",
			Usage: "Cookie storage directory (overrides storage.data_dir)",
		},
		&cli.StringFlag{
			Name:  "storage-engine",
			Usage: "Cookie storage engine: badger, bbolt, file, memory",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable debug logging",
		},
	}
}

// setup loads the configuration and stores the environment in the app
// metadata. Validation is left to the commands, so that "config validate"
// can report problems.
func setup(c *cli.Context) error {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return err
	}

	overrides := map[string]any{
		"account.username": c.String("username"),
		"proxy.url":        c.String("proxy"),
		"storage.data_dir": c.String("data-dir"),
		"storage.engine":   c.String("storage-engine"),
	}
	if c.Bool("verbose") {
		overrides["log.level"] = "debug"
	}

	opts := []confloader.Option{confloader.WithOverrides(overrides)}
	if c.IsSet("config") {
		opts = append(opts, confloader.WithConfigFile(c.String("config")))
	} else {
		opts = append(opts, confloader.WithOptionalConfigFile(config.DefaultConfigPath()))
	}
	loader := confloader.NewLoader(opts...)

	cfg := config.Default()
	if err := loader.Load(cfg); err != nil {
		return err
	}

	lc := cfg.LoggerConfig()
	lc.Output = c.App.ErrWriter
	log, err := logger.New(lc)
	if err != nil {
		return err
	}
	logger.SetDefault(log)

	c.App.Metadata[envKey] = &environment{
		cfg:     cfg,
		loader:  loader,
		log:     log,
		metrics: metric.NewRegistry(),
		format:  format,
		wide:    c.Bool("wide"),
		stdout:  c.App.Writer,
		stderr:  c.App.ErrWriter,
	}
	return nil
}

// getEnv retrieves the environment prepared by setup.
func getEnv(c *cli.Context) *environment {
	env, ok := c.App.Metadata[envKey].(*environment)
	if !ok {
		panic("command: environment not initialised")
	}
	return env
}

// describe adds the next step to errors a user can act on.
func describe(err error) error {
	var cp *domain.CheckpointError
	switch {
	case errors.As(err, &cp):
		return fmt.Errorf("%w\ncomplete the verification in the app or configure challenge gateways", err)
	case errors.Is(err, domain.ErrCookieNotValid):
		return fmt.Errorf("%w\nno valid stored session, run \"mobsession-cli login\"", err)
	case errors.Is(err, domain.ErrDeviceMismatch):
		return fmt.Errorf("%w\nthe stored cookies belong to another device; run \"mobsession-cli logout\" first", err)
	default:
		return err
	}
}
