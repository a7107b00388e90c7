package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/mobsession-go/internal/cli/output"
	"github.com/yndnr/mobsession-go/internal/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration with secrets masked",
				Action: configShow,
			},
			{
				Name:   "validate",
				Usage:  "Validate the effective configuration",
				Action: configValidate,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	env := getEnv(c)
	if path := env.loader.FilePath(); path != "" {
		fmt.Fprintf(env.stderr, "# file: %s\n", path)
	}

	// The configuration is nested; tables would flatten it.
	format := env.format
	if format == output.FormatTable {
		format = output.FormatYAML
	}
	return output.NewFormatter(format, env.wide).Format(env.stdout, config.Sanitize(env.cfg))
}

func configValidate(c *cli.Context) error {
	env := getEnv(c)
	if err := config.Verify(env.cfg); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}
	fmt.Fprintln(env.stdout, "configuration is valid")
	return nil
}
