package command

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/mobsession-go/internal/cli/output"
	"github.com/yndnr/mobsession-go/internal/config"
	"github.com/yndnr/mobsession-go/internal/cookiestore"
	"github.com/yndnr/mobsession-go/internal/core/domain"
	"github.com/yndnr/mobsession-go/internal/core/service"
	"github.com/yndnr/mobsession-go/internal/platform"
)

// sessionInfo is the printable summary of a session.
type sessionInfo struct {
	Username  string `json:"username" yaml:"username"`
	AccountID string `json:"account_id" yaml:"account_id"`
	DeviceID  string `json:"device_id" yaml:"device_id" table:"wide"`
	Proxy     string `json:"proxy,omitempty" yaml:"proxy,omitempty"`
}

func (e *environment) sessionInfo(s *service.Session, accountID string) sessionInfo {
	return sessionInfo{
		Username:  e.cfg.Account.Username,
		AccountID: accountID,
		DeviceID:  s.Device().ID(),
		Proxy:     config.Sanitize(&config.Config{Proxy: config.ProxySection{URL: s.ProxyURL()}}).Proxy.URL,
	}
}

// accountView is the printable form of a platform account.
type accountView struct {
	ID        string `json:"id" yaml:"id"`
	Username  string `json:"username" yaml:"username"`
	FullName  string `json:"full_name" yaml:"full_name"`
	Private   bool   `json:"private" yaml:"private"`
	Verified  bool   `json:"verified" yaml:"verified" table:"wide"`
	Media     int    `json:"media" yaml:"media"`
	Followers int    `json:"followers" yaml:"followers"`
	Following int    `json:"following" yaml:"following"`
	Biography string `json:"biography,omitempty" yaml:"biography,omitempty" table:"wide"`
}

func newAccountView(a *domain.Account) accountView {
	return accountView{
		ID:        a.ID.String(),
		Username:  a.Username,
		FullName:  a.FullName,
		Private:   a.IsPrivate,
		Verified:  a.IsVerified,
		Media:     a.MediaCount,
		Followers: a.FollowerCount,
		Following: a.FollowingCount,
		Biography: a.Biography,
	}
}

// LoginCommand returns the login command.
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Establish a session: reuse stored cookies, log in, resolve checkpoints",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Account password (overrides account.password)",
			},
			&cli.BoolFlag{
				Name:  "no-challenge",
				Usage: "Fail on checkpoints instead of resolving them",
			},
		},
		Action: loginAction,
	}
}

func loginAction(c *cli.Context) (err error) {
	env := getEnv(c)
	if c.IsSet("password") {
		env.cfg.Account.Password = c.String("password")
	}
	if c.Bool("no-challenge") {
		env.cfg.Challenge.Enabled = false
	}
	if err := config.VerifyAccount(env.cfg); err != nil {
		return err
	}

	kv, err := env.openKV()
	if err != nil {
		return err
	}
	defer closeKV(kv, &err)

	spinner := output.NewSpinner(env.stderr, "logging in as "+env.cfg.Account.Username)
	spinner.Start()

	s, err := env.establish(c.Context, kv)
	if err != nil {
		spinner.Fail("login failed")
		return describe(err)
	}
	accountID, err := s.GetAccountID(c.Context)
	if err != nil {
		spinner.Fail("login failed")
		return describe(err)
	}
	if err := s.Save(c.Context); err != nil {
		spinner.Fail("could not store cookies")
		return err
	}
	spinner.Success("logged in")

	return env.print(env.sessionInfo(s, accountID))
}

// WhoamiCommand returns the whoami command.
func WhoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the account of the stored session",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "remote",
				Usage: "Fetch the account profile from the platform",
			},
		},
		Action: whoamiAction,
	}
}

func whoamiAction(c *cli.Context) (err error) {
	env := getEnv(c)
	kv, err := env.openKV()
	if err != nil {
		return err
	}
	defer closeKV(kv, &err)

	s, err := env.storedSession(c.Context, kv)
	if err != nil {
		return describe(err)
	}
	accountID, err := s.GetAccountID(c.Context)
	if err != nil {
		return describe(err)
	}

	if !c.Bool("remote") {
		return env.print(env.sessionInfo(s, accountID))
	}

	account, err := s.GetAccount(c.Context, platform.Accounts{})
	if err != nil {
		return describe(err)
	}
	if err := s.Save(c.Context); err != nil {
		env.log.Warn("failed to store cookies", "error", err)
	}
	return env.print(newAccountView(account))
}

// LogoutCommand returns the logout command.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Log out and delete the stored cookies",
		Action: logoutAction,
	}
}

func logoutAction(c *cli.Context) (err error) {
	env := getEnv(c)
	kv, err := env.openKV()
	if err != nil {
		return err
	}
	defer closeKV(kv, &err)

	s, err := env.storedSession(c.Context, kv)
	if err != nil {
		return describe(err)
	}
	if _, err := s.GetAccountID(c.Context); errors.Is(err, domain.ErrCookieNotValid) {
		if err := s.CookieStore().Destroy(c.Context); err != nil {
			return err
		}
		fmt.Fprintln(env.stdout, "no stored session")
		return nil
	}

	if err := s.Destroy(c.Context); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	fmt.Fprintln(env.stdout, "logged out")
	return nil
}

// AccountsCommand returns the accounts command.
func AccountsCommand() *cli.Command {
	return &cli.Command{
		Name:   "accounts",
		Usage:  "List accounts with stored cookies",
		Action: accountsAction,
	}
}

func accountsAction(c *cli.Context) (err error) {
	env := getEnv(c)
	kv, err := env.openKV()
	if err != nil {
		return err
	}
	defer closeKV(kv, &err)

	names, err := cookiestore.List(c.Context, kv)
	if err != nil {
		return err
	}

	table := output.NewTable("USERNAME")
	for _, name := range names {
		table.AddRow(name)
	}
	return env.print(table)
}
