package command

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/yndnr/supplier-portal/internal/core/domain"
	"github.com/yndnr/supplier-portal/internal/telemetry/logger"
)

// LoginCommand returns the login command.
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:      "login",
		Usage:     "Sign in and store the session",
		ArgsUsage: "[USERNAME]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "username",
				Aliases: []string{"u"},
				Usage:   "Username (or pass it as the first argument)",
				EnvVars: []string{"SUPPLIER_USERNAME"},
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Password (prompted when omitted)",
				EnvVars: []string{"SUPPLIER_PASSWORD"},
			},
		},
		Action: login,
	}
}

// LogoutCommand returns the logout command.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Clear the stored session",
		Action: logout,
	}
}

// WhoamiCommand returns the whoami command.
func WhoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the current session",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "remote",
				Usage: "Fetch the profile from the endpoint",
			},
		},
		Action: whoami,
	}
}

func login(c *cli.Context) error {
	rt := runtimeFrom(c)

	username := c.Args().First()
	if username == "" {
		username = c.String("username")
	}
	var err error
	if username == "" {
		if username, err = rt.promptLine("Username: "); err != nil {
			return err
		}
	}
	password := c.String("password")
	if password == "" {
		if password, err = rt.promptPassword("Password: "); err != nil {
			return err
		}
	}

	client, err := rt.Client(c.Context)
	if err != nil {
		return err
	}

	var sess *domain.Session
	err = rt.spin("Signing in...", func() error {
		var err error
		sess, err = client.Login(c.Context, username, password)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(rt.stdout, "Logged in as %s\n", sess.Username)
	return nil
}

func logout(c *cli.Context) error {
	rt := runtimeFrom(c)
	client, err := rt.Client(c.Context)
	if err != nil {
		return err
	}
	if err := client.Logout(c.Context); err != nil {
		return err
	}
	fmt.Fprintln(rt.stdout, "Logged out")
	return nil
}

// sessionView is the displayable form of a session. The token is masked.
type sessionView struct {
	Username    string    `json:"username"`
	Token       string    `json:"token"`
	IssuedAt    time.Time `json:"issued_at"`
	Age         string    `json:"age"`
	Environment string    `json:"environment"`
	Endpoint    string    `json:"endpoint"`
}

func whoami(c *cli.Context) error {
	rt := runtimeFrom(c)
	client, err := rt.Client(c.Context)
	if err != nil {
		return err
	}

	sess, ok := client.CurrentSession(c.Context)
	if !ok {
		return domain.ErrUnauthenticated.WithDetails("no active session")
	}

	if c.Bool("remote") {
		var profile *domain.Profile
		err := rt.spin("Fetching profile...", func() error {
			var err error
			profile, err = client.Profile(c.Context)
			return err
		})
		if err != nil {
			return err
		}
		return rt.render(profile)
	}

	env, err := rt.cfg.Active()
	if err != nil {
		return err
	}
	return rt.render(sessionView{
		Username:    sess.Username,
		Token:       logger.RedactString(sess.Token),
		IssuedAt:    sess.IssuedAt,
		Age:         sess.Age(time.Now()).Round(time.Second).String(),
		Environment: rt.cfg.CurrentEnvironment,
		Endpoint:    env.Endpoint,
	})
}

// promptLine reads one line from stdin after printing prompt on stderr.
func (rt *runtime) promptLine(prompt string) (string, error) {
	if rt.noPrompt {
		return "", domain.ErrInvalidArgument.WithDetails("username is required")
	}
	fmt.Fprint(rt.stderr, prompt)
	if rt.lines == nil {
		rt.lines = bufio.NewReader(rt.stdin)
	}
	line, err := rt.lines.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(prompt), ": "), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptPassword reads a password without echo when stdin is a terminal,
// and falls back to a plain line otherwise.
func (rt *runtime) promptPassword(prompt string) (string, error) {
	if f, ok := rt.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(rt.stderr, prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(rt.stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	if rt.noPrompt {
		return "", domain.ErrInvalidArgument.WithDetails("password is required (use --password)")
	}
	return rt.promptLine(prompt)
}
