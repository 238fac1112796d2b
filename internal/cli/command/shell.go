package command

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/yndnr/supplier-portal/internal/cli/config"
	"github.com/yndnr/supplier-portal/internal/cli/repl"
	"github.com/yndnr/supplier-portal/internal/storage"
)

// ShellCommand returns the interactive shell command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Start an interactive shell",
		Description: "Runs commands line by line against one session client.\n" +
			"The session lives in memory unless --persist is given.",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "persist",
				Usage: "Use the configured session store instead of memory",
			},
			&cli.StringFlag{
				Name:  "history",
				Usage: "History file (empty string disables)",
				Value: filepath.Join(config.DefaultDir(), "history"),
			},
		},
		Action: shell,
	}
}

func shell(c *cli.Context) error {
	rt := runtimeFrom(c)
	if !c.Bool("persist") {
		rt.useStore(storage.NewMemoryStore(), true)
	}
	if f, ok := rt.stdin.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		rt.noPrompt = true
	}

	exec := func(ctx context.Context, args []string) error {
		app := NewApp(withShared(rt))
		err := app.RunContext(ctx, append([]string{AppName}, args...))
		if err != nil {
			return errors.New(Describe(err))
		}
		return nil
	}

	r := repl.New(exec,
		repl.WithIO(rt.stdin, rt.stdout),
		repl.WithPrompt(func() string { return rt.prompt(c.Context) }),
		repl.WithCompleter(repl.NewCompleter(commandPaths(commands(true), ""))),
		repl.WithHistory(repl.NewHistory(c.String("history"))),
	)
	return r.Run(c.Context)
}

func withShared(rt *runtime) AppOption {
	return func(o *appOptions) { o.shared = rt }
}

// prompt shows the signed-in user, if any.
func (rt *runtime) prompt(ctx context.Context) string {
	client, err := rt.Client(ctx)
	if err != nil {
		return repl.DefaultPrompt
	}
	if sess, ok := client.CurrentSession(ctx); ok {
		return "supplier(" + sess.Username + ")> "
	}
	return repl.DefaultPrompt
}

// commandPaths flattens the command tree into completion entries such as
// "supplier list".
func commandPaths(cmds []*cli.Command, parent string) []string {
	var paths []string
	for _, cmd := range cmds {
		if cmd.Hidden {
			continue
		}
		path := cmd.Name
		if parent != "" {
			path = parent + " " + cmd.Name
		}
		paths = append(paths, path)
		paths = append(paths, commandPaths(cmd.Subcommands, path)...)
	}
	return paths
}
