package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/supplier-portal/internal/cli/config"
	"github.com/yndnr/supplier-portal/internal/cli/output"
	"github.com/yndnr/supplier-portal/internal/core/domain"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration",
				Action: configShow,
			},
			{
				Name:   "path",
				Usage:  "Print the config file path",
				Action: configPath,
			},
			{
				Name:   "envs",
				Usage:  "List configured environments",
				Action: configEnvs,
			},
			{
				Name:   "vars",
				Usage:  "List supported SUPPLIER_* environment variables",
				Action: configVars,
			},
			{
				Name:  "init",
				Usage: "Write the effective configuration to the config file",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Overwrite an existing file",
					},
				},
				Action: configInit,
			},
			{
				Name:      "use",
				Usage:     "Select the current environment",
				ArgsUsage: "ENVIRONMENT",
				Action:    configUse,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	rt := runtimeFrom(c)

	cfg := *rt.cfg
	if cfg.Storage.Redis.Password != "" {
		cfg.Storage.Redis.Password = "***REDACTED***"
	}

	var f output.Formatter = &output.YAMLFormatter{}
	if rt.format == output.FormatJSON {
		f = &output.JSONFormatter{}
	}
	return f.Format(rt.stdout, &cfg)
}

func configPath(c *cli.Context) error {
	rt := runtimeFrom(c)
	state := "not found, using defaults"
	if config.Exists(rt.configPath) {
		state = "exists"
	}
	fmt.Fprintf(rt.stdout, "%s (%s)\n", rt.configPath, state)
	return nil
}

type envRow struct {
	Current  string `json:"current"`
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
	Timeout  string `json:"timeout"`
	CAFile   string `json:"ca_file" table:"wide"`
}

func configEnvs(c *cli.Context) error {
	rt := runtimeFrom(c)

	rows := make([]envRow, 0, len(rt.cfg.Environments))
	for _, name := range rt.cfg.EnvironmentNames() {
		env := rt.cfg.Environments[name]
		row := envRow{
			Name:     name,
			Endpoint: env.Endpoint,
			Timeout:  env.Timeout.String(),
			CAFile:   env.CAFile,
		}
		if name == rt.cfg.CurrentEnvironment {
			row.Current = "*"
		}
		rows = append(rows, row)
	}
	return rt.render(rows)
}

func configVars(c *cli.Context) error {
	return runtimeFrom(c).render(config.EnvVars())
}

func configInit(c *cli.Context) error {
	rt := runtimeFrom(c)
	if config.Exists(rt.configPath) && !c.Bool("force") {
		return domain.ErrInvalidArgument.WithDetails(rt.configPath + " already exists (use --force)")
	}
	if err := config.Save(rt.cfg, rt.configPath); err != nil {
		return err
	}
	fmt.Fprintf(rt.stdout, "Wrote %s\n", rt.configPath)
	return nil
}

func configUse(c *cli.Context) error {
	rt := runtimeFrom(c)
	name := c.Args().First()
	if name == "" {
		return domain.ErrInvalidArgument.WithDetails("ENVIRONMENT is required")
	}
	if _, ok := rt.cfg.Environments[name]; !ok {
		return domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("unknown environment %q", name))
	}

	rt.cfg.CurrentEnvironment = name
	rt.resetClient()
	if err := config.Save(rt.cfg, rt.configPath); err != nil {
		return err
	}
	fmt.Fprintf(rt.stdout, "Switched to environment %q\n", name)
	return nil
}
