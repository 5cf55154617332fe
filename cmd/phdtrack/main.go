package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/yigit/phdtrack/internal/bootstrap"
	"github.com/yigit/phdtrack/internal/pkg/apperrors"
	"github.com/yigit/phdtrack/internal/pkg/logger"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "phdtrack",
		Usage: "manage PhD student records and their attachments",
		// certificate titles may contain commas
		DisableSliceFlagSeparator: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML configuration file",
				Value:   bootstrap.DefaultConfigPath,
				EnvVars: []string{"PHDTRACK_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error (overrides the configuration)",
			},
		},
		Commands: []*cli.Command{
			migrateCommand(),
			serveCommand(),
			exportCommand(),
			loginCommand(),
			studentsCommand(),
			presentationsCommand(),
			synopsisCommand(),
			certificatesCommand(),
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger.Debug().Err(err).Msg("Command failed")
		color.Red("Error: %s", apperrors.UserMessage(err))
		os.Exit(1)
	}
}
