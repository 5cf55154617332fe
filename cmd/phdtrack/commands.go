package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/yigit/phdtrack/internal/app/migrations"
	"github.com/yigit/phdtrack/internal/app/models/dto"
	"github.com/yigit/phdtrack/internal/db"
	"github.com/yigit/phdtrack/internal/server"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "create or upgrade the record store schema",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "dry-run", Usage: "show the current tables and migration history without changing anything"},
		},
		Action: func(c *cli.Context) error {
			cfg, lgr, err := loadConfig(c, "info")
			if err != nil {
				return err
			}

			database, err := db.Open(c.Context, cfg)
			if err != nil {
				return err
			}
			defer database.Close()
			m := migrations.NewMigrator(database)

			if !c.Bool("dry-run") {
				steps, err := m.EnsureSchema(c.Context)
				if err != nil {
					return err
				}
				if len(steps) == 0 {
					color.Green("Schema is already up to date")
					return nil
				}
				for _, step := range steps {
					fmt.Printf("  applied %s\n", step)
				}
				lgr.Info().Strs("steps", steps).Msg("Database schema updated")
				color.Green("Applied %d migration steps", len(steps))
				return nil
			}

			color.Cyan("Tables")
			rows := make([][]string, 0, len(migrations.Tables))
			for _, table := range append([]string{"schema_migrations"}, migrations.Tables...) {
				cols, err := m.Columns(c.Context, table)
				if err != nil {
					return err
				}
				state := strings.Join(cols, ", ")
				if len(cols) == 0 {
					state = color.YellowString("missing")
				}
				rows = append(rows, []string{table, state})
			}
			renderTable([]string{"Table", "Columns"}, rows)

			if cols, _ := m.Columns(c.Context, "schema_migrations"); len(cols) == 0 {
				color.Yellow("No migrations recorded yet")
				return nil
			}
			history, err := m.History(c.Context)
			if err != nil {
				return err
			}
			color.Cyan("\nApplied migrations")
			rows = rows[:0]
			for _, h := range history {
				rows = append(rows, []string{h.Version, h.AppliedAt})
			}
			renderTable([]string{"Step", "Applied At"}, rows)
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "expose the record operations over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "port", Usage: "listen port (overrides server.port)"},
		},
		Action: func(c *cli.Context) error {
			cfg, lgr, err := loadConfig(c, "")
			if err != nil {
				return err
			}
			if port := c.String("port"); port != "" {
				cfg.Server.Port = port
			}

			srv, err := server.NewServer(c.Context, cfg, lgr)
			if err != nil {
				return err
			}
			return srv.Run(c.Context)
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "write the students table as CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "students.csv", Usage: "output file, - for stdout"},
		},
		Action: withSession(func(c *cli.Context, s *session) error {
			out := c.String("out")

			var w io.Writer = os.Stdout
			if out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			n, err := s.deps.RecordService.ExportStudentsCSV(c.Context, w)
			if err != nil {
				return err
			}
			if out != "-" {
				color.Green("Exported %d students to %s", n, out)
			}
			return nil
		}),
	}
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "check credentials and print an access token",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"u"}, Usage: "student email or the admin username", Required: true},
			&cli.StringFlag{Name: "secret", Aliases: []string{"p"}, Usage: "date of birth (DD-MM-YYYY) or the admin password", Required: true},
		},
		Action: withSession(func(c *cli.Context, s *session) error {
			resp, err := s.deps.AuthService.Login(c.Context, &dto.LoginRequest{
				Identifier: c.String("email"),
				Secret:     c.String("secret"),
			})
			if err != nil {
				return err
			}

			color.Green("Logged in as %s", resp.Identity)
			fmt.Println(resp.Token.AccessToken)
			return nil
		}),
	}
}
