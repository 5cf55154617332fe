package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/yigit/phdtrack/internal/bootstrap"
	"github.com/yigit/phdtrack/internal/config"
	"github.com/yigit/phdtrack/internal/pkg/apperrors"
	"github.com/yigit/phdtrack/internal/pkg/filestorage"
)

// cliLogLevel keeps one-shot commands quiet unless asked otherwise
const cliLogLevel = "warn"

// session is an opened store plus the record services, acting as the local
// operator (the admin identity).
type session struct {
	cfg  *config.Config
	deps *bootstrap.Dependencies
}

func loadConfig(c *cli.Context, defaultLevel string) (*config.Config, zerolog.Logger, error) {
	level := c.String("log-level")
	if level == "" {
		level = defaultLevel
	}
	return bootstrap.LoadConfigAndSetupLogger(c.String("config"), level)
}

func openSession(c *cli.Context) (*session, error) {
	cfg, lgr, err := loadConfig(c, cliLogLevel)
	if err != nil {
		return nil, err
	}

	database, err := bootstrap.SetupDatabase(c.Context, cfg, lgr)
	if err != nil {
		return nil, err
	}
	deps, err := bootstrap.BuildCore(cfg, database, lgr)
	if err != nil {
		database.Close()
		return nil, err
	}
	return &session{cfg: cfg, deps: deps}, nil
}

func (s *session) Close() {
	s.deps.Database.Close()
}

// withSession opens a session around fn.
func withSession(fn func(c *cli.Context, s *session) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		s, err := openSession(c)
		if err != nil {
			return err
		}
		defer s.Close()
		return fn(c, s)
	}
}

// argID parses the positional argument at index i as a record ID. It must be
// the last argument: flag parsing stops at the first positional argument, so
// anything after it would otherwise be dropped without notice.
func argID(c *cli.Context, i int, what string) (int64, error) {
	if c.NArg() > i+1 {
		extra := strings.Join(c.Args().Slice()[i+1:], " ")
		return 0, apperrors.NewValidationError(what, fmt.Sprintf(
			"unexpected arguments after the %s ID: %q; put flags before the ID, as in %q",
			what, extra, c.Command.HelpName+" [options] "+c.Args().Get(i)))
	}
	raw := c.Args().Get(i)
	if raw == "" {
		return 0, apperrors.NewValidationError(what, fmt.Sprintf("%s ID is required", what))
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError(what, fmt.Sprintf("%s ID must be a positive number, got %q", what, raw))
	}
	return id, nil
}

// sourceFlag wraps the file named by a path flag, nil when the flag is empty.
func sourceFlag(c *cli.Context, name string) *filestorage.Source {
	path := strings.TrimSpace(c.String(name))
	if path == "" {
		return nil
	}
	return filestorage.FromPath(path)
}

// optionalFlag returns a pointer to the flag value when it was given.
func optionalFlag(c *cli.Context, name string) *string {
	if !c.IsSet(name) {
		return nil
	}
	v := c.String(name)
	return &v
}
