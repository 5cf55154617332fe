package main

import (
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/yigit/phdtrack/internal/app/models/dto"
	"github.com/yigit/phdtrack/internal/app/repositories"
	"github.com/yigit/phdtrack/internal/pkg/apperrors"
	"github.com/yigit/phdtrack/internal/pkg/filestorage"
)

// studentFieldFlags are shared by add and update. Dates are DD-MM-YYYY.
func studentFieldFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "roll", Usage: "roll number"},
		&cli.StringFlag{Name: "name"},
		&cli.StringFlag{Name: "email"},
		&cli.StringFlag{Name: "department"},
		&cli.StringFlag{Name: "supervisor"},
		&cli.StringFlag{Name: "registration-date", Usage: "DD-MM-YYYY"},
		&cli.StringFlag{Name: "dob", Usage: "date of birth, DD-MM-YYYY"},
		&cli.StringFlag{Name: "batch-from", Usage: "first year of the batch"},
		&cli.StringFlag{Name: "batch-to", Usage: "last year of the batch"},
		&cli.StringFlag{Name: "title", Usage: "thesis title"},
		&cli.StringFlag{Name: "publications"},
		&cli.StringFlag{Name: "picture", Usage: "path of the picture to attach"},
		&cli.StringFlag{Name: "synopsis-title"},
		&cli.StringFlag{Name: "submission-date", Usage: "synopsis submission date, DD-MM-YYYY"},
		&cli.StringFlag{Name: "abstract"},
		&cli.StringFlag{Name: "synopsis-file", Usage: "path of the synopsis document"},
		&cli.StringSliceFlag{Name: "certificate", Usage: "certificate as TITLE=PATH, repeatable"},
	}
}

func studentsCommand() *cli.Command {
	return &cli.Command{
		Name:  "students",
		Usage: "manage student records",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list students ordered by ID",
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "limit", Value: 50},
					&cli.Uint64Flag{Name: "offset"},
				},
				Action: withSession(func(c *cli.Context, s *session) error {
					students, total, err := s.deps.RecordService.ListStudents(c.Context, repositories.StudentListParams{
						Limit:  c.Uint64("limit"),
						Offset: c.Uint64("offset"),
					})
					if err != nil {
						return err
					}
					printStudents(students, total)
					return nil
				}),
			},
			{
				Name:      "search",
				Usage:     "find students by name or roll number",
				ArgsUsage: "TERM",
				Action: withSession(func(c *cli.Context, s *session) error {
					students, err := s.deps.RecordService.SearchStudents(c.Context, strings.Join(c.Args().Slice(), " "))
					if err != nil {
						return err
					}
					printStudents(students, int64(len(students)))
					return nil
				}),
			},
			{
				Name:      "show",
				Usage:     "show a student with everything attached to it",
				ArgsUsage: "ID",
				Action: withSession(func(c *cli.Context, s *session) error {
					id, err := argID(c, 0, "student")
					if err != nil {
						return err
					}
					record, err := s.deps.RecordService.GetStudentRecord(c.Context, id)
					if err != nil {
						return err
					}
					printRecord(s.deps.FileStorage, record)
					return nil
				}),
			},
			{
				Name:  "add",
				Usage: "add a student",
				Flags: append(studentFieldFlags(),
					&cli.StringFlag{Name: "presentation-date", Usage: "first presentation date, DD-MM-YYYY"},
					&cli.StringFlag{Name: "progress-notes"},
					&cli.StringFlag{Name: "presentation-file"},
				),
				Action: withSession(addStudent),
			},
			{
				Name:      "update",
				Usage:     "change the given fields of a student",
				ArgsUsage: "ID",
				Flags: append(studentFieldFlags(),
					&cli.BoolFlag{Name: "clear-certificates", Usage: "remove every certificate (combine with --certificate to replace them)"},
				),
				Action: withSession(updateStudent),
			},
			{
				Name:      "extend",
				Usage:     "add years to the batch end",
				ArgsUsage: "ID",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "years", Value: 1},
				},
				Action: withSession(func(c *cli.Context, s *session) error {
					id, err := argID(c, 0, "student")
					if err != nil {
						return err
					}
					st, err := s.deps.RecordService.ApplyExtension(c.Context, id, c.Int("years"))
					if err != nil {
						return err
					}
					color.Green("Batch of %s is now %s", st.Name, st.BatchDisplay())
					return nil
				}),
			},
			{
				Name:      "delete",
				Usage:     "delete a student, its dependents and their files",
				ArgsUsage: "ID",
				Action: withSession(func(c *cli.Context, s *session) error {
					id, err := argID(c, 0, "student")
					if err != nil {
						return err
					}
					if err := s.deps.RecordService.DeleteStudent(c.Context, id); err != nil {
						return err
					}
					color.Green("Deleted student %d", id)
					return nil
				}),
			},
		},
	}
}

func addStudent(c *cli.Context, s *session) error {
	req := &dto.CreateStudentRequest{
		StudentFields: dto.StudentFields{
			RollNumber:       c.String("roll"),
			BatchFrom:        c.String("batch-from"),
			BatchTo:          c.String("batch-to"),
			Name:             c.String("name"),
			Email:            c.String("email"),
			Department:       c.String("department"),
			Supervisor:       c.String("supervisor"),
			RegistrationDate: c.String("registration-date"),
			DateOfBirth:      c.String("dob"),
			Title:            c.String("title"),
			Publications:     c.String("publications"),
		},
		Picture:  sourceFlag(c, "picture"),
		Synopsis: synopsisFromFlags(c),
	}

	if c.IsSet("presentation-date") || c.IsSet("progress-notes") || c.IsSet("presentation-file") {
		req.Presentation = &dto.PresentationInput{
			PresentationDate: c.String("presentation-date"),
			ProgressNotes:    c.String("progress-notes"),
			File:             sourceFlag(c, "presentation-file"),
		}
	}

	certs, err := certificatesFromFlags(c)
	if err != nil {
		return err
	}
	req.Certificates = certs

	id, err := s.deps.RecordService.AddStudent(c.Context, req)
	if err != nil {
		return err
	}
	color.Green("Added student %d (%s)", id, req.Name)
	return nil
}

func updateStudent(c *cli.Context, s *session) error {
	id, err := argID(c, 0, "student")
	if err != nil {
		return err
	}

	req := &dto.UpdateStudentRequest{
		RollNumber:       optionalFlag(c, "roll"),
		BatchFrom:        optionalFlag(c, "batch-from"),
		BatchTo:          optionalFlag(c, "batch-to"),
		Name:             optionalFlag(c, "name"),
		Email:            optionalFlag(c, "email"),
		Department:       optionalFlag(c, "department"),
		Supervisor:       optionalFlag(c, "supervisor"),
		RegistrationDate: optionalFlag(c, "registration-date"),
		DateOfBirth:      optionalFlag(c, "dob"),
		Title:            optionalFlag(c, "title"),
		Publications:     optionalFlag(c, "publications"),
		Picture:          sourceFlag(c, "picture"),
		Synopsis:         synopsisFromFlags(c),
	}

	certs, err := certificatesFromFlags(c)
	if err != nil {
		return err
	}
	switch {
	case certs != nil:
		req.Certificates = certs
	case c.Bool("clear-certificates"):
		req.Certificates = []dto.CertificateInput{}
	}

	if req.IsEmpty() {
		return apperrors.NewValidationError("", "nothing to update, pass at least one field flag")
	}

	st, err := s.deps.RecordService.UpdateStudent(c.Context, id, req)
	if err != nil {
		return err
	}
	color.Green("Updated student %d (%s)", st.ID, st.Name)
	return nil
}

func synopsisFromFlags(c *cli.Context) *dto.SynopsisInput {
	if !c.IsSet("synopsis-title") && !c.IsSet("submission-date") && !c.IsSet("abstract") && !c.IsSet("synopsis-file") {
		return nil
	}
	return &dto.SynopsisInput{
		SynopsisTitle:  c.String("synopsis-title"),
		SubmissionDate: c.String("submission-date"),
		Abstract:       c.String("abstract"),
		File:           sourceFlag(c, "synopsis-file"),
	}
}

// certificatesFromFlags parses repeated --certificate TITLE=PATH values. It
// returns nil when the flag was not given.
func certificatesFromFlags(c *cli.Context) ([]dto.CertificateInput, error) {
	values := c.StringSlice("certificate")
	if len(values) == 0 {
		return nil, nil
	}
	out := make([]dto.CertificateInput, 0, len(values))
	for _, v := range values {
		title, path, ok := strings.Cut(v, "=")
		if !ok || strings.TrimSpace(title) == "" || strings.TrimSpace(path) == "" {
			return nil, apperrors.NewValidationError("certificate", "certificates are given as TITLE=PATH, got "+v)
		}
		out = append(out, dto.CertificateInput{
			CertificateTitle: strings.TrimSpace(title),
			File:             filestorage.FromPath(strings.TrimSpace(path)),
		})
	}
	return out, nil
}
