package main

import (
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/yigit/phdtrack/internal/app/models/dto"
)

func presentationsCommand() *cli.Command {
	return &cli.Command{
		Name:  "presentations",
		Usage: "manage progress presentations",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "record a presentation for a student",
				ArgsUsage: "STUDENT_ID",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "date", Usage: "DD-MM-YYYY", Required: true},
					&cli.StringFlag{Name: "notes", Usage: "progress notes", Required: true},
					&cli.StringFlag{Name: "file", Usage: "path of the slides"},
				},
				Action: withSession(func(c *cli.Context, s *session) error {
					studentID, err := argID(c, 0, "student")
					if err != nil {
						return err
					}
					p, err := s.deps.RecordService.AddPresentation(c.Context, studentID, &dto.PresentationInput{
						PresentationDate: c.String("date"),
						ProgressNotes:    c.String("notes"),
						File:             sourceFlag(c, "file"),
					})
					if err != nil {
						return err
					}
					color.Green("Added presentation %d", p.ID)
					return nil
				}),
			},
			{
				Name:      "list",
				ArgsUsage: "STUDENT_ID",
				Action: withSession(func(c *cli.Context, s *session) error {
					studentID, err := argID(c, 0, "student")
					if err != nil {
						return err
					}
					list, err := s.deps.RecordService.ListPresentations(c.Context, studentID)
					if err != nil {
						return err
					}
					printPresentations(s.deps.FileStorage, list)
					return nil
				}),
			},
			{
				Name:      "delete",
				ArgsUsage: "PRESENTATION_ID",
				Action: withSession(func(c *cli.Context, s *session) error {
					id, err := argID(c, 0, "presentation")
					if err != nil {
						return err
					}
					if err := s.deps.RecordService.DeletePresentation(c.Context, id); err != nil {
						return err
					}
					color.Green("Deleted presentation %d", id)
					return nil
				}),
			},
		},
	}
}

func synopsisCommand() *cli.Command {
	return &cli.Command{
		Name:  "synopsis",
		Usage: "manage the thesis synopsis",
		Subcommands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "create or replace a student's synopsis",
				ArgsUsage: "STUDENT_ID",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Required: true},
					&cli.StringFlag{Name: "submission-date", Usage: "DD-MM-YYYY", Required: true},
					&cli.StringFlag{Name: "abstract", Required: true},
					&cli.StringFlag{Name: "file", Usage: "path of the synopsis document"},
				},
				Action: withSession(func(c *cli.Context, s *session) error {
					studentID, err := argID(c, 0, "student")
					if err != nil {
						return err
					}
					syn, err := s.deps.RecordService.UpsertSynopsis(c.Context, studentID, &dto.SynopsisInput{
						SynopsisTitle:  c.String("title"),
						SubmissionDate: c.String("submission-date"),
						Abstract:       c.String("abstract"),
						File:           sourceFlag(c, "file"),
					})
					if err != nil {
						return err
					}
					color.Green("Saved synopsis %d", syn.ID)
					return nil
				}),
			},
			{
				Name:      "show",
				ArgsUsage: "STUDENT_ID",
				Action: withSession(func(c *cli.Context, s *session) error {
					studentID, err := argID(c, 0, "student")
					if err != nil {
						return err
					}
					syn, err := s.deps.RecordService.GetSynopsis(c.Context, studentID)
					if err != nil {
						return err
					}
					printSynopsis(s.deps.FileStorage, syn)
					return nil
				}),
			},
		},
	}
}

func certificatesCommand() *cli.Command {
	return &cli.Command{
		Name:  "certificates",
		Usage: "manage certificates",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				ArgsUsage: "STUDENT_ID",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Required: true},
					&cli.StringFlag{Name: "file", Usage: "path of the certificate", Required: true},
				},
				Action: withSession(func(c *cli.Context, s *session) error {
					studentID, err := argID(c, 0, "student")
					if err != nil {
						return err
					}
					cert, err := s.deps.RecordService.AddCertificate(c.Context, studentID, &dto.CertificateInput{
						CertificateTitle: c.String("title"),
						File:             sourceFlag(c, "file"),
					})
					if err != nil {
						return err
					}
					color.Green("Added certificate %d at %s", cert.ID, cert.CertificatePath)
					return nil
				}),
			},
			{
				Name:      "list",
				ArgsUsage: "STUDENT_ID",
				Action: withSession(func(c *cli.Context, s *session) error {
					studentID, err := argID(c, 0, "student")
					if err != nil {
						return err
					}
					list, err := s.deps.RecordService.ListCertificates(c.Context, studentID)
					if err != nil {
						return err
					}
					printCertificates(s.deps.FileStorage, list)
					return nil
				}),
			},
			{
				Name:      "delete",
				ArgsUsage: "CERTIFICATE_ID",
				Action: withSession(func(c *cli.Context, s *session) error {
					id, err := argID(c, 0, "certificate")
					if err != nil {
						return err
					}
					if err := s.deps.RecordService.DeleteCertificate(c.Context, id); err != nil {
						return err
					}
					color.Green("Deleted certificate %d", id)
					return nil
				}),
			},
		},
	}
}
