package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/yigit/phdtrack/internal/app/models"
	"github.com/yigit/phdtrack/internal/app/models/dto"
	"github.com/yigit/phdtrack/internal/app/repositories"
	"github.com/yigit/phdtrack/internal/pkg/apperrors"
	"github.com/yigit/phdtrack/internal/pkg/filestorage"
	"github.com/yigit/phdtrack/internal/pkg/helpers"
	"github.com/yigit/phdtrack/internal/pkg/logger"
	"github.com/yigit/phdtrack/internal/pkg/validation"
)

// requireStudent fails with ErrStudentNotFound before any file is placed.
func requireStudent(ctx context.Context, repos *repositories.Repositories, id int64) error {
	ok, err := repos.Students.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewNotFoundError(apperrors.ErrStudentNotFound, "student %d", id)
	}
	return nil
}

// AddPresentation records a progress presentation. Date and notes are both required.
func (s *recordServiceImpl) AddPresentation(ctx context.Context, studentID int64, in *dto.PresentationInput) (*models.Presentation, error) {
	if in == nil {
		return nil, apperrors.NewValidationError("presentation", "presentation data is required")
	}
	validation.TrimStrings(in)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	p, err := presentationFromInput(in)
	if err != nil {
		return nil, err
	}
	p.StudentID = studentID

	unlock := s.locks.Lock(studentID)
	defer unlock()

	placed := newPlacement(s.files)
	err = s.database.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		repos := s.repos.WithTx(tx)
		if err := requireStudent(ctx, repos, studentID); err != nil {
			return err
		}
		var err error
		if p.PresentationFile, err = placed.placeOptional(filestorage.CategoryPresentations, studentID,
			helpers.CompactDate(p.PresentationDate), in.File); err != nil {
			return err
		}
		_, err = repos.Presentations.Create(ctx, p)
		return err
	})
	if err != nil {
		placed.discard()
		return nil, err
	}
	placed.commit()
	return p, nil
}

// GetPresentation retrieves a presentation by ID
func (s *recordServiceImpl) GetPresentation(ctx context.Context, id int64) (*models.Presentation, error) {
	return s.repos.Presentations.GetByID(ctx, id)
}

// ListPresentations returns the student's presentations; empty for unknown students.
func (s *recordServiceImpl) ListPresentations(ctx context.Context, studentID int64) ([]*models.Presentation, error) {
	return s.repos.Presentations.ListByStudent(ctx, studentID)
}

// DeletePresentation removes one presentation and then its file.
func (s *recordServiceImpl) DeletePresentation(ctx context.Context, id int64) error {
	p, err := s.repos.Presentations.GetByID(ctx, id)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(p.StudentID)
	defer unlock()

	if err := s.repos.Presentations.Delete(ctx, id); err != nil {
		return err
	}
	if p.PresentationFile != nil {
		s.releaseUnreferenced(ctx, p.StudentID, []string{*p.PresentationFile})
	}
	return nil
}

// UpsertSynopsis replaces the student's synopsis, keeping its id, or creates it.
// Without a new file the stored one is kept.
func (s *recordServiceImpl) UpsertSynopsis(ctx context.Context, studentID int64, in *dto.SynopsisInput) (*models.Synopsis, error) {
	if in == nil {
		return nil, apperrors.NewValidationError("synopsis", "synopsis data is required")
	}
	validation.TrimStrings(in)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(studentID)
	defer unlock()

	placed := newPlacement(s.files)
	var (
		synopsis *models.Synopsis
		replaced []string
	)
	err := s.database.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		repos := s.repos.WithTx(tx)
		if err := requireStudent(ctx, repos, studentID); err != nil {
			return err
		}
		var err error
		synopsis, replaced, err = s.upsertSynopsis(ctx, repos, placed, studentID, in)
		return err
	})
	if err != nil {
		placed.discard()
		return nil, err
	}
	placed.commit()
	if s.releaseReplaced {
		s.releaseUnreferenced(ctx, studentID, replaced)
	}
	return synopsis, nil
}

// upsertSynopsis writes in through repos and returns the file paths it replaced.
func (s *recordServiceImpl) upsertSynopsis(ctx context.Context, repos *repositories.Repositories, placed *placement,
	studentID int64, in *dto.SynopsisInput) (*models.Synopsis, []string, error) {
	synopsis, err := synopsisFromInput(in)
	if err != nil {
		return nil, nil, err
	}
	synopsis.StudentID = studentID

	existing, err := repos.Synopses.GetByStudent(ctx, studentID)
	if err != nil && !errors.Is(err, apperrors.ErrSynopsisNotFound) {
		return nil, nil, err
	}

	var replaced []string
	switch {
	case in.File != nil:
		path, err := placed.place(filestorage.CategorySynopsis, studentID, helpers.CompactDate(synopsis.SubmissionDate), in.File)
		if err != nil {
			return nil, nil, err
		}
		synopsis.SynopsisFile = &path
		if existing != nil && existing.SynopsisFile != nil {
			replaced = append(replaced, *existing.SynopsisFile)
		}
	case existing != nil:
		synopsis.SynopsisFile = existing.SynopsisFile
	}

	if _, err := repos.Synopses.Upsert(ctx, synopsis); err != nil {
		return nil, nil, err
	}
	return synopsis, replaced, nil
}

// GetSynopsis returns the student's synopsis or ErrSynopsisNotFound
func (s *recordServiceImpl) GetSynopsis(ctx context.Context, studentID int64) (*models.Synopsis, error) {
	return s.repos.Synopses.GetByStudent(ctx, studentID)
}

// AddCertificate attaches a certificate. Title and file are required.
func (s *recordServiceImpl) AddCertificate(ctx context.Context, studentID int64, in *dto.CertificateInput) (*models.Certificate, error) {
	if in == nil {
		return nil, apperrors.NewValidationError("certificate", "certificate data is required")
	}
	validation.TrimStrings(in)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(studentID)
	defer unlock()

	placed := newPlacement(s.files)
	var cert *models.Certificate
	err := s.database.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		repos := s.repos.WithTx(tx)
		if err := requireStudent(ctx, repos, studentID); err != nil {
			return err
		}
		existing, err := repos.Certificates.ListByStudent(ctx, studentID)
		if err != nil {
			return err
		}
		titles := []string{in.CertificateTitle}
		for _, c := range existing {
			titles = append(titles, c.CertificateTitle)
		}
		if err := distinctTitles(titles); err != nil {
			return err
		}
		cert, err = s.createCertificate(ctx, repos, placed, studentID, in)
		return err
	})
	if err != nil {
		placed.discard()
		return nil, err
	}
	placed.commit()
	return cert, nil
}

func (s *recordServiceImpl) createCertificate(ctx context.Context, repos *repositories.Repositories, placed *placement,
	studentID int64, in *dto.CertificateInput) (*models.Certificate, error) {
	path, err := placed.place(filestorage.CategoryCertificates, studentID, in.CertificateTitle, in.File)
	if err != nil {
		return nil, err
	}
	cert := &models.Certificate{StudentID: studentID, CertificateTitle: in.CertificateTitle, CertificatePath: path}
	if _, err := repos.Certificates.Create(ctx, cert); err != nil {
		return nil, err
	}
	return cert, nil
}

// GetCertificate retrieves a certificate by ID
func (s *recordServiceImpl) GetCertificate(ctx context.Context, id int64) (*models.Certificate, error) {
	return s.repos.Certificates.GetByID(ctx, id)
}

// ListCertificates returns the student's certificates; empty for unknown students.
func (s *recordServiceImpl) ListCertificates(ctx context.Context, studentID int64) ([]*models.Certificate, error) {
	return s.repos.Certificates.ListByStudent(ctx, studentID)
}

// DeleteCertificate removes one certificate and then its file.
func (s *recordServiceImpl) DeleteCertificate(ctx context.Context, id int64) error {
	cert, err := s.repos.Certificates.GetByID(ctx, id)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(cert.StudentID)
	defer unlock()

	if err := s.repos.Certificates.Delete(ctx, id); err != nil {
		return err
	}
	s.releaseUnreferenced(ctx, cert.StudentID, []string{cert.CertificatePath})
	logger.Info().Int64("certificateID", id).Int64("studentID", cert.StudentID).Msg("Certificate deleted")
	return nil
}
