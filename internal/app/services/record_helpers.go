package services

import (
	"fmt"
	"strings"

	"github.com/yigit/phdtrack/internal/app/models"
	"github.com/yigit/phdtrack/internal/app/models/dto"
	"github.com/yigit/phdtrack/internal/pkg/apperrors"
	"github.com/yigit/phdtrack/internal/pkg/filestorage"
	"github.com/yigit/phdtrack/internal/pkg/helpers"
	"github.com/yigit/phdtrack/internal/pkg/logger"
	"github.com/yigit/phdtrack/internal/pkg/validation"
)

func normalizeCreate(req *dto.CreateStudentRequest) {
	validation.TrimStrings(req)
	if req.Presentation != nil {
		validation.TrimStrings(req.Presentation)
	}
	if req.Synopsis != nil {
		validation.TrimStrings(req.Synopsis)
	}
	for i := range req.Certificates {
		validation.TrimStrings(&req.Certificates[i])
	}
}

func normalizeUpdate(req *dto.UpdateStudentRequest) {
	validation.TrimStrings(req)
	if req.Synopsis != nil {
		validation.TrimStrings(req.Synopsis)
	}
	for i := range req.Certificates {
		validation.TrimStrings(&req.Certificates[i])
	}
}

// parseDate converts a validated display date, reporting field on failure.
func parseDate(field, value string) (string, error) {
	stored, err := helpers.ParseDisplayDate(value)
	if err != nil {
		return "", apperrors.NewValidationError(field, field+": invalid date format, use DD-MM-YYYY")
	}
	return stored, nil
}

// studentFromFields builds the stored form of validated fields.
func studentFromFields(f *dto.StudentFields) (*models.Student, error) {
	regDate, err := parseDate("registration date", f.RegistrationDate)
	if err != nil {
		return nil, err
	}
	var dob *string
	if f.DateOfBirth != "" {
		stored, err := parseDate("date of birth", f.DateOfBirth)
		if err != nil {
			return nil, err
		}
		dob = &stored
	}
	return &models.Student{
		RollNumber:       f.RollNumber,
		BatchFrom:        helpers.OptionalString(f.BatchFrom),
		BatchTo:          helpers.OptionalString(f.BatchTo),
		Name:             f.Name,
		Email:            f.Email,
		Department:       f.Department,
		Supervisor:       f.Supervisor,
		RegistrationDate: regDate,
		DateOfBirth:      dob,
		Title:            f.Title,
		Publications:     f.Publications,
	}, nil
}

// fieldsFromStudent is the inverse of studentFromFields, with display dates.
func fieldsFromStudent(s *models.Student) dto.StudentFields {
	return dto.StudentFields{
		RollNumber:       s.RollNumber,
		BatchFrom:        helpers.Deref(s.BatchFrom),
		BatchTo:          helpers.Deref(s.BatchTo),
		Name:             s.Name,
		Email:            s.Email,
		Department:       s.Department,
		Supervisor:       s.Supervisor,
		RegistrationDate: helpers.FormatDisplayDate(s.RegistrationDate),
		DateOfBirth:      helpers.FormatOptionalDisplayDate(s.DateOfBirth),
		Title:            s.Title,
		Publications:     s.Publications,
	}
}

func presentationFromInput(in *dto.PresentationInput) (*models.Presentation, error) {
	date, err := parseDate("presentation date", in.PresentationDate)
	if err != nil {
		return nil, err
	}
	return &models.Presentation{PresentationDate: date, ProgressNotes: in.ProgressNotes}, nil
}

func synopsisFromInput(in *dto.SynopsisInput) (*models.Synopsis, error) {
	date, err := parseDate("submission date", in.SubmissionDate)
	if err != nil {
		return nil, err
	}
	return &models.Synopsis{SynopsisTitle: in.SynopsisTitle, SubmissionDate: date, Abstract: in.Abstract}, nil
}

// checkDistinctCertificateTitles rejects two certificates whose titles would
// be stored under the same file name.
func checkDistinctCertificateTitles(certs []dto.CertificateInput) error {
	titles := make([]string, len(certs))
	for i, c := range certs {
		titles[i] = c.CertificateTitle
	}
	return distinctTitles(titles)
}

func distinctTitles(titles []string) error {
	seen := make(map[string]string, len(titles))
	for _, title := range titles {
		key := strings.ToLower(filestorage.SanitizeDiscriminator(title))
		if first, dup := seen[key]; dup {
			return apperrors.NewValidationError("certificateTitle",
				fmt.Sprintf("certificate titles %q and %q would share one file, use distinct titles", first, title))
		}
		seen[key] = title
	}
	return nil
}

// placement remembers the files placed during one unit of work. A placement
// over an existing file keeps the previous content aside until the work either
// commits (the backup is dropped) or rolls back (the backup is restored).
type placement struct {
	files filestorage.FileStorage
	done  []placed
}

type placed struct {
	path   string
	backup string
}

func newPlacement(files filestorage.FileStorage) *placement {
	return &placement{files: files}
}

func (p *placement) place(category filestorage.Category, studentID int64, discriminator string, src *filestorage.Source) (string, error) {
	path, backup, err := p.files.PlaceWithBackup(category, studentID, discriminator, src)
	if err != nil {
		return "", err
	}
	p.done = append(p.done, placed{path: path, backup: backup})
	return path, nil
}

// placeOptional is place for attachments that may be absent.
func (p *placement) placeOptional(category filestorage.Category, studentID int64, discriminator string, src *filestorage.Source) (*string, error) {
	if src == nil {
		return nil, nil
	}
	path, err := p.place(category, studentID, discriminator, src)
	if err != nil {
		return nil, err
	}
	return &path, nil
}

// discard undoes every placement, newest first, so the disk is left as it was
// before the unit of work started.
func (p *placement) discard() {
	for i := len(p.done) - 1; i >= 0; i-- {
		d := p.done[i]
		if err := p.files.Remove(d.path); err != nil {
			logger.Warn().Err(err).Str("path", d.path).Msg("Could not remove attachment of failed operation")
		}
		if d.backup == "" {
			continue
		}
		if err := p.files.Restore(d.backup, d.path); err != nil {
			logger.Error().Err(err).Str("path", d.path).Str("backup", d.backup).Msg("Could not restore attachment of failed operation")
		}
	}
	p.done = nil
}

// commit drops the backups of a unit of work that was committed.
func (p *placement) commit() {
	for _, d := range p.done {
		if d.backup == "" {
			continue
		}
		if err := p.files.Remove(d.backup); err != nil {
			logger.Warn().Err(err).Str("path", d.backup).Msg("Could not remove attachment backup")
		}
	}
	p.done = nil
}
