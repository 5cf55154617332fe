package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/yigit/phdtrack/internal/app/models"
	"github.com/yigit/phdtrack/internal/app/models/dto"
	"github.com/yigit/phdtrack/internal/app/repositories"
	"github.com/yigit/phdtrack/internal/db"
	"github.com/yigit/phdtrack/internal/pkg/apperrors"
	"github.com/yigit/phdtrack/internal/pkg/filestorage"
	"github.com/yigit/phdtrack/internal/pkg/helpers"
	"github.com/yigit/phdtrack/internal/pkg/keylock"
	"github.com/yigit/phdtrack/internal/pkg/logger"
	"github.com/yigit/phdtrack/internal/pkg/validation"
)

// RecordService defines the operations on student records and their attachments
type RecordService interface {
	AddStudent(ctx context.Context, req *dto.CreateStudentRequest) (int64, error)
	GetStudent(ctx context.Context, id int64) (*models.Student, error)
	ListStudents(ctx context.Context, params repositories.StudentListParams) ([]*models.Student, int64, error)
	SearchStudents(ctx context.Context, term string) ([]*models.Student, error)
	UpdateStudent(ctx context.Context, id int64, req *dto.UpdateStudentRequest) (*models.Student, error)
	ApplyExtension(ctx context.Context, id int64, years int) (*models.Student, error)
	DeleteStudent(ctx context.Context, id int64) error
	GetStudentRecord(ctx context.Context, id int64) (*models.StudentRecord, error)

	AddPresentation(ctx context.Context, studentID int64, in *dto.PresentationInput) (*models.Presentation, error)
	GetPresentation(ctx context.Context, id int64) (*models.Presentation, error)
	ListPresentations(ctx context.Context, studentID int64) ([]*models.Presentation, error)
	DeletePresentation(ctx context.Context, id int64) error

	UpsertSynopsis(ctx context.Context, studentID int64, in *dto.SynopsisInput) (*models.Synopsis, error)
	GetSynopsis(ctx context.Context, studentID int64) (*models.Synopsis, error)

	AddCertificate(ctx context.Context, studentID int64, in *dto.CertificateInput) (*models.Certificate, error)
	GetCertificate(ctx context.Context, id int64) (*models.Certificate, error)
	ListCertificates(ctx context.Context, studentID int64) ([]*models.Certificate, error)
	DeleteCertificate(ctx context.Context, id int64) error

	ExportStudentsCSV(ctx context.Context, w io.Writer) (int, error)
}

// recordServiceImpl implements RecordService
type recordServiceImpl struct {
	database        *db.Database
	repos           *repositories.Repositories
	files           filestorage.FileStorage
	locks           *keylock.KeyedMutex
	releaseReplaced bool
}

// NewRecordService creates a new RecordService. With releaseReplaced set,
// attachment files an update replaces are removed once nothing references them.
func NewRecordService(
	database *db.Database,
	repos *repositories.Repositories,
	files filestorage.FileStorage,
	releaseReplaced bool,
) RecordService {
	return &recordServiceImpl{
		database:        database,
		repos:           repos,
		files:           files,
		locks:           keylock.New(),
		releaseReplaced: releaseReplaced,
	}
}

// AddStudent inserts a student with its optional picture, first presentation,
// synopsis and certificates in one unit of work.
func (s *recordServiceImpl) AddStudent(ctx context.Context, req *dto.CreateStudentRequest) (int64, error) {
	if req == nil {
		return 0, apperrors.NewValidationError("", "student data is required")
	}
	normalizeCreate(req)
	if err := validation.Struct(req); err != nil {
		return 0, err
	}
	if err := checkDistinctCertificateTitles(req.Certificates); err != nil {
		return 0, err
	}

	student, err := studentFromFields(&req.StudentFields)
	if err != nil {
		return 0, err
	}
	student.OriginalBatchTo = student.BatchTo

	var presentation *models.Presentation
	if req.Presentation != nil {
		if presentation, err = presentationFromInput(req.Presentation); err != nil {
			return 0, err
		}
	}
	var synopsis *models.Synopsis
	if req.Synopsis != nil {
		if synopsis, err = synopsisFromInput(req.Synopsis); err != nil {
			return 0, err
		}
	}

	placed := newPlacement(s.files)
	var id int64
	err = s.database.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		repos := s.repos.WithTx(tx)

		var err error
		if id, err = repos.Students.Create(ctx, student); err != nil {
			return err
		}

		if req.Picture != nil {
			path, err := placed.place(filestorage.CategoryPictures, id, student.RollNumber, req.Picture)
			if err != nil {
				return err
			}
			if err := repos.Students.SetPicturePath(ctx, id, &path); err != nil {
				return err
			}
			student.PicturePath = &path
		}

		if presentation != nil {
			presentation.StudentID = id
			if presentation.PresentationFile, err = placed.placeOptional(filestorage.CategoryPresentations, id,
				helpers.CompactDate(presentation.PresentationDate), req.Presentation.File); err != nil {
				return err
			}
			if _, err := repos.Presentations.Create(ctx, presentation); err != nil {
				return err
			}
		}

		if synopsis != nil {
			synopsis.StudentID = id
			if synopsis.SynopsisFile, err = placed.placeOptional(filestorage.CategorySynopsis, id,
				helpers.CompactDate(synopsis.SubmissionDate), req.Synopsis.File); err != nil {
				return err
			}
			if _, err := repos.Synopses.Upsert(ctx, synopsis); err != nil {
				return err
			}
		}

		for i := range req.Certificates {
			if _, err := s.createCertificate(ctx, repos, placed, id, &req.Certificates[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		placed.discard()
		return 0, err
	}
	placed.commit()

	logger.Info().Int64("studentID", id).Str("rollNumber", student.RollNumber).Msg("Student added")
	return id, nil
}

// GetStudent retrieves a student by ID
func (s *recordServiceImpl) GetStudent(ctx context.Context, id int64) (*models.Student, error) {
	return s.repos.Students.GetByID(ctx, id)
}

// ListStudents returns a page of students ordered by id with the total count
func (s *recordServiceImpl) ListStudents(ctx context.Context, params repositories.StudentListParams) ([]*models.Student, int64, error) {
	params.Search = strings.TrimSpace(params.Search)
	students, err := s.repos.Students.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repos.Students.Count(ctx, params.Search)
	if err != nil {
		return nil, 0, err
	}
	return students, total, nil
}

// SearchStudents matches term against name and roll number, ignoring case.
func (s *recordServiceImpl) SearchStudents(ctx context.Context, term string) ([]*models.Student, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, apperrors.NewValidationError("q", "search term is required")
	}
	return s.repos.Students.List(ctx, repositories.StudentListParams{Search: term})
}

// UpdateStudent merges req into the stored student and validates the result.
// original_batch_to is never changed here.
func (s *recordServiceImpl) UpdateStudent(ctx context.Context, id int64, req *dto.UpdateStudentRequest) (*models.Student, error) {
	if req == nil {
		return nil, apperrors.NewValidationError("", "update data is required")
	}
	normalizeUpdate(req)
	if req.Synopsis != nil {
		if err := validation.Struct(req.Synopsis); err != nil {
			return nil, err
		}
	}
	for i := range req.Certificates {
		if err := validation.Struct(&req.Certificates[i]); err != nil {
			return nil, err
		}
	}
	if err := checkDistinctCertificateTitles(req.Certificates); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	placed := newPlacement(s.files)
	var (
		updated  *models.Student
		replaced []string
	)
	err := s.database.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		repos := s.repos.WithTx(tx)

		current, err := repos.Students.GetByID(ctx, id)
		if err != nil {
			return err
		}
		fields := fieldsFromStudent(current)
		req.ApplyTo(&fields)
		if err := validation.Struct(&fields); err != nil {
			return err
		}
		next, err := studentFromFields(&fields)
		if err != nil {
			return err
		}
		next.ID = id
		next.OriginalBatchTo = current.OriginalBatchTo
		next.PicturePath = current.PicturePath
		if err := checkBatchNotShortened(next); err != nil {
			return err
		}

		if req.Picture != nil {
			path, err := placed.place(filestorage.CategoryPictures, id, next.RollNumber, req.Picture)
			if err != nil {
				return err
			}
			if current.PicturePath != nil {
				replaced = append(replaced, *current.PicturePath)
			}
			next.PicturePath = &path
		}
		if err := repos.Students.Update(ctx, next); err != nil {
			return err
		}

		if req.Synopsis != nil {
			_, old, err := s.upsertSynopsis(ctx, repos, placed, id, req.Synopsis)
			if err != nil {
				return err
			}
			replaced = append(replaced, old...)
		}

		if req.Certificates != nil {
			old, err := repos.Certificates.ListByStudent(ctx, id)
			if err != nil {
				return err
			}
			if err := repos.Certificates.DeleteByStudent(ctx, id); err != nil {
				return err
			}
			for _, c := range old {
				replaced = append(replaced, c.CertificatePath)
			}
			for i := range req.Certificates {
				if _, err := s.createCertificate(ctx, repos, placed, id, &req.Certificates[i]); err != nil {
					return err
				}
			}
		}

		updated = next
		return nil
	})
	if err != nil {
		placed.discard()
		return nil, err
	}
	placed.commit()

	if s.releaseReplaced {
		s.releaseUnreferenced(ctx, id, replaced)
	}
	logger.Info().Int64("studentID", id).Msg("Student updated")
	return updated, nil
}

// ApplyExtension adds years to batch_to. original_batch_to keeps the
// pre-extension value, so the extension shows up at read time.
func (s *recordServiceImpl) ApplyExtension(ctx context.Context, id int64, years int) (*models.Student, error) {
	if years < 0 {
		return nil, apperrors.NewValidationError("years", "extension years cannot be negative")
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	var updated *models.Student
	err := s.database.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		repos := s.repos.WithTx(tx)
		current, err := repos.Students.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current.BatchTo == nil || !validation.IsYear(*current.BatchTo) {
			return apperrors.NewValidationError("batchTo", "batch to must be a year before an extension can be applied")
		}
		to, _ := strconv.Atoi(strings.TrimSpace(*current.BatchTo))
		next := strconv.Itoa(to + years)
		if err := repos.Students.SetBatchTo(ctx, id, next); err != nil {
			return err
		}
		current.BatchTo = &next
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info().Int64("studentID", id).Int("years", years).Msg("Batch extension applied")
	return updated, nil
}

// DeleteStudent removes the student and its dependents in one transaction and
// then removes their files. File failures are logged, never returned.
func (s *recordServiceImpl) DeleteStudent(ctx context.Context, id int64) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	var paths []string
	err := s.database.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		repos := s.repos.WithTx(tx)
		record, err := loadRecord(ctx, repos, id)
		if err != nil {
			return err
		}
		paths = record.AttachmentPaths()

		if err := repos.Presentations.DeleteByStudent(ctx, id); err != nil {
			return err
		}
		if err := repos.Synopses.DeleteByStudent(ctx, id); err != nil {
			return err
		}
		if err := repos.Certificates.DeleteByStudent(ctx, id); err != nil {
			return err
		}
		return repos.Students.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	for _, p := range paths {
		s.removeFile(p, id)
	}
	logger.Info().Int64("studentID", id).Int("files", len(paths)).Msg("Student deleted")
	return nil
}

// GetStudentRecord returns the student together with everything it owns.
func (s *recordServiceImpl) GetStudentRecord(ctx context.Context, id int64) (*models.StudentRecord, error) {
	return loadRecord(ctx, s.repos, id)
}

func loadRecord(ctx context.Context, repos *repositories.Repositories, id int64) (*models.StudentRecord, error) {
	student, err := repos.Students.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	record := &models.StudentRecord{Student: student}

	if record.Presentations, err = repos.Presentations.ListByStudent(ctx, id); err != nil {
		return nil, err
	}
	synopsis, err := repos.Synopses.GetByStudent(ctx, id)
	switch {
	case err == nil:
		record.Synopsis = synopsis
	case !errors.Is(err, apperrors.ErrSynopsisNotFound):
		return nil, err
	}
	if record.Certificates, err = repos.Certificates.ListByStudent(ctx, id); err != nil {
		return nil, err
	}
	return record, nil
}

// releaseUnreferenced removes the candidate files the student's record no
// longer points at.
func (s *recordServiceImpl) releaseUnreferenced(ctx context.Context, studentID int64, candidates []string) {
	if len(candidates) == 0 {
		return
	}
	keep := map[string]bool{}
	if record, err := loadRecord(ctx, s.repos, studentID); err == nil {
		for _, p := range record.AttachmentPaths() {
			keep[p] = true
		}
	} else if !errors.Is(err, apperrors.ErrStudentNotFound) {
		logger.Warn().Err(err).Int64("studentID", studentID).Msg("Could not reload record, keeping replaced files")
		return
	}
	for _, p := range candidates {
		if p != "" && !keep[p] {
			s.removeFile(p, studentID)
			keep[p] = true
		}
	}
}

func (s *recordServiceImpl) removeFile(path string, studentID int64) {
	if err := s.files.Remove(path); err != nil {
		logger.Warn().Err(err).Int64("studentID", studentID).Str("path", path).Msg("Could not remove attachment file")
	}
}

// checkBatchNotShortened keeps batch_to at or after original_batch_to when
// both are numeric.
func checkBatchNotShortened(st *models.Student) error {
	if years, ok := st.ExtensionYears(); ok && years < 0 {
		return apperrors.NewValidationError("batchTo",
			"batch to cannot be earlier than the original batch to ("+*st.OriginalBatchTo+")")
	}
	return nil
}
