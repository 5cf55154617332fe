package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/phdtrack/internal/app/models"
	"github.com/yigit/phdtrack/internal/db"
	"github.com/yigit/phdtrack/internal/pkg/apperrors"
	"github.com/yigit/phdtrack/internal/pkg/dberrors"
	"github.com/yigit/phdtrack/internal/pkg/helpers"
	"github.com/yigit/phdtrack/internal/pkg/logger"
)

var synopsisColumns = []string{"id", "student_id", "synopsis_title", "submission_date", "abstract", "synopsis_file"}

// SynopsisRepository handles the at-most-one synopsis row per student.
type SynopsisRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewSynopsisRepository creates a new SynopsisRepository
func NewSynopsisRepository(q db.Querier, dialect db.Dialect) *SynopsisRepository {
	return &SynopsisRepository{db: q, sb: dialect.Builder()}
}

func scanSynopsis(row rowScanner) (*models.Synopsis, error) {
	var (
		s    models.Synopsis
		file sql.NullString
	)
	if err := row.Scan(&s.ID, &s.StudentID, &s.SynopsisTitle, &s.SubmissionDate, &s.Abstract, &file); err != nil {
		return nil, err
	}
	s.SynopsisFile = helpers.StringPtr(file)
	return &s, nil
}

// GetByStudent returns the student's synopsis or ErrSynopsisNotFound.
// Should a legacy store hold several rows, the lowest id wins.
func (r *SynopsisRepository) GetByStudent(ctx context.Context, studentID int64) (*models.Synopsis, error) {
	query, args, err := r.sb.Select(synopsisColumns...).
		From("synopsis").
		Where(squirrel.Eq{"student_id": studentID}).
		OrderBy("id").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	s, err := scanSynopsis(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(apperrors.ErrSynopsisNotFound, "synopsis of student %d", studentID)
		}
		logger.Error().Err(err).Int64("studentID", studentID).Msg("Error getting synopsis")
		return nil, apperrors.NewStorageError("get synopsis", err)
	}
	return s, nil
}

// Upsert writes s as the student's synopsis. An existing row is updated in
// place and keeps its id; otherwise a new row is inserted.
func (r *SynopsisRepository) Upsert(ctx context.Context, s *models.Synopsis) (int64, error) {
	existing, err := r.GetByStudent(ctx, s.StudentID)
	switch {
	case err == nil:
		s.ID = existing.ID
		return s.ID, r.update(ctx, s)
	case !errors.Is(err, apperrors.ErrSynopsisNotFound):
		return 0, err
	}

	query, args, err := r.sb.Insert("synopsis").
		Columns(synopsisColumns[1:]...).
		Values(s.StudentID, s.SynopsisTitle, s.SubmissionDate, s.Abstract, helpers.GetNullString(s.SynopsisFile)).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, err
	}
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&s.ID); err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return 0, apperrors.NewNotFoundError(apperrors.ErrStudentNotFound, "student %d", s.StudentID)
		}
		logger.Error().Err(err).Int64("studentID", s.StudentID).Msg("Error inserting synopsis")
		return 0, apperrors.NewStorageError("create synopsis", err)
	}
	return s.ID, nil
}

func (r *SynopsisRepository) update(ctx context.Context, s *models.Synopsis) error {
	query, args, err := r.sb.Update("synopsis").
		Set("synopsis_title", s.SynopsisTitle).
		Set("submission_date", s.SubmissionDate).
		Set("abstract", s.Abstract).
		Set("synopsis_file", helpers.GetNullString(s.SynopsisFile)).
		Where(squirrel.Eq{"id": s.ID}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		logger.Error().Err(err).Int64("synopsisID", s.ID).Msg("Error updating synopsis")
		return apperrors.NewStorageError("update synopsis", err)
	}
	return nil
}

// DeleteByStudent removes the student's synopsis, if any.
func (r *SynopsisRepository) DeleteByStudent(ctx context.Context, studentID int64) error {
	query, args, err := r.sb.Delete("synopsis").Where(squirrel.Eq{"student_id": studentID}).ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		logger.Error().Err(err).Int64("studentID", studentID).Msg("Error deleting synopsis")
		return apperrors.NewStorageError("delete synopsis", err)
	}
	return nil
}
