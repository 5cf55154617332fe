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

var presentationColumns = []string{"id", "student_id", "presentation_date", "progress_notes", "presentation_file"}

// PresentationRepository handles database operations for presentations
type PresentationRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewPresentationRepository creates a new PresentationRepository
func NewPresentationRepository(q db.Querier, dialect db.Dialect) *PresentationRepository {
	return &PresentationRepository{db: q, sb: dialect.Builder()}
}

func scanPresentation(row rowScanner) (*models.Presentation, error) {
	var (
		p    models.Presentation
		file sql.NullString
	)
	if err := row.Scan(&p.ID, &p.StudentID, &p.PresentationDate, &p.ProgressNotes, &file); err != nil {
		return nil, err
	}
	p.PresentationFile = helpers.StringPtr(file)
	return &p, nil
}

// Create inserts a presentation and sets its ID.
func (r *PresentationRepository) Create(ctx context.Context, p *models.Presentation) (int64, error) {
	query, args, err := r.sb.Insert("presentations").
		Columns(presentationColumns[1:]...).
		Values(p.StudentID, p.PresentationDate, p.ProgressNotes, helpers.GetNullString(p.PresentationFile)).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create presentation SQL")
		return 0, err
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&p.ID); err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return 0, apperrors.NewNotFoundError(apperrors.ErrStudentNotFound, "student %d", p.StudentID)
		}
		logger.Error().Err(err).Int64("studentID", p.StudentID).Msg("Error executing create presentation query")
		return 0, apperrors.NewStorageError("create presentation", err)
	}
	return p.ID, nil
}

// GetByID retrieves a presentation by its ID
func (r *PresentationRepository) GetByID(ctx context.Context, id int64) (*models.Presentation, error) {
	query, args, err := r.sb.Select(presentationColumns...).
		From("presentations").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	p, err := scanPresentation(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(apperrors.ErrPresentationNotFound, "presentation %d", id)
		}
		logger.Error().Err(err).Int64("presentationID", id).Msg("Error getting presentation by ID")
		return nil, apperrors.NewStorageError("get presentation", err)
	}
	return p, nil
}

// ListByStudent returns the student's presentations ordered by id.
func (r *PresentationRepository) ListByStudent(ctx context.Context, studentID int64) ([]*models.Presentation, error) {
	query, args, err := r.sb.Select(presentationColumns...).
		From("presentations").
		Where(squirrel.Eq{"student_id": studentID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Error().Err(err).Int64("studentID", studentID).Msg("Error listing presentations")
		return nil, apperrors.NewStorageError("list presentations", err)
	}
	defer rows.Close()

	list := make([]*models.Presentation, 0)
	for rows.Next() {
		p, err := scanPresentation(rows)
		if err != nil {
			return nil, apperrors.NewStorageError("scan presentation", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("iterate presentations", err)
	}
	return list, nil
}

// Delete removes one presentation.
func (r *PresentationRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := r.sb.Delete("presentations").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		logger.Error().Err(err).Int64("presentationID", id).Msg("Error deleting presentation")
		return apperrors.NewStorageError("delete presentation", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NewNotFoundError(apperrors.ErrPresentationNotFound, "presentation %d", id)
	}
	return nil
}

// DeleteByStudent removes every presentation of a student.
func (r *PresentationRepository) DeleteByStudent(ctx context.Context, studentID int64) error {
	query, args, err := r.sb.Delete("presentations").Where(squirrel.Eq{"student_id": studentID}).ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		logger.Error().Err(err).Int64("studentID", studentID).Msg("Error deleting presentations of student")
		return apperrors.NewStorageError("delete presentations", err)
	}
	return nil
}
