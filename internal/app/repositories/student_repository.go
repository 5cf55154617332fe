package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/phdtrack/internal/app/models"
	"github.com/yigit/phdtrack/internal/db"
	"github.com/yigit/phdtrack/internal/pkg/apperrors"
	"github.com/yigit/phdtrack/internal/pkg/helpers"
	"github.com/yigit/phdtrack/internal/pkg/logger"
)

// studentColumns is the column order of the students table as exported.
var studentColumns = []string{
	"id", "roll_number", "batch_from", "batch_to", "original_batch_to",
	"name", "email", "department", "supervisor", "registration_date",
	"dob", "picture_path", "title", "publications",
}

// StudentListParams filters and pages ListStudents.
type StudentListParams struct {
	// Search matches name or roll number, case-insensitively, as a substring.
	Search string
	Limit  uint64
	Offset uint64
}

// StudentRepository handles database operations for students.
type StudentRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewStudentRepository creates a new StudentRepository
func NewStudentRepository(q db.Querier, dialect db.Dialect) *StudentRepository {
	return &StudentRepository{db: q, sb: dialect.Builder()}
}

func scanStudent(row rowScanner) (*models.Student, error) {
	var (
		s                                    models.Student
		batchFrom, batchTo, origTo, dob, pic sql.NullString
	)
	err := row.Scan(
		&s.ID, &s.RollNumber, &batchFrom, &batchTo, &origTo,
		&s.Name, &s.Email, &s.Department, &s.Supervisor, &s.RegistrationDate,
		&dob, &pic, &s.Title, &s.Publications,
	)
	if err != nil {
		return nil, err
	}
	s.BatchFrom = helpers.StringPtr(batchFrom)
	s.BatchTo = helpers.StringPtr(batchTo)
	s.OriginalBatchTo = helpers.StringPtr(origTo)
	s.DateOfBirth = helpers.StringPtr(dob)
	s.PicturePath = helpers.StringPtr(pic)
	return &s, nil
}

// Create inserts a student and returns the generated id. original_batch_to is
// written as given; callers set it to batch_to on creation.
func (r *StudentRepository) Create(ctx context.Context, s *models.Student) (int64, error) {
	query, args, err := r.sb.Insert("students").
		Columns(studentColumns[1:]...).
		Values(
			s.RollNumber, helpers.GetNullString(s.BatchFrom), helpers.GetNullString(s.BatchTo), helpers.GetNullString(s.OriginalBatchTo),
			s.Name, s.Email, s.Department, s.Supervisor, s.RegistrationDate,
			helpers.GetNullString(s.DateOfBirth), helpers.GetNullString(s.PicturePath), s.Title, s.Publications,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create student SQL")
		return 0, err
	}

	var id int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		logger.Error().Err(err).Str("rollNumber", s.RollNumber).Msg("Error executing create student query")
		return 0, apperrors.NewStorageError("create student", err)
	}
	s.ID = id
	return id, nil
}

// GetByID returns the student or ErrStudentNotFound.
func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	query, args, err := r.sb.Select(studentColumns...).
		From("students").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get student SQL")
		return nil, err
	}

	s, err := scanStudent(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(apperrors.ErrStudentNotFound, "student %d", id)
		}
		logger.Error().Err(err).Int64("studentID", id).Msg("Error getting student by ID")
		return nil, apperrors.NewStorageError("get student", err)
	}
	return s, nil
}

// Exists reports whether a student row with id exists.
func (r *StudentRepository) Exists(ctx context.Context, id int64) (bool, error) {
	query, args, err := r.sb.Select("1").From("students").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return false, err
	}
	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		logger.Error().Err(err).Int64("studentID", id).Msg("Error checking student existence")
		return false, apperrors.NewStorageError("check student", err)
	}
	return true, nil
}

func searchCondition(term string) squirrel.Sqlizer {
	pattern := "%" + helpers.EscapeLike(strings.ToLower(term)) + "%"
	return squirrel.Or{
		squirrel.Expr(`LOWER(name) LIKE ? ESCAPE '\'`, pattern),
		squirrel.Expr(`LOWER(roll_number) LIKE ? ESCAPE '\'`, pattern),
	}
}

// List returns students ordered by id, optionally filtered and paged.
func (r *StudentRepository) List(ctx context.Context, params StudentListParams) ([]*models.Student, error) {
	builder := r.sb.Select(studentColumns...).From("students").OrderBy("id")
	if params.Search != "" {
		builder = builder.Where(searchCondition(params.Search))
	}
	if params.Limit > 0 {
		builder = builder.Limit(params.Limit).Offset(params.Offset)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list students SQL")
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list students query")
		return nil, apperrors.NewStorageError("list students", err)
	}
	defer rows.Close()

	students := make([]*models.Student, 0)
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning student row")
			return nil, apperrors.NewStorageError("scan student", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error after iterating student rows")
		return nil, apperrors.NewStorageError("iterate students", err)
	}
	return students, nil
}

// Count returns how many students match search ("" counts all).
func (r *StudentRepository) Count(ctx context.Context, search string) (int64, error) {
	builder := r.sb.Select("COUNT(*)").From("students")
	if search != "" {
		builder = builder.Where(searchCondition(search))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}
	var n int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		logger.Error().Err(err).Msg("Error counting students")
		return 0, apperrors.NewStorageError("count students", err)
	}
	return n, nil
}

// Update replaces every editable column. original_batch_to is left as stored.
func (r *StudentRepository) Update(ctx context.Context, s *models.Student) error {
	query, args, err := r.sb.Update("students").
		SetMap(map[string]interface{}{
			"roll_number":       s.RollNumber,
			"batch_from":        helpers.GetNullString(s.BatchFrom),
			"batch_to":          helpers.GetNullString(s.BatchTo),
			"name":              s.Name,
			"email":             s.Email,
			"department":        s.Department,
			"supervisor":        s.Supervisor,
			"registration_date": s.RegistrationDate,
			"dob":               helpers.GetNullString(s.DateOfBirth),
			"picture_path":      helpers.GetNullString(s.PicturePath),
			"title":             s.Title,
			"publications":      s.Publications,
		}).
		Where(squirrel.Eq{"id": s.ID}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update student SQL")
		return err
	}
	return r.execAffectingStudent(ctx, "update student", s.ID, query, args)
}

// SetBatchTo overwrites batch_to only.
func (r *StudentRepository) SetBatchTo(ctx context.Context, id int64, batchTo string) error {
	query, args, err := r.sb.Update("students").
		Set("batch_to", batchTo).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}
	return r.execAffectingStudent(ctx, "extend batch", id, query, args)
}

// SetPicturePath overwrites picture_path only.
func (r *StudentRepository) SetPicturePath(ctx context.Context, id int64, path *string) error {
	query, args, err := r.sb.Update("students").
		Set("picture_path", helpers.GetNullString(path)).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}
	return r.execAffectingStudent(ctx, "set picture path", id, query, args)
}

// Delete removes the student row. Dependents go with it through the cascade.
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := r.sb.Delete("students").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	return r.execAffectingStudent(ctx, "delete student", id, query, args)
}

func (r *StudentRepository) execAffectingStudent(ctx context.Context, op string, id int64, query string, args []interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		logger.Error().Err(err).Int64("studentID", id).Str("op", op).Msg("Error executing student statement")
		return apperrors.NewStorageError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.NewStorageError(op, err)
	}
	if n == 0 {
		return apperrors.NewNotFoundError(apperrors.ErrStudentNotFound, "student %d", id)
	}
	return nil
}

// FindForLogin returns the lowest-id student whose email matches and whose
// date of birth equals dob or is NULL.
func (r *StudentRepository) FindForLogin(ctx context.Context, email, dob string) (*models.Student, error) {
	query, args, err := r.sb.Select(studentColumns...).
		From("students").
		Where(squirrel.Eq{"email": email}).
		Where(squirrel.Or{squirrel.Eq{"dob": dob}, squirrel.Eq{"dob": nil}}).
		OrderBy("id").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	s, err := scanStudent(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(apperrors.ErrStudentNotFound, "no student for %s", email)
		}
		logger.Error().Err(err).Msg("Error looking up student for login")
		return nil, apperrors.NewStorageError("find student for login", err)
	}
	return s, nil
}
