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
	"github.com/yigit/phdtrack/internal/pkg/logger"
)

var certificateColumns = []string{"id", "student_id", "certificate_title", "certificate_path"}

// CertificateRepository handles database operations for certificates
type CertificateRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewCertificateRepository creates a new CertificateRepository
func NewCertificateRepository(q db.Querier, dialect db.Dialect) *CertificateRepository {
	return &CertificateRepository{db: q, sb: dialect.Builder()}
}

func scanCertificate(row rowScanner) (*models.Certificate, error) {
	var c models.Certificate
	if err := row.Scan(&c.ID, &c.StudentID, &c.CertificateTitle, &c.CertificatePath); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a certificate and sets its ID.
func (r *CertificateRepository) Create(ctx context.Context, c *models.Certificate) (int64, error) {
	query, args, err := r.sb.Insert("certificates").
		Columns(certificateColumns[1:]...).
		Values(c.StudentID, c.CertificateTitle, c.CertificatePath).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create certificate SQL")
		return 0, err
	}
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&c.ID); err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return 0, apperrors.NewNotFoundError(apperrors.ErrStudentNotFound, "student %d", c.StudentID)
		}
		logger.Error().Err(err).Int64("studentID", c.StudentID).Msg("Error executing create certificate query")
		return 0, apperrors.NewStorageError("create certificate", err)
	}
	return c.ID, nil
}

// GetByID retrieves a certificate by its ID
func (r *CertificateRepository) GetByID(ctx context.Context, id int64) (*models.Certificate, error) {
	query, args, err := r.sb.Select(certificateColumns...).
		From("certificates").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}
	c, err := scanCertificate(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(apperrors.ErrCertificateNotFound, "certificate %d", id)
		}
		logger.Error().Err(err).Int64("certificateID", id).Msg("Error getting certificate by ID")
		return nil, apperrors.NewStorageError("get certificate", err)
	}
	return c, nil
}

// ListByStudent returns the student's certificates ordered by id.
func (r *CertificateRepository) ListByStudent(ctx context.Context, studentID int64) ([]*models.Certificate, error) {
	query, args, err := r.sb.Select(certificateColumns...).
		From("certificates").
		Where(squirrel.Eq{"student_id": studentID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Error().Err(err).Int64("studentID", studentID).Msg("Error listing certificates")
		return nil, apperrors.NewStorageError("list certificates", err)
	}
	defer rows.Close()

	list := make([]*models.Certificate, 0)
	for rows.Next() {
		c, err := scanCertificate(rows)
		if err != nil {
			return nil, apperrors.NewStorageError("scan certificate", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("iterate certificates", err)
	}
	return list, nil
}

// Delete removes one certificate.
func (r *CertificateRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := r.sb.Delete("certificates").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		logger.Error().Err(err).Int64("certificateID", id).Msg("Error deleting certificate")
		return apperrors.NewStorageError("delete certificate", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NewNotFoundError(apperrors.ErrCertificateNotFound, "certificate %d", id)
	}
	return nil
}

// DeleteByStudent removes every certificate of a student.
func (r *CertificateRepository) DeleteByStudent(ctx context.Context, studentID int64) error {
	query, args, err := r.sb.Delete("certificates").Where(squirrel.Eq{"student_id": studentID}).ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		logger.Error().Err(err).Int64("studentID", studentID).Msg("Error deleting certificates of student")
		return apperrors.NewStorageError("delete certificates", err)
	}
	return nil
}
