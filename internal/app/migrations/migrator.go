package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/phdtrack/internal/app/models"
	"github.com/yigit/phdtrack/internal/db"
	"github.com/yigit/phdtrack/internal/pkg/apperrors"
	"github.com/yigit/phdtrack/internal/pkg/logger"
)

// Tables owned by the schema, parents first.
var Tables = []string{"students", "presentations", "synopsis", "certificates"}

// Step names recorded in schema_migrations when a step changes the schema.
const (
	StepCreateTables           = "create_tables"
	StepAddTitle               = "add_students_title"
	StepAddPublications        = "add_students_publications"
	StepRenameEnrollmentDate   = "rename_enrollment_date"
	StepAddBatchFrom           = "add_students_batch_from"
	StepAddBatchTo             = "add_students_batch_to"
	StepAddOriginalBatchTo     = "add_students_original_batch_to"
	StepMigrateLegacyCertPaths = "migrate_legacy_certificate_path"
)

// Migrator brings any earlier on-disk schema forward to the current one.
type Migrator struct {
	db *db.Database
	sb squirrel.StatementBuilderType
}

// NewMigrator creates a new migrator
func NewMigrator(database *db.Database) *Migrator {
	return &Migrator{
		db: database,
		sb: database.Dialect.Builder(),
	}
}

// EnsureSchema creates missing tables and applies every forward migration the
// current schema still needs. All of it runs in one transaction, so a failure
// leaves the schema exactly as it was. It returns the names of the steps that
// changed something; an up-to-date store yields none.
func (m *Migrator) EnsureSchema(ctx context.Context) ([]string, error) {
	var applied []string

	err := m.db.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		existed, err := m.tableExists(ctx, tx, "students")
		if err != nil {
			return err
		}

		if err := m.ensureMigrationTable(ctx, tx); err != nil {
			return err
		}
		for _, stmt := range m.createStatements() {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("create tables: %w", err)
			}
		}
		if !existed {
			applied = append(applied, StepCreateTables)
		}

		columns, err := m.columns(ctx, tx, "students")
		if err != nil {
			return err
		}

		steps, err := m.studentColumnSteps(ctx, tx, columns)
		if err != nil {
			return err
		}
		applied = append(applied, steps...)

		if columns["certificate_path"] {
			n, err := m.migrateLegacyCertificates(ctx, tx)
			if err != nil {
				return err
			}
			logger.Info().Int("certificates", n).Msg("Legacy certificate paths moved to certificates table")
			applied = append(applied, StepMigrateLegacyCertPaths)
		}

		for _, step := range applied {
			if err := m.recordMigration(ctx, tx, step); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Msg("Schema migration failed, store left unchanged")
		return nil, apperrors.NewStorageError("ensure schema", err)
	}

	if len(applied) == 0 {
		logger.Debug().Msg("Schema already up to date")
	} else {
		logger.Info().Strs("steps", applied).Msg("Schema migrations applied")
	}
	return applied, nil
}

func (m *Migrator) createStatements() []string {
	pk := m.db.Dialect.PrimaryKeyColumn()
	fk := m.db.Dialect.ForeignKeyColumn()

	return []string{
		`CREATE TABLE IF NOT EXISTS students (
			id ` + pk + `,
			roll_number TEXT NOT NULL,
			batch_from TEXT,
			batch_to TEXT,
			original_batch_to TEXT,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			department TEXT NOT NULL,
			supervisor TEXT NOT NULL,
			registration_date TEXT NOT NULL,
			dob TEXT,
			picture_path TEXT,
			title TEXT NOT NULL,
			publications TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS presentations (
			id ` + pk + `,
			student_id ` + fk + ` NOT NULL REFERENCES students(id) ON DELETE CASCADE,
			presentation_date TEXT NOT NULL,
			progress_notes TEXT NOT NULL,
			presentation_file TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS synopsis (
			id ` + pk + `,
			student_id ` + fk + ` NOT NULL REFERENCES students(id) ON DELETE CASCADE,
			synopsis_title TEXT NOT NULL,
			submission_date TEXT NOT NULL,
			abstract TEXT NOT NULL,
			synopsis_file TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS certificates (
			id ` + pk + `,
			student_id ` + fk + ` NOT NULL REFERENCES students(id) ON DELETE CASCADE,
			certificate_title TEXT NOT NULL,
			certificate_path TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_presentations_student_id ON presentations(student_id)`,
		`CREATE INDEX IF NOT EXISTS idx_synopsis_student_id ON synopsis(student_id)`,
		`CREATE INDEX IF NOT EXISTS idx_certificates_student_id ON certificates(student_id)`,
	}
}

// studentColumnSteps applies the column level migrations of the students
// table in their fixed order and returns the ones that ran.
func (m *Migrator) studentColumnSteps(ctx context.Context, tx *sql.Tx, columns map[string]bool) ([]string, error) {
	var applied []string
	exec := func(step, stmt string) error {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", step, err)
		}
		applied = append(applied, step)
		return nil
	}

	if !columns["title"] {
		if err := exec(StepAddTitle, `ALTER TABLE students ADD COLUMN title TEXT NOT NULL DEFAULT ''`); err != nil {
			return nil, err
		}
	}
	if !columns["publications"] {
		if err := exec(StepAddPublications, `ALTER TABLE students ADD COLUMN publications TEXT NOT NULL DEFAULT ''`); err != nil {
			return nil, err
		}
	}
	if !columns["registration_date"] && columns["enrollment_date"] {
		if err := exec(StepRenameEnrollmentDate, `ALTER TABLE students RENAME COLUMN enrollment_date TO registration_date`); err != nil {
			return nil, err
		}
	}
	if !columns["batch_from"] {
		if err := exec(StepAddBatchFrom, `ALTER TABLE students ADD COLUMN batch_from TEXT`); err != nil {
			return nil, err
		}
	}
	if !columns["batch_to"] {
		if err := exec(StepAddBatchTo, `ALTER TABLE students ADD COLUMN batch_to TEXT`); err != nil {
			return nil, err
		}
	}
	if !columns["original_batch_to"] {
		if err := exec(StepAddOriginalBatchTo, `ALTER TABLE students ADD COLUMN original_batch_to TEXT`); err != nil {
			return nil, err
		}
		// backfill only when freshly added
		if _, err := tx.ExecContext(ctx, `UPDATE students SET original_batch_to = batch_to WHERE original_batch_to IS NULL`); err != nil {
			return nil, fmt.Errorf("backfill original_batch_to: %w", err)
		}
	}
	return applied, nil
}

type legacyCertificate struct {
	studentID int64
	path      string
}

// migrateLegacyCertificates copies students.certificate_path into the
// certificates table and then drops the column.
func (m *Migrator) migrateLegacyCertificates(ctx context.Context, tx *sql.Tx) (int, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id, certificate_path FROM students WHERE certificate_path IS NOT NULL ORDER BY id`)
	if err != nil {
		return 0, fmt.Errorf("read legacy certificate paths: %w", err)
	}
	var legacy []legacyCertificate
	for rows.Next() {
		var lc legacyCertificate
		if err := rows.Scan(&lc.studentID, &lc.path); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan legacy certificate path: %w", err)
		}
		legacy = append(legacy, lc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate legacy certificate paths: %w", err)
	}

	for _, lc := range legacy {
		query, args, err := m.sb.Insert("certificates").
			Columns("student_id", "certificate_title", "certificate_path").
			Values(lc.studentID, models.DefaultCertificateTitle, lc.path).
			ToSql()
		if err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("insert migrated certificate for student %d: %w", lc.studentID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `ALTER TABLE students DROP COLUMN certificate_path`); err != nil {
		return 0, fmt.Errorf("drop legacy certificate_path: %w", err)
	}
	return len(legacy), nil
}

// Columns returns the sorted column names of table.
func (m *Migrator) Columns(ctx context.Context, table string) ([]string, error) {
	set, err := m.columns(ctx, m.db, table)
	if err != nil {
		return nil, apperrors.NewStorageError("read columns", err)
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *Migrator) columns(ctx context.Context, q db.Querier, table string) (map[string]bool, error) {
	var query string
	switch m.db.Dialect {
	case db.DialectPostgres:
		query = `SELECT column_name FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = $1`
	default:
		query = `SELECT name FROM pragma_table_info(?)`
	}

	rows, err := q.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("introspect %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column of %s: %w", table, err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

func (m *Migrator) tableExists(ctx context.Context, q db.Querier, table string) (bool, error) {
	cols, err := m.columns(ctx, q, table)
	if err != nil {
		return false, err
	}
	return len(cols) > 0, nil
}

// ensureMigrationTable creates the migration history table if it doesn't exist
func (m *Migrator) ensureMigrationTable(ctx context.Context, tx *sql.Tx) error {
	stmt := `CREATE TABLE IF NOT EXISTS schema_migrations (
		id ` + m.db.Dialect.PrimaryKeyColumn() + `,
		version TEXT NOT NULL,
		applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create migration tracking table: %w", err)
	}
	return nil
}

// recordMigration appends a step to the migration history
func (m *Migrator) recordMigration(ctx context.Context, tx *sql.Tx, version string) error {
	query, args, err := m.sb.Insert("schema_migrations").Columns("version").Values(version).ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", version, err)
	}
	return nil
}

// AppliedMigration is one row of the migration history
type AppliedMigration struct {
	Version   string
	AppliedAt string
}

// History returns the recorded migration steps, oldest first.
func (m *Migrator) History(ctx context.Context) ([]AppliedMigration, error) {
	query, args, err := m.sb.Select("version", "CAST(applied_at AS TEXT)").
		From("schema_migrations").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStorageError("read migration history", err)
	}
	defer rows.Close()

	var out []AppliedMigration
	for rows.Next() {
		var am AppliedMigration
		if err := rows.Scan(&am.Version, &am.AppliedAt); err != nil {
			return nil, apperrors.NewStorageError("scan migration history", err)
		}
		out = append(out, am)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("iterate migration history", err)
	}
	return out, nil
}
