package repositories

import (
	"database/sql"

	"github.com/yigit/phdtrack/internal/db"
)

// Repositories holds all the repository instances, bound to one Querier.
type Repositories struct {
	Students      *StudentRepository
	Presentations *PresentationRepository
	Synopses      *SynopsisRepository
	Certificates  *CertificateRepository

	dialect db.Dialect
}

// NewRepositories binds every repository to the connection pool.
func NewRepositories(database *db.Database) *Repositories {
	return newRepositories(database, database.Dialect)
}

func newRepositories(q db.Querier, dialect db.Dialect) *Repositories {
	return &Repositories{
		Students:      NewStudentRepository(q, dialect),
		Presentations: NewPresentationRepository(q, dialect),
		Synopses:      NewSynopsisRepository(q, dialect),
		Certificates:  NewCertificateRepository(q, dialect),
		dialect:       dialect,
	}
}

// WithTx returns a copy of the repositories whose statements run inside tx.
func (r *Repositories) WithTx(tx *sql.Tx) *Repositories {
	return newRepositories(tx, r.dialect)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}
