package models

// Certificate is an attached certificate file. The path is mandatory.
type Certificate struct {
	ID               int64  `json:"id" db:"id"`
	StudentID        int64  `json:"studentId" db:"student_id"`
	CertificateTitle string `json:"certificateTitle" db:"certificate_title"`
	CertificatePath  string `json:"certificatePath" db:"certificate_path"`
}

// DefaultCertificateTitle is given to certificates migrated from the legacy column.
const DefaultCertificateTitle = "Default Certificate"
