package models

// Synopsis is the single thesis synopsis a student may have.
type Synopsis struct {
	ID             int64   `json:"id" db:"id"`
	StudentID      int64   `json:"studentId" db:"student_id"`
	SynopsisTitle  string  `json:"synopsisTitle" db:"synopsis_title"`
	SubmissionDate string  `json:"submissionDate" db:"submission_date"`
	Abstract       string  `json:"abstract" db:"abstract"`
	SynopsisFile   *string `json:"synopsisFile,omitempty" db:"synopsis_file"`
}
