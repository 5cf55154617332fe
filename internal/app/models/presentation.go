package models

// Presentation is one progress checkpoint of a student.
type Presentation struct {
	ID               int64   `json:"id" db:"id"`
	StudentID        int64   `json:"studentId" db:"student_id"`
	PresentationDate string  `json:"presentationDate" db:"presentation_date"`
	ProgressNotes    string  `json:"progressNotes" db:"progress_notes"`
	PresentationFile *string `json:"presentationFile,omitempty" db:"presentation_file"`
}
