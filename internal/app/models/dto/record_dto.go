package dto

import (
	"github.com/yigit/phdtrack/internal/pkg/filestorage"
)

// --- Request DTOs ---

// StudentFields holds the editable student columns as the UI submits them.
// Dates are DD-MM-YYYY; batch years are optional integers.
type StudentFields struct {
	RollNumber       string `json:"rollNumber" form:"rollNumber" label:"roll number" validate:"required"`
	BatchFrom        string `json:"batchFrom" form:"batchFrom" label:"batch from" validate:"omitempty,year"`
	BatchTo          string `json:"batchTo" form:"batchTo" label:"batch to" validate:"omitempty,year"`
	Name             string `json:"name" form:"name" validate:"required"`
	Email            string `json:"email" form:"email" validate:"required"`
	Department       string `json:"department" form:"department" validate:"required"`
	Supervisor       string `json:"supervisor" form:"supervisor" validate:"required"`
	RegistrationDate string `json:"registrationDate" form:"registrationDate" label:"registration date" validate:"required,ddmmyyyy"`
	DateOfBirth      string `json:"dateOfBirth" form:"dateOfBirth" label:"date of birth" validate:"omitempty,ddmmyyyy"`
	Title            string `json:"title" form:"title" validate:"required"`
	Publications     string `json:"publications" form:"publications" validate:"required"`
}

// PresentationInput is a progress presentation. Date and notes are both
// required; a file on its own is not a presentation.
type PresentationInput struct {
	PresentationDate string              `json:"presentationDate" form:"presentationDate" label:"presentation date" validate:"required,ddmmyyyy"`
	ProgressNotes    string              `json:"progressNotes" form:"progressNotes" label:"progress notes" validate:"required"`
	File             *filestorage.Source `json:"-" form:"-" validate:"-"`
}

// SynopsisInput replaces the student's synopsis as a whole.
type SynopsisInput struct {
	SynopsisTitle  string              `json:"synopsisTitle" form:"synopsisTitle" label:"synopsis title" validate:"required"`
	SubmissionDate string              `json:"submissionDate" form:"submissionDate" label:"submission date" validate:"required,ddmmyyyy"`
	Abstract       string              `json:"abstract" form:"abstract" validate:"required"`
	File           *filestorage.Source `json:"-" form:"-" validate:"-"`
}

// CertificateInput is one certificate; the file is mandatory.
type CertificateInput struct {
	CertificateTitle string              `json:"certificateTitle" form:"certificateTitle" label:"certificate title" validate:"required"`
	File             *filestorage.Source `json:"-" form:"-" label:"certificate file" validate:"required"`
}

// CreateStudentRequest is a new student plus the attachments placed with it.
type CreateStudentRequest struct {
	StudentFields
	Picture      *filestorage.Source `json:"-" form:"-" validate:"-"`
	Presentation *PresentationInput  `json:"presentation,omitempty" validate:"omitempty"`
	Synopsis     *SynopsisInput      `json:"synopsis,omitempty" validate:"omitempty"`
	Certificates []CertificateInput  `json:"certificates,omitempty" validate:"dive"`
}

// UpdateStudentRequest carries a partial update. Nil fields keep the stored
// value. A non-nil Certificates slice replaces every existing certificate.
type UpdateStudentRequest struct {
	RollNumber       *string `json:"rollNumber,omitempty"`
	BatchFrom        *string `json:"batchFrom,omitempty"`
	BatchTo          *string `json:"batchTo,omitempty"`
	Name             *string `json:"name,omitempty"`
	Email            *string `json:"email,omitempty"`
	Department       *string `json:"department,omitempty"`
	Supervisor       *string `json:"supervisor,omitempty"`
	RegistrationDate *string `json:"registrationDate,omitempty"`
	DateOfBirth      *string `json:"dateOfBirth,omitempty"`
	Title            *string `json:"title,omitempty"`
	Publications     *string `json:"publications,omitempty"`

	Picture      *filestorage.Source `json:"-"`
	Synopsis     *SynopsisInput      `json:"synopsis,omitempty"`
	Certificates []CertificateInput  `json:"certificates,omitempty"`
}

// ApplyTo overwrites the fields of f that the request supplies.
func (r *UpdateStudentRequest) ApplyTo(f *StudentFields) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&f.RollNumber, r.RollNumber)
	set(&f.BatchFrom, r.BatchFrom)
	set(&f.BatchTo, r.BatchTo)
	set(&f.Name, r.Name)
	set(&f.Email, r.Email)
	set(&f.Department, r.Department)
	set(&f.Supervisor, r.Supervisor)
	set(&f.RegistrationDate, r.RegistrationDate)
	set(&f.DateOfBirth, r.DateOfBirth)
	set(&f.Title, r.Title)
	set(&f.Publications, r.Publications)
}

// IsEmpty reports whether the request would change nothing.
func (r *UpdateStudentRequest) IsEmpty() bool {
	var probe StudentFields
	r.ApplyTo(&probe)
	return probe == (StudentFields{}) && r.Picture == nil && r.Synopsis == nil && r.Certificates == nil
}

// ExtensionRequest adds years to batch_to
type ExtensionRequest struct {
	Years int `json:"years" form:"years" binding:"min=0"`
}
