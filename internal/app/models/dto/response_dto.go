package dto

import (
	"github.com/yigit/phdtrack/internal/app/models"
	"github.com/yigit/phdtrack/internal/pkg/helpers"
)

// --- Response DTOs ---

// StudentResponse is a student with display dates and the derived batch view.
type StudentResponse struct {
	ID               int64  `json:"id" example:"1"`
	RollNumber       string `json:"rollNumber" example:"21CS001"`
	BatchFrom        string `json:"batchFrom,omitempty" example:"2021"`
	BatchTo          string `json:"batchTo,omitempty" example:"2026"`
	OriginalBatchTo  string `json:"originalBatchTo,omitempty" example:"2025"`
	Batch            string `json:"batch" example:"2021-2026 (Extended by 1 year)"`
	ExtensionYears   int    `json:"extensionYears" example:"1"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Department       string `json:"department"`
	Supervisor       string `json:"supervisor"`
	RegistrationDate string `json:"registrationDate" example:"01-08-2021"`
	DateOfBirth      string `json:"dateOfBirth,omitempty" example:"01-01-2000"`
	PicturePath      string `json:"picturePath,omitempty"`
	Title            string `json:"title"`
	Publications     string `json:"publications"`
}

// PresentationResponse is a presentation with its display date
type PresentationResponse struct {
	ID               int64  `json:"id"`
	StudentID        int64  `json:"studentId"`
	PresentationDate string `json:"presentationDate"`
	ProgressNotes    string `json:"progressNotes"`
	PresentationFile string `json:"presentationFile,omitempty"`
}

// SynopsisResponse is a synopsis with its display date
type SynopsisResponse struct {
	ID             int64  `json:"id"`
	StudentID      int64  `json:"studentId"`
	SynopsisTitle  string `json:"synopsisTitle"`
	SubmissionDate string `json:"submissionDate"`
	Abstract       string `json:"abstract"`
	SynopsisFile   string `json:"synopsisFile,omitempty"`
}

// CertificateResponse is a certificate row
type CertificateResponse struct {
	ID               int64  `json:"id"`
	StudentID        int64  `json:"studentId"`
	CertificateTitle string `json:"certificateTitle"`
	CertificatePath  string `json:"certificatePath"`
}

// StudentRecordResponse is the read-only view of a student and everything it owns.
type StudentRecordResponse struct {
	Student       StudentResponse        `json:"student"`
	Presentations []PresentationResponse `json:"presentations"`
	Synopsis      *SynopsisResponse      `json:"synopsis,omitempty"`
	Certificates  []CertificateResponse  `json:"certificates"`
}

// StudentListResponse is one page of students
type StudentListResponse struct {
	Students []StudentResponse `json:"students"`
	Total    int64             `json:"total"`
}

// NewStudentResponse converts a stored student
func NewStudentResponse(s *models.Student) StudentResponse {
	years, _ := s.ExtensionYears()
	if years < 0 {
		years = 0
	}
	return StudentResponse{
		ID:               s.ID,
		RollNumber:       s.RollNumber,
		BatchFrom:        helpers.Deref(s.BatchFrom),
		BatchTo:          helpers.Deref(s.BatchTo),
		OriginalBatchTo:  helpers.Deref(s.OriginalBatchTo),
		Batch:            s.BatchDisplay(),
		ExtensionYears:   years,
		Name:             s.Name,
		Email:            s.Email,
		Department:       s.Department,
		Supervisor:       s.Supervisor,
		RegistrationDate: helpers.FormatDisplayDate(s.RegistrationDate),
		DateOfBirth:      helpers.FormatOptionalDisplayDate(s.DateOfBirth),
		PicturePath:      helpers.Deref(s.PicturePath),
		Title:            s.Title,
		Publications:     s.Publications,
	}
}

// NewStudentResponses converts a list of students
func NewStudentResponses(students []*models.Student) []StudentResponse {
	out := make([]StudentResponse, 0, len(students))
	for _, s := range students {
		out = append(out, NewStudentResponse(s))
	}
	return out
}

// NewPresentationResponse converts a stored presentation
func NewPresentationResponse(p *models.Presentation) PresentationResponse {
	return PresentationResponse{
		ID:               p.ID,
		StudentID:        p.StudentID,
		PresentationDate: helpers.FormatDisplayDate(p.PresentationDate),
		ProgressNotes:    p.ProgressNotes,
		PresentationFile: helpers.Deref(p.PresentationFile),
	}
}

// NewSynopsisResponse converts a stored synopsis; nil stays nil.
func NewSynopsisResponse(s *models.Synopsis) *SynopsisResponse {
	if s == nil {
		return nil
	}
	return &SynopsisResponse{
		ID:             s.ID,
		StudentID:      s.StudentID,
		SynopsisTitle:  s.SynopsisTitle,
		SubmissionDate: helpers.FormatDisplayDate(s.SubmissionDate),
		Abstract:       s.Abstract,
		SynopsisFile:   helpers.Deref(s.SynopsisFile),
	}
}

// NewCertificateResponse converts a stored certificate
func NewCertificateResponse(c *models.Certificate) CertificateResponse {
	return CertificateResponse{
		ID:               c.ID,
		StudentID:        c.StudentID,
		CertificateTitle: c.CertificateTitle,
		CertificatePath:  c.CertificatePath,
	}
}

// NewPresentationResponses converts a list of presentations
func NewPresentationResponses(list []*models.Presentation) []PresentationResponse {
	out := make([]PresentationResponse, 0, len(list))
	for _, p := range list {
		out = append(out, NewPresentationResponse(p))
	}
	return out
}

// NewCertificateResponses converts a list of certificates
func NewCertificateResponses(list []*models.Certificate) []CertificateResponse {
	out := make([]CertificateResponse, 0, len(list))
	for _, c := range list {
		out = append(out, NewCertificateResponse(c))
	}
	return out
}

// NewStudentRecordResponse converts a full student record
func NewStudentRecordResponse(r *models.StudentRecord) StudentRecordResponse {
	return StudentRecordResponse{
		Student:       NewStudentResponse(r.Student),
		Presentations: NewPresentationResponses(r.Presentations),
		Synopsis:      NewSynopsisResponse(r.Synopsis),
		Certificates:  NewCertificateResponses(r.Certificates),
	}
}
