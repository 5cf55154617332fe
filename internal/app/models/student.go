package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Student is the root record. Dates are held in the stored YYYY-MM-DD form.
// Batch years are kept as text because legacy rows may hold non-numeric values.
type Student struct {
	ID               int64   `json:"id" db:"id"`
	RollNumber       string  `json:"rollNumber" db:"roll_number"`
	BatchFrom        *string `json:"batchFrom,omitempty" db:"batch_from"`
	BatchTo          *string `json:"batchTo,omitempty" db:"batch_to"`
	OriginalBatchTo  *string `json:"originalBatchTo,omitempty" db:"original_batch_to"`
	Name             string  `json:"name" db:"name"`
	Email            string  `json:"email" db:"email"`
	Department       string  `json:"department" db:"department"`
	Supervisor       string  `json:"supervisor" db:"supervisor"`
	RegistrationDate string  `json:"registrationDate" db:"registration_date"`
	DateOfBirth      *string `json:"dateOfBirth,omitempty" db:"dob"`
	PicturePath      *string `json:"picturePath,omitempty" db:"picture_path"`
	Title            string  `json:"title" db:"title"`
	Publications     string  `json:"publications" db:"publications"`
}

// ExtensionYears returns batch_to - original_batch_to. ok is false when either
// value is missing or not a number.
func (s *Student) ExtensionYears() (years int, ok bool) {
	if s.BatchTo == nil || s.OriginalBatchTo == nil {
		return 0, false
	}
	to, err := strconv.Atoi(strings.TrimSpace(*s.BatchTo))
	if err != nil {
		return 0, false
	}
	orig, err := strconv.Atoi(strings.TrimSpace(*s.OriginalBatchTo))
	if err != nil {
		return 0, false
	}
	return to - orig, true
}

// IsExtended reports a strictly positive extension.
func (s *Student) IsExtended() bool {
	years, ok := s.ExtensionYears()
	return ok && years > 0
}

// ExtensionNote is "Extended by N year(s)" for a positive extension and "" otherwise.
func (s *Student) ExtensionNote() string {
	years, ok := s.ExtensionYears()
	if !ok || years <= 0 {
		return ""
	}
	if years == 1 {
		return "Extended by 1 year"
	}
	return fmt.Sprintf("Extended by %d years", years)
}

// BatchDisplay renders "from-to", annotated with the extension when positive.
// It is "N/A" when either bound is missing.
func (s *Student) BatchDisplay() string {
	if s.BatchFrom == nil || s.BatchTo == nil || *s.BatchFrom == "" || *s.BatchTo == "" {
		return "N/A"
	}
	out := *s.BatchFrom + "-" + *s.BatchTo
	if note := s.ExtensionNote(); note != "" {
		out += " (" + note + ")"
	}
	return out
}

// StudentRecord is a student together with everything it owns.
type StudentRecord struct {
	Student       *Student
	Presentations []*Presentation
	Synopsis      *Synopsis
	Certificates  []*Certificate
}

// AttachmentPaths lists every non-empty file path the record references.
func (r *StudentRecord) AttachmentPaths() []string {
	var paths []string
	add := func(p *string) {
		if p != nil && *p != "" {
			paths = append(paths, *p)
		}
	}
	if r.Student != nil {
		add(r.Student.PicturePath)
	}
	for _, p := range r.Presentations {
		add(p.PresentationFile)
	}
	if r.Synopsis != nil {
		add(r.Synopsis.SynopsisFile)
	}
	for _, c := range r.Certificates {
		path := c.CertificatePath
		add(&path)
	}
	return paths
}
