package dto

import (
	"testing"

	"github.com/yigit/phdtrack/internal/app/models"
)

func strPtr(s string) *string { return &s }

func TestUpdateStudentRequestApplyTo(t *testing.T) {
	fields := StudentFields{RollNumber: "R1", Name: "Old", BatchTo: "2024", Title: "T"}
	req := &UpdateStudentRequest{Name: strPtr("New"), BatchTo: strPtr("")}
	req.ApplyTo(&fields)

	if fields.Name != "New" {
		t.Errorf("Name = %q, want New", fields.Name)
	}
	if fields.BatchTo != "" {
		t.Errorf("BatchTo = %q, want cleared", fields.BatchTo)
	}
	if fields.RollNumber != "R1" || fields.Title != "T" {
		t.Errorf("untouched fields changed: %+v", fields)
	}

	if !(&UpdateStudentRequest{}).IsEmpty() {
		t.Error("empty request reported as non-empty")
	}
	if req.IsEmpty() {
		t.Error("request with fields reported as empty")
	}
	if (&UpdateStudentRequest{Certificates: []CertificateInput{}}).IsEmpty() {
		t.Error("clearing certificates should count as a change")
	}
}

func TestNewStudentResponse(t *testing.T) {
	tests := []struct {
		name      string
		from, to  *string
		orig      *string
		wantBatch string
		wantYears int
	}{
		{"extended", strPtr("2020"), strPtr("2026"), strPtr("2024"), "2020-2026 (Extended by 2 years)", 2},
		{"one year", strPtr("2020"), strPtr("2025"), strPtr("2024"), "2020-2025 (Extended by 1 year)", 1},
		{"not extended", strPtr("2020"), strPtr("2024"), strPtr("2024"), "2020-2024", 0},
		{"negative hidden", strPtr("2020"), strPtr("2023"), strPtr("2024"), "2020-2023", 0},
		{"non numeric", strPtr("2020"), strPtr("soon"), strPtr("2024"), "2020-soon", 0},
		{"missing bound", nil, strPtr("2024"), strPtr("2024"), "N/A", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &models.Student{
				ID: 1, BatchFrom: tt.from, BatchTo: tt.to, OriginalBatchTo: tt.orig,
				RegistrationDate: "2021-01-01", DateOfBirth: strPtr("2000-01-01"),
			}
			got := NewStudentResponse(s)
			if got.Batch != tt.wantBatch {
				t.Errorf("Batch = %q, want %q", got.Batch, tt.wantBatch)
			}
			if got.ExtensionYears != tt.wantYears {
				t.Errorf("ExtensionYears = %d, want %d", got.ExtensionYears, tt.wantYears)
			}
			if got.RegistrationDate != "01-01-2021" || got.DateOfBirth != "01-01-2000" {
				t.Errorf("dates not in display form: %q %q", got.RegistrationDate, got.DateOfBirth)
			}
		})
	}
}

func TestNewSynopsisResponseNil(t *testing.T) {
	if NewSynopsisResponse(nil) != nil {
		t.Error("nil synopsis should stay nil")
	}
}
