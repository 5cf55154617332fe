package models

import "testing"

func ptr(s string) *string { return &s }

func TestExtensionYears(t *testing.T) {
	tests := []struct {
		name      string
		to, orig  *string
		wantYears int
		wantOK    bool
		wantNote  string
	}{
		{"equal", ptr("2025"), ptr("2025"), 0, true, ""},
		{"one year", ptr("2026"), ptr("2025"), 1, true, "Extended by 1 year"},
		{"three years", ptr("2028"), ptr("2025"), 3, true, "Extended by 3 years"},
		{"negative is not shown", ptr("2024"), ptr("2025"), -1, true, ""},
		{"missing original", ptr("2025"), nil, 0, false, ""},
		{"missing to", nil, ptr("2025"), 0, false, ""},
		{"non numeric", ptr("twenty"), ptr("2025"), 0, false, ""},
		{"padded", ptr(" 2027 "), ptr("2025"), 2, true, "Extended by 2 years"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Student{BatchTo: tt.to, OriginalBatchTo: tt.orig}
			years, ok := s.ExtensionYears()
			if years != tt.wantYears || ok != tt.wantOK {
				t.Errorf("ExtensionYears() = (%d, %v), want (%d, %v)", years, ok, tt.wantYears, tt.wantOK)
			}
			if got := s.ExtensionNote(); got != tt.wantNote {
				t.Errorf("ExtensionNote() = %q, want %q", got, tt.wantNote)
			}
			if s.IsExtended() != (tt.wantNote != "") {
				t.Errorf("IsExtended() = %v", s.IsExtended())
			}
		})
	}
}

func TestBatchDisplay(t *testing.T) {
	tests := []struct {
		name string
		s    Student
		want string
	}{
		{"no batch", Student{}, "N/A"},
		{"only from", Student{BatchFrom: ptr("2021")}, "N/A"},
		{"plain", Student{BatchFrom: ptr("2021"), BatchTo: ptr("2025"), OriginalBatchTo: ptr("2025")}, "2021-2025"},
		{"extended", Student{BatchFrom: ptr("2021"), BatchTo: ptr("2026"), OriginalBatchTo: ptr("2025")}, "2021-2026 (Extended by 1 year)"},
		{"legacy text", Student{BatchFrom: ptr("2021"), BatchTo: ptr("TBD"), OriginalBatchTo: ptr("2025")}, "2021-TBD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.BatchDisplay(); got != tt.want {
				t.Errorf("BatchDisplay() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIdentity(t *testing.T) {
	if !AdminIdentity().IsAdmin() || AdminIdentity().IsStudent() {
		t.Error("AdminIdentity variant mismatch")
	}
	s := StudentIdentity(4)
	if !s.IsStudent() || s.IsAdmin() || s.String() != "Student(4)" {
		t.Errorf("StudentIdentity(4) = %+v (%s)", s, s)
	}
	if (Identity{}).Valid() || StudentIdentity(0).Valid() {
		t.Error("zero identities must be invalid")
	}
}
