package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yigit/phdtrack/internal/pkg/apperrors"
)

const testConfig = `
database:
  driver: sqlite
  path: records.db
storage:
  upload_root: Uploads
logging:
  level: error
`

// workspace switches into a fresh directory holding a config file and
// returns a runner for the command line.
func workspace(t *testing.T) func(args ...string) error {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile("config.yaml", []byte(testConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	return func(args ...string) error {
		base := []string{"phdtrack", "--config", "config.yaml", "--log-level", "error"}
		return newApp().Run(append(base, args...))
	}
}

func writeFile(t *testing.T, name, content string) {
	t.Helper()
	if err := os.WriteFile(name, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

var singhFlags = []string{
	"--roll", "21CS001",
	"--name", "A. Singh",
	"--email", "a@x.com",
	"--department", "CSE",
	"--supervisor", "Dr. X",
	"--registration-date", "01-01-2021",
	"--dob", "01-01-2000",
	"--batch-from", "2021",
	"--batch-to", "2025",
	"--title", "T",
	"--publications", "P",
}

func TestStudentCommands(t *testing.T) {
	run := workspace(t)
	writeFile(t, "award.pdf", "award")

	if err := run("migrate"); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	add := append([]string{"students", "add"}, singhFlags...)
	add = append(add, "--certificate", "Best Paper, 2022=award.pdf")
	if err := run(add...); err != nil {
		t.Fatalf("students add: %v", err)
	}
	certPath := filepath.Join("Uploads", "certificates", "1_Best_Paper__2022.pdf")
	if b, err := os.ReadFile(certPath); err != nil || string(b) != "award" {
		t.Errorf("certificate copy = %q, %v", b, err)
	}

	if err := run("students", "extend", "--years", "2", "1"); err != nil {
		t.Fatalf("students extend: %v", err)
	}
	if err := run("students", "update", "--supervisor", "Dr. Y", "1"); err != nil {
		t.Fatalf("students update: %v", err)
	}
	writeFile(t, "slides.pdf", "slides")
	if err := run("presentations", "add", "--date", "15-01-2024", "--notes", "chapter 1", "--file", "slides.pdf", "1"); err != nil {
		t.Fatalf("presentations add: %v", err)
	}
	if err := run("synopsis", "set", "--title", "S", "--submission-date", "01-03-2024", "--abstract", "A", "1"); err != nil {
		t.Fatalf("synopsis set: %v", err)
	}
	if err := run("login", "--email", "a@x.com", "--secret", "01-01-2000"); err != nil {
		t.Errorf("student login: %v", err)
	}
	if err := run("students", "show", "1"); err != nil {
		t.Errorf("students show: %v", err)
	}

	if err := run("export", "--out", "out.csv"); err != nil {
		t.Fatalf("export: %v", err)
	}
	b, err := os.ReadFile("out.csv")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 2 {
		t.Fatalf("export has %d lines: %q", len(lines), b)
	}
	if want := "1,21CS001,2021,2027,2025,A. Singh,a@x.com,CSE,Dr. Y,2021-01-01,2000-01-01,,T,P"; strings.TrimSpace(lines[1]) != want {
		t.Errorf("export row = %q, want %q", lines[1], want)
	}

	if err := run("students", "delete", "1"); err != nil {
		t.Fatalf("students delete: %v", err)
	}
	if _, err := os.Stat(certPath); !os.IsNotExist(err) {
		t.Errorf("certificate survived delete: %v", err)
	}
}

func TestCommandErrors(t *testing.T) {
	run := workspace(t)

	tests := []struct {
		name string
		args []string
		kind error
	}{
		{"missing name", []string{"students", "add", "--roll", "R1"}, apperrors.ErrValidationFailed},
		{"unknown student", []string{"students", "show", "99"}, apperrors.ErrResourceNotFound},
		{"bad id", []string{"students", "delete", "abc"}, apperrors.ErrValidationFailed},
		{"empty search", []string{"students", "search"}, apperrors.ErrValidationFailed},
		{"certificate for unknown student", []string{"certificates", "add", "--title", "X", "--file", "nope.pdf", "1"}, apperrors.ErrResourceNotFound},
		{"wrong admin secret", []string{"login", "--email", "admin", "--secret", "wrong"}, apperrors.ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(tt.args...)
			if !errors.Is(err, tt.kind) {
				t.Errorf("error = %v, want %v", err, tt.kind)
			}
		})
	}

	if err := run("students", "update", "1"); !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Errorf("empty update error = %v, want validation failure", err)
	}
}

func TestFlagsAfterIDAreRejected(t *testing.T) {
	run := workspace(t)
	if err := run(append([]string{"students", "add"}, singhFlags...)...); err != nil {
		t.Fatalf("students add: %v", err)
	}

	for _, args := range [][]string{
		{"students", "extend", "1", "--years", "3"},
		{"students", "update", "1", "--supervisor", "Dr. Y"},
		{"students", "delete", "1", "2"},
	} {
		if err := run(args...); !errors.Is(err, apperrors.ErrValidationFailed) {
			t.Errorf("%v: error = %v, want validation failure", args, err)
		}
	}

	if err := run("export", "--out", "out.csv"); err != nil {
		t.Fatalf("export: %v", err)
	}
	b, err := os.ReadFile("out.csv")
	if err != nil {
		t.Fatal(err)
	}
	row := strings.Split(strings.TrimSpace(string(b)), "\n")[1]
	if !strings.HasPrefix(row, "1,21CS001,2021,2025,2025,A. Singh,a@x.com,CSE,Dr. X,") {
		t.Errorf("rejected commands changed the record: %q", row)
	}
}
