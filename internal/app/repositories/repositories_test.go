package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/yigit/phdtrack/internal/app/models"
	"github.com/yigit/phdtrack/internal/pkg/apperrors"
	"github.com/yigit/phdtrack/internal/testutil"
)

func newStudent(roll, name, email string) *models.Student {
	return &models.Student{
		RollNumber:       roll,
		BatchFrom:        testutil.StrPtr("2020"),
		BatchTo:          testutil.StrPtr("2024"),
		OriginalBatchTo:  testutil.StrPtr("2024"),
		Name:             name,
		Email:            email,
		Department:       "CSE",
		Supervisor:       "Dr. Rao",
		RegistrationDate: "2020-08-01",
		DateOfBirth:      testutil.StrPtr("1995-01-15"),
	}
}

func setupRepos(t *testing.T) *Repositories {
	t.Helper()
	return NewRepositories(testutil.SetupTestDB(t, nil))
}

func mustCreate(t *testing.T, repos *Repositories, s *models.Student) int64 {
	t.Helper()
	id, err := repos.Students.Create(context.Background(), s)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return id
}

func TestStudentCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repos := setupRepos(t)

	s := newStudent("CS001", "Asha", "asha@uni.edu")
	s.DateOfBirth = nil
	id := mustCreate(t, repos, s)
	if id <= 0 || s.ID != id {
		t.Fatalf("id = %d, s.ID = %d", id, s.ID)
	}

	got, err := repos.Students.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.RollNumber != "CS001" || got.Name != "Asha" || got.RegistrationDate != "2020-08-01" {
		t.Errorf("got %+v", got)
	}
	if got.DateOfBirth != nil {
		t.Errorf("DateOfBirth = %v, want NULL", *got.DateOfBirth)
	}
	if got.OriginalBatchTo == nil || *got.OriginalBatchTo != "2024" {
		t.Errorf("OriginalBatchTo = %v", got.OriginalBatchTo)
	}

	_, err = repos.Students.GetByID(ctx, id+100)
	if !errors.Is(err, apperrors.ErrStudentNotFound) || !errors.Is(err, apperrors.ErrResourceNotFound) {
		t.Errorf("GetByID(missing) error = %v, want ErrStudentNotFound", err)
	}

	ok, err := repos.Students.Exists(ctx, id)
	if err != nil || !ok {
		t.Errorf("Exists(%d) = %v, %v", id, ok, err)
	}
	ok, _ = repos.Students.Exists(ctx, id+100)
	if ok {
		t.Error("Exists(missing) = true")
	}
}

func TestStudentListAndSearch(t *testing.T) {
	ctx := context.Background()
	repos := setupRepos(t)

	mustCreate(t, repos, newStudent("CS001", "Asha Verma", "a@uni.edu"))
	mustCreate(t, repos, newStudent("EE_02", "Ravi Kumar", "r@uni.edu"))
	mustCreate(t, repos, newStudent("ME003", "Meera 100%", "m@uni.edu"))

	all, err := repos.Students.List(ctx, StudentListParams{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 || all[0].RollNumber != "CS001" || all[2].RollNumber != "ME003" {
		t.Fatalf("List() = %d rows, not ordered by id", len(all))
	}

	tests := []struct {
		term string
		want []string
	}{
		{"asha", []string{"CS001"}},
		{"KUMAR", []string{"EE_02"}},
		{"cs0", []string{"CS001"}},
		{"_", []string{"EE_02"}},
		{"%", []string{"ME003"}},
		{"a", []string{"CS001", "EE_02", "ME003"}},
		{"nobody", nil},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			got, err := repos.Students.List(ctx, StudentListParams{Search: tt.term})
			if err != nil {
				t.Fatalf("List(%q) error = %v", tt.term, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("List(%q) returned %d rows, want %d", tt.term, len(got), len(tt.want))
			}
			for i, s := range got {
				if s.RollNumber != tt.want[i] {
					t.Errorf("row %d = %s, want %s", i, s.RollNumber, tt.want[i])
				}
			}
			n, err := repos.Students.Count(ctx, tt.term)
			if err != nil || n != int64(len(tt.want)) {
				t.Errorf("Count(%q) = %d, %v", tt.term, n, err)
			}
		})
	}

	page, err := repos.Students.List(ctx, StudentListParams{Limit: 1, Offset: 1})
	if err != nil || len(page) != 1 || page[0].RollNumber != "EE_02" {
		t.Errorf("paged List() = %v, %v", page, err)
	}
}

func TestStudentUpdateKeepsOriginalBatchTo(t *testing.T) {
	ctx := context.Background()
	repos := setupRepos(t)
	id := mustCreate(t, repos, newStudent("CS001", "Asha", "a@uni.edu"))

	s, _ := repos.Students.GetByID(ctx, id)
	s.Name = "Asha V"
	s.BatchTo = testutil.StrPtr("2026")
	s.OriginalBatchTo = testutil.StrPtr("1999")
	if err := repos.Students.Update(ctx, s); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, _ := repos.Students.GetByID(ctx, id)
	if got.Name != "Asha V" || *got.BatchTo != "2026" {
		t.Errorf("update not applied: %+v", got)
	}
	if *got.OriginalBatchTo != "2024" {
		t.Errorf("OriginalBatchTo = %s, want 2024 untouched", *got.OriginalBatchTo)
	}

	if err := repos.Students.SetBatchTo(ctx, id, "2027"); err != nil {
		t.Fatalf("SetBatchTo() error = %v", err)
	}
	got, _ = repos.Students.GetByID(ctx, id)
	if *got.BatchTo != "2027" || *got.OriginalBatchTo != "2024" {
		t.Errorf("after SetBatchTo: batch_to=%s original=%s", *got.BatchTo, *got.OriginalBatchTo)
	}

	missing := newStudent("X", "X", "x@uni.edu")
	missing.ID = id + 100
	if err := repos.Students.Update(ctx, missing); !errors.Is(err, apperrors.ErrStudentNotFound) {
		t.Errorf("Update(missing) error = %v", err)
	}
}

func TestFindForLogin(t *testing.T) {
	ctx := context.Background()
	repos := setupRepos(t)

	withDob := newStudent("CS001", "Asha", "shared@uni.edu")
	first := mustCreate(t, repos, withDob)
	noDob := newStudent("CS002", "Ravi", "ravi@uni.edu")
	noDob.DateOfBirth = nil
	second := mustCreate(t, repos, noDob)
	mustCreate(t, repos, newStudent("CS003", "Asha twin", "shared@uni.edu"))

	tests := []struct {
		name   string
		email  string
		dob    string
		wantID int64
	}{
		{"exact match lowest id", "shared@uni.edu", "1995-01-15", first},
		{"null dob accepts any", "ravi@uni.edu", "2001-02-03", second},
		{"wrong dob", "shared@uni.edu", "1990-01-01", 0},
		{"unknown email", "none@uni.edu", "1995-01-15", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := repos.Students.FindForLogin(ctx, tt.email, tt.dob)
			if tt.wantID == 0 {
				if !errors.Is(err, apperrors.ErrStudentNotFound) {
					t.Errorf("error = %v, want ErrStudentNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("FindForLogin() error = %v", err)
			}
			if s.ID != tt.wantID {
				t.Errorf("ID = %d, want %d", s.ID, tt.wantID)
			}
		})
	}
}

func TestDependents(t *testing.T) {
	ctx := context.Background()
	repos := setupRepos(t)
	id := mustCreate(t, repos, newStudent("CS001", "Asha", "a@uni.edu"))

	p := &models.Presentation{StudentID: id, PresentationDate: "2021-03-04", ProgressNotes: "lit review"}
	if _, err := repos.Presentations.Create(ctx, p); err != nil {
		t.Fatalf("create presentation: %v", err)
	}
	c := &models.Certificate{StudentID: id, CertificateTitle: "Course", CertificatePath: "Uploads/certificates/1_Course.pdf"}
	if _, err := repos.Certificates.Create(ctx, c); err != nil {
		t.Fatalf("create certificate: %v", err)
	}

	syn := &models.Synopsis{StudentID: id, SynopsisTitle: "v1", SubmissionDate: "2022-01-01", Abstract: "a"}
	firstID, err := repos.Synopses.Upsert(ctx, syn)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	again := &models.Synopsis{StudentID: id, SynopsisTitle: "v2", SubmissionDate: "2022-02-02", Abstract: "b"}
	secondID, err := repos.Synopses.Upsert(ctx, again)
	if err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}
	if firstID != secondID {
		t.Errorf("synopsis id changed on upsert: %d -> %d", firstID, secondID)
	}
	got, _ := repos.Synopses.GetByStudent(ctx, id)
	if got.SynopsisTitle != "v2" {
		t.Errorf("synopsis title = %q, want v2", got.SynopsisTitle)
	}

	orphan := &models.Presentation{StudentID: id + 100, PresentationDate: "2021-03-04"}
	if _, err := repos.Presentations.Create(ctx, orphan); !errors.Is(err, apperrors.ErrStudentNotFound) {
		t.Errorf("orphan presentation error = %v, want ErrStudentNotFound", err)
	}
	orphanCert := &models.Certificate{StudentID: id + 100, CertificateTitle: "x", CertificatePath: "x"}
	if _, err := repos.Certificates.Create(ctx, orphanCert); !errors.Is(err, apperrors.ErrStudentNotFound) {
		t.Errorf("orphan certificate error = %v, want ErrStudentNotFound", err)
	}

	if err := repos.Students.Delete(ctx, id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	ps, _ := repos.Presentations.ListByStudent(ctx, id)
	cs, _ := repos.Certificates.ListByStudent(ctx, id)
	if len(ps) != 0 || len(cs) != 0 {
		t.Errorf("dependents survived delete: %d presentations, %d certificates", len(ps), len(cs))
	}
	if _, err := repos.Synopses.GetByStudent(ctx, id); !errors.Is(err, apperrors.ErrSynopsisNotFound) {
		t.Errorf("synopsis survived delete: %v", err)
	}
	if err := repos.Students.Delete(ctx, id); !errors.Is(err, apperrors.ErrStudentNotFound) {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestDeleteSingleDependents(t *testing.T) {
	ctx := context.Background()
	repos := setupRepos(t)
	id := mustCreate(t, repos, newStudent("CS001", "Asha", "a@uni.edu"))

	p := &models.Presentation{StudentID: id, PresentationDate: "2021-03-04"}
	repos.Presentations.Create(ctx, p)
	c := &models.Certificate{StudentID: id, CertificateTitle: "t", CertificatePath: "p"}
	repos.Certificates.Create(ctx, c)

	if err := repos.Presentations.Delete(ctx, p.ID); err != nil {
		t.Errorf("delete presentation: %v", err)
	}
	if err := repos.Presentations.Delete(ctx, p.ID); !errors.Is(err, apperrors.ErrPresentationNotFound) {
		t.Errorf("repeat delete presentation: %v", err)
	}
	if err := repos.Certificates.Delete(ctx, c.ID); err != nil {
		t.Errorf("delete certificate: %v", err)
	}
	if _, err := repos.Certificates.GetByID(ctx, c.ID); !errors.Is(err, apperrors.ErrCertificateNotFound) {
		t.Errorf("GetByID(deleted) error = %v", err)
	}
}

func TestWithTxRollback(t *testing.T) {
	ctx := context.Background()
	database := testutil.SetupTestDB(t, nil)
	repos := NewRepositories(database)

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	txRepos := repos.WithTx(tx)
	id, err := txRepos.Students.Create(ctx, newStudent("CS001", "Asha", "a@uni.edu"))
	if err != nil {
		t.Fatalf("Create() in tx error = %v", err)
	}
	if _, err := txRepos.Presentations.Create(ctx, &models.Presentation{StudentID: id, PresentationDate: "2021-01-01"}); err != nil {
		t.Fatalf("create presentation in tx: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatal(err)
	}

	n, err := repos.Students.Count(ctx, "")
	if err != nil || n != 0 {
		t.Errorf("Count() after rollback = %d, %v", n, err)
	}
}
