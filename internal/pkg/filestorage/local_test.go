package filestorage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yigit/phdtrack/internal/pkg/apperrors"
)

func newStorage(t *testing.T) *LocalStorage {
	t.Helper()
	ls, err := NewLocalStorage(filepath.Join(t.TempDir(), "Uploads"))
	if err != nil {
		t.Fatalf("NewLocalStorage() error = %v", err)
	}
	return ls
}

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return p
}

func TestNewLocalStorageCreatesLayout(t *testing.T) {
	ls := newStorage(t)
	for _, c := range Categories {
		fi, err := os.Stat(filepath.Join(ls.BasePath(), string(c)))
		if err != nil {
			t.Fatalf("category %s missing: %v", c, err)
		}
		if !fi.IsDir() {
			t.Errorf("category %s is not a directory", c)
		}
	}
}

func TestPlaceFileNaming(t *testing.T) {
	ls := newStorage(t)

	tests := []struct {
		name          string
		category      Category
		discriminator string
		source        string
		wantBase      string
	}{
		{"picture keeps extension", CategoryPictures, "21CS001", "me.JPG", "7_21CS001.JPG"},
		{"presentation by date", CategoryPresentations, "20240115", "slides.pptx", "7_20240115.pptx"},
		{"synopsis defaults to pdf", CategorySynopsis, "20240301", "synopsis", "7_20240301.pdf"},
		{"certificate title spaces", CategoryCertificates, "Best Paper Award", "award.pdf", "7_Best_Paper_Award.pdf"},
		{"separator in discriminator", CategoryPictures, "21/CS/001", "a.png", "7_21_CS_001.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := writeSource(t, tt.source, "content of "+tt.name)
			got, err := ls.PlaceFile(tt.category, 7, tt.discriminator, src)
			if err != nil {
				t.Fatalf("PlaceFile() error = %v", err)
			}
			want := filepath.Join(ls.BasePath(), string(tt.category), tt.wantBase)
			if got != want {
				t.Errorf("PlaceFile() = %q, want %q", got, want)
			}
			data, err := os.ReadFile(got)
			if err != nil {
				t.Fatalf("read placed file: %v", err)
			}
			if string(data) != "content of "+tt.name {
				t.Errorf("placed content = %q", data)
			}
		})
	}
}

func TestPlaceIsDeterministicAndOverwrites(t *testing.T) {
	ls := newStorage(t)
	first, err := ls.PlaceFile(CategoryPictures, 1, "R1", writeSource(t, "a.png", "one"))
	if err != nil {
		t.Fatalf("first place: %v", err)
	}
	second, err := ls.PlaceFile(CategoryPictures, 1, "R1", writeSource(t, "b.png", "two"))
	if err != nil {
		t.Fatalf("second place: %v", err)
	}
	if first != second {
		t.Fatalf("paths differ: %q vs %q", first, second)
	}
	data, _ := os.ReadFile(second)
	if string(data) != "two" {
		t.Errorf("content = %q, want %q", data, "two")
	}
}

func TestPlaceOntoItself(t *testing.T) {
	ls := newStorage(t)
	stored, err := ls.PlaceFile(CategoryPictures, 3, "R3", writeSource(t, "p.png", "self"))
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	again, err := ls.PlaceFile(CategoryPictures, 3, "R3", stored)
	if err != nil {
		t.Fatalf("re-place onto itself: %v", err)
	}
	data, _ := os.ReadFile(again)
	if string(data) != "self" {
		t.Errorf("content = %q, want %q", data, "self")
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }
func (failingReader) Close() error             { return nil }

func TestPlaceFailureLeavesNothingBehind(t *testing.T) {
	ls := newStorage(t)
	src := &Source{
		Name: "broken.pdf",
		Open: func() (io.ReadCloser, error) { return failingReader{}, nil },
	}
	_, err := ls.Place(CategoryCertificates, 9, "Broken", src)
	if !errors.Is(err, apperrors.ErrFileOperation) {
		t.Fatalf("Place() error = %v, want ErrFileOperation", err)
	}
	entries, err := os.ReadDir(filepath.Join(ls.BasePath(), string(CategoryCertificates)))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty directory, found %d entries", len(entries))
	}
}

func TestPlaceMissingSource(t *testing.T) {
	ls := newStorage(t)
	_, err := ls.PlaceFile(CategoryPictures, 1, "R", filepath.Join(t.TempDir(), "nope.png"))
	if !errors.Is(err, apperrors.ErrFileOperation) {
		t.Fatalf("error = %v, want ErrFileOperation", err)
	}
	if _, err := ls.PlaceFile(CategoryPictures, 1, "R", ""); !errors.Is(err, apperrors.ErrFileOperation) {
		t.Fatalf("empty path error = %v, want ErrFileOperation", err)
	}
}

func TestPlaceUnknownCategory(t *testing.T) {
	ls := newStorage(t)
	_, err := ls.PlaceFile(Category("videos"), 1, "R", writeSource(t, "v.mp4", "x"))
	if !errors.Is(err, apperrors.ErrFileOperation) {
		t.Fatalf("error = %v, want ErrFileOperation", err)
	}
}

func TestRemove(t *testing.T) {
	ls := newStorage(t)
	stored, err := ls.PlaceFile(CategorySynopsis, 2, "20240101", writeSource(t, "s.pdf", "x"))
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	if err := ls.Remove(stored); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := os.Stat(stored); !os.IsNotExist(err) {
		t.Errorf("file still present after Remove")
	}
	if err := ls.Remove(stored); err != nil {
		t.Errorf("second Remove() error = %v, want nil", err)
	}
	if err := ls.Remove(""); err != nil {
		t.Errorf("Remove(\"\") error = %v, want nil", err)
	}
}

func TestRemoveOutsideRootIsSkipped(t *testing.T) {
	ls := newStorage(t)
	outside := writeSource(t, "keep.txt", "keep")
	if err := ls.Remove(outside); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := os.Stat(outside); err != nil {
		t.Errorf("file outside root was removed: %v", err)
	}
}

func TestOpenRejectsTraversal(t *testing.T) {
	ls := newStorage(t)
	_, err := ls.Open(filepath.Join(ls.BasePath(), "..", "..", "etc", "passwd"))
	if !errors.Is(err, apperrors.ErrFileOperation) {
		t.Fatalf("Open() error = %v, want ErrFileOperation", err)
	}
}

func TestStat(t *testing.T) {
	ls := newStorage(t)
	stored, err := ls.PlaceFile(CategoryPresentations, 4, "20230909", writeSource(t, "p.pdf", strings.Repeat("x", 2048)))
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	info, err := ls.Stat(stored)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Size != 2048 {
		t.Errorf("Size = %d, want 2048", info.Size)
	}
}

func TestSanitizeDiscriminator(t *testing.T) {
	tests := map[string]string{
		"Best Paper":  "Best_Paper",
		"":            "file",
		"..":          "file",
		"a\\b":        "a_b",
		"PhD-2024.v2": "PhD-2024.v2",
	}
	for in, want := range tests {
		if got := SanitizeDiscriminator(in); got != want {
			t.Errorf("SanitizeDiscriminator(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPlaceWithBackupAndRestore(t *testing.T) {
	ls := newStorage(t)

	path, backup, err := ls.PlaceWithBackup(CategoryPictures, 3, "R3", FromPath(writeSource(t, "p.jpg", "old")))
	if err != nil {
		t.Fatalf("PlaceWithBackup() error = %v", err)
	}
	if backup != "" {
		t.Errorf("first placement made a backup %q", backup)
	}

	_, backup, err = ls.PlaceWithBackup(CategoryPictures, 3, "R3", FromPath(writeSource(t, "p.jpg", "new")))
	if err != nil {
		t.Fatalf("PlaceWithBackup() error = %v", err)
	}
	if backup == "" {
		t.Fatal("overwriting placement made no backup")
	}
	if data, _ := os.ReadFile(path); string(data) != "new" {
		t.Errorf("placed content = %q, want new", data)
	}
	if data, _ := os.ReadFile(backup); string(data) != "old" {
		t.Errorf("backup content = %q, want old", data)
	}

	if err := ls.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := ls.Restore(backup, path); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if data, _ := os.ReadFile(path); string(data) != "old" {
		t.Errorf("restored content = %q, want old", data)
	}
	if _, err := os.Stat(backup); !os.IsNotExist(err) {
		t.Errorf("backup still present after restore: %v", err)
	}
}

func TestPlaceWithBackupOntoItself(t *testing.T) {
	ls := newStorage(t)
	path, err := ls.PlaceFile(CategoryCertificates, 4, "Award", writeSource(t, "a.pdf", "same"))
	if err != nil {
		t.Fatal(err)
	}

	again, backup, err := ls.PlaceWithBackup(CategoryCertificates, 4, "Award", FromPath(path))
	if err != nil {
		t.Fatalf("PlaceWithBackup() error = %v", err)
	}
	if again != path {
		t.Errorf("path = %q, want %q", again, path)
	}
	if data, _ := os.ReadFile(path); string(data) != "same" {
		t.Errorf("content = %q, want same", data)
	}
	if data, _ := os.ReadFile(backup); string(data) != "same" {
		t.Errorf("backup content = %q, want same", data)
	}
}
