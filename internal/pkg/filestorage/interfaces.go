package filestorage

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// Category is one of the attachment subdirectories under the upload root.
type Category string

const (
	CategoryPictures      Category = "pictures"
	CategoryCertificates  Category = "certificates"
	CategoryPresentations Category = "presentations"
	CategorySynopsis      Category = "synopsis"
)

// Categories lists every directory EnsureLayout creates
var Categories = []Category{CategoryCertificates, CategoryPictures, CategoryPresentations, CategorySynopsis}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// defaultExt is used when the source name carries no extension.
func (c Category) defaultExt() string {
	switch c {
	case CategoryCertificates, CategorySynopsis:
		return ".pdf"
	default:
		return ""
	}
}

// Source is the content of an attachment to be placed.
type Source struct {
	// Name is the original file name. Only its extension is kept.
	Name string
	Open func() (io.ReadCloser, error)
}

// FromPath wraps a file on the local filesystem.
func FromPath(path string) *Source {
	return &Source{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// FromFileHeader wraps an uploaded multipart file.
func FromFileHeader(fh *multipart.FileHeader) *Source {
	if fh == nil {
		return nil
	}
	return &Source{
		Name: fh.Filename,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}

// FileInfo describes a stored attachment
type FileInfo struct {
	Path string
	Size int64
}

// FileStorage is the attachment store used by the record service.
type FileStorage interface {
	// Place copies src to the deterministic location for (category, studentID, discriminator).
	Place(category Category, studentID int64, discriminator string, src *Source) (string, error)

	// PlaceWithBackup is Place that sets the previous content of the
	// destination aside, returning its backup path ("" when there was none).
	PlaceWithBackup(category Category, studentID int64, discriminator string, src *Source) (path, backup string, err error)

	// Restore moves a backup back over path.
	Restore(backup, path string) error

	// PlaceFile is Place for a source on the local filesystem.
	PlaceFile(category Category, studentID int64, discriminator, sourcePath string) (string, error)

	// Remove deletes a stored file. A missing file is not an error.
	Remove(path string) error

	// Stat returns the size of a stored file.
	Stat(path string) (*FileInfo, error)

	// Open opens a stored file for reading.
	Open(path string) (*os.File, error)
}
