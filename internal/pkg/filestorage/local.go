package filestorage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/yigit/phdtrack/internal/pkg/apperrors"
	"github.com/yigit/phdtrack/internal/pkg/logger"
)

// LocalStorage keeps attachments on the local filesystem under one root.
type LocalStorage struct {
	basePath string
	absBase  string
}

var _ FileStorage = (*LocalStorage)(nil)

// NewLocalStorage creates the root and the category directories.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage path %s: %w", basePath, err)
	}
	ls := &LocalStorage{basePath: filepath.Clean(basePath), absBase: abs}
	if err := ls.EnsureLayout(); err != nil {
		return nil, err
	}
	return ls, nil
}

// EnsureLayout creates every category directory that is missing.
func (ls *LocalStorage) EnsureLayout() error {
	for _, c := range Categories {
		dir := filepath.Join(ls.basePath, string(c))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error().Err(err).Str("path", dir).Msg("Failed to create storage directory")
			return apperrors.NewFileError(dir, err)
		}
	}
	logger.Debug().Str("path", ls.basePath).Msg("Storage layout ensured")
	return nil
}

// BasePath returns the upload root as configured
func (ls *LocalStorage) BasePath() string {
	return ls.basePath
}

// PathFor returns the destination Place would use, without touching the disk.
func (ls *LocalStorage) PathFor(category Category, studentID int64, discriminator, sourceName string) string {
	ext := filepath.Ext(sourceName)
	if ext == "" {
		ext = category.defaultExt()
	}
	name := fmt.Sprintf("%d_%s%s", studentID, SanitizeDiscriminator(discriminator), ext)
	return filepath.Join(ls.basePath, string(category), name)
}

// Place copies src into its deterministic destination. The copy goes through a
// temporary file in the same directory and is renamed into place, so a failed
// copy never leaves a partial attachment behind.
func (ls *LocalStorage) Place(category Category, studentID int64, discriminator string, src *Source) (string, error) {
	path, _, err := ls.place(category, studentID, discriminator, src, false)
	return path, err
}

// PlaceWithBackup is Place that moves an existing destination aside instead of
// overwriting it. backup is empty when there was nothing to keep.
func (ls *LocalStorage) PlaceWithBackup(category Category, studentID int64, discriminator string, src *Source) (path, backup string, err error) {
	return ls.place(category, studentID, discriminator, src, true)
}

func (ls *LocalStorage) place(category Category, studentID int64, discriminator string, src *Source, keepPrevious bool) (string, string, error) {
	if !category.Valid() {
		return "", "", apperrors.NewFileError(string(category), fmt.Errorf("unknown category %q", category))
	}
	if src == nil || src.Open == nil {
		return "", "", apperrors.NewFileError("", errors.New("no source file given"))
	}

	dstPath := ls.PathFor(category, studentID, discriminator, src.Name)
	dir := filepath.Dir(dstPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error().Err(err).Str("path", dir).Msg("Failed to create category directory")
		return "", "", apperrors.NewFileError(dir, err)
	}

	tmpPath, err := ls.copyToTemp(dir, dstPath, src)
	if err != nil {
		return "", "", err
	}

	// the source is fully copied by now, so it may be the destination itself
	var backup string
	if keepPrevious {
		if _, err := os.Stat(dstPath); err == nil {
			backup = filepath.Join(dir, "."+uuid.New().String()+".bak")
			if err := os.Rename(dstPath, backup); err != nil {
				_ = os.Remove(tmpPath)
				logger.Error().Err(err).Str("path", dstPath).Msg("Failed to set previous attachment aside")
				return "", "", apperrors.NewFileError(dstPath, err)
			}
		}
	}

	if err := os.Rename(tmpPath, dstPath); err != nil {
		_ = os.Remove(tmpPath)
		if backup != "" {
			_ = os.Rename(backup, dstPath)
		}
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to move attachment into place")
		return "", "", apperrors.NewFileError(dstPath, err)
	}

	logger.Info().Str("source", src.Name).Str("stored_as", dstPath).Bool("backedUp", backup != "").Msg("Attachment placed")
	return dstPath, backup, nil
}

// copyToTemp copies src into a fresh hidden file in dir and returns its path.
func (ls *LocalStorage) copyToTemp(dir, dstPath string, src *Source) (string, error) {
	in, err := src.Open()
	if err != nil {
		logger.Error().Err(err).Str("source", src.Name).Msg("Failed to open source file")
		return "", apperrors.NewFileError(src.Name, err)
	}
	defer in.Close()

	tmpPath := filepath.Join(dir, "."+uuid.New().String()+".tmp")
	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		logger.Error().Err(err).Str("path", tmpPath).Msg("Failed to create temporary file")
		return "", apperrors.NewFileError(dstPath, err)
	}

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to copy attachment content")
		return "", apperrors.NewFileError(dstPath, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", apperrors.NewFileError(dstPath, err)
	}
	return tmpPath, nil
}

// Restore moves a backup made by PlaceWithBackup back over path.
func (ls *LocalStorage) Restore(backup, path string) error {
	if !ls.Contains(backup) || !ls.Contains(path) {
		return apperrors.NewFileError(path, os.ErrPermission)
	}
	if err := os.Rename(backup, path); err != nil {
		logger.Error().Err(err).Str("path", path).Msg("Failed to restore previous attachment")
		return apperrors.NewFileError(path, err)
	}
	logger.Info().Str("path", path).Msg("Previous attachment restored")
	return nil
}

// PlaceFile places a file read from sourcePath.
func (ls *LocalStorage) PlaceFile(category Category, studentID int64, discriminator, sourcePath string) (string, error) {
	if strings.TrimSpace(sourcePath) == "" {
		return "", apperrors.NewFileError(sourcePath, errors.New("empty source path"))
	}
	return ls.Place(category, studentID, discriminator, FromPath(sourcePath))
}

// Remove deletes a stored attachment. Missing files and empty paths succeed.
// Paths outside the upload root are left alone.
func (ls *LocalStorage) Remove(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if !ls.Contains(path) {
		logger.Warn().Str("path", path).Msg("Refusing to remove file outside the upload root")
		return nil
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug().Str("path", path).Msg("File to delete does not exist")
			return nil
		}
		logger.Error().Err(err).Str("path", path).Msg("Failed to delete file")
		return apperrors.NewFileError(path, err)
	}
	logger.Info().Str("path", path).Msg("File deleted")
	return nil
}

// Stat returns the size of a stored file.
func (ls *LocalStorage) Stat(path string) (*FileInfo, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, apperrors.NewFileError(path, err)
	}
	return &FileInfo{Path: path, Size: fi.Size()}, nil
}

// Open opens a stored file that lives under the upload root.
func (ls *LocalStorage) Open(path string) (*os.File, error) {
	if !ls.Contains(path) {
		return nil, apperrors.NewFileError(path, os.ErrPermission)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewFileError(path, err)
	}
	return f, nil
}

// Contains reports whether path resolves to a location under the upload root.
func (ls *LocalStorage) Contains(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(ls.absBase, abs)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// SanitizeDiscriminator turns a discriminator into a safe file name fragment.
// Spaces become underscores, as do separators and other unsafe characters.
func SanitizeDiscriminator(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "file"
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		case r > 127 && r != 0xFFFD:
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if strings.Trim(out, ".") == "" {
		return "file"
	}
	return out
}
