package auth

import (
	"context"
	"path/filepath"

	"github.com/yigit/phdtrack/internal/app/models"
	"github.com/yigit/phdtrack/internal/app/services"
	"github.com/yigit/phdtrack/internal/pkg/apperrors"
	"github.com/yigit/phdtrack/internal/pkg/logger"
)

// AuthorizationService decides what an Identity may do
type AuthorizationService struct {
	records services.RecordService
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(records services.RecordService) *AuthorizationService {
	return &AuthorizationService{records: records}
}

// RequireAdmin fails with ErrPermissionDenied unless identity is Admin.
func (s *AuthorizationService) RequireAdmin(identity models.Identity) error {
	if identity.IsAdmin() {
		return nil
	}
	logger.Warn().Str("identity", identity.String()).Msg("Admin action refused")
	return apperrors.ErrPermissionDenied
}

// CanViewStudent allows the admin and the student the record belongs to.
func (s *AuthorizationService) CanViewStudent(identity models.Identity, studentID int64) error {
	if identity.IsAdmin() || (identity.IsStudent() && identity.StudentID == studentID) {
		return nil
	}
	return apperrors.ErrPermissionDenied
}

// CanAccessFile allows the admin, or a student whose own record references path.
func (s *AuthorizationService) CanAccessFile(ctx context.Context, identity models.Identity, path string) error {
	if identity.IsAdmin() {
		return nil
	}
	if !identity.IsStudent() {
		return apperrors.ErrPermissionDenied
	}
	record, err := s.records.GetStudentRecord(ctx, identity.StudentID)
	if err != nil {
		return err
	}
	want := filepath.Clean(path)
	for _, p := range record.AttachmentPaths() {
		if filepath.Clean(p) == want {
			return nil
		}
	}
	return apperrors.ErrPermissionDenied
}
