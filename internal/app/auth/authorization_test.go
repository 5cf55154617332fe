package auth

import (
	"errors"
	"testing"

	"github.com/yigit/phdtrack/internal/app/models"
	"github.com/yigit/phdtrack/internal/pkg/apperrors"
)

func TestRequireAdmin(t *testing.T) {
	s := NewAuthorizationService(nil)
	if err := s.RequireAdmin(models.AdminIdentity()); err != nil {
		t.Errorf("admin refused: %v", err)
	}
	for _, id := range []models.Identity{models.StudentIdentity(1), {}} {
		if err := s.RequireAdmin(id); !errors.Is(err, apperrors.ErrPermissionDenied) {
			t.Errorf("RequireAdmin(%v) = %v", id, err)
		}
	}
}

func TestCanViewStudent(t *testing.T) {
	s := NewAuthorizationService(nil)
	tests := []struct {
		name     string
		identity models.Identity
		student  int64
		allowed  bool
	}{
		{"admin", models.AdminIdentity(), 7, true},
		{"owner", models.StudentIdentity(7), 7, true},
		{"other student", models.StudentIdentity(8), 7, false},
		{"anonymous", models.Identity{}, 7, false},
		{"zero id student", models.Identity{Kind: models.IdentityStudent}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.CanViewStudent(tt.identity, tt.student)
			if tt.allowed != (err == nil) {
				t.Errorf("CanViewStudent() = %v, allowed %v", err, tt.allowed)
			}
		})
	}
}
