package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/phdtrack/internal/app/models"
	"github.com/yigit/phdtrack/internal/app/models/dto"
	"github.com/yigit/phdtrack/internal/app/repositories"
	"github.com/yigit/phdtrack/internal/pkg/apperrors"
	"github.com/yigit/phdtrack/internal/pkg/auth"
	"github.com/yigit/phdtrack/internal/pkg/helpers"
)

// AdminCredentials is the fixed admin identity. PasswordHash (bcrypt) wins
// over Password when both are set.
type AdminCredentials struct {
	Username     string
	Password     string
	PasswordHash string
}

// AuthService defines the Authentication Gate
type AuthService interface {
	// Authenticate resolves credentials into an Identity. Every failure,
	// including store errors, is reported as ErrInvalidCredentials.
	Authenticate(ctx context.Context, identifier, secret string) (models.Identity, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	ValidateToken(token string) (models.Identity, error)
}

// authServiceImpl implements AuthService
type authServiceImpl struct {
	studentRepo *repositories.StudentRepository
	jwtService  *auth.JWTService
	adminUser   string
	adminHash   string
	logger      zerolog.Logger
}

// NewAuthService creates a new AuthService. A plain admin password is hashed
// once here so both forms are checked the same way.
func NewAuthService(
	studentRepo *repositories.StudentRepository,
	jwtService *auth.JWTService,
	admin AdminCredentials,
	logger zerolog.Logger,
) (AuthService, error) {
	hash := admin.PasswordHash
	if hash == "" {
		var err error
		if hash, err = auth.HashPassword(admin.Password); err != nil {
			return nil, err
		}
	}
	return &authServiceImpl{
		studentRepo: studentRepo,
		jwtService:  jwtService,
		adminUser:   admin.Username,
		adminHash:   hash,
		logger:      logger,
	}, nil
}

// Authenticate implements the admin check first, then the student email and
// date of birth check.
func (s *authServiceImpl) Authenticate(ctx context.Context, identifier, secret string) (models.Identity, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == s.adminUser && auth.CheckPassword(s.adminHash, secret) {
		s.logger.Info().Msg("Admin authenticated")
		return models.AdminIdentity(), nil
	}

	dob, err := helpers.ParseDisplayDate(secret)
	if err != nil {
		return models.Identity{}, apperrors.ErrInvalidCredentials
	}

	student, err := s.studentRepo.FindForLogin(ctx, identifier, dob)
	if err != nil {
		if !errors.Is(err, apperrors.ErrStudentNotFound) {
			s.logger.Error().Err(err).Msg("Student lookup failed during authentication")
		}
		return models.Identity{}, apperrors.ErrInvalidCredentials
	}

	if student.DateOfBirth == nil {
		s.logger.Warn().Int64("studentID", student.ID).
			Msg("Student authenticated without a stored date of birth; any valid date is accepted")
	}
	return models.StudentIdentity(student.ID), nil
}

// Login authenticates and issues a session token for the identity.
func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	if req == nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	identity, err := s.Authenticate(ctx, req.Identifier, req.Secret)
	if err != nil {
		return nil, err
	}
	token, expiresIn, err := s.jwtService.GenerateToken(identity)
	if err != nil {
		s.logger.Error().Err(err).Str("identity", identity.String()).Msg("Failed to issue token")
		return nil, err
	}
	return &dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   expiresIn,
		},
		Identity: identity,
	}, nil
}

// ValidateToken restores the identity a token was issued for.
func (s *authServiceImpl) ValidateToken(token string) (models.Identity, error) {
	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return models.Identity{}, err
	}
	return claims.Identity(), nil
}
