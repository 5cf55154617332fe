// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/phdtrack/internal/app/models/dto"
	"github.com/yigit/phdtrack/internal/app/services"
	"github.com/yigit/phdtrack/internal/middleware"
)

// AuthController handles authentication related operations
type AuthController struct {
	authService services.AuthService
	records     services.RecordService
	logger      zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(authService services.AuthService, records services.RecordService, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		records:     records,
		logger:      logger,
	}
}

// Login handles admin and student login
// @Summary Log in
// @Description Admin logs in with username and password, students with email and date of birth (DD-MM-YYYY)
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse}
// @Failure 400 {object} dto.APIResponse "Invalid request format"
// @Failure 401 {object} dto.APIResponse "Invalid credentials"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.authService.Login(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Info().Str("identifier", req.Identifier).Msg("Login rejected")
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Str("identity", resp.Identity.String()).Msg("Login succeeded")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, "Login successful"))
}

// Me returns the caller's identity and, for a student, their own record
// @Summary Current identity
// @Tags auth
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.MeResponse}
// @Failure 401 {object} dto.APIResponse
// @Security BearerAuth
// @Router /me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	resp := dto.MeResponse{Identity: identity}
	if identity.IsStudent() {
		record, err := c.records.GetStudentRecord(ctx.Request.Context(), identity.StudentID)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		view := dto.NewStudentRecordResponse(record)
		resp.Record = &view
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}
