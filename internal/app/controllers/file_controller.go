package controllers

import (
	"errors"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	appAuth "github.com/yigit/phdtrack/internal/app/auth"
	"github.com/yigit/phdtrack/internal/app/models/dto"
	"github.com/yigit/phdtrack/internal/middleware"
	"github.com/yigit/phdtrack/internal/pkg/filestorage"
)

// FileController serves stored attachments
type FileController struct {
	files  filestorage.FileStorage
	authz  *appAuth.AuthorizationService
	logger zerolog.Logger
}

// NewFileController creates a new FileController
func NewFileController(files filestorage.FileStorage, authz *appAuth.AuthorizationService, logger zerolog.Logger) *FileController {
	return &FileController{
		files:  files,
		authz:  authz,
		logger: logger,
	}
}

// ServeFile streams an attachment by the path stored on its record
// @Summary Download an attachment
// @Description The path is the one stored on the record, e.g. Uploads/certificates/1_Award.pdf
// @Tags files
// @Produce octet-stream
// @Param path path string true "Stored path"
// @Success 200 {file} file
// @Failure 403 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Security BearerAuth
// @Router /files/{path} [get]
func (c *FileController) ServeFile(ctx *gin.Context) {
	path := strings.TrimPrefix(ctx.Param("path"), "/")
	if path == "" {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "File path is required")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	identity, _ := middleware.IdentityFrom(ctx)
	if err := c.authz.CanAccessFile(ctx.Request.Context(), identity, path); err != nil {
		c.logger.Warn().Str("identity", identity.String()).Str("path", path).Msg("File access refused")
		middleware.HandleAPIError(ctx, err)
		return
	}

	f, err := c.files.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "File not found")
			ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(errorDetail))
			return
		}
		middleware.HandleAPIError(ctx, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	http.ServeContent(ctx.Writer, ctx.Request, filepath.Base(path), info.ModTime(), f)
}
