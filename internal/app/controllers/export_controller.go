package controllers

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/phdtrack/internal/app/services"
	"github.com/yigit/phdtrack/internal/middleware"
)

const exportFileName = "students.csv"

// ExportController handles bulk exports
type ExportController struct {
	records services.RecordService
	logger  zerolog.Logger
}

// NewExportController creates a new ExportController
func NewExportController(records services.RecordService, logger zerolog.Logger) *ExportController {
	return &ExportController{records: records, logger: logger}
}

// ExportStudentsCSV downloads the students table as CSV
// @Summary Export students
// @Tags export
// @Produce text/csv
// @Success 200 {file} file
// @Security BearerAuth
// @Router /export/students.csv [get]
func (c *ExportController) ExportStudentsCSV(ctx *gin.Context) {
	// buffered so a store failure can still produce a JSON error
	var buf bytes.Buffer
	n, err := c.records.ExportStudentsCSV(ctx.Request.Context(), &buf)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int("rows", n).Msg("Students exported")
	ctx.Header("Content-Disposition", `attachment; filename="`+exportFileName+`"`)
	ctx.Header("X-Export-Rows", strconv.Itoa(n))
	ctx.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
