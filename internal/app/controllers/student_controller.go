package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	appAuth "github.com/yigit/phdtrack/internal/app/auth"
	"github.com/yigit/phdtrack/internal/app/models/dto"
	"github.com/yigit/phdtrack/internal/app/repositories"
	"github.com/yigit/phdtrack/internal/app/services"
	"github.com/yigit/phdtrack/internal/middleware"
	"github.com/yigit/phdtrack/internal/pkg/apperrors"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// StudentController handles student record operations
type StudentController struct {
	records services.RecordService
	authz   *appAuth.AuthorizationService
	logger  zerolog.Logger
}

// NewStudentController creates a new StudentController
func NewStudentController(records services.RecordService, authz *appAuth.AuthorizationService, logger zerolog.Logger) *StudentController {
	return &StudentController{
		records: records,
		authz:   authz,
		logger:  logger,
	}
}

// ListStudents lists students page by page, or searches them when q is given
// @Summary List or search students
// @Tags students
// @Produce json
// @Param q query string false "Case-insensitive match on name or roll number"
// @Param page query int false "Page number (default 1)"
// @Param pageSize query int false "Page size (default 50)"
// @Success 200 {object} dto.APIResponse{data=dto.StudentListResponse}
// @Security BearerAuth
// @Router /students [get]
func (c *StudentController) ListStudents(ctx *gin.Context) {
	if q, ok := ctx.GetQuery("q"); ok {
		students, err := c.records.SearchStudents(ctx.Request.Context(), q)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.StudentListResponse{
			Students: dto.NewStudentResponses(students),
			Total:    int64(len(students)),
		}, ""))
		return
	}

	page, err := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError("page", "page must be a positive number"))
		return
	}
	pageSize, err := strconv.Atoi(ctx.DefaultQuery("pageSize", strconv.Itoa(defaultPageSize)))
	if err != nil || pageSize < 1 {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError("pageSize", "page size must be a positive number"))
		return
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	students, total, err := c.records.ListStudents(ctx.Request.Context(), repositories.StudentListParams{
		Limit:  uint64(pageSize),
		Offset: uint64((page - 1) * pageSize),
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.StudentListResponse{
		Students: dto.NewStudentResponses(students),
		Total:    total,
	}, ""))
}

// GetStudent returns the read-only view of one student
// @Summary Get a student record
// @Description The student with presentations, synopsis and certificates. Admin or the student themself.
// @Tags students
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=dto.StudentRecordResponse}
// @Failure 403 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Security BearerAuth
// @Router /students/{id} [get]
func (c *StudentController) GetStudent(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Student")
	if !ok {
		return
	}
	if !c.canView(ctx, id) {
		return
	}

	record, err := c.records.GetStudentRecord(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewStudentRecordResponse(record), ""))
}

// CreateStudent adds a student together with the attachments sent with it
// @Summary Add a student
// @Tags students
// @Accept multipart/form-data
// @Accept json
// @Produce json
// @Success 201 {object} dto.APIResponse{data=dto.StudentRecordResponse}
// @Failure 400 {object} dto.APIResponse
// @Security BearerAuth
// @Router /students [post]
func (c *StudentController) CreateStudent(ctx *gin.Context) {
	var req *dto.CreateStudentRequest
	if isJSON(ctx) {
		req = &dto.CreateStudentRequest{}
		if !middleware.BindJSON(ctx, req) {
			return
		}
	} else {
		var err error
		if req, err = createRequestFromForm(ctx); err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
	}

	id, err := c.records.AddStudent(ctx.Request.Context(), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	c.logger.Info().Int64("studentID", id).Str("rollNumber", req.RollNumber).Msg("Student added")

	record, err := c.records.GetStudentRecord(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewStudentRecordResponse(record), "Student added"))
}

// UpdateStudent applies a partial update
// @Summary Update a student
// @Description Only submitted fields change. Sending certificates replaces all of them.
// @Tags students
// @Accept multipart/form-data
// @Accept json
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=dto.StudentRecordResponse}
// @Security BearerAuth
// @Router /students/{id} [put]
func (c *StudentController) UpdateStudent(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Student")
	if !ok {
		return
	}

	var req *dto.UpdateStudentRequest
	if isJSON(ctx) {
		req = &dto.UpdateStudentRequest{}
		if !middleware.BindJSON(ctx, req) {
			return
		}
	} else {
		var err error
		if req, err = updateRequestFromForm(ctx); err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
	}
	if req.IsEmpty() {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError("", "nothing to update"))
		return
	}

	if _, err := c.records.UpdateStudent(ctx.Request.Context(), id, req); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	c.logger.Info().Int64("studentID", id).Msg("Student updated")

	record, err := c.records.GetStudentRecord(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewStudentRecordResponse(record), "Student updated"))
}

// ExtendBatch adds years to the student's batch end
// @Summary Apply a batch extension
// @Tags students
// @Accept json
// @Produce json
// @Param id path int true "Student ID"
// @Param request body dto.ExtensionRequest true "Years to add"
// @Success 200 {object} dto.APIResponse{data=dto.StudentResponse}
// @Security BearerAuth
// @Router /students/{id}/extension [post]
func (c *StudentController) ExtendBatch(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Student")
	if !ok {
		return
	}
	var req dto.ExtensionRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	student, err := c.records.ApplyExtension(ctx.Request.Context(), id, req.Years)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	c.logger.Info().Int64("studentID", id).Int("years", req.Years).Msg("Batch extension applied")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewStudentResponse(student), "Extension applied"))
}

// DeleteStudent removes a student, its dependents and their files
// @Summary Delete a student
// @Tags students
// @Param id path int true "Student ID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Security BearerAuth
// @Router /students/{id} [delete]
func (c *StudentController) DeleteStudent(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Student")
	if !ok {
		return
	}
	if err := c.records.DeleteStudent(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	c.logger.Info().Int64("studentID", id).Msg("Student deleted")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Student deleted"))
}

// canView writes the error response and returns false when the caller may
// not see studentID.
func (c *StudentController) canView(ctx *gin.Context, studentID int64) bool {
	identity, _ := middleware.IdentityFrom(ctx)
	if err := c.authz.CanViewStudent(identity, studentID); err != nil {
		c.logger.Warn().Str("identity", identity.String()).Int64("studentID", studentID).Msg("Record access refused")
		middleware.HandleAPIError(ctx, err)
		return false
	}
	return true
}
