package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yigit/phdtrack/internal/app/models/dto"
	"github.com/yigit/phdtrack/internal/middleware"
)

// ListPresentations returns the student's presentations in insertion order
// @Summary List presentations
// @Tags presentations
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.PresentationResponse}
// @Security BearerAuth
// @Router /students/{id}/presentations [get]
func (c *StudentController) ListPresentations(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Student")
	if !ok || !c.canView(ctx, id) {
		return
	}
	list, err := c.records.ListPresentations(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewPresentationResponses(list), ""))
}

// AddPresentation records a progress presentation
// @Summary Add a presentation
// @Tags presentations
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Student ID"
// @Param presentationDate formData string true "DD-MM-YYYY"
// @Param progressNotes formData string true "Progress notes"
// @Param presentationFile formData file false "Slides"
// @Success 201 {object} dto.APIResponse{data=dto.PresentationResponse}
// @Security BearerAuth
// @Router /students/{id}/presentations [post]
func (c *StudentController) AddPresentation(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Student")
	if !ok {
		return
	}

	in := &dto.PresentationInput{}
	if isJSON(ctx) {
		if !middleware.BindJSON(ctx, in) {
			return
		}
	} else {
		parsed, err := presentationFromForm(ctx)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		if parsed != nil {
			in = parsed
		}
	}

	p, err := c.records.AddPresentation(ctx.Request.Context(), id, in)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	c.logger.Info().Int64("studentID", id).Int64("presentationID", p.ID).Msg("Presentation added")
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewPresentationResponse(p), "Presentation added"))
}

// DeletePresentation removes one presentation and its file
// @Summary Delete a presentation
// @Tags presentations
// @Param presentationId path int true "Presentation ID"
// @Success 200 {object} dto.APIResponse
// @Security BearerAuth
// @Router /presentations/{presentationId} [delete]
func (c *StudentController) DeletePresentation(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "presentationId", "Presentation")
	if !ok {
		return
	}
	if err := c.records.DeletePresentation(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Presentation deleted"))
}

// GetSynopsis returns the student's synopsis
// @Summary Get the synopsis
// @Tags synopsis
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=dto.SynopsisResponse}
// @Failure 404 {object} dto.APIResponse
// @Security BearerAuth
// @Router /students/{id}/synopsis [get]
func (c *StudentController) GetSynopsis(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Student")
	if !ok || !c.canView(ctx, id) {
		return
	}
	syn, err := c.records.GetSynopsis(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewSynopsisResponse(syn), ""))
}

// UpsertSynopsis creates or replaces the student's synopsis
// @Summary Set the synopsis
// @Tags synopsis
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Student ID"
// @Param synopsisTitle formData string true "Title"
// @Param submissionDate formData string true "DD-MM-YYYY"
// @Param abstract formData string true "Abstract"
// @Param synopsisFile formData file false "Synopsis document"
// @Success 200 {object} dto.APIResponse{data=dto.SynopsisResponse}
// @Security BearerAuth
// @Router /students/{id}/synopsis [put]
func (c *StudentController) UpsertSynopsis(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Student")
	if !ok {
		return
	}

	in := &dto.SynopsisInput{}
	if isJSON(ctx) {
		if !middleware.BindJSON(ctx, in) {
			return
		}
	} else {
		parsed, err := synopsisFromForm(ctx)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		if parsed != nil {
			in = parsed
		}
	}

	syn, err := c.records.UpsertSynopsis(ctx.Request.Context(), id, in)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	c.logger.Info().Int64("studentID", id).Int64("synopsisID", syn.ID).Msg("Synopsis saved")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewSynopsisResponse(syn), "Synopsis saved"))
}

// ListCertificates returns the student's certificates
// @Summary List certificates
// @Tags certificates
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.CertificateResponse}
// @Security BearerAuth
// @Router /students/{id}/certificates [get]
func (c *StudentController) ListCertificates(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Student")
	if !ok || !c.canView(ctx, id) {
		return
	}
	list, err := c.records.ListCertificates(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewCertificateResponses(list), ""))
}

// AddCertificate attaches one certificate. Title and file are both required.
// @Summary Add a certificate
// @Tags certificates
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Student ID"
// @Param certificateTitle formData string true "Title"
// @Param certificateFile formData file true "Certificate document"
// @Success 201 {object} dto.APIResponse{data=dto.CertificateResponse}
// @Security BearerAuth
// @Router /students/{id}/certificates [post]
func (c *StudentController) AddCertificate(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Student")
	if !ok {
		return
	}

	file, err := formFile(ctx, fieldCertificateFile)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	in := &dto.CertificateInput{
		CertificateTitle: strings.TrimSpace(ctx.PostForm(fieldCertificateTitle)),
		File:             file,
	}

	cert, err := c.records.AddCertificate(ctx.Request.Context(), id, in)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	c.logger.Info().Int64("studentID", id).Int64("certificateID", cert.ID).Msg("Certificate added")
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewCertificateResponse(cert), "Certificate added"))
}

// DeleteCertificate removes one certificate and its file
// @Summary Delete a certificate
// @Tags certificates
// @Param certificateId path int true "Certificate ID"
// @Success 200 {object} dto.APIResponse
// @Security BearerAuth
// @Router /certificates/{certificateId} [delete]
func (c *StudentController) DeleteCertificate(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "certificateId", "Certificate")
	if !ok {
		return
	}
	if err := c.records.DeleteCertificate(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Certificate deleted"))
}
