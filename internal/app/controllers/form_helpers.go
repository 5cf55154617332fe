package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yigit/phdtrack/internal/app/models/dto"
	"github.com/yigit/phdtrack/internal/pkg/apperrors"
	"github.com/yigit/phdtrack/internal/pkg/filestorage"
)

// Multipart field names shared by the student and attachment endpoints
const (
	fieldPicture             = "picture"
	fieldPresentationDate    = "presentationDate"
	fieldProgressNotes       = "progressNotes"
	fieldPresentationFile    = "presentationFile"
	fieldSynopsisTitle       = "synopsisTitle"
	fieldSubmissionDate      = "submissionDate"
	fieldAbstract            = "abstract"
	fieldSynopsisFile        = "synopsisFile"
	fieldCertificateTitle    = "certificateTitle"
	fieldCertificateFile     = "certificateFile"
	fieldReplaceCertificates = "replaceCertificates"
)

// parseIDParam reads a positive integer path parameter. On failure it writes
// a 400 response and returns false.
func parseIDParam(ctx *gin.Context, name, label string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid "+label+" ID").
			WithField(name).
			WithDetails(label + " ID must be a positive number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}

func isJSON(ctx *gin.Context) bool {
	return ctx.ContentType() == gin.MIMEJSON
}

// formFile returns the named upload, or nil when the request has none.
func formFile(ctx *gin.Context, field string) (*filestorage.Source, error) {
	fh, err := ctx.FormFile(field)
	switch {
	case err == nil:
		return filestorage.FromFileHeader(fh), nil
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return nil, nil
	default:
		return nil, apperrors.NewValidationError(field, "could not read the uploaded file")
	}
}

// formValue returns a pointer to the submitted value, nil when the field is absent.
func formValue(ctx *gin.Context, field string) *string {
	v, ok := ctx.GetPostForm(field)
	if !ok {
		return nil
	}
	return &v
}

// presentationFromForm collects the optional first presentation. It is nil
// when none of its fields were sent.
func presentationFromForm(ctx *gin.Context) (*dto.PresentationInput, error) {
	file, err := formFile(ctx, fieldPresentationFile)
	if err != nil {
		return nil, err
	}
	in := &dto.PresentationInput{
		PresentationDate: strings.TrimSpace(ctx.PostForm(fieldPresentationDate)),
		ProgressNotes:    strings.TrimSpace(ctx.PostForm(fieldProgressNotes)),
		File:             file,
	}
	if in.PresentationDate == "" && in.ProgressNotes == "" && in.File == nil {
		return nil, nil
	}
	return in, nil
}

// synopsisFromForm collects the optional synopsis, nil when nothing was sent.
func synopsisFromForm(ctx *gin.Context) (*dto.SynopsisInput, error) {
	file, err := formFile(ctx, fieldSynopsisFile)
	if err != nil {
		return nil, err
	}
	in := &dto.SynopsisInput{
		SynopsisTitle:  strings.TrimSpace(ctx.PostForm(fieldSynopsisTitle)),
		SubmissionDate: strings.TrimSpace(ctx.PostForm(fieldSubmissionDate)),
		Abstract:       strings.TrimSpace(ctx.PostForm(fieldAbstract)),
		File:           file,
	}
	if in.SynopsisTitle == "" && in.SubmissionDate == "" && in.Abstract == "" && in.File == nil {
		return nil, nil
	}
	return in, nil
}

// certificatesFromForm pairs repeated certificateTitle and certificateFile
// fields by position. present is false when neither field was sent and no
// explicit replacement was requested.
func certificatesFromForm(ctx *gin.Context) (list []dto.CertificateInput, present bool, err error) {
	var titles []string
	var files []*multipart.FileHeader
	if form, ferr := ctx.MultipartForm(); ferr == nil {
		titles = form.Value[fieldCertificateTitle]
		files = form.File[fieldCertificateFile]
	}

	replace, _ := strconv.ParseBool(ctx.PostForm(fieldReplaceCertificates))
	if len(titles) == 0 && len(files) == 0 {
		if replace {
			return []dto.CertificateInput{}, true, nil
		}
		return nil, false, nil
	}
	if len(titles) != len(files) {
		return nil, true, apperrors.NewValidationError(fieldCertificateFile, "every certificate needs a title and a file")
	}

	list = make([]dto.CertificateInput, 0, len(titles))
	for i := range titles {
		list = append(list, dto.CertificateInput{
			CertificateTitle: strings.TrimSpace(titles[i]),
			File:             filestorage.FromFileHeader(files[i]),
		})
	}
	return list, true, nil
}

// createRequestFromForm builds an add request from a multipart form.
func createRequestFromForm(ctx *gin.Context) (*dto.CreateStudentRequest, error) {
	var req dto.CreateStudentRequest
	if err := ctx.ShouldBind(&req.StudentFields); err != nil {
		return nil, apperrors.NewValidationError("", "invalid form data")
	}

	var err error
	if req.Picture, err = formFile(ctx, fieldPicture); err != nil {
		return nil, err
	}
	if req.Presentation, err = presentationFromForm(ctx); err != nil {
		return nil, err
	}
	if req.Synopsis, err = synopsisFromForm(ctx); err != nil {
		return nil, err
	}
	if req.Certificates, _, err = certificatesFromForm(ctx); err != nil {
		return nil, err
	}
	return &req, nil
}

// updateRequestFromForm builds a partial update. Only submitted fields are set.
func updateRequestFromForm(ctx *gin.Context) (*dto.UpdateStudentRequest, error) {
	req := &dto.UpdateStudentRequest{
		RollNumber:       formValue(ctx, "rollNumber"),
		BatchFrom:        formValue(ctx, "batchFrom"),
		BatchTo:          formValue(ctx, "batchTo"),
		Name:             formValue(ctx, "name"),
		Email:            formValue(ctx, "email"),
		Department:       formValue(ctx, "department"),
		Supervisor:       formValue(ctx, "supervisor"),
		RegistrationDate: formValue(ctx, "registrationDate"),
		DateOfBirth:      formValue(ctx, "dateOfBirth"),
		Title:            formValue(ctx, "title"),
		Publications:     formValue(ctx, "publications"),
	}

	var err error
	if req.Picture, err = formFile(ctx, fieldPicture); err != nil {
		return nil, err
	}
	if req.Synopsis, err = synopsisFromForm(ctx); err != nil {
		return nil, err
	}
	certs, present, err := certificatesFromForm(ctx)
	if err != nil {
		return nil, err
	}
	if present {
		req.Certificates = certs
	}
	return req, nil
}
