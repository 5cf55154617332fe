package services

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/yigit/phdtrack/internal/app/repositories"
	"github.com/yigit/phdtrack/internal/pkg/apperrors"
	"github.com/yigit/phdtrack/internal/pkg/helpers"
	"github.com/yigit/phdtrack/internal/pkg/logger"
)

// ExportHeader is the fixed column header of the students export.
var ExportHeader = []string{
	"ID", "Roll Number", "Batch From", "Batch To", "Original Batch To",
	"Name", "Email", "Department", "Supervisor", "Registration Date",
	"DOB", "Picture Path", "Title", "Publications",
}

// ExportStudentsCSV writes every student, ordered by id, as CSV. Stored
// values are written as they are; NULL becomes an empty field.
func (s *recordServiceImpl) ExportStudentsCSV(ctx context.Context, w io.Writer) (int, error) {
	students, err := s.repos.Students.List(ctx, repositories.StudentListParams{})
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return 0, apperrors.NewFileError("export", err)
	}
	for _, st := range students {
		row := []string{
			strconv.FormatInt(st.ID, 10),
			st.RollNumber,
			helpers.Deref(st.BatchFrom),
			helpers.Deref(st.BatchTo),
			helpers.Deref(st.OriginalBatchTo),
			st.Name,
			st.Email,
			st.Department,
			st.Supervisor,
			st.RegistrationDate,
			helpers.Deref(st.DateOfBirth),
			helpers.Deref(st.PicturePath),
			st.Title,
			st.Publications,
		}
		if err := cw.Write(row); err != nil {
			return 0, apperrors.NewFileError("export", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, apperrors.NewFileError("export", err)
	}

	logger.Info().Int("students", len(students)).Msg("Students exported")
	return len(students), nil
}
