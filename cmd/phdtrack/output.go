package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/yigit/phdtrack/internal/app/models"
	"github.com/yigit/phdtrack/internal/app/models/dto"
	"github.com/yigit/phdtrack/internal/pkg/filestorage"
	"github.com/yigit/phdtrack/internal/pkg/helpers"
)

func renderTable(header []string, rows [][]string) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.Render()
}

func printStudents(students []*models.Student, total int64) {
	if len(students) == 0 {
		color.Yellow("No students found")
		return
	}
	rows := make([][]string, 0, len(students))
	for _, s := range students {
		rows = append(rows, []string{
			strconv.FormatInt(s.ID, 10),
			s.RollNumber,
			s.Name,
			s.Email,
			s.Department,
			s.Supervisor,
			s.BatchDisplay(),
		})
	}
	renderTable([]string{"ID", "Roll Number", "Name", "Email", "Department", "Supervisor", "Batch"}, rows)
	fmt.Printf("%d of %d students\n", len(students), total)
}

// fileCell shows a stored path with its size, or a marker when it is gone.
func fileCell(files filestorage.FileStorage, path string) string {
	if path == "" {
		return "-"
	}
	info, err := files.Stat(path)
	if err != nil {
		return path + " " + color.RedString("(missing)")
	}
	return fmt.Sprintf("%s (%s)", path, humanize.Bytes(uint64(info.Size)))
}

func printRecord(files filestorage.FileStorage, record *models.StudentRecord) {
	view := dto.NewStudentRecordResponse(record)
	st := view.Student

	color.Cyan("Student %d: %s", st.ID, st.Name)
	renderTable([]string{"Field", "Value"}, [][]string{
		{"Roll Number", st.RollNumber},
		{"Batch", st.Batch},
		{"Original Batch To", orDash(st.OriginalBatchTo)},
		{"Email", st.Email},
		{"Department", st.Department},
		{"Supervisor", st.Supervisor},
		{"Registration Date", st.RegistrationDate},
		{"Date of Birth", orDash(st.DateOfBirth)},
		{"Title", st.Title},
		{"Publications", st.Publications},
		{"Picture", fileCell(files, st.PicturePath)},
	})

	color.Cyan("\nPresentations")
	printPresentations(files, record.Presentations)

	color.Cyan("\nSynopsis")
	printSynopsis(files, record.Synopsis)

	color.Cyan("\nCertificates")
	printCertificates(files, record.Certificates)
}

func printPresentations(files filestorage.FileStorage, list []*models.Presentation) {
	if len(list) == 0 {
		color.Yellow("None")
		return
	}
	rows := make([][]string, 0, len(list))
	for _, p := range list {
		rows = append(rows, []string{
			strconv.FormatInt(p.ID, 10),
			helpers.FormatDisplayDate(p.PresentationDate),
			p.ProgressNotes,
			fileCell(files, helpers.Deref(p.PresentationFile)),
		})
	}
	renderTable([]string{"ID", "Date", "Progress Notes", "File"}, rows)
}

func printSynopsis(files filestorage.FileStorage, s *models.Synopsis) {
	if s == nil {
		color.Yellow("None")
		return
	}
	renderTable([]string{"Field", "Value"}, [][]string{
		{"ID", strconv.FormatInt(s.ID, 10)},
		{"Title", s.SynopsisTitle},
		{"Submission Date", helpers.FormatDisplayDate(s.SubmissionDate)},
		{"Abstract", s.Abstract},
		{"File", fileCell(files, helpers.Deref(s.SynopsisFile))},
	})
}

func printCertificates(files filestorage.FileStorage, list []*models.Certificate) {
	if len(list) == 0 {
		color.Yellow("None")
		return
	}
	rows := make([][]string, 0, len(list))
	for _, c := range list {
		rows = append(rows, []string{
			strconv.FormatInt(c.ID, 10),
			c.CertificateTitle,
			fileCell(files, c.CertificatePath),
		})
	}
	renderTable([]string{"ID", "Title", "File"}, rows)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
