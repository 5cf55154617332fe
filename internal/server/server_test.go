package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/yigit/phdtrack/internal/app/models/dto"
	"github.com/yigit/phdtrack/internal/pkg/logger"
	"github.com/yigit/phdtrack/internal/testutil"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type envelope struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Data    json.RawMessage  `json:"data"`
	Error   *dto.ErrorDetail `json:"error"`
}

type apiClient struct {
	t       *testing.T
	handler http.Handler
}

func newTestServer(t *testing.T) *apiClient {
	t.Helper()
	cfg := testutil.TestConfig(t)
	// stored paths are relative to the working directory, as in production
	chdir(t, filepath.Dir(cfg.Database.Path))
	cfg.Storage.UploadRoot = "Uploads"

	srv, err := NewServer(context.Background(), cfg, logger.Get())
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	t.Cleanup(func() { srv.closeDatabase() })
	return &apiClient{t: t, handler: srv.Handler()}
}

func (c *apiClient) do(method, path, token, contentType string, body io.Reader) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	return w
}

func (c *apiClient) doJSON(method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	c.t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			c.t.Fatal(err)
		}
		body = bytes.NewReader(b)
	}
	return c.do(method, path, token, "application/json", body)
}

func (c *apiClient) login(identifier, secret string) string {
	c.t.Helper()
	w := c.doJSON(http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{Identifier: identifier, Secret: secret})
	if w.Code != http.StatusOK {
		c.t.Fatalf("login %s: status %d body %s", identifier, w.Code, w.Body.String())
	}
	var auth dto.AuthResponse
	decodeData(c.t, w, &auth)
	return auth.Token.AccessToken
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, w.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("decode data: %v (%s)", err, string(env.Data))
		}
	}
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorCode {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil || env.Error == nil {
		t.Fatalf("expected error envelope, got %s", w.Body.String())
	}
	return env.Error.Code
}

type formFile struct {
	field, name, content string
}

func multipartBody(t *testing.T, fields map[string][]string, files []formFile) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, values := range fields {
		for _, v := range values {
			if err := mw.WriteField(k, v); err != nil {
				t.Fatal(err)
			}
		}
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatal(err)
		}
		io.WriteString(fw, f.content)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func studentForm(roll, email string) map[string][]string {
	return map[string][]string{
		"rollNumber":       {roll},
		"batchFrom":        {"2021"},
		"batchTo":          {"2025"},
		"name":             {"Asha Rao"},
		"email":            {email},
		"department":       {"CSE"},
		"supervisor":       {"Dr. Iyer"},
		"registrationDate": {"01-08-2021"},
		"dateOfBirth":      {"15-03-1995"},
		"title":            {"Graph learning"},
		"publications":     {"2"},
	}
}

func (c *apiClient) createStudent(token, roll, email string, files []formFile, extra map[string][]string) dto.StudentRecordResponse {
	c.t.Helper()
	fields := studentForm(roll, email)
	for k, v := range extra {
		fields[k] = v
	}
	body, ct := multipartBody(c.t, fields, files)
	w := c.do(http.MethodPost, "/api/v1/students", token, ct, body)
	if w.Code != http.StatusCreated {
		c.t.Fatalf("create student: status %d body %s", w.Code, w.Body.String())
	}
	var rec dto.StudentRecordResponse
	decodeData(c.t, w, &rec)
	return rec
}

func TestLoginAndAuthentication(t *testing.T) {
	api := newTestServer(t)

	tests := []struct {
		name       string
		identifier string
		secret     string
		wantStatus int
	}{
		{"admin", "admin", "admin", http.StatusOK},
		{"wrong admin secret", "admin", "nope", http.StatusUnauthorized},
		{"unknown student", "ghost@uni.edu", "01-01-2000", http.StatusUnauthorized},
		{"missing secret", "admin", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.doJSON(http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{Identifier: tt.identifier, Secret: tt.secret})
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}

	if w := api.do(http.MethodGet, "/api/v1/me", "", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("/me without token = %d, want 401", w.Code)
	}
	if w := api.do(http.MethodGet, "/api/v1/me", "garbage", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("/me with bad token = %d, want 401", w.Code)
	} else if code := errorCode(t, w); code != dto.ErrorCodeInvalidToken {
		t.Errorf("error code = %s, want %s", code, dto.ErrorCodeInvalidToken)
	}

	token := api.login("admin", "admin")
	w := api.do(http.MethodGet, "/api/v1/me", token, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("/me = %d", w.Code)
	}
	var me dto.MeResponse
	decodeData(t, w, &me)
	if !me.Identity.IsAdmin() || me.Record != nil {
		t.Errorf("/me = %+v, want bare admin identity", me)
	}
}

func TestStudentLifecycleOverHTTP(t *testing.T) {
	api := newTestServer(t)
	admin := api.login("admin", "admin")

	rec := api.createStudent(admin, "PHD-01", "asha@uni.edu",
		[]formFile{
			{"picture", "face.jpg", "jpeg-bytes"},
			{"certificateFile", "award.pdf", "award-bytes"},
		},
		map[string][]string{
			"certificateTitle": {"Best Paper"},
			"presentationDate": {"10-01-2022"},
			"progressNotes":    {"Chapter one done"},
		})

	id := rec.Student.ID
	if rec.Student.PicturePath != filepath.Join("Uploads", "pictures", fmt.Sprintf("%d_PHD-01.jpg", id)) {
		t.Errorf("picture path = %q", rec.Student.PicturePath)
	}
	if rec.Student.RegistrationDate != "01-08-2021" || rec.Student.Batch != "2021-2025" {
		t.Errorf("student view = %+v", rec.Student)
	}
	if len(rec.Certificates) != 1 || rec.Certificates[0].CertificatePath != filepath.Join("Uploads", "certificates", fmt.Sprintf("%d_Best_Paper.pdf", id)) {
		t.Errorf("certificates = %+v", rec.Certificates)
	}
	if len(rec.Presentations) != 1 || rec.Presentations[0].PresentationDate != "10-01-2022" {
		t.Errorf("presentations = %+v", rec.Presentations)
	}

	// a second student the first may not see
	other := api.createStudent(admin, "PHD-02", "ben@uni.edu", nil, nil)

	t.Run("search", func(t *testing.T) {
		w := api.do(http.MethodGet, "/api/v1/students?q=phd-0", admin, "", nil)
		var list dto.StudentListResponse
		decodeData(t, w, &list)
		if w.Code != http.StatusOK || list.Total != 2 {
			t.Errorf("search = %d, %+v", w.Code, list)
		}
		if w := api.do(http.MethodGet, "/api/v1/students?q=", admin, "", nil); w.Code != http.StatusBadRequest {
			t.Errorf("empty search = %d, want 400", w.Code)
		}
	})

	t.Run("student access", func(t *testing.T) {
		student := api.login("asha@uni.edu", "15-03-1995")

		w := api.do(http.MethodGet, "/api/v1/me", student, "", nil)
		var me dto.MeResponse
		decodeData(t, w, &me)
		if me.Record == nil || me.Record.Student.ID != id {
			t.Fatalf("/me = %+v", me)
		}

		if w := api.do(http.MethodGet, fmt.Sprintf("/api/v1/students/%d", id), student, "", nil); w.Code != http.StatusOK {
			t.Errorf("own record = %d", w.Code)
		}
		if w := api.do(http.MethodGet, fmt.Sprintf("/api/v1/students/%d", other.Student.ID), student, "", nil); w.Code != http.StatusForbidden {
			t.Errorf("other record = %d, want 403", w.Code)
		}
		if w := api.do(http.MethodGet, "/api/v1/students", student, "", nil); w.Code != http.StatusForbidden {
			t.Errorf("list as student = %d, want 403", w.Code)
		}
		if w := api.do(http.MethodDelete, fmt.Sprintf("/api/v1/students/%d", id), student, "", nil); w.Code != http.StatusForbidden {
			t.Errorf("delete as student = %d, want 403", w.Code)
		}

		w = api.do(http.MethodGet, "/api/v1/files/"+filepath.ToSlash(rec.Student.PicturePath), student, "", nil)
		if w.Code != http.StatusOK || w.Body.String() != "jpeg-bytes" {
			t.Errorf("own picture = %d %q", w.Code, w.Body.String())
		}
		w = api.do(http.MethodGet, "/api/v1/files/Uploads/pictures/999_x.jpg", student, "", nil)
		if w.Code != http.StatusForbidden {
			t.Errorf("foreign file = %d, want 403", w.Code)
		}
	})

	t.Run("update and extension", func(t *testing.T) {
		body, ct := multipartBody(t, map[string][]string{"supervisor": {"Dr. Menon"}}, nil)
		w := api.do(http.MethodPut, fmt.Sprintf("/api/v1/students/%d", id), admin, ct, body)
		if w.Code != http.StatusOK {
			t.Fatalf("update = %d %s", w.Code, w.Body.String())
		}
		var updated dto.StudentRecordResponse
		decodeData(t, w, &updated)
		if updated.Student.Supervisor != "Dr. Menon" || updated.Student.Name != "Asha Rao" {
			t.Errorf("updated = %+v", updated.Student)
		}
		if len(updated.Certificates) != 1 {
			t.Errorf("certificates changed without being sent: %+v", updated.Certificates)
		}

		w = api.doJSON(http.MethodPost, fmt.Sprintf("/api/v1/students/%d/extension", id), admin, dto.ExtensionRequest{Years: 1})
		var extended dto.StudentResponse
		decodeData(t, w, &extended)
		if w.Code != http.StatusOK || extended.Batch != "2021-2026 (Extended by 1 year)" || extended.OriginalBatchTo != "2025" {
			t.Errorf("extension = %d %+v", w.Code, extended)
		}
	})

	t.Run("attachments", func(t *testing.T) {
		body, ct := multipartBody(t, map[string][]string{"certificateTitle": {"Workshop"}}, nil)
		w := api.do(http.MethodPost, fmt.Sprintf("/api/v1/students/%d/certificates", id), admin, ct, body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("certificate without file = %d, want 400", w.Code)
		}

		body, ct = multipartBody(t, map[string][]string{
			"synopsisTitle":  {"Scalable graphs"},
			"submissionDate": {"05-05-2023"},
			"abstract":       {"We study graphs."},
		}, []formFile{{"synopsisFile", "syn", "synopsis-bytes"}})
		w = api.do(http.MethodPut, fmt.Sprintf("/api/v1/students/%d/synopsis", id), admin, ct, body)
		if w.Code != http.StatusOK {
			t.Fatalf("synopsis = %d %s", w.Code, w.Body.String())
		}
		var syn dto.SynopsisResponse
		decodeData(t, w, &syn)
		if syn.SynopsisFile != filepath.Join("Uploads", "synopsis", fmt.Sprintf("%d_20230505.pdf", id)) {
			t.Errorf("synopsis file = %q", syn.SynopsisFile)
		}

		w = api.do(http.MethodDelete, fmt.Sprintf("/api/v1/presentations/%d", rec.Presentations[0].ID), admin, "", nil)
		if w.Code != http.StatusOK {
			t.Errorf("delete presentation = %d", w.Code)
		}
		w = api.do(http.MethodDelete, fmt.Sprintf("/api/v1/presentations/%d", rec.Presentations[0].ID), admin, "", nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("second delete = %d, want 404", w.Code)
		}
	})

	t.Run("export", func(t *testing.T) {
		w := api.do(http.MethodGet, "/api/v1/export/students.csv", admin, "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("export = %d", w.Code)
		}
		lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
		if len(lines) != 3 || !strings.HasPrefix(lines[0], "ID,Roll Number,") {
			t.Errorf("export body = %q", w.Body.String())
		}
	})

	t.Run("delete", func(t *testing.T) {
		if w := api.do(http.MethodDelete, fmt.Sprintf("/api/v1/students/%d", id), admin, "", nil); w.Code != http.StatusOK {
			t.Fatalf("delete = %d", w.Code)
		}
		if w := api.do(http.MethodGet, fmt.Sprintf("/api/v1/students/%d", id), admin, "", nil); w.Code != http.StatusNotFound {
			t.Errorf("get after delete = %d, want 404", w.Code)
		}
		if _, err := os.Stat(rec.Student.PicturePath); !os.IsNotExist(err) {
			t.Errorf("picture survived delete: %v", err)
		}
	})
}

func TestBadIDParam(t *testing.T) {
	api := newTestServer(t)
	admin := api.login("admin", "admin")

	w := api.do(http.MethodGet, "/api/v1/students/abc", admin, "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if code := errorCode(t, w); code != dto.ErrorCodeValidationFailed {
		t.Errorf("code = %s", code)
	}
}
