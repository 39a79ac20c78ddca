package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"audit-desk/config"
	"audit-desk/internal/dto"
	"audit-desk/pkg/contextkeys"
	apperrors "audit-desk/pkg/errors"
)

// asUser имитирует Auth и AdminGate.
func asUser(userID uint64, isAdmin bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := context.WithValue(c.Request().Context(), contextkeys.UserIDKey, userID)
			if isAdmin {
				ctx = context.WithValue(ctx, contextkeys.IsAdminKey, true)
			}
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func newProjectEcho(ctrl *ProjectController, userID uint64, isAdmin bool) *echo.Echo {
	e := echo.New()
	g := e.Group("/api/projects", asUser(userID, isAdmin))
	g.GET("", ctrl.List)
	g.GET("/years", ctrl.Years)
	g.GET("/export", ctrl.Export)
	g.GET("/:id", ctrl.Get)
	g.POST("", ctrl.Create)
	g.PUT("/:id", ctrl.Update)
	g.DELETE("/:id", ctrl.Delete)
	return e
}

type formFile struct {
	field, name, mime, body string
}

func multipartBody(t *testing.T, fields map[string]string, files ...formFile) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, f.field, f.name))
		h.Set("Content-Type", f.mime)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func TestProjectCreate_PassesFieldsAndSlots(t *testing.T) {
	svc := &fakeProjectService{}
	e := newProjectEcho(NewProjectController(svc, &fakeReadService{}, zap.NewNop()), 7, true)

	body, contentType := multipartBody(t,
		map[string]string{dto.FieldReference: "AUD-1", dto.FieldCity: "Lyon"},
		formFile{field: config.SlotInspectionPlanPDF.String(), name: "plan.pdf", mime: "application/pdf", body: "%PDF"},
		formFile{field: config.SlotTravelFeesZIP.String(), name: "frais.zip", mime: "application/zip", body: "PK"},
		formFile{field: "somethingElse", name: "x.txt", mime: "text/plain", body: "ignored"},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/projects", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"status":true,"message":"Проект успешно создан","body":{"id":42}}`, rec.Body.String())

	require.Len(t, svc.calls, 1)
	call := svc.calls[0]
	assert.Equal(t, uint64(7), call.caller.UserID)
	assert.True(t, call.caller.IsAdmin)
	assert.Equal(t, "AUD-1", call.raw[dto.FieldReference])
	assert.Equal(t, "Lyon", call.raw[dto.FieldCity])
	assert.Equal(t, "", call.raw[dto.FieldNotes])
	assert.Equal(t, map[config.Slot]string{
		config.SlotInspectionPlanPDF: "plan.pdf|application/pdf|%PDF",
		config.SlotTravelFeesZIP:     "frais.zip|application/zip|PK",
	}, call.files)
}

func TestProjectCreate_ServiceErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"forbidden", apperrors.ErrForbidden, http.StatusForbidden},
		{"validation", func() error {
			ve := &apperrors.ValidationError{}
			ve.Add(dto.FieldReference, "обязательное поле")
			return ve
		}(), http.StatusBadRequest},
		{"file type", apperrors.NewPipelineError(apperrors.KindInvalidFileType, "invoicePDF", nil, "тип"), http.StatusUnsupportedMediaType},
		{"upload", apperrors.NewPipelineError(apperrors.KindUploadFailed, "invoicePDF", fmt.Errorf("s3"), "загрузка"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeProjectService{err: tc.err}
			e := newProjectEcho(NewProjectController(svc, &fakeReadService{}, zap.NewNop()), 7, false)

			body, contentType := multipartBody(t, map[string]string{dto.FieldReference: "AUD-1"})
			req := httptest.NewRequest(http.MethodPost, "/api/projects", body)
			req.Header.Set(echo.HeaderContentType, contentType)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestProjectUpdateAndDelete(t *testing.T) {
	svc := &fakeProjectService{}
	e := newProjectEcho(NewProjectController(svc, &fakeReadService{}, zap.NewNop()), 7, true)

	body, contentType := multipartBody(t, map[string]string{dto.FieldStatus: "completed"})
	req := httptest.NewRequest(http.MethodPut, "/api/projects/5", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/projects/5", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, svc.calls, 2)
	assert.Equal(t, uint64(5), svc.calls[0].id)
	assert.Equal(t, "completed", svc.calls[0].raw[dto.FieldStatus])
	assert.Equal(t, uint64(5), svc.calls[1].id)
}

func TestProject_BadID(t *testing.T) {
	svc := &fakeProjectService{}
	e := newProjectEcho(NewProjectController(svc, &fakeReadService{}, zap.NewNop()), 7, true)

	for _, path := range []string{"/api/projects/abc", "/api/projects/0"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, path, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
	assert.Empty(t, svc.calls)
}

func sampleProjects() []dto.ProjectDTO {
	date := "2025-03-14"
	return []dto.ProjectDTO{
		{
			ID: 1, Reference: "AUD-1", Customer: "Acme", City: "Lyon", InspectionDate: &date,
			AuditStatus: "planned", Year: 2025, LastUpdated: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
			Files: map[string]*dto.AttachmentDTO{
				config.SlotAuditReportPDF.String(): {ID: 3, Slot: config.SlotAuditReportPDF.String(), Path: "projects/1/pdf/rapport.pdf"},
			},
		},
		{ID: 2, Reference: "AUD-2", Customer: "Globex", Year: 2024, Files: map[string]*dto.AttachmentDTO{}},
	}
}

func TestProjectList_PaginationAndFilter(t *testing.T) {
	read := &fakeReadService{projects: sampleProjects()}
	e := newProjectEcho(NewProjectController(&fakeProjectService{}, read, zap.NewNop()), 7, false)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/projects?filter[year]=2025&limit=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Body struct {
			List       []dto.ProjectDTO `json:"list"`
			Pagination struct {
				TotalCount uint64 `json:"total_count"`
			} `json:"pagination"`
		} `json:"body"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Body.List, 2)
	assert.Equal(t, uint64(2), resp.Body.Pagination.TotalCount)

	require.Len(t, read.filters, 1)
	assert.Equal(t, "2025", read.filters[0].Filter["year"])
	assert.Equal(t, 1, read.filters[0].Limit)
}

func TestProjectGetAndYears(t *testing.T) {
	read := &fakeReadService{projects: sampleProjects()}
	e := newProjectEcho(NewProjectController(&fakeProjectService{}, read, zap.NewNop()), 7, false)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/projects/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "projects/1/pdf/rapport.pdf")

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/projects/99", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/projects/years", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":true,"message":"Годы успешно получены","body":{"years":[2025,2024]}}`, rec.Body.String())
}

func TestProjectExport_XLSX(t *testing.T) {
	read := &fakeReadService{projects: sampleProjects()}
	e := newProjectEcho(NewProjectController(&fakeProjectService{}, read, zap.NewNop()), 7, false)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/projects/export?limit=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "projets_")

	require.Len(t, read.filters, 1)
	assert.Equal(t, 500, read.filters[0].Limit, "экспорт игнорирует пагинацию")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Référence", rows[0][1])
	assert.Equal(t, "AUD-1", rows[1][1])
	assert.Equal(t, "2025-03-14", rows[1][5])
	assert.Equal(t, "projects/1/pdf/rapport.pdf", rows[1][11])
}

func TestProjectExport_PagesThroughAllProjects(t *testing.T) {
	projects := make([]dto.ProjectDTO, 0, 1203)
	for i := 1; i <= 1203; i++ {
		projects = append(projects, dto.ProjectDTO{ID: uint64(i), Reference: fmt.Sprintf("AUD-%d", i), Files: map[string]*dto.AttachmentDTO{}})
	}
	read := &fakeReadService{projects: projects, paginate: true}
	e := newProjectEcho(NewProjectController(&fakeProjectService{}, read, zap.NewNop()), 7, false)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/projects/export?withPagination=false&page=3", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, read.filters, 3)
	for i, f := range read.filters {
		assert.True(t, f.WithPagination)
		assert.Equal(t, 500, f.Limit)
		assert.Equal(t, i*500, f.Offset)
	}

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 1204)
	assert.Equal(t, "AUD-1203", rows[1203][1])
}

func TestProjectExport_ListError(t *testing.T) {
	read := &fakeReadService{err: fmt.Errorf("boom")}
	e := newProjectEcho(NewProjectController(&fakeProjectService{}, read, zap.NewNop()), 7, false)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/projects/export", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
