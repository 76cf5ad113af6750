package workflows_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/inklane/countersign/internal/identities"
	"github.com/inklane/countersign/internal/stamps"
	"github.com/inklane/countersign/internal/workflows"
	"github.com/inklane/countersign/pkg/pagination"
	"github.com/inklane/countersign/pkg/storage"
)

type mockSystem struct {
	listFn         func(ctx context.Context, page pagination.PageRequest, filters workflows.Filters) (*pagination.PageResult[workflows.Workflow], error)
	findFn         func(ctx context.Context, id uuid.UUID) (*workflows.Workflow, error)
	createFn       func(ctx context.Context, cmd workflows.CreateCommand) (*workflows.Workflow, error)
	deleteFn       func(ctx context.Context, id uuid.UUID) error
	listReviewerFn func(ctx context.Context, reviewerID uuid.UUID) ([]workflows.Workflow, error)
	listExternalFn func(ctx context.Context, email string) ([]workflows.Workflow, error)
	findByKeyFn    func(ctx context.Context, key string) (*workflows.Workflow, error)
	isReadOnlyFn   func(ctx context.Context, key string) bool
	downloadFn     func(ctx context.Context, id uuid.UUID) (*workflows.Workflow, *storage.DownloadResult, error)
	saveFn         func(ctx context.Context, id uuid.UUID, data []byte) error
	listStampsFn   func(ctx context.Context, id uuid.UUID) ([]stamps.Stamp, error)
	summarizeFn    func(ctx context.Context, w *workflows.Workflow) workflows.Summary
}

func (m *mockSystem) Handler(maxUploadSize int64) *workflows.Handler {
	return workflows.NewHandler(m, discardLogger(), pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}, maxUploadSize)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters workflows.Filters) (*pagination.PageResult[workflows.Workflow], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*workflows.Workflow, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Create(ctx context.Context, cmd workflows.CreateCommand) (*workflows.Workflow, error) {
	return m.createFn(ctx, cmd)
}

func (m *mockSystem) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

func (m *mockSystem) ListForReviewer(ctx context.Context, reviewerID uuid.UUID) ([]workflows.Workflow, error) {
	return m.listReviewerFn(ctx, reviewerID)
}

func (m *mockSystem) ListForExternalEmail(ctx context.Context, email string) ([]workflows.Workflow, error) {
	return m.listExternalFn(ctx, email)
}

func (m *mockSystem) FindByStorageKey(ctx context.Context, key string) (*workflows.Workflow, error) {
	return m.findByKeyFn(ctx, key)
}

func (m *mockSystem) IsReadOnly(ctx context.Context, key string) bool {
	return m.isReadOnlyFn(ctx, key)
}

func (m *mockSystem) DownloadDocument(ctx context.Context, id uuid.UUID) (*workflows.Workflow, *storage.DownloadResult, error) {
	return m.downloadFn(ctx, id)
}

func (m *mockSystem) SaveDocument(ctx context.Context, id uuid.UUID, data []byte) error {
	return m.saveFn(ctx, id, data)
}

func (m *mockSystem) ListStamps(ctx context.Context, id uuid.UUID) ([]stamps.Stamp, error) {
	return m.listStampsFn(ctx, id)
}

func (m *mockSystem) Summarize(ctx context.Context, w *workflows.Workflow) workflows.Summary {
	return m.summarizeFn(ctx, w)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHandler(sys *mockSystem) *workflows.Handler {
	return workflows.NewHandler(
		sys,
		discardLogger(),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
		50*1024*1024,
	)
}

func setupMux(h *workflows.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		pattern := route.Method + " " + group.Prefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	return mux
}

func internalPrincipal() *identities.Principal {
	return &identities.Principal{
		ID:    uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		Email: "reviewer@agency.example",
		Name:  "Internal Reviewer",
		Role:  identities.RoleInternal,
	}
}

func adminPrincipal() *identities.Principal {
	return &identities.Principal{
		ID:    uuid.MustParse("770e8400-e29b-41d4-a716-446655440002"),
		Email: "admin@agency.example",
		Name:  "Admin",
		Role:  identities.RoleAdmin,
	}
}

func authed(req *http.Request, p *identities.Principal) *http.Request {
	return req.WithContext(identities.WithPrincipal(req.Context(), p))
}

func sampleWorkflow() workflows.Workflow {
	return workflows.Workflow{
		ID:                    uuid.MustParse("880e8400-e29b-41d4-a716-446655440003"),
		Title:                 "Quarterly Report",
		StorageKey:            "workflows/880e8400-e29b-41d4-a716-446655440003/report.pdf",
		Filename:              "report.pdf",
		CreatedBy:             uuid.MustParse("770e8400-e29b-41d4-a716-446655440002"),
		InternalReviewerID:    uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		ExternalReviewerEmail: "partner@external.example",
		Status:                workflows.StatusPendingInternalReview,
		CreatedAt:             time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC),
	}
}

func TestHandlerList(t *testing.T) {
	wf := sampleWorkflow()
	sys := &mockSystem{
		listFn: func(_ context.Context, _ pagination.PageRequest, _ workflows.Filters) (*pagination.PageResult[workflows.Workflow], error) {
			result := pagination.NewPageResult([]workflows.Workflow{wf}, 1, 1, 20)
			return &result, nil
		},
	}

	mux := setupMux(newTestHandler(sys))

	t.Run("requires authentication", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/workflows", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("rejects external principals", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := authed(httptest.NewRequest("GET", "/workflows", nil), &identities.Principal{
			ID:   uuid.New(),
			Role: identities.RoleExternal,
		})
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("returns paginated list", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := authed(httptest.NewRequest("GET", "/workflows", nil), internalPrincipal())
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var result pagination.PageResult[workflows.Workflow]
		if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if result.Total != 1 {
			t.Errorf("total = %d, want 1", result.Total)
		}
		if len(result.Data) != 1 || result.Data[0].ID != wf.ID {
			t.Errorf("unexpected data: %+v", result.Data)
		}
	})

	t.Run("passes query filters", func(t *testing.T) {
		var captured workflows.Filters
		sys.listFn = func(_ context.Context, _ pagination.PageRequest, f workflows.Filters) (*pagination.PageResult[workflows.Workflow], error) {
			captured = f
			result := pagination.NewPageResult([]workflows.Workflow{}, 0, 1, 20)
			return &result, nil
		}

		rec := httptest.NewRecorder()
		req := authed(httptest.NewRequest("GET", "/workflows?status=1&title=report", nil), internalPrincipal())
		mux.ServeHTTP(rec, req)

		if captured.Status == nil || *captured.Status != workflows.StatusPendingInternalReview {
			t.Errorf("status filter = %v, want PendingInternalReview", captured.Status)
		}
		if captured.Title == nil || *captured.Title != "report" {
			t.Errorf("title filter = %v, want report", captured.Title)
		}
	})
}

func TestHandlerAssigned(t *testing.T) {
	principal := internalPrincipal()
	wf := sampleWorkflow()

	var captured uuid.UUID
	sys := &mockSystem{
		listReviewerFn: func(_ context.Context, reviewerID uuid.UUID) ([]workflows.Workflow, error) {
			captured = reviewerID
			return []workflows.Workflow{wf}, nil
		},
	}

	mux := setupMux(newTestHandler(sys))

	rec := httptest.NewRecorder()
	req := authed(httptest.NewRequest("GET", "/workflows/assigned", nil), principal)
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if captured != principal.ID {
		t.Errorf("reviewer id = %v, want %v", captured, principal.ID)
	}

	var result []workflows.Workflow
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result) != 1 || result[0].ID != wf.ID {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestHandlerReadOnly(t *testing.T) {
	var captured string
	sys := &mockSystem{
		isReadOnlyFn: func(_ context.Context, key string) bool {
			captured = key
			return true
		},
	}

	mux := setupMux(newTestHandler(sys))

	t.Run("requires key parameter", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/workflows/read-only", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("answers without authentication", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/workflows/read-only?key=workflows/abc/report.pdf", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if captured != "workflows/abc/report.pdf" {
			t.Errorf("key = %s", captured)
		}

		var body map[string]bool
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !body["read_only"] {
			t.Error("read_only = false, want true")
		}
	})
}

func TestHandlerFind(t *testing.T) {
	wf := sampleWorkflow()
	sys := &mockSystem{
		findFn: func(_ context.Context, id uuid.UUID) (*workflows.Workflow, error) {
			if id != wf.ID {
				return nil, workflows.ErrNotFound
			}
			return &wf, nil
		},
	}

	mux := setupMux(newTestHandler(sys))

	t.Run("returns workflow", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := authed(httptest.NewRequest("GET", "/workflows/"+wf.ID.String(), nil), internalPrincipal())
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var result workflows.Workflow
		if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if result.ID != wf.ID {
			t.Errorf("id = %v, want %v", result.ID, wf.ID)
		}
	})

	t.Run("unknown id returns 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := authed(httptest.NewRequest("GET", "/workflows/"+uuid.NewString(), nil), internalPrincipal())
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("malformed id returns 400", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := authed(httptest.NewRequest("GET", "/workflows/not-a-uuid", nil), internalPrincipal())
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandlerDownload(t *testing.T) {
	wf := sampleWorkflow()
	content := []byte("%PDF-1.7 fake content")

	sys := &mockSystem{
		downloadFn: func(_ context.Context, id uuid.UUID) (*workflows.Workflow, *storage.DownloadResult, error) {
			return &wf, &storage.DownloadResult{
				Body:          io.NopCloser(bytes.NewReader(content)),
				ContentType:   "application/pdf",
				ContentLength: int64(len(content)),
			}, nil
		},
	}

	mux := setupMux(newTestHandler(sys))

	rec := httptest.NewRecorder()
	req := authed(httptest.NewRequest("GET", "/workflows/"+wf.ID.String()+"/document", nil), internalPrincipal())
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content-type = %s", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, wf.Filename) {
		t.Errorf("content-disposition = %s, want filename %s", cd, wf.Filename)
	}
	if !bytes.Equal(rec.Body.Bytes(), content) {
		t.Error("body does not match document content")
	}
}

func TestHandlerSave(t *testing.T) {
	wf := sampleWorkflow()
	var saved []byte

	sys := &mockSystem{
		saveFn: func(_ context.Context, id uuid.UUID, data []byte) error {
			if id != wf.ID {
				return workflows.ErrNotFound
			}
			saved = data
			return nil
		},
	}

	mux := setupMux(newTestHandler(sys))

	t.Run("replaces document", func(t *testing.T) {
		body := []byte("%PDF-1.7 updated")
		rec := httptest.NewRecorder()
		req := authed(httptest.NewRequest("PUT", "/workflows/"+wf.ID.String()+"/document", bytes.NewReader(body)), internalPrincipal())
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rec.Code)
		}
		if !bytes.Equal(saved, body) {
			t.Error("saved data does not match request body")
		}
	})

	t.Run("completed workflow returns 403", func(t *testing.T) {
		sys.saveFn = func(_ context.Context, _ uuid.UUID, _ []byte) error {
			return workflows.ErrReadOnly
		}

		rec := httptest.NewRecorder()
		req := authed(httptest.NewRequest("PUT", "/workflows/"+wf.ID.String()+"/document", strings.NewReader("data")), internalPrincipal())
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", rec.Code)
		}
	})
}

func TestHandlerStamps(t *testing.T) {
	wf := sampleWorkflow()
	reviewerID := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")

	sys := &mockSystem{
		listStampsFn: func(_ context.Context, id uuid.UUID) ([]stamps.Stamp, error) {
			if id != wf.ID {
				return nil, workflows.ErrNotFound
			}
			return []stamps.Stamp{{
				ID:         uuid.New(),
				WorkflowID: wf.ID,
				UserID:     &reviewerID,
				Label:      "APPROVED",
				PageNumber: 1,
				X:          72,
				Y:          720,
				AppliedAt:  time.Date(2026, 2, 11, 14, 30, 0, 0, time.UTC),
			}}, nil
		},
	}

	mux := setupMux(newTestHandler(sys))

	rec := httptest.NewRecorder()
	req := authed(httptest.NewRequest("GET", "/workflows/"+wf.ID.String()+"/stamps", nil), internalPrincipal())
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var result []stamps.Stamp
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result) != 1 || result[0].Label != "APPROVED" {
		t.Errorf("unexpected stamps: %+v", result)
	}
}

func TestHandlerSearch(t *testing.T) {
	wf := sampleWorkflow()

	var capturedPage pagination.PageRequest
	var capturedFilters workflows.Filters
	sys := &mockSystem{
		listFn: func(_ context.Context, page pagination.PageRequest, f workflows.Filters) (*pagination.PageResult[workflows.Workflow], error) {
			capturedPage = page
			capturedFilters = f
			result := pagination.NewPageResult([]workflows.Workflow{wf}, 1, page.Page, page.PageSize)
			return &result, nil
		},
	}

	mux := setupMux(newTestHandler(sys))

	t.Run("applies body criteria", func(t *testing.T) {
		body := `{"page": 2, "page_size": 10, "status": 3}`
		rec := httptest.NewRecorder()
		req := authed(httptest.NewRequest("POST", "/workflows/search", strings.NewReader(body)), internalPrincipal())
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if capturedPage.Page != 2 || capturedPage.PageSize != 10 {
			t.Errorf("page = %+v, want page 2 size 10", capturedPage)
		}
		if capturedFilters.Status == nil || *capturedFilters.Status != workflows.StatusPendingExternalReview {
			t.Errorf("status filter = %v", capturedFilters.Status)
		}
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := authed(httptest.NewRequest("POST", "/workflows/search", strings.NewReader("{")), internalPrincipal())
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func buildMultipart(t *testing.T, fields map[string]string, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write file content: %v", err)
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	return &buf, writer.FormDataContentType()
}

func samplePDF(t *testing.T) []byte {
	t.Helper()

	data, err := os.ReadFile("testdata/sample.pdf")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

func TestHandlerCreate(t *testing.T) {
	principal := internalPrincipal()
	reviewerID := uuid.MustParse("990e8400-e29b-41d4-a716-446655440004")

	var captured workflows.CreateCommand
	sys := &mockSystem{
		createFn: func(_ context.Context, cmd workflows.CreateCommand) (*workflows.Workflow, error) {
			captured = cmd
			wf := sampleWorkflow()
			return &wf, nil
		},
	}

	mux := setupMux(newTestHandler(sys))

	t.Run("creates from multipart form", func(t *testing.T) {
		body, contentType := buildMultipart(t, map[string]string{
			"title":                   "Quarterly Report",
			"internal_reviewer_id":    reviewerID.String(),
			"external_reviewer_email": "partner@external.example",
		}, "report.pdf", samplePDF(t))

		rec := httptest.NewRecorder()
		req := authed(httptest.NewRequest("POST", "/workflows", body), principal)
		req.Header.Set("Content-Type", contentType)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
		}
		if captured.Title != "Quarterly Report" {
			t.Errorf("title = %s", captured.Title)
		}
		if captured.InternalReviewerID != reviewerID {
			t.Errorf("internal reviewer = %v, want %v", captured.InternalReviewerID, reviewerID)
		}
		if captured.ExternalReviewerEmail != "partner@external.example" {
			t.Errorf("external email = %s", captured.ExternalReviewerEmail)
		}
		if captured.CreatedBy != principal.ID {
			t.Errorf("created by = %v, want %v", captured.CreatedBy, principal.ID)
		}
		if captured.Filename != "report.pdf" {
			t.Errorf("filename = %s", captured.Filename)
		}
	})

	t.Run("rejects non-PDF upload", func(t *testing.T) {
		body, contentType := buildMultipart(t, map[string]string{
			"title":                   "Bad Upload",
			"internal_reviewer_id":    reviewerID.String(),
			"external_reviewer_email": "partner@external.example",
		}, "notes.txt", []byte("plain text, not a pdf"))

		rec := httptest.NewRecorder()
		req := authed(httptest.NewRequest("POST", "/workflows", body), principal)
		req.Header.Set("Content-Type", contentType)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("rejects malformed reviewer id", func(t *testing.T) {
		body, contentType := buildMultipart(t, map[string]string{
			"title":                   "Bad Reviewer",
			"internal_reviewer_id":    "not-a-uuid",
			"external_reviewer_email": "partner@external.example",
		}, "report.pdf", samplePDF(t))

		rec := httptest.NewRecorder()
		req := authed(httptest.NewRequest("POST", "/workflows", body), principal)
		req.Header.Set("Content-Type", contentType)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandlerDelete(t *testing.T) {
	wf := sampleWorkflow()
	deleted := false

	sys := &mockSystem{
		deleteFn: func(_ context.Context, id uuid.UUID) error {
			if id != wf.ID {
				return workflows.ErrNotFound
			}
			deleted = true
			return nil
		},
	}

	mux := setupMux(newTestHandler(sys))

	t.Run("internal reviewers cannot delete", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := authed(httptest.NewRequest("DELETE", "/workflows/"+wf.ID.String(), nil), internalPrincipal())
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", rec.Code)
		}
		if deleted {
			t.Error("delete should not have been called")
		}
	})

	t.Run("admins can delete", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := authed(httptest.NewRequest("DELETE", "/workflows/"+wf.ID.String(), nil), adminPrincipal())
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rec.Code)
		}
		if !deleted {
			t.Error("delete was not called")
		}
	})
}
