package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/serolab/serolab/internal/config"
	"github.com/serolab/serolab/internal/core"
)

// stubReader is a canned TableReader for driving the import endpoint
// without real PDF files.
type stubReader struct {
	tables []core.Dataset
	err    error
}

func (s *stubReader) ExtractTables(path string) ([]core.Dataset, error) {
	return s.tables, s.err
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:           "127.0.0.1",
			Port:           8080,
			RequestTimeout: 30 * time.Second,
		},
		Upload: config.UploadConfig{
			MaxFileSize: 1 << 20,
			Timeout:     time.Minute,
		},
		Rate: config.RateLimitConfig{Enabled: false},
		Logging: config.LoggingConfig{
			Level:  "error",
			Format: "text",
		},
	}
}

// newTestServer builds a server without a database, backed by the given
// table reader.
func newTestServer(t *testing.T, reader core.TableReader, cfg *config.Config) *Server {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	service := core.NewService(core.NewExtractor(reader), nil)
	return NewServer(service, nil, cfg)
}

func panelTable() core.Dataset {
	return core.Dataset{
		Columns: []string{"Sp.Nr.", "Spender", "LISS", "K", "Jka"},
		Rows: [][]string{
			{"1", "Müller", "3+", "+", "-"},
			{"2", "Meier", "-", "-", "+"},
		},
	}
}

// multipartUpload builds a multipart request body with one file field
// and optional extra form values.
func multipartUpload(t *testing.T, filename string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, &stubReader{}, nil)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want %q", body["status"], "ok")
	}
	if body["active_imports"] != float64(0) {
		t.Errorf("active_imports = %v, want 0", body["active_imports"])
	}
}

func TestHandleImport_Success(t *testing.T) {
	srv := newTestServer(t, &stubReader{tables: []core.Dataset{panelTable()}}, nil)

	body, contentType := multipartUpload(t, "panel.pdf", []byte("%PDF-1.4 data"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp importResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Dataset == nil {
		t.Fatal("Dataset is null, want extracted table")
	}
	if resp.Message != nil {
		t.Errorf("Message = %+v, want nil on success", resp.Message)
	}
	if resp.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want 1.0", resp.Confidence)
	}
	// Normalization ran: Index column appended after LISS.
	if !resp.Dataset.HasColumn(core.ColIndex) {
		t.Errorf("columns = %v, want Index column present", resp.Dataset.Columns)
	}
}

func TestHandleImport_JPEGReturnsMessageNotError(t *testing.T) {
	srv := newTestServer(t, &stubReader{tables: []core.Dataset{panelTable()}}, nil)

	body, contentType := multipartUpload(t, "scan.jpeg", []byte{0xFF, 0xD8, 0xFF}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	// A failed extraction is a workflow outcome, not a server error.
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp importResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Dataset != nil {
		t.Errorf("Dataset = %+v, want null", resp.Dataset)
	}
	if resp.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", resp.Confidence)
	}
	if resp.Message == nil || resp.Message.Code != "EXT002" {
		t.Errorf("Message = %+v, want code EXT002", resp.Message)
	}
}

// failingAnalyses reports a database outage for every lookup.
type failingAnalyses struct{ err error }

func (f *failingAnalyses) ListAnalyses(ctx context.Context) ([]core.AnalysisSummary, error) {
	return nil, f.err
}

func (f *failingAnalyses) AnalysisTable(ctx context.Context, id uuid.UUID) (*core.Dataset, error) {
	return nil, f.err
}

func TestHandleImport_CompareOutageKeepsUserMessage(t *testing.T) {
	service := core.NewService(
		core.NewExtractor(&stubReader{tables: []core.Dataset{panelTable()}}),
		&failingAnalyses{err: errors.New("connection refused")},
	)
	srv := NewServer(service, nil, testConfig())

	body, contentType := multipartUpload(t, "panel.pdf", []byte("%PDF-1.4 data"),
		map[string]string{"analysis_id": uuid.NewString()})
	req := httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500: %s", rec.Code, rec.Body.String())
	}
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != "DB003" {
		t.Errorf("code = %q, want DB003", resp.Code)
	}
	if resp.Message != "Keine Verbindung zur Datenbank" {
		t.Errorf("message = %q, want outage text", resp.Message)
	}
}

func TestHandleImport_NoFile(t *testing.T) {
	srv := newTestServer(t, &stubReader{}, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("analysis_id", "irrelevant")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleImport_EmptyFile(t *testing.T) {
	srv := newTestServer(t, &stubReader{}, nil)

	body, contentType := multipartUpload(t, "panel.pdf", nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleImport_InvalidAnalysisID(t *testing.T) {
	srv := newTestServer(t, &stubReader{tables: []core.Dataset{panelTable()}}, nil)

	body, contentType := multipartUpload(t, "panel.pdf", []byte("%PDF-1.4"), map[string]string{
		"analysis_id": "not-a-uuid",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleImport_ComparisonWithoutDatabase(t *testing.T) {
	srv := newTestServer(t, &stubReader{tables: []core.Dataset{panelTable()}}, nil)

	body, contentType := multipartUpload(t, "panel.pdf", []byte("%PDF-1.4"), map[string]string{
		"analysis_id": "0e4c3f26-9b5a-4f7e-8f2f-6a1d2b3c4d5e",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp importResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Comparison == nil {
		t.Fatal("Comparison missing")
	}
	if !resp.Comparison.Empty {
		t.Error("Comparison.Empty = false, want true without stored analyses")
	}
	if resp.Comparison.Notice != core.EmptyComparisonNotice {
		t.Errorf("Notice = %q, want %q", resp.Comparison.Notice, core.EmptyComparisonNotice)
	}
}

func TestHandleAnalyze(t *testing.T) {
	srv := newTestServer(t, &stubReader{}, nil)

	panel := panelTable()
	payload, _ := json.Marshal(analyzeRequest{Panel: &panel})
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp analyzeResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Result == nil {
		t.Fatal("Result missing")
	}
	// Row 1 reacts with K present: one reaction, not excluded.
	if got := resp.Result.Statuses["K"]; got != core.StatusNotExcluded {
		t.Errorf("status K = %q, want %q", got, core.StatusNotExcluded)
	}
	// Jka is "+" on the negative row 2 and must be struck out.
	if got := resp.Result.Statuses["Jka"]; got != core.StatusExcluded {
		t.Errorf("status Jka = %q, want %q", got, core.StatusExcluded)
	}

	// The result table follows the system selection: K kept, Jka gone.
	var names []string
	for _, c := range resp.SystemTable.Columns {
		names = append(names, c.Name)
	}
	want := []string{"Index", "Sp.Nr.", "Spender", "LISS", "K"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("SystemTable columns = %v, want %v", names, want)
	}
}

func TestHandleAnalyze_BadRequests(t *testing.T) {
	srv := newTestServer(t, &stubReader{}, nil)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"panel":`},
		{"unknown field", `{"panel": null, "bogus": 1}`},
		{"empty panel", `{"panel": {"columns": [], "rows": []}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			rec := httptest.NewRecorder()
			srv.Router().ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestStoreEndpoints_WithoutDatabase(t *testing.T) {
	srv := newTestServer(t, &stubReader{}, nil)

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/api/analyses/0e4c3f26-9b5a-4f7e-8f2f-6a1d2b3c4d5e", ""},
		{http.MethodPost, "/api/analyses", `{}`},
		{http.MethodGet, "/api/report/0e4c3f26-9b5a-4f7e-8f2f-6a1d2b3c4d5e", ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			var body *strings.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			} else {
				body = strings.NewReader("")
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			req.Header.Set("Content-Type", "application/json")

			rec := httptest.NewRecorder()
			srv.Router().ServeHTTP(rec, req)

			if rec.Code != http.StatusServiceUnavailable {
				t.Errorf("status = %d, want 503", rec.Code)
			}
			var resp ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Message != "Keine Datenbank konfiguriert" {
				t.Errorf("Message = %q, want database notice", resp.Message)
			}
		})
	}
}

func TestHandleListAnalyses_WithoutDatabase(t *testing.T) {
	srv := newTestServer(t, &stubReader{}, nil)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analyses", nil))

	// List degrades to an empty collection instead of failing.
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var analyses []core.AnalysisSummary
	if err := json.NewDecoder(rec.Body).Decode(&analyses); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(analyses) != 0 {
		t.Errorf("analyses = %v, want empty", analyses)
	}
}

func TestImportRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 100,
		ImportLimit:       1,
	}
	srv := newTestServer(t, &stubReader{tables: []core.Dataset{panelTable()}}, cfg)

	send := func() *httptest.ResponseRecorder {
		body, contentType := multipartUpload(t, "panel.pdf", []byte("%PDF-1.4"), nil)
		req := httptest.NewRequest(http.MethodPost, "/api/import", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		return rec
	}

	if rec := send(); rec.Code != http.StatusOK {
		t.Fatalf("first import status = %d, want 200", rec.Code)
	}
	rec := send()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second import status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want %q", rec.Header().Get("Retry-After"), "60")
	}

	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != "REQ003" {
		t.Errorf("Code = %q, want REQ003", resp.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t, &stubReader{}, nil)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}
