package analyses

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"ats-resume-checker/internal/extract/extracttest"
	"ats-resume-checker/internal/llm"
	"ats-resume-checker/internal/reports"
	"ats-resume-checker/internal/shared/server/middleware"
	"ats-resume-checker/internal/uploads"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func setupAnalysisRouter(t *testing.T, svc *Service, maxBytes int64) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	handler := NewHandler(svc, uploads.NewTempStore(dir, maxBytes))

	router := gin.New()
	router.Use(middleware.RequestID())
	handler.RegisterRoutes(router.Group("/api"))
	return router, dir
}

func uploadRequest(t *testing.T, fileName string, content []byte, industry string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if industry != "" {
		if err := w.WriteField("industry", industry); err != nil {
			t.Fatalf("write industry: %v", err)
		}
	}
	if fileName != "" {
		part, err := w.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/upload-resume", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeEnvelope(t *testing.T, resp *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", resp.Body.String(), err)
	}
	return env
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("read upload dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected upload dir to be empty, found %d entries", len(entries))
	}
}

func TestUploadResumeReturnsAnalysis(t *testing.T) {
	store := reports.NewMemoryStore()
	svc := &Service{Store: store, LLM: staticLLM(completeReply)}
	router, dir := setupAnalysisRouter(t, svc, 0)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, uploadRequest(t, "resume.pdf", extracttest.PDF(extracttest.ResumeLines...), "IT/Software"))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	env := decodeEnvelope(t, resp)
	if !env.Success {
		t.Fatalf("expected success envelope")
	}
	var result Result
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Score != 78 || result.FileName != "resume.pdf" || result.Industry != "IT/Software" {
		t.Fatalf("unexpected result: %+v", result.Record)
	}
	if result.ReportID == nil {
		t.Fatalf("expected reportId")
	}
	assertEmptyDir(t, dir)

	req := httptest.NewRequest(http.MethodGet, "/api/report/"+*result.ReportID, nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for report lookup, got %d: %s", resp.Code, resp.Body.String())
	}
	var report reports.Report
	if err := json.Unmarshal(decodeEnvelope(t, resp).Data, &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.ID != *result.ReportID || report.Score != 78 || report.ExpiresAt.IsZero() {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestUploadResumeDOCX(t *testing.T) {
	svc := &Service{LLM: staticLLM(completeReply)}
	router, dir := setupAnalysisRouter(t, svc, 0)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, uploadRequest(t, "resume.docx", extracttest.DOCX(extracttest.ResumeLines...), "Finance"))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), `"reportId":null`) {
		t.Fatalf("expected null reportId without a store, got %s", resp.Body.String())
	}
	assertEmptyDir(t, dir)
}

func TestUploadResumeAcceptsDottedFileName(t *testing.T) {
	svc := &Service{LLM: staticLLM(completeReply)}
	router, dir := setupAnalysisRouter(t, svc, 0)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, uploadRequest(t, "Jane.Doe..Resume.pdf", extracttest.PDF(extracttest.ResumeLines...), "Finance"))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var result Result
	if err := json.Unmarshal(decodeEnvelope(t, resp).Data, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.FileName != "Jane.Doe..Resume.pdf" {
		t.Fatalf("expected original file name to be kept, got %q", result.FileName)
	}
	assertEmptyDir(t, dir)
}

func TestUploadResumeErrors(t *testing.T) {
	upstream := llm.ClientFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", &llm.UpstreamError{Provider: llm.ProviderOpenAI, StatusCode: 429, Message: "Rate limit reached for gpt-4o-mini"}
	})
	pdf := extracttest.PDF(extracttest.ResumeLines...)

	cases := []struct {
		name     string
		svc      *Service
		maxBytes int64
		req      func(t *testing.T) *http.Request
		status   int
		code     string
		message  string
	}{
		{
			name:   "missing file",
			svc:    &Service{LLM: staticLLM(completeReply)},
			req:    func(t *testing.T) *http.Request { return uploadRequest(t, "", nil, "Finance") },
			status: http.StatusBadRequest,
			code:   ErrorCodeValidation,
		},
		{
			name:    "unsupported type",
			svc:     &Service{LLM: staticLLM(completeReply)},
			req:     func(t *testing.T) *http.Request { return uploadRequest(t, "resume.txt", []byte("plain text"), "Finance") },
			status:  http.StatusBadRequest,
			code:    ErrorCodeUnsupportedFormat,
			message: "only PDF and DOCX",
		},
		{
			name:     "too large",
			svc:      &Service{LLM: staticLLM(completeReply)},
			maxBytes: 64,
			req:      func(t *testing.T) *http.Request { return uploadRequest(t, "resume.pdf", pdf, "Finance") },
			status:   http.StatusBadRequest,
			code:     ErrorCodeValidation,
		},
		{
			name:   "missing industry",
			svc:    &Service{LLM: staticLLM(completeReply)},
			req:    func(t *testing.T) *http.Request { return uploadRequest(t, "resume.pdf", pdf, "") },
			status: http.StatusBadRequest,
			code:   ErrorCodeValidation,
		},
		{
			name:    "too little text",
			svc:     &Service{LLM: staticLLM(completeReply)},
			req:     func(t *testing.T) *http.Request { return uploadRequest(t, "scan.pdf", extracttest.PDF("IMG_0001"), "Finance") },
			status:  http.StatusUnprocessableEntity,
			code:    ErrorCodeExtraction,
			message: "could not extract sufficient text",
		},
		{
			name:    "upstream failure",
			svc:     &Service{LLM: upstream},
			req:     func(t *testing.T) *http.Request { return uploadRequest(t, "resume.pdf", pdf, "Finance") },
			status:  http.StatusBadGateway,
			code:    ErrorCodeUpstream,
			message: "Rate limit reached",
		},
		{
			name:   "malformed reply",
			svc:    &Service{LLM: staticLLM("not json")},
			req:    func(t *testing.T) *http.Request { return uploadRequest(t, "resume.pdf", pdf, "Finance") },
			status: http.StatusBadGateway,
			code:   ErrorCodeMalformedResponse,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router, dir := setupAnalysisRouter(t, tc.svc, tc.maxBytes)
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, tc.req(t))

			if resp.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, resp.Code, resp.Body.String())
			}
			env := decodeEnvelope(t, resp)
			if env.Success || env.Error.Code != tc.code {
				t.Fatalf("expected error code %s, got %+v", tc.code, env)
			}
			if tc.message != "" && !strings.Contains(env.Error.Message, tc.message) {
				t.Fatalf("expected message to contain %q, got %q", tc.message, env.Error.Message)
			}
			assertEmptyDir(t, dir)
		})
	}
}

func TestGetReportStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		store  reports.Store
		id     string
		status int
		code   string
	}{
		{"invalid id", reports.NewMemoryStore(), "not-a-uuid", http.StatusBadRequest, ErrorCodeInvalidID},
		{"not found", reports.NewMemoryStore(), "7b0c8f9e-2f4a-4b59-9a64-3f1d8f0a1c22", http.StatusNotFound, ErrorCodeNotFound},
		{"no store", nil, "7b0c8f9e-2f4a-4b59-9a64-3f1d8f0a1c22", http.StatusServiceUnavailable, ErrorCodeUnavailable},
		{"store down", unavailableStore{}, "7b0c8f9e-2f4a-4b59-9a64-3f1d8f0a1c22", http.StatusServiceUnavailable, ErrorCodeUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router, _ := setupAnalysisRouter(t, &Service{Store: tc.store}, 0)
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/report/"+tc.id, nil))

			if resp.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, resp.Code, resp.Body.String())
			}
			if env := decodeEnvelope(t, resp); env.Error.Code != tc.code {
				t.Fatalf("expected code %s, got %s", tc.code, env.Error.Code)
			}
		})
	}
}
