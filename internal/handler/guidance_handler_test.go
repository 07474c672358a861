package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"careerpath/internal/diagnostics"
	"careerpath/internal/task"
	"careerpath/pkg/llm"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/assert/v2"
)

type fakeGenerator struct {
	mu      sync.Mutex
	text    string
	err     error
	block   bool
	prompts []string
}

func (f *fakeGenerator) Model() string { return "fake-model" }

func (f *fakeGenerator) Generate(ctx context.Context, p string) (*llm.Completion, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, p)
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Completion{Text: f.text, Model: "fake-model", Tokens: 10}, nil
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeArchive struct {
	filename string
	mime     string
	data     []byte
}

func (f *fakeArchive) Put(_ context.Context, filename, contentType string, data []byte) (string, error) {
	f.filename, f.mime, f.data = filename, contentType, data
	return "resumes/2026/01/01/abc.txt", nil
}

func newGuidanceRouter(gen *fakeGenerator, archive ResumeArchiver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := task.NewService(gen, nil, nil, task.Options{
		Timeout:      50 * time.Millisecond,
		MaxRetries:   1,
		RetryBackoff: time.Millisecond,
	})
	r := gin.New()
	r.Use(RequestID())
	NewGuidanceHandler(svc, archive, 1<<10).Register(r.Group("/api"))
	return r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var res ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return res
}

const placementReply = `{"career_match":["Data Analyst"],"gap_analysis":["Statistics"],"placement_readiness_index":64,"suggested_companies":[{"name":"Infosys","reason":"Analyst intake"}],"skill_scores":{"SQL":70},"action_plan":["Build a portfolio"],"mock_interview_topics":["Joins"]}`

func TestPostPlacementAnalysis_FencedReply(t *testing.T) {
	gen := &fakeGenerator{text: "```json\n" + placementReply + "\n```"}
	r := newGuidanceRouter(gen, nil)

	w := postJSON(r, "/api/placement-analysis", `{"name":"Asha","gpa":8.2,"dreamCompany":"Infosys","domain":"Data"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, placementReply, w.Body.String())
	assert.Equal(t, true, strings.HasPrefix(w.Header().Get("Content-Type"), "application/json"))
	assert.NotEqual(t, "", w.Header().Get(RequestIDHeader))
}

func TestPostCompanyInfo_MissingName(t *testing.T) {
	for _, body := range []string{`{}`, `{"companyName":"  "}`, ``} {
		gen := &fakeGenerator{text: "{}"}
		r := newGuidanceRouter(gen, nil)

		w := postJSON(r, "/api/company-info", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "input_validation", decodeError(t, w).Kind)
		assert.Equal(t, 0, gen.calls())
	}
}

func TestPostQuizAnalysis_SchemaMismatch(t *testing.T) {
	raw := `{"career":"Doctor"}`
	r := newGuidanceRouter(&fakeGenerator{text: raw}, nil)

	w := postJSON(r, "/api/quiz/analyze", `{"answers":[{"question":"Do you like biology?","selectedOption":"Yes"}]}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	res := decodeError(t, w)
	assert.Equal(t, "schema_mismatch", res.Kind)
	assert.Equal(t, raw, res.Raw)
	assert.Equal(t, []string{"alternativeOptions", "reasoning", "studyMaterial"}, res.Fields)
	assert.NotEqual(t, "", res.Diagnostic)
}

func TestPostQuiz_InvalidJSON(t *testing.T) {
	raw := "Sure! Here's your result: {bad json"
	r := newGuidanceRouter(&fakeGenerator{text: raw}, nil)

	w := postJSON(r, "/api/quiz", ``)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	res := decodeError(t, w)
	assert.Equal(t, "invalid_json", res.Kind)
	assert.Equal(t, "Model did not return valid JSON", res.Error)
	assert.Equal(t, raw, res.Raw)
}

func TestPostRoadmap_UpstreamError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	r := newGuidanceRouter(gen, nil)

	w := postJSON(r, "/api/roadmap", `{"student":{"grade":10},"quizAnswers":[]}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	res := decodeError(t, w)
	assert.Equal(t, "upstream_error", res.Kind)
	assert.Equal(t, "", res.Raw)
	assert.Equal(t, 2, gen.calls())
}

func TestPostResumeEnhancement_Timeout(t *testing.T) {
	r := newGuidanceRouter(&fakeGenerator{block: true}, nil)

	w := postJSON(r, "/api/resume/enhance", `{"name":"Asha Rao","skills":["Go"]}`)

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, "upstream_timeout", decodeError(t, w).Kind)
}

func TestPostDomainInfo(t *testing.T) {
	gen := &fakeGenerator{text: `[{"domain":"Data"}]`}
	r := newGuidanceRouter(gen, nil)

	w := postJSON(r, "/api/domain-info", `{"prompt":"Describe the data domain"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `[{"domain":"Data"}]`, w.Body.String())
	assert.Equal(t, true, strings.HasPrefix(gen.prompts[0], "Describe the data domain"))

	w = postJSON(r, "/api/domain-info", `{"prompt":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostResumeEnhancement_KeepsUnknownKeys(t *testing.T) {
	gen := &fakeGenerator{text: `{"name":"Asha Rao"}`}
	r := newGuidanceRouter(gen, nil)

	w := postJSON(r, "/api/resume/enhance", `{"name":"Asha Rao","linkedin":"https://linkedin.com/in/asha","skills":[{"name":"Go","years":3}]}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, gen.calls())
	assert.Equal(t, true, strings.Contains(gen.prompts[0], `"linkedin": "https://linkedin.com/in/asha"`))
	assert.Equal(t, true, strings.Contains(gen.prompts[0], `"years": 3`))

	w = postJSON(r, "/api/resume/enhance", `["not","an","object"]`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 1, gen.calls())
}

func TestPostQuizAnalysis_NumericOption(t *testing.T) {
	gen := &fakeGenerator{text: `{"career":"Doctor"}`}
	r := newGuidanceRouter(gen, nil)

	postJSON(r, "/api/quiz/analyze", `{"answers":[{"questionId":"q7","question":"Pick one","selectedOption":2}]}`)

	assert.Equal(t, 1, gen.calls())
	assert.Equal(t, true, strings.Contains(gen.prompts[0], `"questionId": "q7"`))
	assert.Equal(t, true, strings.Contains(gen.prompts[0], `"selectedOption": 2`))
}

type captureSink struct {
	mu     sync.Mutex
	events []diagnostics.Event
}

func (s *captureSink) Record(_ context.Context, e diagnostics.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func TestFailureEventCarriesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sink := &captureSink{}
	svc := task.NewService(&fakeGenerator{text: "not json"}, sink, nil, task.Options{
		Timeout:    50 * time.Millisecond,
		MaxRetries: 0,
	})
	r := gin.New()
	r.Use(RequestID())
	NewGuidanceHandler(svc, nil, 1<<10).Register(r.Group("/api"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/quiz", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
	assert.Equal(t, 1, len(sink.events))
	assert.Equal(t, "req-42", sink.events[0].RequestID)
}

func TestPostQuizAnalysis_BadBody(t *testing.T) {
	gen := &fakeGenerator{text: "{}"}
	r := newGuidanceRouter(gen, nil)

	w := postJSON(r, "/api/quiz/analyze", `{"answers": "not a list"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "input_validation", decodeError(t, w).Kind)
	assert.Equal(t, 0, gen.calls())
}

func multipartBody(t *testing.T, fields map[string]string, filename, contentType string, file []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="resume"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		part.Write(file)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestPostPlacementUpload_PlainTextResume(t *testing.T) {
	gen := &fakeGenerator{text: placementReply}
	archive := &fakeArchive{}
	r := newGuidanceRouter(gen, archive)

	body, ct := multipartBody(t, map[string]string{"name": "Asha", "gpa": "8.2", "domain": "Data"},
		"resume.txt", "text/plain", []byte("Intern at Acme building ETL pipelines"))
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/placement-analysis/upload", body)
	req.Header.Set("Content-Type", ct)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, placementReply, w.Body.String())
	assert.Equal(t, "resumes/2026/01/01/abc.txt", w.Header().Get(ResumeObjectKeyHeader))
	assert.Equal(t, "resume.txt", archive.filename)
	assert.Equal(t, "text/plain", archive.mime)
	assert.Equal(t, true, strings.Contains(gen.prompts[0], "Intern at Acme building ETL pipelines"))
	assert.Equal(t, true, strings.Contains(gen.prompts[0], `"gpa": 8.2`))
}

func TestPostPlacementUpload_Rejected(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		file        []byte
	}{
		{"unsupported type", "photo.png", "image/png", []byte{0x89, 0x50, 0x4e, 0x47}},
		{"too large", "resume.txt", "text/plain", bytes.Repeat([]byte("a"), 2<<10)},
		{"broken pdf", "resume.pdf", "application/pdf", []byte("not a pdf")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{text: placementReply}
			archive := &fakeArchive{}
			r := newGuidanceRouter(gen, archive)

			body, ct := multipartBody(t, map[string]string{"name": "Asha"}, tt.filename, tt.contentType, tt.file)
			w := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/api/placement-analysis/upload", body)
			req.Header.Set("Content-Type", ct)
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "input_validation", decodeError(t, w).Kind)
			assert.Equal(t, 0, gen.calls())
			assert.Equal(t, "", archive.filename)
		})
	}
}

func TestPostPlacementUpload_WithoutFile(t *testing.T) {
	gen := &fakeGenerator{text: placementReply}
	r := newGuidanceRouter(gen, nil)

	body, ct := multipartBody(t, map[string]string{"name": "Asha", "resumeText": "Typed resume"}, "", "", nil)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/placement-analysis/upload", body)
	req.Header.Set("Content-Type", ct)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", w.Header().Get(ResumeObjectKeyHeader))
	assert.Equal(t, true, strings.Contains(gen.prompts[0], "Typed resume"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(task.KindInputValidation))
	assert.Equal(t, http.StatusBadGateway, statusFor(task.KindUpstreamError))
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(task.KindUpstreamTimeout))
	assert.Equal(t, http.StatusBadGateway, statusFor(task.KindInvalidJSON))
	assert.Equal(t, http.StatusBadGateway, statusFor(task.KindSchemaMismatch))
	assert.Equal(t, http.StatusInternalServerError, statusFor(task.Kind("other")))
}
