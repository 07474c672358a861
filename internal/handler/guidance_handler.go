package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"careerpath/pkg/document"
	"careerpath/pkg/prompt"

	"github.com/gin-gonic/gin"
)

const ResumeObjectKeyHeader = "X-Resume-Object-Key"

type Guidance interface {
	GenerateQuiz(ctx context.Context) (json.RawMessage, error)
	AnalyzeQuiz(ctx context.Context, in prompt.QuizAnalysisInput) (json.RawMessage, error)
	AnalyzePlacement(ctx context.Context, in prompt.PlacementInput) (json.RawMessage, error)
	CompanyInfo(ctx context.Context, in prompt.CompanyInfoInput) (json.RawMessage, error)
	EnhanceResume(ctx context.Context, in prompt.Resume) (json.RawMessage, error)
	GenerateRoadmap(ctx context.Context, in prompt.RoadmapInput) (json.RawMessage, error)
	DomainInfo(ctx context.Context, in prompt.DomainInfoInput) (json.RawMessage, error)
}

type ResumeArchiver interface {
	Put(ctx context.Context, filename, contentType string, data []byte) (string, error)
}

type GuidanceHandler struct {
	service   Guidance
	archive   ResumeArchiver
	maxUpload int64
}

// NewGuidanceHandler builds the task endpoints. archive may be nil, in which
// case uploaded resumes are only read, never stored.
func NewGuidanceHandler(service Guidance, archive ResumeArchiver, maxUpload int64) *GuidanceHandler {
	return &GuidanceHandler{service: service, archive: archive, maxUpload: maxUpload}
}

func (h *GuidanceHandler) Register(r gin.IRouter) {
	r.POST("/quiz", h.PostQuiz)
	r.POST("/quiz/analyze", h.PostQuizAnalysis)
	r.POST("/placement-analysis", h.PostPlacementAnalysis)
	r.POST("/placement-analysis/upload", h.PostPlacementUpload)
	r.POST("/company-info", h.PostCompanyInfo)
	r.POST("/resume/enhance", h.PostResumeEnhancement)
	r.POST("/roadmap", h.PostRoadmap)
	r.POST("/domain-info", h.PostDomainInfo)
}

func respondJSON(c *gin.Context, out json.RawMessage, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", out)
}

func bind(c *gin.Context, in any) bool {
	if err := c.ShouldBindJSON(in); err != nil {
		slog.Warn("invalid request body", "error", err, "path", c.FullPath(), "request_id", requestID(c))
		respondInvalid(c, "Invalid request body")
		return false
	}
	return true
}

func (h *GuidanceHandler) PostQuiz(c *gin.Context) {
	out, err := h.service.GenerateQuiz(c.Request.Context())
	respondJSON(c, out, err)
}

func (h *GuidanceHandler) PostQuizAnalysis(c *gin.Context) {
	var in prompt.QuizAnalysisInput
	if !bind(c, &in) {
		return
	}
	out, err := h.service.AnalyzeQuiz(c.Request.Context(), in)
	respondJSON(c, out, err)
}

func (h *GuidanceHandler) PostPlacementAnalysis(c *gin.Context) {
	var in prompt.PlacementInput
	if !bind(c, &in) {
		return
	}
	out, err := h.service.AnalyzePlacement(c.Request.Context(), in)
	respondJSON(c, out, err)
}

// PostPlacementUpload accepts the placement fields as a multipart form with an
// optional resume file whose text replaces resumeText.
func (h *GuidanceHandler) PostPlacementUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+(1<<20))

	in := prompt.PlacementInput{
		Name:         c.PostForm("name"),
		GPA:          parseGPA(c.PostForm("gpa")),
		DreamCompany: c.PostForm("dreamCompany"),
		Domain:       c.PostForm("domain"),
		ResumeText:   c.PostForm("resumeText"),
	}

	var objectKey string
	file, err := c.FormFile("resume")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		slog.Warn("error reading upload", "error", err, "request_id", requestID(c))
		respondInvalid(c, "Invalid multipart form")
		return
	default:
		if file.Size > h.maxUpload {
			respondInvalid(c, fmt.Sprintf("resume exceeds %d bytes", h.maxUpload))
			return
		}
		data, err := readUpload(file)
		if err != nil {
			slog.Error("error reading resume upload", "error", err, "request_id", requestID(c))
			respondInvalid(c, "Could not read resume")
			return
		}

		mimeType := document.DetectMIME(file.Header.Get("Content-Type"), file.Filename)
		text, err := document.ExtractResumeText(mimeType, data)
		if err != nil {
			slog.Warn("error extracting resume text", "error", err, "mime", mimeType, "filename", file.Filename, "request_id", requestID(c))
			respondInvalid(c, "Could not read resume: "+err.Error())
			return
		}
		in.ResumeText = text

		if h.archive != nil {
			objectKey, err = h.archive.Put(c.Request.Context(), file.Filename, mimeType, data)
			if err != nil {
				slog.Error("error archiving resume", "error", err, "filename", file.Filename, "request_id", requestID(c))
			}
		}
	}

	out, err := h.service.AnalyzePlacement(c.Request.Context(), in)
	if err == nil && objectKey != "" {
		c.Header(ResumeObjectKeyHeader, objectKey)
	}
	respondJSON(c, out, err)
}

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func parseGPA(v string) any {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}

func (h *GuidanceHandler) PostCompanyInfo(c *gin.Context) {
	var in prompt.CompanyInfoInput
	if !bind(c, &in) {
		return
	}
	out, err := h.service.CompanyInfo(c.Request.Context(), in)
	respondJSON(c, out, err)
}

func (h *GuidanceHandler) PostResumeEnhancement(c *gin.Context) {
	var in prompt.Resume
	if !bind(c, &in) {
		return
	}
	out, err := h.service.EnhanceResume(c.Request.Context(), in)
	respondJSON(c, out, err)
}

func (h *GuidanceHandler) PostRoadmap(c *gin.Context) {
	var in prompt.RoadmapInput
	if !bind(c, &in) {
		return
	}
	out, err := h.service.GenerateRoadmap(c.Request.Context(), in)
	respondJSON(c, out, err)
}

func (h *GuidanceHandler) PostDomainInfo(c *gin.Context) {
	var in prompt.DomainInfoInput
	if !bind(c, &in) {
		return
	}
	out, err := h.service.DomainInfo(c.Request.Context(), in)
	respondJSON(c, out, err)
}
