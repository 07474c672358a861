// Package prompt renders career-guidance requests into model prompts and
// holds the reply schema for every task.
package prompt

import (
	"errors"
	"strings"
)

type Task string

const (
	TaskQuizGeneration    Task = "quiz_generation"
	TaskQuizAnalysis      Task = "quiz_analysis"
	TaskPlacementAnalysis Task = "placement_analysis"
	TaskCompanyInfo       Task = "company_info"
	TaskResumeEnhancement Task = "resume_enhancement"
	TaskRoadmap           Task = "roadmap"
	TaskDomainInfo        Task = "domain_info"
)

var Tasks = []Task{
	TaskQuizGeneration,
	TaskQuizAnalysis,
	TaskPlacementAnalysis,
	TaskCompanyInfo,
	TaskResumeEnhancement,
	TaskRoadmap,
	TaskDomainInfo,
}

// QuizAnswer is one answered question exactly as the caller sent it, usually
// with question and selectedOption keys.
type QuizAnswer map[string]any

type QuizAnalysisInput struct {
	Answers []QuizAnswer `json:"answers"`
}

func (in QuizAnalysisInput) Validate() error {
	if len(in.Answers) == 0 {
		return errors.New("answers is required")
	}
	return nil
}

type PlacementInput struct {
	Name         string `json:"name"`
	GPA          any    `json:"gpa"`
	DreamCompany string `json:"dreamCompany"`
	Domain       string `json:"domain"`
	ResumeText   string `json:"resumeText,omitempty"`
}

type CompanyInfoInput struct {
	CompanyName      string `json:"companyName"`
	CandidateContext any    `json:"candidateContext,omitempty"`
}

func (in CompanyInfoInput) Validate() error {
	if strings.TrimSpace(in.CompanyName) == "" {
		return errors.New("companyName is required")
	}
	return nil
}

// Resume is the editable resume record. It is kept as the caller's object so
// keys beyond name, title, email, phone, summary, skills, experience,
// education, projects and achievements reach the model too.
type Resume map[string]any

func (r Resume) Validate() error {
	if r == nil {
		return errors.New("resume must be a JSON object")
	}
	return nil
}

type RoadmapInput struct {
	Student     any `json:"student"`
	QuizAnswers any `json:"quizAnswers"`
}

type DomainInfoInput struct {
	Prompt string `json:"prompt"`
}

func (in DomainInfoInput) Validate() error {
	if strings.TrimSpace(in.Prompt) == "" {
		return errors.New("prompt is required")
	}
	return nil
}
