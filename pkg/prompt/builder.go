package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"careerpath/pkg/extract"
)

const quizQuestions = 10

const quizGenerationInstructions = `You are a career counsellor for school students. Write a multiple-choice aptitude and interest quiz that helps a student discover which career fields suit them.

Rules:
- Write %d questions covering interests, strengths, preferred work style and values
- Every question has exactly %d answer options
- Options are short, distinct and free of judgement
- Do not number the questions or label the options`

const quizAnalysisInstructions = `You are a career counsellor. A student answered a career interest quiz. Study every answer and recommend the single career that fits best.

Rules:
- Base the recommendation only on the answers given
- Explain the reasoning in two or three sentences addressed to the student
- Suggest alternative careers that also fit
- Suggest free, reputable study material as URLs`

const placementAnalysisInstructions = `You are a campus placement mentor. Assess how ready this candidate is for placement at their dream company and in their chosen domain.

Rules:
- Compare the candidate's profile and resume with what the dream company and domain expect
- List concrete gaps, not generic advice
- Score every relevant skill from 0 to 100
- The placement readiness index is a whole number from 0 to 100
- Suggest companies with a one-sentence reason each
- The action plan is ordered, most important step first`

const companyInfoInstructions = `You are a placement research assistant. Describe how the company below hires fresh graduates.

Rules:
- Be factual; say "unknown" rather than guessing
- Describe the interview rounds and their format
- Give the official careers page as the apply link when known
- Compensation is an approximate range with currency`

const resumeEnhancementInstructions = `You are a professional resume writer. Improve the resume below without inventing anything.

Rules:
- Keep name, email and phone exactly as given
- Keep every experience, education and project entry, in the same order and with the same keys
- Rewrite the summary and bullet points to be concise, active and results oriented
- Quantify achievements only where the resume already contains the numbers
- Return the resume with exactly the same structure`

const roadmapInstructions = `You are a career guidance expert for students in India. Using the student profile and quiz answers below, propose %d distinct career roadmaps ranked from best to worst fit.

Rules:
- Every roadmap names the stream to choose after 10th grade and the courses to take after 12th grade
- Courses list realistic durations in years and outcomes
- Demand graphs use the last five years as labels and a relative demand value for each
- Confidence is a number from 0 to 1 describing how well the roadmap fits this student
- Use a single emoji as the main icon`

type section struct {
	title string
	body  string
}

func render(instructions string, schema *extract.Schema, sections ...section) string {
	var sb strings.Builder
	sb.WriteString(instructions)
	sb.WriteString("\n\n")
	for _, s := range sections {
		sb.WriteString("### " + s.title + "\n")
		sb.WriteString(s.body)
		sb.WriteString("\n\n")
	}
	sb.WriteString("### Output\n")
	sb.WriteString(Contract(schema))
	return sb.String()
}

// jsonBlock serializes caller input verbatim so nothing the caller sent is lost.
func jsonBlock(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(b)
}

func QuizGenerationPrompt() string {
	return render(fmt.Sprintf(quizGenerationInstructions, quizQuestions, optionsPerQuestion), quizGenerationSchema)
}

func QuizAnalysisPrompt(in QuizAnalysisInput) string {
	return render(quizAnalysisInstructions, quizAnalysisSchema,
		section{title: "Quiz answers", body: jsonBlock(in.Answers)},
	)
}

func PlacementAnalysisPrompt(in PlacementInput) string {
	profile := struct {
		Name         string `json:"name"`
		GPA          any    `json:"gpa"`
		DreamCompany string `json:"dreamCompany"`
		Domain       string `json:"domain"`
	}{in.Name, in.GPA, in.DreamCompany, in.Domain}

	sections := []section{{title: "Candidate", body: jsonBlock(profile)}}
	if strings.TrimSpace(in.ResumeText) != "" {
		sections = append(sections, section{title: "Resume", body: in.ResumeText})
	} else {
		sections = append(sections, section{title: "Resume", body: "No resume provided. Base the assessment on the candidate profile only."})
	}
	return render(placementAnalysisInstructions, placementAnalysisSchema, sections...)
}

func CompanyInfoPrompt(in CompanyInfoInput) string {
	sections := []section{{title: "Company", body: strings.TrimSpace(in.CompanyName)}}
	if in.CandidateContext != nil {
		sections = append(sections, section{title: "Candidate context", body: jsonBlock(in.CandidateContext)})
	}
	return render(companyInfoInstructions, companyInfoSchema, sections...)
}

func ResumeEnhancementPrompt(in Resume) string {
	return render(resumeEnhancementInstructions, resumeEnhancementSchema,
		section{title: "Resume", body: jsonBlock(in)},
	)
}

func RoadmapPrompt(in RoadmapInput) string {
	return render(fmt.Sprintf(roadmapInstructions, roadmapCount), roadmapSchema,
		section{title: "Student", body: jsonBlock(in.Student)},
		section{title: "Quiz answers", body: jsonBlock(in.QuizAnswers)},
	)
}

// DomainInfoPrompt forwards a caller-written prompt and only appends the
// JSON-only contract.
func DomainInfoPrompt(in DomainInfoInput) string {
	return strings.TrimSpace(in.Prompt) + "\n\n" + Contract(domainInfoSchema)
}

// RepairPrompt re-asks for a reply that failed validation. The original
// prompt is repeated in full so the model does not depend on earlier turns.
func RepairPrompt(original, rejected, diagnostic string, fields []string) string {
	var sb strings.Builder
	sb.WriteString(original)
	sb.WriteString("\n\n### Previous reply\n")
	sb.WriteString(rejected)
	sb.WriteString("\n\n### Problem\nThe previous reply was rejected: ")
	sb.WriteString(diagnostic)
	if len(fields) > 0 {
		sb.WriteString("\nFix these fields: " + strings.Join(fields, ", "))
	}
	sb.WriteString("\nReturn the complete corrected JSON. " + jsonOnly)
	return sb.String()
}
