package prompt

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"careerpath/pkg/extract"

	"github.com/go-playground/assert/v2"
)

func fieldNames(fields []extract.Field) []string {
	var names []string
	for _, f := range fields {
		names = append(names, f.Name)
		if f.Kind == extract.KindObject {
			names = append(names, fieldNames(f.Fields)...)
		}
		if f.Items != nil && f.Items.Kind == extract.KindObject {
			names = append(names, fieldNames(f.Items.Fields)...)
		}
	}
	return names
}

func allPrompts() map[Task]string {
	return map[Task]string{
		TaskQuizGeneration: QuizGenerationPrompt(),
		TaskQuizAnalysis: QuizAnalysisPrompt(QuizAnalysisInput{Answers: []QuizAnswer{
			{"question": "Which subject do you enjoy most?", "selectedOption": "Biology"},
		}}),
		TaskPlacementAnalysis: PlacementAnalysisPrompt(PlacementInput{Name: "Asha", GPA: 8.4, DreamCompany: "Infosys", Domain: "Data"}),
		TaskCompanyInfo:       CompanyInfoPrompt(CompanyInfoInput{CompanyName: "Infosys"}),
		TaskResumeEnhancement: ResumeEnhancementPrompt(Resume{"name": "Asha Rao", "skills": []any{"Go"}}),
		TaskRoadmap:           RoadmapPrompt(RoadmapInput{Student: map[string]any{"grade": 10}, QuizAnswers: []any{"Biology"}}),
		TaskDomainInfo:        DomainInfoPrompt(DomainInfoInput{Prompt: "List three facts about data science as JSON."}),
	}
}

func TestEveryTaskHasSchema(t *testing.T) {
	for _, task := range Tasks {
		assert.NotEqual(t, nil, SchemaFor(task))
		assert.Equal(t, string(task), SchemaFor(task).Name())
	}
	assert.Equal(t, (*extract.Schema)(nil), SchemaFor(Task("unknown")))
}

func TestPrompts_DescribeOutputContract(t *testing.T) {
	for task, p := range allPrompts() {
		t.Run(string(task), func(t *testing.T) {
			assert.Equal(t, true, strings.Contains(p, jsonOnly))

			root := SchemaFor(task).Root()
			fields := root.Fields
			if root.Items != nil {
				fields = root.Items.Fields
			}
			for _, name := range fieldNames(fields) {
				if !strings.Contains(p, fmt.Sprintf("%q", name)) {
					t.Errorf("prompt for %s does not mention key %q", task, name)
				}
			}
		})
	}
}

func TestPrompts_TopLevelShape(t *testing.T) {
	prompts := allPrompts()

	assert.Equal(t, true, strings.Contains(prompts[TaskQuizGeneration], "Respond with a JSON array of objects"))
	assert.Equal(t, true, strings.Contains(prompts[TaskQuizGeneration], `"options": array of exactly 4 strings`))
	assert.Equal(t, true, strings.Contains(prompts[TaskRoadmap], "Respond with a JSON array of exactly 10 objects"))
	assert.Equal(t, true, strings.Contains(prompts[TaskPlacementAnalysis], `"placement_readiness_index": integer from 0 to 100`))
	assert.Equal(t, true, strings.Contains(prompts[TaskRoadmap], `"confidence": number from 0 to 1`))
	for _, task := range []Task{TaskQuizAnalysis, TaskPlacementAnalysis, TaskCompanyInfo, TaskResumeEnhancement} {
		assert.Equal(t, true, strings.Contains(prompts[task], "Respond with a single JSON object"))
	}
	assert.Equal(t, true, strings.Contains(prompts[TaskDomainInfo], "Respond with a JSON object or a JSON array"))
}

func TestPrompts_AreDeterministic(t *testing.T) {
	first := allPrompts()
	second := allPrompts()
	for task := range first {
		assert.Equal(t, first[task], second[task])
	}
}

func TestPrompts_EmbedInputLosslessly(t *testing.T) {
	resume := Resume{
		"name":    "Asha Rao",
		"email":   "asha@example.com",
		"summary": `Likes "quotes" & <tags>`,
		"experience": []any{
			map[string]any{"company": "Acme", "bullets": []any{"Built a thing", 3.5}},
		},
	}
	p := ResumeEnhancementPrompt(resume)

	want, _ := json.MarshalIndent(resume, "", "  ")
	assert.Equal(t, true, strings.Contains(p, string(want)))

	answers := QuizAnalysisInput{Answers: []QuizAnswer{
		{"question": "Pick one", "selectedOption": "Draw"},
		{"question": "Pick two", "selectedOption": "Build"},
	}}
	want, _ = json.MarshalIndent(answers.Answers, "", "  ")
	assert.Equal(t, true, strings.Contains(QuizAnalysisPrompt(answers), string(want)))
}

func TestPrompts_KeepUnknownKeys(t *testing.T) {
	var resume Resume
	err := json.Unmarshal([]byte(`{"name":"Asha","linkedin":"https://linkedin.com/in/asha","certifications":["AWS SAA"],"skills":[{"name":"Go","level":"advanced"}]}`), &resume)
	assert.Equal(t, nil, err)

	p := ResumeEnhancementPrompt(resume)
	assert.Equal(t, true, strings.Contains(p, `"linkedin": "https://linkedin.com/in/asha"`))
	assert.Equal(t, true, strings.Contains(p, `"AWS SAA"`))
	assert.Equal(t, true, strings.Contains(p, `"level": "advanced"`))

	var in QuizAnalysisInput
	err = json.Unmarshal([]byte(`{"answers":[{"questionId":"q7","question":"Pick one","selectedOption":2}]}`), &in)
	assert.Equal(t, nil, err)

	p = QuizAnalysisPrompt(in)
	assert.Equal(t, true, strings.Contains(p, `"questionId": "q7"`))
	assert.Equal(t, true, strings.Contains(p, `"selectedOption": 2`))
}

func TestPlacementAnalysisPrompt_Resume(t *testing.T) {
	with := PlacementAnalysisPrompt(PlacementInput{Name: "Asha", ResumeText: "Intern at Acme, built ETL pipelines"})
	without := PlacementAnalysisPrompt(PlacementInput{Name: "Asha"})

	assert.Equal(t, true, strings.Contains(with, "Intern at Acme, built ETL pipelines"))
	assert.Equal(t, true, strings.Contains(without, "No resume provided"))
}

func TestCompanyInfoPrompt_CandidateContext(t *testing.T) {
	p := CompanyInfoPrompt(CompanyInfoInput{CompanyName: "  TCS ", CandidateContext: map[string]any{"branch": "ECE"}})

	assert.Equal(t, true, strings.Contains(p, "### Company\nTCS\n"))
	assert.Equal(t, true, strings.Contains(p, `"branch": "ECE"`))
}

func TestValidate(t *testing.T) {
	assert.NotEqual(t, nil, CompanyInfoInput{}.Validate())
	assert.NotEqual(t, nil, CompanyInfoInput{CompanyName: "   "}.Validate())
	assert.Equal(t, nil, CompanyInfoInput{CompanyName: "TCS"}.Validate())

	assert.NotEqual(t, nil, QuizAnalysisInput{}.Validate())
	assert.Equal(t, nil, QuizAnalysisInput{Answers: []QuizAnswer{{"question": "q", "selectedOption": "a"}}}.Validate())

	assert.NotEqual(t, nil, Resume(nil).Validate())
	assert.Equal(t, nil, Resume{}.Validate())

	assert.NotEqual(t, nil, DomainInfoInput{Prompt: "\n"}.Validate())
	assert.Equal(t, nil, DomainInfoInput{Prompt: "hi"}.Validate())
}

func placementReply(index any) string {
	doc := map[string]any{
		"career_match":              []string{"Data Analyst"},
		"gap_analysis":              []string{"SQL window functions"},
		"placement_readiness_index": index,
		"suggested_companies":       []map[string]string{{"name": "Infosys", "reason": "Mass hiring for analysts"}},
		"skill_scores":              map[string]any{"SQL": 60, "Python": 75},
		"action_plan":               []string{"Practise SQL"},
		"mock_interview_topics":     []string{"Joins"},
	}
	b, _ := json.Marshal(doc)
	return string(b)
}

func TestPlacementSchema_ReadinessIndex(t *testing.T) {
	schema := SchemaFor(TaskPlacementAnalysis)

	for _, index := range []any{0, 1, 55, 100} {
		res := extract.Extract(placementReply(index), schema)
		assert.Equal(t, true, res.OK())
		got := res.Value().(map[string]any)["placement_readiness_index"].(float64)
		assert.Equal(t, true, got >= 0 && got <= 100 && got == float64(int(got)))
	}

	for _, index := range []any{-5, 101, 250, 55.5, "80", nil} {
		res := extract.Extract(placementReply(index), schema)
		assert.Equal(t, false, res.OK())
		assert.Equal(t, extract.SchemaMismatch, res.Failure().Kind)
		assert.Equal(t, []string{"placement_readiness_index"}, res.Failure().Fields)
	}
}

func TestPlacementSchema_SkillScores(t *testing.T) {
	var doc map[string]any
	_ = json.Unmarshal([]byte(placementReply(50)), &doc)
	doc["skill_scores"] = map[string]any{"SQL": 160}
	b, _ := json.Marshal(doc)

	res := extract.Extract(string(b), SchemaFor(TaskPlacementAnalysis))
	assert.Equal(t, []string{"skill_scores.SQL"}, res.Failure().Fields)
}

func quizReply(questions, options int) string {
	var out []map[string]any
	for i := 0; i < questions; i++ {
		var opts []string
		for j := 0; j < options; j++ {
			opts = append(opts, fmt.Sprintf("option %d", j))
		}
		out = append(out, map[string]any{"question": fmt.Sprintf("question %d", i), "options": opts})
	}
	b, _ := json.Marshal(out)
	return string(b)
}

func TestQuizGenerationSchema(t *testing.T) {
	schema := SchemaFor(TaskQuizGeneration)

	assert.Equal(t, true, extract.Extract("```json\n"+quizReply(10, 4)+"\n```", schema).OK())

	res := extract.Extract(quizReply(2, 3), schema)
	assert.Equal(t, extract.SchemaMismatch, res.Failure().Kind)
	assert.Equal(t, []string{"[0].options", "[1].options"}, res.Failure().Fields)

	res = extract.Extract(`{"data":{"questions":[]}}`, schema)
	assert.Equal(t, extract.SchemaMismatch, res.Failure().Kind)

	res = extract.Extract(`[]`, schema)
	assert.Equal(t, extract.SchemaMismatch, res.Failure().Kind)
}

func roadmapEntry(i int) map[string]any {
	return map[string]any{
		"id":                     fmt.Sprintf("path-%d", i),
		"title":                  "Doctor",
		"stream_suggestion":      "Science (PCB)",
		"summary":                "Treat patients.",
		"recommended_for_grades": map[string]any{"min": 9, "max": 12},
		"courses": []any{map[string]any{
			"name":           "MBBS",
			"level":          "undergraduate",
			"duration_years": 5.5,
			"description":    "Medicine",
			"outcome": map[string]any{
				"skills":                []string{"Diagnosis"},
				"roles":                 []string{"Physician"},
				"expected_salary_range": "8-15 LPA",
			},
		}},
		"course_recommendations_post_12th": []string{"MBBS", "BDS"},
		"graph_demand":                     map[string]any{"labels": []string{"2021", "2022"}, "values": []float64{70, 75}},
		"icons":                            map[string]any{"main": "🩺"},
		"confidence":                       0.82,
	}
}

func TestRoadmapSchema(t *testing.T) {
	schema := SchemaFor(TaskRoadmap)

	var entries []map[string]any
	for i := 0; i < 10; i++ {
		entries = append(entries, roadmapEntry(i))
	}
	b, _ := json.Marshal(entries)
	assert.Equal(t, true, extract.Extract(string(b), schema).OK())

	b, _ = json.Marshal(entries[:9])
	assert.Equal(t, extract.SchemaMismatch, extract.Extract(string(b), schema).Failure().Kind)

	entries[3]["confidence"] = 1.4
	delete(entries[5]["courses"].([]any)[0].(map[string]any)["outcome"].(map[string]any), "roles")
	b, _ = json.Marshal(entries)
	res := extract.Extract(string(b), schema)
	assert.Equal(t, []string{"[3].confidence", "[5].courses[0].outcome.roles"}, res.Failure().Fields)
}

func TestRepairPrompt(t *testing.T) {
	original := CompanyInfoPrompt(CompanyInfoInput{CompanyName: "TCS"})
	p := RepairPrompt(original, `{"overview":"IT services"}`, "missing required fields", []string{"roles", "tips"})

	assert.Equal(t, true, strings.HasPrefix(p, original))
	assert.Equal(t, true, strings.Contains(p, `{"overview":"IT services"}`))
	assert.Equal(t, true, strings.Contains(p, "Fix these fields: roles, tips"))
	assert.Equal(t, true, strings.HasSuffix(p, jsonOnly))

	bare := RepairPrompt(original, "not json", "invalid character 'o'", nil)
	assert.Equal(t, false, strings.Contains(bare, "Fix these fields"))
}
