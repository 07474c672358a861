package prompt

import "careerpath/pkg/extract"

const (
	roadmapCount       = 10
	optionsPerQuestion = 4
)

var (
	percentMin, percentMax       = extract.Range(0, 100)
	confidenceMin, confidenceMax = extract.Range(0, 1)
	zero, _                      = extract.Range(0, 0)
)

func str(name, description string) extract.Field {
	return extract.Field{Name: name, Kind: extract.KindString, Description: description}
}

func strList(name, description string) extract.Field {
	return extract.Field{
		Name:        name,
		Kind:        extract.KindArray,
		Description: description,
		Items:       &extract.Field{Kind: extract.KindString},
	}
}

func objList(name, description string, fields ...extract.Field) extract.Field {
	return extract.Field{
		Name:        name,
		Kind:        extract.KindArray,
		Description: description,
		Items:       &extract.Field{Kind: extract.KindObject, Fields: fields},
	}
}

func obj(name, description string, fields ...extract.Field) extract.Field {
	return extract.Field{Name: name, Kind: extract.KindObject, Description: description, Fields: fields}
}

var quizGenerationSchema = extract.MustCompile(string(TaskQuizGeneration), extract.Field{
	Kind:     extract.KindArray,
	MinItems: 1,
	Items: &extract.Field{
		Kind: extract.KindObject,
		Fields: []extract.Field{
			str("question", "the question text"),
			{
				Name:        "options",
				Kind:        extract.KindArray,
				Description: "the answer choices",
				Items:       &extract.Field{Kind: extract.KindString},
				MinItems:    optionsPerQuestion,
				MaxItems:    optionsPerQuestion,
			},
		},
	},
})

var quizAnalysisSchema = extract.MustCompile(string(TaskQuizAnalysis), extract.Field{
	Kind: extract.KindObject,
	Fields: []extract.Field{
		str("career", "the single best-fitting career"),
		str("reasoning", "why this career fits the answers"),
		strList("alternativeOptions", "other careers worth considering"),
		strList("studyMaterial", "links to resources for getting started"),
	},
})

var placementAnalysisSchema = extract.MustCompile(string(TaskPlacementAnalysis), extract.Field{
	Kind: extract.KindObject,
	Fields: []extract.Field{
		strList("career_match", "roles the candidate is a good match for"),
		strList("gap_analysis", "skills or experience missing for the dream company"),
		{
			Name:        "placement_readiness_index",
			Kind:        extract.KindInteger,
			Description: "overall readiness for placement",
			Min:         percentMin,
			Max:         percentMax,
		},
		objList("suggested_companies", "companies worth applying to",
			str("name", "company name"),
			str("reason", "why it suits the candidate"),
		),
		{
			Name:        "skill_scores",
			Kind:        extract.KindObject,
			Description: "skill name to proficiency score",
			Values:      &extract.Field{Kind: extract.KindNumber, Min: percentMin, Max: percentMax},
		},
		strList("action_plan", "ordered next steps"),
		strList("mock_interview_topics", "topics to rehearse"),
	},
})

var companyInfoSchema = extract.MustCompile(string(TaskCompanyInfo), extract.Field{
	Kind: extract.KindObject,
	Fields: []extract.Field{
		str("overview", "what the company does"),
		strList("roles", "roles it typically hires graduates for"),
		str("interview_format", "rounds and their format"),
		strList("tips", "preparation tips"),
		str("apply_link", "careers page URL"),
		strList("required_skills", "skills the company screens for"),
		strList("locations", "main hiring locations"),
		str("approx_compensation", "approximate entry-level compensation"),
		str("notes", "anything else worth knowing"),
	},
})

var resumeEnhancementSchema = extract.MustCompile(string(TaskResumeEnhancement), extract.Field{
	Kind: extract.KindObject,
	Fields: []extract.Field{
		str("name", "unchanged"),
		str("title", "professional headline"),
		str("email", "unchanged"),
		str("phone", "unchanged"),
		str("summary", "rewritten professional summary"),
		strList("skills", "skills, deduplicated and grouped"),
		{Name: "experience", Kind: extract.KindArray, Description: "same entries, bullet points strengthened"},
		{Name: "education", Kind: extract.KindArray, Description: "same entries"},
		{Name: "projects", Kind: extract.KindArray, Description: "same entries, descriptions strengthened"},
		strList("achievements", "achievements, quantified where possible"),
	},
})

var roadmapSchema = extract.MustCompile(string(TaskRoadmap), extract.Field{
	Kind:     extract.KindArray,
	MinItems: roadmapCount,
	MaxItems: roadmapCount,
	Items: &extract.Field{
		Kind: extract.KindObject,
		Fields: []extract.Field{
			str("id", "short unique slug"),
			str("title", "career path title"),
			str("stream_suggestion", "recommended stream after 10th grade"),
			str("summary", "two or three sentence overview"),
			obj("recommended_for_grades", "grade range this path suits",
				extract.Field{Name: "min", Kind: extract.KindNumber, Min: zero},
				extract.Field{Name: "max", Kind: extract.KindNumber, Min: zero},
			),
			objList("courses", "courses leading to this career",
				str("name", "course name"),
				str("level", "diploma, undergraduate, postgraduate or certification"),
				extract.Field{Name: "duration_years", Kind: extract.KindNumber, Min: zero},
				str("description", "what the course covers"),
				obj("outcome", "what the course leads to",
					strList("skills", "skills gained"),
					strList("roles", "roles it opens"),
					str("expected_salary_range", "typical starting salary range"),
				),
			),
			strList("course_recommendations_post_12th", "courses to take after 12th grade"),
			obj("graph_demand", "job-market demand over recent years",
				strList("labels", "period labels"),
				extract.Field{Name: "values", Kind: extract.KindArray, Items: &extract.Field{Kind: extract.KindNumber}},
			),
			obj("icons", "display icons",
				str("main", "a single emoji"),
			),
			{
				Name:        "confidence",
				Kind:        extract.KindNumber,
				Description: "how well the path fits the student",
				Min:         confidenceMin,
				Max:         confidenceMax,
			},
		},
	},
})

var domainInfoSchema = extract.MustCompile(string(TaskDomainInfo), extract.Field{Kind: extract.KindAny})

var schemas = map[Task]*extract.Schema{
	TaskQuizGeneration:    quizGenerationSchema,
	TaskQuizAnalysis:      quizAnalysisSchema,
	TaskPlacementAnalysis: placementAnalysisSchema,
	TaskCompanyInfo:       companyInfoSchema,
	TaskResumeEnhancement: resumeEnhancementSchema,
	TaskRoadmap:           roadmapSchema,
	TaskDomainInfo:        domainInfoSchema,
}

// SchemaFor returns the reply schema of task, or nil for an unknown task.
func SchemaFor(task Task) *extract.Schema {
	return schemas[task]
}
