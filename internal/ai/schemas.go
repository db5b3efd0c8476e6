package ai

import "google.golang.org/genai"

func stringSchema() *genai.Schema {
	return &genai.Schema{Type: genai.TypeString}
}

func stringListSchema() *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: stringSchema()}
}

func objectSchema(required []string, props map[string]*genai.Schema) *genai.Schema {
	return &genai.Schema{Type: genai.TypeObject, Properties: props, Required: required}
}

func objectListSchema(required []string, props map[string]*genai.Schema) *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: objectSchema(required, props)}
}

func parsedResumeSchema() *genai.Schema {
	return objectSchema(
		[]string{"name", "email", "phone", "experience", "education", "skills", "projects", "certifications"},
		map[string]*genai.Schema{
			"name":  stringSchema(),
			"email": stringSchema(),
			"phone": stringSchema(),
			"experience": objectListSchema(
				[]string{"jobTitle", "company", "startDate", "endDate", "description"},
				map[string]*genai.Schema{
					"jobTitle":    stringSchema(),
					"company":     stringSchema(),
					"startDate":   stringSchema(),
					"endDate":     stringSchema(),
					"description": stringSchema(),
				}),
			"education": objectListSchema(
				[]string{"institution", "degree", "fieldOfStudy", "graduationDate"},
				map[string]*genai.Schema{
					"institution":    stringSchema(),
					"degree":         stringSchema(),
					"fieldOfStudy":   stringSchema(),
					"graduationDate": stringSchema(),
				}),
			"skills": stringListSchema(),
			"projects": objectListSchema(
				[]string{"name", "description"},
				map[string]*genai.Schema{
					"name":        stringSchema(),
					"description": stringSchema(),
					"url":         stringSchema(),
				}),
			"certifications": objectListSchema(
				[]string{"name", "issuingOrganization", "dateEarned"},
				map[string]*genai.Schema{
					"name":                stringSchema(),
					"issuingOrganization": stringSchema(),
					"dateEarned":          stringSchema(),
				}),
		})
}

func jobAnalysisSchema() *genai.Schema {
	return objectSchema(
		[]string{"skills", "qualifications", "keywords"},
		map[string]*genai.Schema{
			"skills":         stringListSchema(),
			"qualifications": stringListSchema(),
			"keywords":       stringListSchema(),
		})
}

func generatedResumeSchema() *genai.Schema {
	return objectSchema([]string{"resume"}, map[string]*genai.Schema{
		"resume": stringSchema(),
	})
}

func atsScoreSchema() *genai.Schema {
	return objectSchema([]string{"atsScore", "suggestions"}, map[string]*genai.Schema{
		"atsScore":    {Type: genai.TypeInteger, Minimum: genai.Ptr(0.0), Maximum: genai.Ptr(100.0)},
		"suggestions": stringListSchema(),
	})
}

func coverLetterSchema() *genai.Schema {
	return objectSchema([]string{"coverLetter"}, map[string]*genai.Schema{
		"coverLetter": stringSchema(),
	})
}
