package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsedResumeToProfile(t *testing.T) {
	parsed := ParsedResume{
		Name:   "Jane Doe",
		Email:  "jane@x.com",
		Skills: []string{"Go", "React"},
		Experience: []ParsedExperience{
			{JobTitle: "Engineer", Company: "Acme", StartDate: "2020", Description: "Built things"},
		},
		Education: []ParsedEducation{
			{Institution: "MIT", Degree: "BSc", FieldOfStudy: "CS", GraduationDate: "2019"},
		},
		Projects: []ParsedProject{
			{Name: "tailorpro", URL: "https://example.com"},
		},
		Certifications: []ParsedCertification{
			{Name: "CKA", IssuingOrganization: "CNCF", DateEarned: "2022"},
		},
	}

	p := parsed.ToProfile()

	assert.Equal(t, "Jane Doe", p.Name)
	assert.Equal(t, []string{"Go", "React"}, p.Skills)
	if assert.Len(t, p.Experiences, 1) {
		assert.Equal(t, "Engineer", p.Experiences[0].JobTitle)
		assert.Equal(t, "", p.Experiences[0].EndDate)
	}
	assert.Len(t, p.Education, 1)
	assert.Equal(t, "https://example.com", p.Projects[0].URL)
	assert.Equal(t, "CNCF", p.Certifications[0].IssuingOrganization)

	// the profile must not alias the parsed slices
	p.Skills[0] = "Rust"
	assert.Equal(t, "Go", parsed.Skills[0])
}
