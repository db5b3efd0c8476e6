package types

// WorkExperience is one entry of a profile's work history
type WorkExperience struct {
	ID          string `json:"id,omitempty"`
	JobTitle    string `json:"jobTitle"`
	Company     string `json:"company"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description"`
}

// Education is one entry of a profile's education history
type Education struct {
	ID             string `json:"id,omitempty"`
	Institution    string `json:"institution"`
	Degree         string `json:"degree"`
	FieldOfStudy   string `json:"fieldOfStudy"`
	GraduationDate string `json:"graduationDate"`
}

// Project is a portfolio item; URL must be a well-formed URL or empty
type Project struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url" validate:"omitempty,url"`
}

// Certification is an earned credential
type Certification struct {
	ID                  string `json:"id,omitempty"`
	Name                string `json:"name"`
	IssuingOrganization string `json:"issuingOrganization"`
	DateEarned          string `json:"dateEarned"`
}

// UserProfile is the structured background of a job seeker
type UserProfile struct {
	Name           string           `json:"name" validate:"required"`
	Email          string           `json:"email" validate:"required,email"`
	Phone          string           `json:"phone"`
	Skills         []string         `json:"skills"`
	Experiences    []WorkExperience `json:"experiences" validate:"dive"`
	Education      []Education      `json:"education" validate:"dive"`
	Projects       []Project        `json:"projects" validate:"dive"`
	Certifications []Certification  `json:"certifications" validate:"dive"`
}

// ParseResumeInput carries a decoded resume document
type ParseResumeInput struct {
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"-"`
}

// ParsedExperience is a work history entry as extracted from a document
type ParsedExperience struct {
	JobTitle    string `json:"jobTitle"`
	Company     string `json:"company"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description"`
}

// ParsedEducation is an education entry as extracted from a document
type ParsedEducation struct {
	Institution    string `json:"institution"`
	Degree         string `json:"degree"`
	FieldOfStudy   string `json:"fieldOfStudy"`
	GraduationDate string `json:"graduationDate"`
}

// ParsedProject is a project entry as extracted from a document
type ParsedProject struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// URL is taken as written; links are checked when the profile is validated
	URL string `json:"url,omitempty"`
}

// ParsedCertification is a certification entry as extracted from a document
type ParsedCertification struct {
	Name                string `json:"name"`
	IssuingOrganization string `json:"issuingOrganization"`
	DateEarned          string `json:"dateEarned"`
}

// ParsedResume is the structured output of the parse-resume flow
type ParsedResume struct {
	Name           string                `json:"name"`
	Email          string                `json:"email" validate:"required,email"`
	Phone          string                `json:"phone"`
	Experience     []ParsedExperience    `json:"experience" validate:"required"`
	Education      []ParsedEducation     `json:"education" validate:"required"`
	Skills         []string              `json:"skills" validate:"required"`
	Projects       []ParsedProject       `json:"projects" validate:"required,dive"`
	Certifications []ParsedCertification `json:"certifications" validate:"required"`
}

// ToProfile maps a parsed resume onto an editable profile.
// The result is not normalized; callers run profile.Normalize on it.
func (r ParsedResume) ToProfile() UserProfile {
	p := UserProfile{
		Name:   r.Name,
		Email:  r.Email,
		Phone:  r.Phone,
		Skills: append([]string(nil), r.Skills...),
	}

	for _, e := range r.Experience {
		p.Experiences = append(p.Experiences, WorkExperience{
			JobTitle:    e.JobTitle,
			Company:     e.Company,
			StartDate:   e.StartDate,
			EndDate:     e.EndDate,
			Description: e.Description,
		})
	}
	for _, e := range r.Education {
		p.Education = append(p.Education, Education{
			Institution:    e.Institution,
			Degree:         e.Degree,
			FieldOfStudy:   e.FieldOfStudy,
			GraduationDate: e.GraduationDate,
		})
	}
	for _, pr := range r.Projects {
		p.Projects = append(p.Projects, Project{
			Name:        pr.Name,
			Description: pr.Description,
			URL:         pr.URL,
		})
	}
	for _, c := range r.Certifications {
		p.Certifications = append(p.Certifications, Certification{
			Name:                c.Name,
			IssuingOrganization: c.IssuingOrganization,
			DateEarned:          c.DateEarned,
		})
	}

	return p
}

// AnalyzeJobInput represents the input for analyzing a job description
type AnalyzeJobInput struct {
	JobDescription string `json:"jobDescription"`
}

// JobAnalysis is the skills, qualifications and keywords found in a posting
type JobAnalysis struct {
	Skills         []string `json:"skills" validate:"required"`
	Qualifications []string `json:"qualifications" validate:"required"`
	Keywords       []string `json:"keywords" validate:"required"`
}

// GenerateResumeInput pairs formatted user text with a job description
type GenerateResumeInput struct {
	UserDetails    string `json:"userDetails"`
	JobDescription string `json:"jobDescription"`
}

// GeneratedResume is a plain-text resume tailored to a posting
type GeneratedResume struct {
	Resume string `json:"resume" validate:"required"`
}

// ATSScoreInput pairs resume text with a job description
type ATSScoreInput struct {
	Resume         string `json:"resume"`
	JobDescription string `json:"jobDescription"`
}

// ATSScore is the compatibility score (0-100) and improvement suggestions
type ATSScore struct {
	Score       int      `json:"atsScore" validate:"min=0,max=100"`
	Suggestions []string `json:"suggestions" validate:"required"`
}

// CoverLetterInput pairs a job description with formatted user text
type CoverLetterInput struct {
	JobDescription  string `json:"jobDescription"`
	UserInformation string `json:"userInformation"`
}

// CoverLetter is a plain-text cover letter
type CoverLetter struct {
	CoverLetter string `json:"coverLetter" validate:"required"`
}

// GenerationBundle holds the three results produced together for one posting
type GenerationBundle struct {
	Resume      GeneratedResume `json:"resume"`
	ATSScore    ATSScore        `json:"atsScore"`
	CoverLetter CoverLetter     `json:"coverLetter"`
}
