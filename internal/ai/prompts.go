package ai

import (
	"tailorpro/internal/config"
)

// promptPair is a system instruction plus a fmt.Sprintf user template
type promptPair struct {
	System string
	User   string
}

// inlineDocumentRef fills the parse-resume template when the document is
// attached as a media part instead of inlined as text.
const inlineDocumentRef = "(the resume is attached to this message as a document)"

var defaultPrompts = map[config.Operation]promptPair{
	config.OpParseResume: {
		System: `You are an expert resume parser. Your job is to extract information from a resume.

Extract the following information from the resume:
- Name
- Email
- Phone number
- Work experience. Make sure to capture all details for each position including job title, company, dates and description into a single experience item.
- Education
- Skills
- Projects
- Certifications

Only extract what the resume states. Use empty strings for missing values and empty arrays for missing sections.`,

		// %s: resume text, or inlineDocumentRef
		User: `Here is the resume:
-----
%s
-----`,
	},

	config.OpAnalyzeJob: {
		System: `You are an expert recruiter. Please analyze the following job description and extract key skills, qualifications, and keywords.`,

		// %s: job description
		User: `Job Description:
-----
%s
-----

Extract the key skills, qualifications, and keywords from the job description.`,
	},

	config.OpGenerateResume: {
		System: `You are a professional resume writer. Generate a resume based on the user's details and tailored to the job description provided.

Consider the job description to highlight relevant skills and experiences.
Ensure the resume is visually appealing and easy to read. Include all relevant sections such as work experience, education, skills, projects, and certifications.
The skills section should be a comma-separated list.
Do not use markdown formatting. The output should be plain text.`,

		// %s: user details, %s: job description
		User: `User Details:
-----
%s
-----

Job Description:
-----
%s
-----`,
	},

	config.OpATSScore: {
		System: `You are an expert resume optimizer specializing in Applicant Tracking Systems (ATS). Given a resume and a job description, calculate an ATS score (0-100) and provide specific, actionable suggestions to improve the resume's ATS compatibility.

Consider factors such as keyword matching, formatting, section headings, and overall relevance to the job description. Explain why the ATS score was assigned and focus on improvements related to getting past the ATS. Focus on providing suggestions that improve the keyword matching in particular, such as re-wording the resume to use the same keywords.`,

		// %s: resume, %s: job description
		User: `Resume:
-----
%s
-----

Job Description:
-----
%s
-----`,
	},

	config.OpCoverLetter: {
		System: `You are an expert career advisor. Your goal is to generate a cover letter based on the user information provided and tailored to the job description provided.

Generate a professional, well-formatted cover letter.`,

		// %s: job description, %s: user information
		User: `Job Description:
-----
%s
-----

User Information:
-----
%s
-----`,
	},
}

// resolvePrompt picks the first non-empty of a file-loaded prompt, a prompt
// set inline in configuration, and the built-in default.
func resolvePrompt(loadedFromFile, fromConfig, fromDefault string) string {
	if loadedFromFile != "" {
		return loadedFromFile
	}
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}
