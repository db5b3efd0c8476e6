package profile

import (
	"fmt"
	"strings"

	"tailorpro/internal/types"
)

// Format renders a profile as the plain-text background block embedded in
// model prompts. Output depends only on p; empty sections are omitted.
func Format(p types.UserProfile) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Name: %s\nEmail: %s\nPhone: %s\n\n", p.Name, p.Email, p.Phone)

	if len(p.Skills) > 0 {
		fmt.Fprintf(&b, "Skills: %s\n\n", strings.Join(p.Skills, ", "))
	}

	if len(p.Experiences) > 0 {
		b.WriteString("Work Experience:\n")
		for _, exp := range p.Experiences {
			end := exp.EndDate
			if end == "" {
				end = "Present"
			}
			fmt.Fprintf(&b, "- %s at %s (%s - %s)\n", exp.JobTitle, exp.Company, exp.StartDate, end)
			if exp.Description != "" {
				fmt.Fprintf(&b, "  %s\n", indent(exp.Description))
			}
		}
		b.WriteString("\n")
	}

	if len(p.Education) > 0 {
		b.WriteString("Education:\n")
		for _, edu := range p.Education {
			fmt.Fprintf(&b, "- %s in %s from %s (Graduated: %s)\n",
				edu.Degree, edu.FieldOfStudy, edu.Institution, edu.GraduationDate)
		}
		b.WriteString("\n")
	}

	if len(p.Projects) > 0 {
		b.WriteString("Projects:\n")
		for _, proj := range p.Projects {
			fmt.Fprintf(&b, "- %s\n", proj.Name)
			if proj.URL != "" {
				fmt.Fprintf(&b, "  Link: %s\n", proj.URL)
			}
			if proj.Description != "" {
				fmt.Fprintf(&b, "  Description: %s\n", indent(proj.Description))
			}
		}
		b.WriteString("\n")
	}

	if len(p.Certifications) > 0 {
		b.WriteString("Certifications:\n")
		for _, cert := range p.Certifications {
			fmt.Fprintf(&b, "- %s from %s (Earned: %s)\n",
				cert.Name, cert.IssuingOrganization, cert.DateEarned)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// indent keeps multi-line descriptions aligned under their bullet.
func indent(s string) string {
	return strings.ReplaceAll(s, "\n", "\n  ")
}
