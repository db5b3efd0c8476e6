// Package formatters renders action results as JSON, plain text or Markdown.
package formatters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"tailorpro/internal/actions"
	"tailorpro/internal/types"
)

// Output formats
const (
	FormatJSON     = "json"
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

const anyType = "any"

// Formatter renders one data type in one format.
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry maps format and data type to a Formatter.
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// GlobalRegistry holds the default formatters.
var GlobalRegistry = NewFormatterRegistry()

// NewFormatterRegistry creates a registry with JSON for every type and
// text/Markdown for every action result.
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter(FormatJSON, anyType, &JSONFormatter{})
	for _, dataType := range []string{
		"ParseResult", "JobAnalysis", "GeneratedResume", "ATSScore",
		"CoverLetter", "GenerationBundle", "ValidatedProfile",
	} {
		registry.RegisterFormatter(FormatText, dataType, &DocumentFormatter{dataType: dataType})
		registry.RegisterFormatter(FormatMarkdown, dataType, &DocumentFormatter{dataType: dataType, markdown: true})
	}

	return registry
}

// RegisterFormatter registers formatter for format and dataType.
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format renders data, falling back to the format's "any" formatter.
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters[anyType]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns the registered formats in sorted order.
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case actions.ParseResult:
		return "ParseResult"
	case types.JobAnalysis:
		return "JobAnalysis"
	case types.GeneratedResume:
		return "GeneratedResume"
	case types.ATSScore:
		return "ATSScore"
	case types.CoverLetter:
		return "CoverLetter"
	case types.GenerationBundle:
		return "GenerationBundle"
	case actions.ValidatedProfile:
		return "ValidatedProfile"
	default:
		return anyType
	}
}

// JSONFormatter renders any value as indented JSON.
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return anyType
}

// DocumentFormatter renders an action result as plain text with
// "=== TITLE ===" banners, or as Markdown headings.
type DocumentFormatter struct {
	dataType string
	markdown bool
}

func (df *DocumentFormatter) SupportedType() string {
	return df.dataType
}

func (df *DocumentFormatter) Format(data any) (string, error) {
	if got := getDataType(data); got != df.dataType {
		return "", fmt.Errorf("expected %s, got %T", df.dataType, data)
	}

	d := &document{markdown: df.markdown}
	switch v := data.(type) {
	case actions.ParseResult:
		d.title("Parsed Resume")
		d.text(v.Profile.Name)
		d.field("Email", v.Profile.Email)
		d.field("Phone", v.Profile.Phone)
		d.newline()
		d.section("Skills")
		d.list(v.Profile.Skills)
		d.section("Experience")
		for _, e := range v.Profile.Experiences {
			end := e.EndDate
			if end == "" {
				end = "Present"
			}
			d.item(fmt.Sprintf("%s at %s (%s - %s)", e.JobTitle, e.Company, e.StartDate, end))
		}
		d.newline()
		d.section("Education")
		for _, e := range v.Profile.Education {
			d.item(fmt.Sprintf("%s in %s, %s (%s)", e.Degree, e.FieldOfStudy, e.Institution, e.GraduationDate))
		}
		d.newline()
		d.section("Projects")
		for _, p := range v.Profile.Projects {
			d.item(p.Name + ": " + p.Description)
		}
		d.newline()
		d.section("Certifications")
		for _, c := range v.Profile.Certifications {
			d.item(fmt.Sprintf("%s, %s (%s)", c.Name, c.IssuingOrganization, c.DateEarned))
		}
	case types.JobAnalysis:
		d.title("Job Analysis")
		d.section("Skills")
		d.list(v.Skills)
		d.section("Qualifications")
		d.list(v.Qualifications)
		d.section("Keywords")
		d.list(v.Keywords)
	case types.GeneratedResume:
		d.title("Tailored Resume")
		d.text(v.Resume)
	case types.ATSScore:
		d.title("ATS Score")
		d.score(v)
	case types.CoverLetter:
		d.title("Cover Letter")
		d.text(v.CoverLetter)
	case types.GenerationBundle:
		d.title("Tailored Resume")
		d.text(v.Resume.Resume)
		d.title("ATS Score")
		d.score(v.ATSScore)
		d.title("Cover Letter")
		d.text(v.CoverLetter.CoverLetter)
	case actions.ValidatedProfile:
		d.title("Profile")
		d.text(strings.TrimRight(v.Formatted, "\n"))
	}

	return d.String(), nil
}

// document accumulates output in either style.
type document struct {
	strings.Builder
	markdown bool
}

func (d *document) title(s string) {
	if d.markdown {
		fmt.Fprintf(d, "# %s\n\n", s)
		return
	}
	fmt.Fprintf(d, "=== %s ===\n\n", strings.ToUpper(s))
}

func (d *document) section(s string) {
	if d.markdown {
		fmt.Fprintf(d, "## %s\n\n", s)
		return
	}
	fmt.Fprintf(d, "%s:\n", s)
}

func (d *document) field(name, value string) {
	if value == "" {
		return
	}
	if d.markdown {
		fmt.Fprintf(d, "**%s:** %s  \n", name, value)
		return
	}
	fmt.Fprintf(d, "%s: %s\n", name, value)
}

func (d *document) item(s string) {
	fmt.Fprintf(d, "- %s\n", s)
}

func (d *document) list(items []string) {
	if len(items) == 0 {
		d.WriteString("(none)\n\n")
		return
	}
	for _, it := range items {
		d.item(it)
	}
	d.newline()
}

func (d *document) text(s string) {
	d.WriteString(s)
	d.WriteString("\n\n")
}

func (d *document) newline() {
	d.WriteString("\n")
}

func (d *document) score(s types.ATSScore) {
	if d.markdown {
		fmt.Fprintf(d, "**Score:** %d/100\n\n", s.Score)
	} else {
		fmt.Fprintf(d, "Score: %d/100\n\n", s.Score)
	}
	d.section("Suggestions")
	d.list(s.Suggestions)
}
