// Package jobdesc prepares pasted or fetched job postings for the model.
package jobdesc

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"tailorpro/internal/errors"
)

// convertHTML is swapped in tests
var convertHTML = func(html string) (string, error) {
	return htmltomarkdown.ConvertString(html)
}

var htmlTagPattern = regexp.MustCompile(`(?i)<(p|div|br|ul|ol|li|h[1-6]|strong|em|b|i|span|section|article|table)\b[^>]*>`)

// LooksLikeHTML reports whether s contains common block or inline HTML tags.
func LooksLikeHTML(s string) bool {
	return htmlTagPattern.MatchString(s)
}

// Normalize trims the posting and converts HTML markup to Markdown. An empty
// posting or markup that fails to convert is a validation error.
func Normalize(raw string) (string, error) {
	text := strings.TrimSpace(raw)

	if LooksLikeHTML(text) {
		md, err := convertHTML(text)
		if err != nil {
			return "", errors.NewValidationError(errors.ErrCodeInvalidRequest,
				"job description HTML could not be converted", err).
				WithContext("fields", map[string]string{"jobDescription": "Job description HTML could not be read"})
		}
		text = strings.TrimSpace(md)
	}

	if text == "" {
		return "", errors.NewValidationError(errors.ErrCodeMissingJobDescription,
			"job description is required", nil).
			WithContext("fields", map[string]string{"jobDescription": "Job description is required"})
	}
	return text, nil
}
