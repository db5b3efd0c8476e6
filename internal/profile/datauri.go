package profile

import (
	"encoding/base64"
	"fmt"
	"strings"

	"tailorpro/internal/errors"
	"tailorpro/internal/utils"
)

const (
	// MaxResumeSize is the default upper bound for an uploaded resume document.
	MaxResumeSize int64 = 5 * 1024 * 1024

	MIMETypePDF  = "application/pdf"
	MIMETypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Resume is a decoded resume document.
type Resume struct {
	MIMEType string
	Data     []byte
}

// Size returns the decoded document size in bytes.
func (r Resume) Size() int64 {
	return int64(len(r.Data))
}

// SupportedMIMEType reports whether a resume of the given type can be parsed.
func SupportedMIMEType(mime string) bool {
	switch mime {
	case MIMETypePDF, MIMETypeDOCX:
		return true
	}
	return false
}

// CheckSize rejects documents larger than maxBytes. A non-positive maxBytes
// falls back to MaxResumeSize.
func CheckSize(size, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = MaxResumeSize
	}
	if size > maxBytes {
		return errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("resume is %s, the limit is %s", utils.FormatFileSize(size), utils.FormatFileSize(maxBytes)), nil).
			WithContext("size_bytes", size).
			WithContext("limit_bytes", maxBytes)
	}
	return nil
}

// ParseDataURI decodes a "data:<mime>;base64,<data>" string holding a PDF or
// DOCX document. The size limit is enforced on the encoded length before
// decoding and again on the decoded bytes.
func ParseDataURI(uri string, maxBytes int64) (Resume, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "data:")
	if !ok {
		return Resume{}, invalidDataURI("missing data: scheme")
	}

	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Resume{}, invalidDataURI("missing ',' separator")
	}

	mime, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return Resume{}, invalidDataURI("payload must be base64 encoded")
	}
	// strip parameters such as ";name=resume.pdf"
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	mime = strings.ToLower(strings.TrimSpace(mime))

	if !SupportedMIMEType(mime) {
		return Resume{}, errors.NewValidationError(errors.ErrCodeUnsupportedMediaType,
			fmt.Sprintf("unsupported resume type %q, expected PDF or DOCX", mime), nil)
	}

	// the decoder skips line breaks, so they do not count toward the estimate
	encoded := len(payload) - strings.Count(payload, "\n") - strings.Count(payload, "\r")
	if err := CheckSize(int64(base64.StdEncoding.DecodedLen(encoded))-2, maxBytes); err != nil {
		return Resume{}, err
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Resume{}, errors.NewValidationError(errors.ErrCodeInvalidDataURI, "resume payload is not valid base64", err)
	}
	if err := CheckSize(int64(len(data)), maxBytes); err != nil {
		return Resume{}, err
	}
	if len(data) == 0 {
		return Resume{}, invalidDataURI("resume is empty")
	}

	return Resume{MIMEType: mime, Data: data}, nil
}

// EncodeDataURI builds the data URI form of a document.
func EncodeDataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// MIMETypeForExtension maps a resume file extension to its MIME type.
func MIMETypeForExtension(filename string) (string, bool) {
	switch utils.GetFileExtension(filename) {
	case ".pdf":
		return MIMETypePDF, true
	case ".docx":
		return MIMETypeDOCX, true
	}
	return "", false
}

func invalidDataURI(reason string) error {
	return errors.NewValidationError(errors.ErrCodeInvalidDataURI, "invalid resume data URI: "+reason, nil)
}
