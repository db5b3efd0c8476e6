package profile

import (
	"fmt"
	"os"

	"tailorpro/internal/errors"
	"tailorpro/internal/utils"
)

// ReadResumeFile loads a local PDF or DOCX as a data URI. The size limit is
// checked before the file is read.
func ReadResumeFile(path string, maxBytes int64) (string, error) {
	if err := utils.ValidateInputFile(path); err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotFound, "resume file is not readable", err)
	}

	mime, ok := MIMETypeForExtension(path)
	if !ok {
		return "", errors.NewValidationError(errors.ErrCodeUnsupportedMediaType,
			fmt.Sprintf("unsupported resume file %s, expected .pdf or .docx", path), nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to stat resume file", err)
	}
	if err := CheckSize(info.Size(), maxBytes); err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read resume file", err)
	}
	return EncodeDataURI(mime, data), nil
}
