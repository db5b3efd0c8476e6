// Package common holds the file and output plumbing shared by CLI commands.
package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"tailorpro/internal/errors"
	"tailorpro/internal/types"
	"tailorpro/internal/utils"
)

// Error codes for output files
const (
	ErrCodeDirectoryCreateFailed = "DIRECTORY_CREATE_FAILED"
	ErrCodeFileWriteFailed       = "FILE_WRITE_FAILED"
	ErrCodeInvalidOutputFile     = "INVALID_OUTPUT_FILE"
)

// FileProcessor reads command inputs and writes command outputs.
type FileProcessor struct {
	logger *errors.Logger
}

// NewFileProcessor creates a FileProcessor. logger may be nil.
func NewFileProcessor(logger *errors.Logger) *FileProcessor {
	return &FileProcessor{logger: logger}
}

// ReadFile reads filename as text.
func (fp *FileProcessor) ReadFile(filename string) (string, error) {
	data, err := fp.readBytes(filename)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (fp *FileProcessor) readBytes(filename string) ([]byte, error) {
	if err := utils.ValidateInputFile(filename); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
			fmt.Sprintf("Invalid input file: %s", filename), err)
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil && fp.logger != nil {
			fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
		}
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}
	return data, nil
}

// ReadTextFiles reads each file in order. Files without a text extension
// are read anyway with a warning.
func (fp *FileProcessor) ReadTextFiles(filenames ...string) ([]string, error) {
	contents := make([]string, len(filenames))

	for i, filename := range filenames {
		if !utils.IsTextFile(filename) && fp.logger != nil {
			fp.logger.Warn("File may not be a text file", "filename", filename)
		}

		content, err := fp.ReadFile(filename)
		if err != nil {
			return nil, err
		}
		contents[i] = content
	}

	return contents, nil
}

// ReadProfile decodes a profile JSON file. Unknown fields are rejected so a
// misspelled key is reported instead of silently dropped.
func (fp *FileProcessor) ReadProfile(filename string) (types.UserProfile, error) {
	data, err := fp.readBytes(filename)
	if err != nil {
		return types.UserProfile{}, err
	}

	var p types.UserProfile
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return types.UserProfile{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("%s is not a valid profile: %v", filename, err), err)
	}
	return p, nil
}

// WriteFile writes content, creating parent directories as needed.
func (fp *FileProcessor) WriteFile(filename, content string) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.NewIOError(ErrCodeDirectoryCreateFailed,
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	if err := os.WriteFile(filename, []byte(content), 0600); err != nil {
		return errors.NewIOError(ErrCodeFileWriteFailed,
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}
	return nil
}

// ValidateOutputFile checks the output path; empty means stdout.
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil
	}

	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError(ErrCodeInvalidOutputFile,
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}
	return nil
}
