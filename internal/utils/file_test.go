package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateInputFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "job.txt")
	require.NoError(t, os.WriteFile(file, []byte("React"), 0o600))

	assert.NoError(t, ValidateInputFile(file))
	assert.Error(t, ValidateInputFile(""))
	assert.Error(t, ValidateInputFile(dir))
	assert.Error(t, ValidateInputFile(filepath.Join(dir, "missing.txt")))
}

func TestValidateOutputFileCreatesDirectory(t *testing.T) {
	out := filepath.Join(t.TempDir(), "a", "b", "out.md")
	require.NoError(t, ValidateOutputFile(out))

	info, err := os.Stat(filepath.Dir(out))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestIsTextFile(t *testing.T) {
	for _, name := range []string{"job.txt", "JOB.MD", "posting.html", "profile.json"} {
		assert.True(t, IsTextFile(name), name)
	}
	for _, name := range []string{"resume.pdf", "resume.docx", "noext"} {
		assert.False(t, IsTextFile(name), name)
	}
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatFileSize(512))
	assert.Equal(t, "1.5 KB", FormatFileSize(1536))
	assert.Equal(t, "5.0 MB", FormatFileSize(5*1024*1024))
}
