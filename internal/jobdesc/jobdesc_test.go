package jobdesc

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tailorpro/internal/errors"
)

func TestNormalizePlainText(t *testing.T) {
	out, err := Normalize("  Seeking a React developer \n")
	require.NoError(t, err)
	assert.Equal(t, "Seeking a React developer", out)
}

func TestNormalizeHTML(t *testing.T) {
	out, err := Normalize("<h2>Requirements</h2><ul><li>React</li><li>Go</li></ul>")
	require.NoError(t, err)

	assert.NotContains(t, out, "<li>")
	assert.Contains(t, out, "Requirements")
	assert.Contains(t, out, "React")
	assert.Contains(t, out, "Go")
}

func TestNormalizeEmpty(t *testing.T) {
	for _, in := range []string{"", "   \n\t"} {
		_, err := Normalize(in)
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrCodeMissingJobDescription))
		assert.Equal(t, errors.ErrorTypeValidation, errors.TypeOf(err))
	}
}

func TestNormalizeConversionFailure(t *testing.T) {
	prev := convertHTML
	convertHTML = func(string) (string, error) { return "", stderrors.New("broken markup") }
	t.Cleanup(func() { convertHTML = prev })

	_, err := Normalize("<p>React developer</p>")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidRequest))
	assert.Equal(t, errors.ErrorTypeValidation, errors.TypeOf(err))
	assert.ErrorContains(t, err, "broken markup")
}

func TestLooksLikeHTML(t *testing.T) {
	assert.True(t, LooksLikeHTML("<p>hello</p>"))
	assert.True(t, LooksLikeHTML("line<br/>break"))
	assert.False(t, LooksLikeHTML("salary < 100k and > 80k"))
	assert.False(t, LooksLikeHTML("Seeking a React developer"))
}
