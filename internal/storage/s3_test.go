package storage

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tailorpro/internal/config"
	"tailorpro/internal/errors"
	"tailorpro/internal/profile"
)

type fakeObject struct {
	contentType string
	data        []byte
	// reportedSize overrides the HeadObject length when non-zero
	reportedSize int64
}

type fakeS3 struct {
	objects   map[string]fakeObject
	headCalls int
	getCalls  int
	lastKey   string
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.headCalls++
	f.lastKey = aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	obj, ok := f.objects[f.lastKey]
	if !ok {
		return nil, &s3types.NotFound{}
	}
	size := int64(len(obj.data))
	if obj.reportedSize != 0 {
		size = obj.reportedSize
	}
	out := &s3.HeadObjectOutput{ContentLength: aws.Int64(size)}
	if obj.contentType != "" {
		out.ContentType = aws.String(obj.contentType)
	}
	return out, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.getCalls++
	obj, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(obj.data))}, nil
}

func TestFetchReturnsDataURI(t *testing.T) {
	client := &fakeS3{objects: map[string]fakeObject{
		"resumes/uploads/jane.pdf": {contentType: "application/pdf", data: []byte("%PDF-1.7")},
	}}
	store := NewWithClient(client, "resumes", "uploads", 0, nil)

	uri, err := store.Fetch(context.Background(), "/jane.pdf")
	require.NoError(t, err)
	assert.Equal(t, profile.EncodeDataURI(profile.MIMETypePDF, []byte("%PDF-1.7")), uri)
	assert.Equal(t, "resumes/uploads/jane.pdf", client.lastKey)
	assert.Equal(t, 1, client.getCalls)
}

func TestFetchFallsBackToExtension(t *testing.T) {
	client := &fakeS3{objects: map[string]fakeObject{
		"resumes/jane.docx": {contentType: "application/octet-stream", data: []byte("PK")},
		"resumes/jane.png":  {contentType: "image/png", data: []byte("png")},
	}}
	store := NewWithClient(client, "resumes", "", 0, nil)

	uri, err := store.Fetch(context.Background(), "jane.docx")
	require.NoError(t, err)

	doc, err := profile.ParseDataURI(uri, 0)
	require.NoError(t, err)
	assert.Equal(t, profile.MIMETypeDOCX, doc.MIMEType)

	_, err = store.Fetch(context.Background(), "jane.png")
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnsupportedMediaType))
	assert.Equal(t, 1, client.getCalls)
}

func TestFetchRejectsLargeObjectBeforeDownload(t *testing.T) {
	client := &fakeS3{objects: map[string]fakeObject{
		"resumes/big.pdf": {contentType: "application/pdf", data: []byte("%PDF"), reportedSize: 6 * 1024 * 1024},
	}}
	store := NewWithClient(client, "resumes", "", 0, nil)

	_, err := store.Fetch(context.Background(), "big.pdf")
	assert.True(t, errors.HasCode(err, errors.ErrCodeFileTooLarge))
	assert.Equal(t, 1, client.headCalls)
	assert.Equal(t, 0, client.getCalls)
}

func TestFetchEnforcesLimitOnBody(t *testing.T) {
	client := &fakeS3{objects: map[string]fakeObject{
		"resumes/grown.pdf": {contentType: "application/pdf", data: make([]byte, 64), reportedSize: 8},
	}}
	store := NewWithClient(client, "resumes", "", 32, nil)

	_, err := store.Fetch(context.Background(), "grown.pdf")
	assert.True(t, errors.HasCode(err, errors.ErrCodeFileTooLarge))
}

func TestFetchNotFound(t *testing.T) {
	store := NewWithClient(&fakeS3{objects: map[string]fakeObject{}}, "resumes", "", 0, nil)

	_, err := store.Fetch(context.Background(), "missing.pdf")
	assert.True(t, errors.HasCode(err, errors.ErrCodeFileNotFound))
	assert.Equal(t, errors.ErrorTypeIO, errors.TypeOf(err))

	_, err = store.Fetch(context.Background(), "  ")
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidRequest))
}

func TestFetchURL(t *testing.T) {
	client := &fakeS3{objects: map[string]fakeObject{
		"other/cv/jane.pdf": {data: []byte("%PDF")},
	}}
	store := NewWithClient(client, "resumes", "uploads", 0, nil)

	uri, err := store.FetchURL(context.Background(), "s3://other/cv/jane.pdf")
	require.NoError(t, err)
	assert.Contains(t, uri, "data:application/pdf;base64,")
}

func TestParseURL(t *testing.T) {
	bucket, key, err := ParseURL("s3://bucket/path/to/resume.pdf")
	require.NoError(t, err)
	assert.Equal(t, "bucket", bucket)
	assert.Equal(t, "path/to/resume.pdf", key)

	for _, bad := range []string{"https://bucket/key", "s3://bucket", "s3:///key", "s3://bucket/"} {
		_, _, err := ParseURL(bad)
		assert.Error(t, err, bad)
	}

	assert.True(t, IsURL("s3://a/b"))
	assert.False(t, IsURL("resume.pdf"))
}

func TestNewRequiresEnabled(t *testing.T) {
	_, err := New(context.Background(), config.S3Config{}, 0, nil)
	assert.Equal(t, errors.ErrorTypeConfig, errors.TypeOf(err))
}
