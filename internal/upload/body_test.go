package upload

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/howplatform/ocr-client/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readParts(t *testing.T, body *multipartBody) map[string][]byte {
	t.Helper()

	_, params, err := mime.ParseMediaType(body.contentType)
	require.NoError(t, err)

	raw, err := io.ReadAll(body.reader)
	require.NoError(t, err)
	if body.length >= 0 {
		assert.Equal(t, body.length, int64(len(raw)))
	}

	parts := make(map[string][]byte)
	mr := multipart.NewReader(bytes.NewReader(raw), params["boundary"])
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(p)
		require.NoError(t, err)
		parts[p.FormName()] = data
	}
	return parts
}

func TestMultipartBody_FieldOrderAndLength(t *testing.T) {
	body, err := newMultipartBody(pdfRequest([]byte("%PDF-1.4"), "key-123"))
	require.NoError(t, err)

	parts := readParts(t, body)
	assert.Equal(t, []byte("%PDF-1.4"), parts[FieldFile])
	assert.Equal(t, []byte("key-123"), parts[FieldAPIKey])
}

func TestMultipartBody_NoAPIKey(t *testing.T) {
	body, err := newMultipartBody(pdfRequest([]byte("%PDF-1.4"), ""))
	require.NoError(t, err)

	parts := readParts(t, body)
	assert.Len(t, parts, 1)
	assert.Contains(t, parts, FieldFile)
}

func TestMultipartBody_EscapesFileName(t *testing.T) {
	req := &models.Request{Document: &models.Document{
		Name: `my "scan".pdf`,
		Size: 1,
		Body: strings.NewReader("x"),
	}}
	body, err := newMultipartBody(req)
	require.NoError(t, err)

	_, params, err := mime.ParseMediaType(body.contentType)
	require.NoError(t, err)
	mr := multipart.NewReader(body.reader, params["boundary"])
	part, err := mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, `my "scan".pdf`, part.FileName())
	assert.Equal(t, "application/pdf", part.Header.Get("Content-Type"))
}
