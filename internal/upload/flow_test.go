package upload

import (
	"context"
	"net/http"
	"testing"

	"github.com/howplatform/ocr-client/internal/models"
	"github.com/howplatform/ocr-client/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlow(t *testing.T) {
	tests := []struct {
		in      string
		want    Flow
		wantErr bool
	}{
		{"", FlowSingle, false},
		{"single", FlowSingle, false},
		{" Two-Step ", FlowTwoStep, false},
		{"batch", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFlow(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUploadTwoStep_UploadsThenCommits(t *testing.T) {
	srv := testutil.NewFakeOCRServer()
	defer srv.Close()
	srv.SetJSONReply(`{"status":"ok","text_preview":"سطر","page_count":1,"word_count":1,"output_filename":"report.docx","download_url":"/downloads/report.docx"}`)

	content := []byte("%PDF-1.7 two step")
	req := pdfRequest(content, "secret-key")
	req.OutputFilename = "report.docx"

	var last models.Progress
	client := NewClient(srv.Endpoint(), WithFlow(FlowTwoStep), WithProgressInterval(0))
	resp, err := client.Upload(context.Background(), req, func(p models.Progress) { last = p })
	require.NoError(t, err)

	assert.Equal(t, "سطر", resp.PreviewText())
	assert.Equal(t, "/downloads/report.docx", resp.DownloadURL)
	assert.Equal(t, "report.docx", resp.OutputFilename)
	require.NotNil(t, resp.WordCount)
	assert.Equal(t, 1, *resp.WordCount)
	assert.Equal(t, 100, last.Percent())

	uploads := srv.Uploads()
	require.Len(t, uploads, 1)
	assert.Equal(t, content, uploads[0].FileData)
	assert.False(t, uploads[0].HasField(FieldAPIKey), "the key only travels with the commit")

	commits := srv.Commits()
	require.Len(t, commits, 1)
	assert.Equal(t, "f-1", commits[0].FileID)
	assert.Equal(t, "secret-key", commits[0].APIKey)
	assert.Equal(t, "Bearer secret-key", commits[0].Authorization)
	assert.Equal(t, "report.docx", commits[0].OutputFilename)

	job := client.LastJob()
	assert.Equal(t, job.ID, uploads[0].RequestID)
	assert.Equal(t, job.ID, commits[0].RequestID)
	assert.Equal(t, StatusComplete, job.Snapshot().Status)
}

func TestUploadTwoStep_NoKeyOmitsAuthorization(t *testing.T) {
	srv := testutil.NewFakeOCRServer()
	defer srv.Close()
	srv.SetJSONReply(`{"download_url":"/downloads/a.docx"}`)

	_, err := NewClient(srv.Endpoint(), WithFlow(FlowTwoStep)).Upload(context.Background(), pdfRequest([]byte("%PDF"), ""), nil)
	require.NoError(t, err)

	commits := srv.Commits()
	require.Len(t, commits, 1)
	assert.Empty(t, commits[0].APIKey)
	assert.Empty(t, commits[0].Authorization)
	assert.Empty(t, commits[0].Key())
}

func TestUploadTwoStep_CommitFailureKeepsRawBody(t *testing.T) {
	srv := testutil.NewFakeOCRServer()
	defer srv.Close()
	srv.SetReply(http.StatusBadRequest, "application/json", []byte(`{"detail":"Missing API key"}`))

	client := NewClient(srv.Endpoint(), WithFlow(FlowTwoStep))
	_, err := client.Upload(context.Background(), pdfRequest([]byte("%PDF"), ""), nil)
	require.Error(t, err)

	var uploadErr *Error
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, KindStatus, uploadErr.Kind)
	assert.Equal(t, `{"detail":"Missing API key"}`, uploadErr.Body)
	assert.Len(t, srv.Commits(), 1)
	assert.Equal(t, StatusError, client.LastJob().Snapshot().Status)
}

func TestUploadTwoStep_UploadFailureSkipsCommit(t *testing.T) {
	srv := testutil.NewFakeOCRServer()
	defer srv.Close()
	srv.SetUploadReceipt(http.StatusRequestEntityTooLarge, "application/json", []byte(`{"detail":"File too large"}`))

	_, err := NewClient(srv.Endpoint(), WithFlow(FlowTwoStep)).Upload(context.Background(), pdfRequest([]byte("%PDF"), "k"), nil)
	assert.True(t, IsKind(err, KindStatus))
	assert.Empty(t, srv.Commits())
}

func TestUploadTwoStep_ReceiptWithoutFileIDIsDecodeError(t *testing.T) {
	srv := testutil.NewFakeOCRServer()
	defer srv.Close()
	srv.SetUploadReceipt(http.StatusOK, "application/json", []byte(`{"status":"ok"}`))

	_, err := NewClient(srv.Endpoint(), WithFlow(FlowTwoStep)).Upload(context.Background(), pdfRequest([]byte("%PDF"), "k"), nil)
	assert.True(t, IsKind(err, KindDecode))
	assert.Empty(t, srv.Commits())
}
