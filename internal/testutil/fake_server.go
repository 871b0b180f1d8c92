// fake_server.go - In-process OCR server for tests
package testutil

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
)

// ReceivedUpload is what the fake server saw in one POST.
type ReceivedUpload struct {
	Fields        map[string][]string // non-file fields
	FileField     bool
	FileName      string
	FileType      string
	FileData      []byte
	ContentLength int64
	RequestID     string
}

// HasField reports whether a non-file field was present in the payload.
func (r ReceivedUpload) HasField(name string) bool {
	_, ok := r.Fields[name]
	return ok
}

// ReceivedCommit is what the fake server saw in one POST /ocr/commit.
type ReceivedCommit struct {
	FileID         string `json:"file_id"`
	APIKey         string `json:"api_key"`
	OutputFilename string `json:"output_filename"`
	Authorization  string `json:"-"`
	HeaderKey      string `json:"-"`
	RequestID      string `json:"-"`
}

// Key returns the API key the way the OCR service picks it: body first,
// then the bearer token, then X-Mistral-Api-Key.
func (r ReceivedCommit) Key() string {
	if r.APIKey != "" {
		return r.APIKey
	}
	if token, ok := strings.CutPrefix(r.Authorization, "Bearer "); ok && token != "" {
		return token
	}
	return r.HeaderKey
}

// Reply is the canned answer for the OCR endpoint.
type Reply struct {
	Status      int
	ContentType string
	Body        []byte
}

// FakeOCRServer records OCR uploads and answers with a configurable reply.
// It also serves files registered with AddDownload under /downloads/.
type FakeOCRServer struct {
	*httptest.Server

	mu        sync.Mutex
	reply     Reply
	receipt   *Reply
	uploads   []ReceivedUpload
	commits   []ReceivedCommit
	fileIDs   map[string]bool
	downloads map[string]download
}

type download struct {
	data        []byte
	disposition string
}

// NewFakeOCRServer starts a server answering POST /ocr with 200 and an
// empty JSON download_url until SetReply is called. The two-step routes
// POST /ocr/upload and POST /ocr/commit are served too: uploads get a
// receipt with a fresh file_id and commits answer with the same reply as
// POST /ocr.
func NewFakeOCRServer() *FakeOCRServer {
	f := &FakeOCRServer{
		reply: Reply{
			Status:      http.StatusOK,
			ContentType: echo.MIMEApplicationJSON,
			Body:        []byte(`{"download_url":""}`),
		},
		fileIDs:   make(map[string]bool),
		downloads: make(map[string]download),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.POST("/ocr", f.handleOCR)
	e.POST("/ocr/upload", f.handleUpload)
	e.POST("/ocr/commit", f.handleCommit)
	e.GET("/downloads/:name", f.handleDownload)

	f.Server = httptest.NewServer(e)
	return f
}

// SetReply changes the answer for subsequent uploads.
func (f *FakeOCRServer) SetReply(status int, contentType string, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reply = Reply{Status: status, ContentType: contentType, Body: body}
}

// SetJSONReply answers 200 with the given JSON text.
func (f *FakeOCRServer) SetJSONReply(body string) {
	f.SetReply(http.StatusOK, echo.MIMEApplicationJSON, []byte(body))
}

// SetUploadReceipt replaces the answer of POST /ocr/upload.
func (f *FakeOCRServer) SetUploadReceipt(status int, contentType string, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receipt = &Reply{Status: status, ContentType: contentType, Body: body}
}

// AddDownload serves data at /downloads/<name>. A non-empty disposition
// is sent as the Content-Disposition header.
func (f *FakeOCRServer) AddDownload(name string, data []byte, disposition string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads[name] = download{data: data, disposition: disposition}
}

// Uploads returns every upload received so far.
func (f *FakeOCRServer) Uploads() []ReceivedUpload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ReceivedUpload(nil), f.uploads...)
}

// Commits returns every commit received so far.
func (f *FakeOCRServer) Commits() []ReceivedCommit {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ReceivedCommit(nil), f.commits...)
}

// Endpoint returns the URL of the OCR endpoint.
func (f *FakeOCRServer) Endpoint() string {
	return f.URL + "/ocr"
}

func (f *FakeOCRServer) handleOCR(c echo.Context) error {
	received, err := receive(c)
	if err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	f.mu.Lock()
	f.uploads = append(f.uploads, received)
	reply := f.reply
	f.mu.Unlock()

	return c.Blob(reply.Status, reply.ContentType, reply.Body)
}

func (f *FakeOCRServer) handleUpload(c echo.Context) error {
	received, err := receive(c)
	if err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}
	if !received.FileField {
		return c.String(http.StatusUnprocessableEntity, "file is required")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, received)
	if f.receipt != nil {
		return c.Blob(f.receipt.Status, f.receipt.ContentType, f.receipt.Body)
	}

	fileID := fmt.Sprintf("f-%d", len(f.uploads))
	f.fileIDs[fileID] = true
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"file_id":    fileID,
		"page_count": 1,
		"file": map[string]interface{}{
			"name": received.FileName,
			"size": len(received.FileData),
		},
	})
}

func (f *FakeOCRServer) handleCommit(c echo.Context) error {
	var received ReceivedCommit
	if err := c.Bind(&received); err != nil {
		return c.String(http.StatusBadRequest, "invalid commit body")
	}
	received.Authorization = c.Request().Header.Get(echo.HeaderAuthorization)
	received.HeaderKey = c.Request().Header.Get("X-Mistral-Api-Key")
	received.RequestID = c.Request().Header.Get("X-Request-ID")

	f.mu.Lock()
	f.commits = append(f.commits, received)
	known := f.fileIDs[received.FileID] || f.receipt != nil
	reply := f.reply
	f.mu.Unlock()

	if !known {
		return c.String(http.StatusBadRequest, "Invalid or expired file_id")
	}
	return c.Blob(reply.Status, reply.ContentType, reply.Body)
}

// receive reads the multipart payload of an upload.
func receive(c echo.Context) (ReceivedUpload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return ReceivedUpload{}, fmt.Errorf("invalid multipart body: %w", err)
	}

	received := ReceivedUpload{
		Fields:        form.Value,
		ContentLength: c.Request().ContentLength,
		RequestID:     c.Request().Header.Get("X-Request-ID"),
	}

	if files := form.File["file"]; len(files) > 0 {
		fh := files[0]
		received.FileField = true
		received.FileName = fh.Filename
		received.FileType = fh.Header.Get(echo.HeaderContentType)

		src, err := fh.Open()
		if err != nil {
			return ReceivedUpload{}, fmt.Errorf("failed to open uploaded file: %w", err)
		}
		defer src.Close()
		received.FileData, _ = io.ReadAll(src)
	}
	return received, nil
}

func (f *FakeOCRServer) handleDownload(c echo.Context) error {
	f.mu.Lock()
	d, ok := f.downloads[c.Param("name")]
	f.mu.Unlock()

	if !ok {
		return c.String(http.StatusNotFound, "not found")
	}
	if d.disposition != "" {
		c.Response().Header().Set(echo.HeaderContentDisposition, d.disposition)
	}
	return c.Blob(http.StatusOK, echo.MIMEOctetStream, d.data)
}
