// Package upload sends documents to the OCR endpoint as multipart/form-data
// and reports transmission progress.
package upload

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/howplatform/ocr-client/internal/models"
	"github.com/labstack/gommon/bytes"
	"github.com/labstack/gommon/log"
)

// HeaderRequestID carries the job ID so server logs can be correlated.
const HeaderRequestID = "X-Request-ID"

// DefaultProgressInterval is the minimum time between two progress events.
const DefaultProgressInterval = 100 * time.Millisecond

// Client uploads documents to a single OCR endpoint.
type Client struct {
	endpoint         string
	httpClient       *http.Client
	logger           *log.Logger
	progressInterval time.Duration
	maxUploadSize    int64
	allowedExts      []string
	flow             Flow

	lastJob atomic.Pointer[Job]
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for job logs.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithProgressInterval sets the minimum time between progress events.
// Zero reports every read.
func WithProgressInterval(d time.Duration) Option {
	return func(c *Client) { c.progressInterval = d }
}

// WithMaxUploadSize rejects documents larger than n bytes before sending.
// Zero disables the check.
func WithMaxUploadSize(n int64) Option {
	return func(c *Client) { c.maxUploadSize = n }
}

// WithAllowedExtensions rejects documents whose extension is not listed.
// An empty list disables the check.
func WithAllowedExtensions(exts []string) Option {
	return func(c *Client) { c.allowedExts = exts }
}

// WithFlow selects how documents are submitted.
func WithFlow(f Flow) Option {
	return func(c *Client) { c.flow = f }
}

// NewClient creates a client posting to endpoint, e.g. http://host/ocr.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:         endpoint,
		httpClient:       &http.Client{},
		progressInterval: DefaultProgressInterval,
		flow:             FlowSingle,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.New("upload")
		c.logger.SetLevel(log.OFF)
	}
	return c
}

// Endpoint returns the URL documents are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// LastJob returns the most recently started job, or nil.
func (c *Client) LastJob() *Job {
	return c.lastJob.Load()
}

// Upload posts the document (and the api_key field when set) and decodes
// the response. Any status other than 200 is returned as a KindStatus
// *Error carrying the raw body. With FlowTwoStep the document goes to
// {endpoint}/upload and the key to {endpoint}/commit.
func (c *Client) Upload(ctx context.Context, req *models.Request, onProgress ProgressFunc) (*models.Response, error) {
	if err := c.validate(req); err != nil {
		return nil, err
	}

	job := newJob(req.Document.Name, req.Document.Size)
	c.lastJob.Store(job)

	if c.flow == FlowTwoStep {
		return c.uploadTwoStep(ctx, job, req, onProgress)
	}

	contentType, data, err := c.sendDocument(ctx, job, c.endpoint, req, onProgress)
	if err != nil {
		return nil, err
	}
	return c.finish(job, contentType, data)
}

// sendDocument streams req as multipart/form-data to url and returns the
// body of a 200 response.
func (c *Client) sendDocument(ctx context.Context, job *Job, url string, req *models.Request, onProgress ProgressFunc) (string, []byte, error) {
	body, err := newMultipartBody(req)
	if err != nil {
		job.markError(0, err.Error())
		return "", nil, NewTransportError("failed to build request body", err)
	}

	c.logger.Infof("[Upload %s] Sending %s (%s) to %s", job.Tag(), job.FileName, formatSize(job.Size), url)

	progress := NewProgressReader(body.reader, body.length, c.progressInterval, func(p models.Progress, done bool) {
		if pct := p.Percent(); pct >= 0 {
			job.setUploadProgress(float64(pct))
		}
		if onProgress != nil {
			onProgress(p)
		}
		if done {
			job.markProcessing()
			c.logger.Debugf("[Upload %s] Body sent (%d bytes), waiting for server", job.Tag(), p.Loaded)
		}
	})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, progress)
	if err != nil {
		job.markError(0, err.Error())
		return "", nil, NewTransportError("failed to build request", err)
	}
	httpReq.ContentLength = body.length
	httpReq.Header.Set("Content-Type", body.contentType)

	return c.do(job, httpReq)
}

// do sends httpReq and reads the whole response. Non-200 answers become
// KindStatus errors.
func (c *Client) do(job *Job, httpReq *http.Request) (string, []byte, error) {
	httpReq.Header.Set("Accept", "application/json, "+MIMEApplicationMsgpack)
	httpReq.Header.Set(HeaderRequestID, job.ID)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		job.markError(0, err.Error())
		c.logger.Errorf("[Upload %s] Request failed: %v", job.Tag(), err)
		return "", nil, NewTransportError("request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		job.markError(resp.StatusCode, err.Error())
		c.logger.Errorf("[Upload %s] Reading response failed: %v", job.Tag(), err)
		return "", nil, NewTransportError("failed to read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		job.markError(resp.StatusCode, string(data))
		c.logger.Warnf("[Upload %s] Server responded %d", job.Tag(), resp.StatusCode)
		return "", nil, NewStatusError(resp.StatusCode, string(data))
	}

	return resp.Header.Get("Content-Type"), data, nil
}

// finish decodes the final OCR result and completes the job.
func (c *Client) finish(job *Job, contentType string, data []byte) (*models.Response, error) {
	result, err := decodeResponse(contentType, data)
	if err != nil {
		job.markError(http.StatusOK, err.Error())
		c.logger.Errorf("[Upload %s] Invalid response body: %v", job.Tag(), err)
		return nil, NewDecodeError(http.StatusOK, err)
	}
	if result.DownloadURL == "" {
		c.logger.Warnf("[Upload %s] Response has no download_url", job.Tag())
	}

	job.markComplete(http.StatusOK)
	c.logger.Infof("[Upload %s] Complete in %s", job.Tag(), time.Since(job.CreatedAt).Round(time.Millisecond))
	return result, nil
}

func (c *Client) validate(req *models.Request) error {
	if req == nil || req.Document == nil || req.Document.Body == nil {
		return NewValidationError(ErrNoDocument.Error(), ErrNoDocument)
	}

	doc := req.Document
	if len(c.allowedExts) > 0 {
		ext := strings.ToLower(filepath.Ext(doc.Name))
		allowed := false
		for _, a := range c.allowedExts {
			if ext == a {
				allowed = true
				break
			}
		}
		if !allowed {
			return NewValidationError(fmt.Sprintf("file type %q is not allowed (expected %s)", ext, strings.Join(c.allowedExts, ", ")), ErrFileTypeNotAllowed)
		}
	}

	if c.maxUploadSize > 0 && doc.Size > c.maxUploadSize {
		return NewValidationError(fmt.Sprintf("file is %s, larger than the %s limit", formatSize(doc.Size), bytes.Format(c.maxUploadSize)), ErrFileTooLarge)
	}

	return nil
}

func formatSize(n int64) string {
	if n < 0 {
		return "unknown size"
	}
	return bytes.Format(n)
}
