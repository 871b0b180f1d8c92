// Package form binds an OCR upload to a view: it validates the input,
// drives the progress indicator and shows either the result or an alert.
package form

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/howplatform/ocr-client/internal/models"
	"github.com/howplatform/ocr-client/internal/upload"
	"github.com/labstack/gommon/log"
)

var (
	// ErrNoFile is returned when Submit is called without a document.
	ErrNoFile = errors.New("no file selected")
	// ErrBusy is returned when a submission is already in flight.
	ErrBusy = errors.New("a submission is already in progress")
)

// View is the set of UI elements the form writes to.
type View interface {
	SetProgress(percent int)
	HideResult()
	ShowResult(preview, downloadURL string)
	Alert(message string)
}

// Uploader sends one request to the OCR endpoint.
type Uploader interface {
	Upload(ctx context.Context, req *models.Request, onProgress upload.ProgressFunc) (*models.Response, error)
}

// Input is what the user filled in. A nil File means nothing was chosen.
type Input struct {
	File           *models.Document
	APIKey         string
	OutputFilename string
}

// Handler runs submissions against one view.
type Handler struct {
	uploader Uploader
	view     View
	messages Messages
	logger   *log.Logger

	inFlight atomic.Bool
}

// NewHandler creates a form handler. A nil logger discards error output.
func NewHandler(uploader Uploader, view View, messages Messages, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.New("form")
		logger.SetLevel(log.OFF)
	}
	return &Handler{
		uploader: uploader,
		view:     view,
		messages: messages,
		logger:   logger,
	}
}

// Submit runs one submission. On success the result is shown and returned;
// on failure the user has already been alerted and the error is returned.
func (h *Handler) Submit(ctx context.Context, in Input) (*models.Response, error) {
	if in.File == nil {
		h.view.Alert(h.messages.ChooseFile)
		return nil, ErrNoFile
	}

	if !h.inFlight.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer h.inFlight.Store(false)

	h.view.HideResult()
	h.view.SetProgress(0)

	req := &models.Request{
		Document:       in.File,
		OutputFilename: strings.TrimSpace(in.OutputFilename),
	}
	if key := strings.TrimSpace(in.APIKey); key != "" {
		req.APIKey = key
	}

	// Progress events come from the transport goroutine and may trail the
	// response; none are forwarded once the outcome is on screen.
	var mu sync.Mutex
	settled := false
	onProgress := func(p models.Progress) {
		pct := p.Percent()
		if pct < 0 {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if !settled {
			h.view.SetProgress(pct)
		}
	}

	resp, err := h.uploader.Upload(ctx, req, onProgress)

	mu.Lock()
	settled = true
	mu.Unlock()

	if err != nil {
		h.report(err)
		return nil, err
	}

	preview := resp.PreviewText()
	if preview == "" {
		preview = h.messages.NoTextFound
	}
	h.view.ShowResult(preview, resp.DownloadURL)
	h.view.SetProgress(100)
	return resp, nil
}

func (h *Handler) report(err error) {
	var uploadErr *upload.Error
	if errors.As(err, &uploadErr) {
		switch uploadErr.Kind {
		case upload.KindStatus:
			h.view.Alert(h.messages.AnalysisFailed + uploadErr.Body)
			return
		case upload.KindValidation:
			h.view.Alert(h.validationMessage(uploadErr))
			return
		}
	}

	h.view.Alert(h.messages.ConnectionFailed)
	h.logger.Error(err)
}

func (h *Handler) validationMessage(err *upload.Error) string {
	switch {
	case errors.Is(err, upload.ErrNoDocument):
		return h.messages.ChooseFile
	case errors.Is(err, upload.ErrFileTypeNotAllowed):
		return h.messages.NotAllowed
	case errors.Is(err, upload.ErrFileTooLarge):
		return h.messages.TooLarge
	}
	return err.Message
}
