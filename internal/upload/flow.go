package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/howplatform/ocr-client/internal/models"
)

// Flow selects how a document reaches the OCR service.
type Flow string

const (
	// FlowSingle sends file and api_key in one multipart POST.
	FlowSingle Flow = "single"
	// FlowTwoStep uploads the file to {endpoint}/upload, then commits it
	// with a JSON POST to {endpoint}/commit carrying the key.
	FlowTwoStep Flow = "two-step"
)

// ParseFlow maps a config value to a Flow. Empty means FlowSingle.
func ParseFlow(s string) (Flow, error) {
	switch Flow(strings.ToLower(strings.TrimSpace(s))) {
	case "", FlowSingle:
		return FlowSingle, nil
	case FlowTwoStep:
		return FlowTwoStep, nil
	default:
		return "", fmt.Errorf("unknown flow %q (expected %s or %s)", s, FlowSingle, FlowTwoStep)
	}
}

func (c *Client) uploadTwoStep(ctx context.Context, job *Job, req *models.Request, onProgress ProgressFunc) (*models.Response, error) {
	base := strings.TrimRight(c.endpoint, "/")

	// The key only travels with the commit.
	fileOnly := &models.Request{Document: req.Document}
	contentType, data, err := c.sendDocument(ctx, job, base+"/upload", fileOnly, onProgress)
	if err != nil {
		return nil, err
	}

	receipt, err := decodeReceipt(contentType, data)
	if err == nil && receipt.FileID == "" {
		err = errors.New("upload response has no file_id")
	}
	if err != nil {
		job.markError(http.StatusOK, err.Error())
		c.logger.Errorf("[Upload %s] Invalid upload receipt: %v", job.Tag(), err)
		return nil, NewDecodeError(http.StatusOK, err)
	}
	c.logger.Infof("[Upload %s] Stored as %s (%d pages), committing", job.Tag(), receipt.FileID, receipt.PageCount)

	payload, err := json.Marshal(models.CommitRequest{
		FileID:         receipt.FileID,
		APIKey:         req.APIKey,
		OutputFilename: req.OutputFilename,
	})
	if err != nil {
		job.markError(0, err.Error())
		return nil, NewTransportError("failed to encode commit request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/commit", bytes.NewReader(payload))
	if err != nil {
		job.markError(0, err.Error())
		return nil, NewTransportError("failed to build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	}

	contentType, data, err = c.do(job, httpReq)
	if err != nil {
		return nil, err
	}
	return c.finish(job, contentType, data)
}
