package upload

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status represents the state of an upload job.
type Status string

const (
	StatusUploading  Status = "uploading"
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusError      Status = "error"
)

// Job tracks a single upload from the first byte sent to the decoded response.
type Job struct {
	ID          string     `json:"id"`
	FileName    string     `json:"fileName"`
	Size        int64      `json:"size"`
	Status      Status     `json:"status"`
	Progress    float64    `json:"progress"`
	HTTPStatus  int        `json:"httpStatus,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	mu sync.RWMutex
}

func newJob(fileName string, size int64) *Job {
	return &Job{
		ID:        uuid.New().String(),
		FileName:  fileName,
		Size:      size,
		Status:    StatusUploading,
		CreatedAt: time.Now(),
	}
}

// Tag is the short identifier used in log lines.
func (j *Job) Tag() string {
	return j.ID[:8]
}

// Snapshot returns a copy of the job that is safe to read.
func (j *Job) Snapshot() Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return Job{
		ID:          j.ID,
		FileName:    j.FileName,
		Size:        j.Size,
		Status:      j.Status,
		Progress:    j.Progress,
		HTTPStatus:  j.HTTPStatus,
		Error:       j.Error,
		CreatedAt:   j.CreatedAt,
		CompletedAt: j.CompletedAt,
	}
}

// setUploadProgress records body transmission progress.
// Sending the body counts for 0-90%, the server's answer for the rest.
func (j *Job) setUploadProgress(percent float64) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.Status != StatusUploading {
		return
	}
	if percent > 100 {
		percent = 100
	}
	j.Progress = percent * 0.9
}

func (j *Job) markProcessing() {
	j.mu.Lock()
	defer j.mu.Unlock()

	// the end of a chunked body can be observed after the response arrived
	if j.Status != StatusUploading {
		return
	}
	j.Status = StatusProcessing
	j.Progress = 90
}

func (j *Job) markComplete(httpStatus int) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.Status = StatusComplete
	j.HTTPStatus = httpStatus
	j.Progress = 100
	now := time.Now()
	j.CompletedAt = &now
}

func (j *Job) markError(httpStatus int, errMsg string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.Status = StatusError
	j.HTTPStatus = httpStatus
	j.Error = errMsg
	now := time.Now()
	j.CompletedAt = &now
}
