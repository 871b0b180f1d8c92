package upload

import (
	"io"
	"time"

	"github.com/howplatform/ocr-client/internal/models"
)

// ProgressFunc receives progress events while a body is transmitted.
type ProgressFunc func(models.Progress)

// ProgressReader counts bytes read through it and reports them at most once
// per interval. The final event, at EOF, is always reported.
type ProgressReader struct {
	r        io.Reader
	total    int64
	loaded   int64
	interval time.Duration
	last     time.Time
	report   func(p models.Progress, done bool)
	finished bool
}

// NewProgressReader wraps r. A total below zero marks the length as unknown.
func NewProgressReader(r io.Reader, total int64, interval time.Duration, report func(p models.Progress, done bool)) *ProgressReader {
	return &ProgressReader{
		r:        r,
		total:    total,
		interval: interval,
		report:   report,
	}
}

func (p *ProgressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	p.loaded += int64(n)

	if err == io.EOF || (p.total >= 0 && p.loaded >= p.total) {
		p.emit(true)
		return n, err
	}
	if n > 0 && (p.interval <= 0 || time.Since(p.last) >= p.interval) {
		p.emit(false)
	}
	return n, err
}

// Loaded returns the number of bytes read so far.
func (p *ProgressReader) Loaded() int64 {
	return p.loaded
}

func (p *ProgressReader) emit(done bool) {
	if p.finished || p.report == nil {
		return
	}
	if done {
		p.finished = true
	}
	p.last = time.Now()

	total := p.total
	if total < 0 {
		total = 0
	}
	p.report(models.Progress{
		Loaded:           p.loaded,
		Total:            total,
		LengthComputable: p.total >= 0,
	}, done)
}
