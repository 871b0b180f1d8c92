// Package download follows the download link returned by the OCR endpoint
// and saves the produced document locally.
package download

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/howplatform/ocr-client/internal/models"
	"github.com/howplatform/ocr-client/internal/storage"
	"github.com/howplatform/ocr-client/internal/upload"
	"github.com/labstack/gommon/bytes"
	"github.com/labstack/gommon/log"
)

// Downloader fetches result files relative to the OCR server.
type Downloader struct {
	base             *url.URL
	store            storage.Store
	httpClient       *http.Client
	logger           *log.Logger
	progressInterval time.Duration
}

// NewDownloader creates a downloader resolving links against baseURL.
func NewDownloader(baseURL string, store storage.Store, httpClient *http.Client, logger *log.Logger) (*Downloader, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = log.New("download")
		logger.SetLevel(log.OFF)
	}
	return &Downloader{
		base:             base,
		store:            store,
		httpClient:       httpClient,
		logger:           logger,
		progressInterval: upload.DefaultProgressInterval,
	}, nil
}

// Resolve turns a download_url (usually a server-relative path) into an
// absolute URL.
func (d *Downloader) Resolve(downloadURL string) (*url.URL, error) {
	if downloadURL == "" {
		return nil, fmt.Errorf("empty download URL")
	}
	ref, err := url.Parse(downloadURL)
	if err != nil {
		return nil, fmt.Errorf("invalid download URL %q: %w", downloadURL, err)
	}
	return d.base.ResolveReference(ref), nil
}

// Fetch downloads the file behind downloadURL into the store.
func (d *Downloader) Fetch(ctx context.Context, downloadURL string, onProgress upload.ProgressFunc) (*models.FileInfo, error) {
	target, err := d.Resolve(downloadURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building download request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", target.Redacted(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, upload.NewStatusError(resp.StatusCode, string(body))
	}

	name := FileName(resp.Header.Get("Content-Disposition"), target)
	d.logger.Infof("Downloading %s (%s)", name, sizeLabel(resp.ContentLength))

	reader := upload.NewProgressReader(resp.Body, resp.ContentLength, d.progressInterval, func(p models.Progress, done bool) {
		if onProgress != nil {
			onProgress(p)
		}
	})

	info, err := d.store.Save(name, target.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("saving %s: %w", name, err)
	}

	d.logger.Infof("Saved %s (%s)", info.Path, bytes.Format(info.Size))
	return info, nil
}

// FileName picks the name for a downloaded file: the Content-Disposition
// filename when present, else the last element of the URL path.
func FileName(contentDisposition string, u *url.URL) string {
	if contentDisposition != "" {
		if _, params, err := mime.ParseMediaType(contentDisposition); err == nil {
			if name := params["filename"]; name != "" {
				return storage.SanitizeName(name)
			}
		}
	}
	return storage.SanitizeName(path.Base(u.Path))
}

func sizeLabel(n int64) string {
	if n < 0 {
		return "unknown size"
	}
	return bytes.Format(n)
}
