package models

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
)

// Document is a user-selected file: the blob plus its name and MIME type.
type Document struct {
	Name        string    `json:"name"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"` // -1 when unknown
	Body        io.Reader `json:"-"`
}

// OpenDocument opens a file from disk as a Document. The caller closes the
// returned closer once the upload has finished.
func OpenDocument(path string) (*Document, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening document: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("reading document info: %w", err)
	}
	if stat.IsDir() {
		f.Close()
		return nil, nil, fmt.Errorf("%s is a directory", path)
	}

	name := filepath.Base(path)
	return &Document{
		Name:        name,
		ContentType: ContentTypeFor(name),
		Size:        stat.Size(),
		Body:        f,
	}, f, nil
}

// ContentTypeFor guesses a MIME type from the file extension.
func ContentTypeFor(name string) string {
	ext := filepath.Ext(name)
	if ext == "" {
		return "application/octet-stream"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
