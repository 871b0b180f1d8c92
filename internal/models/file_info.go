package models

import "time"

// FileInfo represents metadata about a file saved to the output directory.
type FileInfo struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	SourceURL string    `json:"sourceUrl,omitempty"`
	SavedAt   time.Time `json:"savedAt"`
}
