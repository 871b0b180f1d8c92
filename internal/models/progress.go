package models

import "math"

// Progress is an upload (or download) progress event.
type Progress struct {
	Loaded           int64 `json:"loaded"`
	Total            int64 `json:"total"`
	LengthComputable bool  `json:"lengthComputable"`
}

// Percent returns loaded/total as a rounded percentage, or -1 when the
// total is not known.
func (p Progress) Percent() int {
	if !p.LengthComputable || p.Total <= 0 {
		return -1
	}
	return int(math.Round(float64(p.Loaded) / float64(p.Total) * 100))
}
