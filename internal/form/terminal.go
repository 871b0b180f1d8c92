package form

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/labstack/gommon/color"
)

const barWidth = 30

// TerminalView renders the form on a terminal: a redrawn progress bar,
// a result block and alerts on a separate writer.
type TerminalView struct {
	mu       sync.Mutex
	out      io.Writer
	alerts   io.Writer
	color    *color.Color
	progress int
	drawn    bool // progress has been drawn at least once
	barShown bool // the bar line is open and not yet terminated

	visible     bool
	preview     string
	downloadURL string
}

// NewTerminalView creates a view writing results to out and alerts to alerts.
func NewTerminalView(out, alerts io.Writer, useColor bool) *TerminalView {
	c := color.New()
	// SetOutput turns colors off when out is not a terminal
	c.SetOutput(out)
	if !useColor {
		c.Disable()
	}
	return &TerminalView{
		out:    out,
		alerts: alerts,
		color:  c,
	}
}

// SetProgress redraws the progress bar in place.
func (v *TerminalView) SetProgress(percent int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	if v.drawn && percent == v.progress {
		return
	}
	v.progress = percent
	v.drawn = true
	v.barShown = true

	filled := percent * barWidth / 100
	bar := strings.Repeat("#", filled) + strings.Repeat("-", barWidth-filled)
	fmt.Fprintf(v.out, "\r[%s] %3d%%", bar, percent)
	if percent == 100 {
		fmt.Fprintln(v.out)
		v.barShown = false
	}
}

// HideResult clears the result state. Nothing printed can be taken back,
// so this only resets what Result reports.
func (v *TerminalView) HideResult() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.visible = false
	v.preview = ""
	v.downloadURL = ""
}

// ShowResult prints the preview text and the download link.
func (v *TerminalView) ShowResult(preview, downloadURL string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.endBar()
	v.visible = true
	v.preview = preview
	v.downloadURL = downloadURL

	fmt.Fprintln(v.out, v.color.Bold("Preview:"))
	fmt.Fprintln(v.out, preview)
	fmt.Fprintf(v.out, "%s %s\n", v.color.Bold("Download:"), v.color.Green(downloadURL))
}

// Alert prints a message on the alert writer.
func (v *TerminalView) Alert(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.endBar()
	fmt.Fprintln(v.alerts, v.color.Red(message))
}

// Result reports what is currently shown in the result area.
func (v *TerminalView) Result() (visible bool, preview, downloadURL string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.visible, v.preview, v.downloadURL
}

// Progress returns the last drawn percentage.
func (v *TerminalView) Progress() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.progress
}

// endBar moves off a partially drawn progress line.
func (v *TerminalView) endBar() {
	if v.barShown {
		fmt.Fprintln(v.out)
		v.barShown = false
	}
}
