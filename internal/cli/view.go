package cli

import (
	"fmt"
	"io"
	"sync"

	"tailor-form/internal/submission"
)

// TerminalView prints status changes and results as lines of text. Hiding
// a region prints nothing.
type TerminalView struct {
	mu      sync.Mutex
	out     io.Writer
	errOut  io.Writer
	verbose bool

	downloads []submission.Download
	lastError string
}

// NewTerminalView writes status and results to out and errors to errOut.
// Busy transitions are only printed when verbose is set.
func NewTerminalView(out, errOut io.Writer, verbose bool) *TerminalView {
	return &TerminalView{out: out, errOut: errOut, verbose: verbose}
}

func (v *TerminalView) ShowStatus(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.out, message)
}

func (v *TerminalView) HideStatus() {}

func (v *TerminalView) ShowError(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastError = message
	fmt.Fprintln(v.errOut, message)
}

func (v *TerminalView) HideError() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastError = ""
}

func (v *TerminalView) ClearResult() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.downloads = nil
}

func (v *TerminalView) AddDownload(d submission.Download) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.downloads = append(v.downloads, d)
	fmt.Fprintf(v.out, "%s: %s\n", d.Label, d.Handle)
}

func (v *TerminalView) SetBusy(busy bool, label string) {
	if !v.verbose {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.errOut, "[%s]\n", label)
}

// Downloads returns the results added since the last ClearResult
func (v *TerminalView) Downloads() []submission.Download {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]submission.Download(nil), v.downloads...)
}

// LastError returns the error currently shown, if any
func (v *TerminalView) LastError() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastError
}
