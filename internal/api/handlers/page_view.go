package handlers

import (
	"sync"

	"tailor-form/internal/submission"
)

// PageView records what a submission did to the form so it can be rendered
// into the response page or a JSON body
type PageView struct {
	mu sync.Mutex

	status        string
	statusVisible bool
	errText       string
	errVisible    bool
	downloads     []submission.Download
	busy          bool
	label         string
}

func NewPageView() *PageView {
	return &PageView{label: submission.LabelIdle}
}

func (v *PageView) ShowStatus(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status, v.statusVisible = message, true
}

func (v *PageView) HideStatus() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.statusVisible = false
}

func (v *PageView) ShowError(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errText, v.errVisible = message, true
}

func (v *PageView) HideError() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errVisible = false
}

func (v *PageView) ClearResult() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.downloads = nil
}

func (v *PageView) AddDownload(d submission.Download) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.downloads = append(v.downloads, d)
}

func (v *PageView) SetBusy(busy bool, label string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.busy, v.label = busy, label
}

// Snapshot is the rendered state of the three regions and the submit control
type Snapshot struct {
	Status      string
	Error       string
	Downloads   []submission.Download
	Busy        bool
	ButtonLabel string
}

// Snapshot returns the visible regions; hidden regions come back empty
func (v *PageView) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := Snapshot{
		Downloads:   append([]submission.Download(nil), v.downloads...),
		Busy:        v.busy,
		ButtonLabel: v.label,
	}
	if v.statusVisible {
		s.Status = v.status
	}
	if v.errVisible {
		s.Error = v.errText
	}
	return s
}
