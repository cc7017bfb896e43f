package submission

import "context"

// User-visible text
const (
	LabelIdle = "Tailor My Resume"
	LabelBusy = "Processing..."

	StatusUploading = "Uploading and parsing resume..."
	StatusTailoring = "AI is tailoring your resume... this can take a moment."
	StatusSuccess   = "Resume tailored successfully! Click the link above to download."

	NetworkHint = " Ensure backend server is running and accessible."
)

// Download is a ready-to-use link to a tailored document
type Download struct {
	Name   string // suggested file name
	Label  string // visible link text
	Handle string // where the document can be fetched
}

// View is the surface the controller drives: a status region, an error
// region, a result region and the submit control.
type View interface {
	ShowStatus(message string)
	HideStatus()
	ShowError(message string)
	HideError()
	ClearResult()
	AddDownload(d Download)
	// SetBusy toggles the submit control and the progress indicator
	SetBusy(busy bool, label string)
}

// Publisher makes a tailored document reachable and returns its handle.
// The handle stays valid until the publisher expires it.
type Publisher interface {
	Publish(ctx context.Context, name, contentType string, data []byte) (string, error)
}
