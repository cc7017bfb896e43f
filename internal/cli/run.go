package cli

import (
	"context"
	"errors"
	"io"
	"time"

	"tailor-form/internal/logging"
	"tailor-form/internal/submission"
	"tailor-form/internal/tailor"
)

// ErrSubmissionFailed is returned when the attempt did not end in success.
// The reason has already been shown on the error stream.
var ErrSubmissionFailed = errors.New("submission failed")

// Options drive one command-line submission
type Options struct {
	JobDescriptionPath string
	ResumePath         string
	ContentType        string
	OutDir             string

	Endpoint    string
	Timeout     time.Duration
	UserAgent   string
	StrictMIME  bool
	MaxFileSize int64
	Verbose     bool
}

// Run performs a single submission from the terminal
func Run(ctx context.Context, opts Options, stdin io.Reader, stdout, stderr io.Writer, logger logging.Logger) error {
	view := NewTerminalView(stdout, stderr, opts.Verbose)

	jd, err := ReadJobDescription(opts.JobDescriptionPath, stdin)
	if err != nil {
		return err
	}

	resume, closeResume, err := OpenResume(opts.ResumePath, opts.ContentType)
	if err != nil {
		return err
	}
	defer closeResume()

	if resume != nil && opts.Verbose {
		view.ShowStatus(submission.FileInfo(resume) + " (" + resume.ContentType + ")")
	}

	client, err := tailor.NewClient(tailor.ClientConfig{
		Endpoint:  opts.Endpoint,
		Timeout:   opts.Timeout,
		UserAgent: opts.UserAgent,
	}, logger)
	if err != nil {
		return err
	}

	rules := submission.DefaultRules()
	rules.StrictMIME = opts.StrictMIME
	if opts.MaxFileSize > 0 {
		rules.MaxFileSize = opts.MaxFileSize
	}

	controller, err := submission.NewController(view, client, NewDirPublisher(opts.OutDir), rules, logger)
	if err != nil {
		return err
	}

	state, _ := controller.Submit(ctx, submission.Input{JobDescription: jd, Resume: resume})
	if state != submission.StateSuccess {
		return ErrSubmissionFailed
	}
	return nil
}
