package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"tailor-form/internal/logging"
	"tailor-form/internal/tailor"
)

var (
	// ErrBusy is returned when Submit is called while an attempt is in flight
	ErrBusy = errors.New("a submission is already in progress")

	// ErrMissingDependency is returned by NewController when a collaborator is nil
	ErrMissingDependency = errors.New("submission controller is missing a dependency")
)

// Tailorer is the request layer the controller submits through
type Tailorer interface {
	Tailor(ctx context.Context, req tailor.Request) (*tailor.Result, error)
}

// Controller runs the validate, upload and download sequence for one form
type Controller struct {
	view      View
	client    Tailorer
	publisher Publisher
	rules     Rules
	logger    logging.Logger

	inFlight atomic.Bool

	mu    sync.RWMutex
	state State
}

// NewController binds a controller to its view and collaborators
func NewController(view View, client Tailorer, publisher Publisher, rules Rules, logger logging.Logger) (*Controller, error) {
	switch {
	case view == nil:
		return nil, fmt.Errorf("%w: view", ErrMissingDependency)
	case client == nil:
		return nil, fmt.Errorf("%w: tailoring client", ErrMissingDependency)
	case publisher == nil:
		return nil, fmt.Errorf("%w: publisher", ErrMissingDependency)
	}
	if logger == nil {
		logger = logging.Nop()
	}

	return &Controller{
		view:      view,
		client:    client,
		publisher: publisher,
		rules:     rules,
		logger:    logger.WithField("component", "submission"),
		state:     StateIdle,
	}, nil
}

// State returns the controller's current state
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Submit runs one attempt and returns its terminal state. Validation
// failures return StateIdle with a *ValidationError; request failures
// return StateFailed with the error from the request layer.
func (c *Controller) Submit(ctx context.Context, in Input) (State, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		c.logger.Warn("Submission rejected, another attempt is in flight")
		return c.State(), ErrBusy
	}
	defer c.inFlight.Store(false)

	c.view.HideError()
	c.view.HideStatus()
	c.view.ClearResult()

	c.setState(StateValidating)
	if verr := c.rules.Validate(in); verr != nil {
		c.logger.Info("Submission failed validation", map[string]interface{}{
			"field":  verr.Field,
			"reason": verr.Message,
		})
		c.showError(verr.Message)
		c.setState(StateIdle)
		return StateIdle, verr
	}

	c.setState(StateSubmitting)
	c.view.SetBusy(true, LabelBusy)
	defer c.view.SetBusy(false, LabelIdle)
	c.showStatus(StatusUploading)

	c.logger.Info("Submitting resume for tailoring", map[string]interface{}{
		"resume_name":  in.Resume.Name,
		"resume_type":  in.Resume.ContentType,
		"resume_size":  in.Resume.Size,
		"jd_length":    len(strings.TrimSpace(in.JobDescription)),
		"strict_types": c.rules.StrictMIME,
	})

	result, err := c.client.Tailor(ctx, tailor.Request{
		JobDescription: strings.TrimSpace(in.JobDescription),
		Resume:         in.Resume,
		OnResponse:     func(int) { c.showStatus(StatusTailoring) },
	})
	if err != nil {
		return c.fail(err)
	}

	handle, err := c.publisher.Publish(ctx, result.Filename, result.ContentType, result.Data)
	if err != nil {
		return c.fail(fmt.Errorf("could not prepare download: %w", err))
	}

	c.view.AddDownload(Download{
		Name:   result.Filename,
		Label:  tailor.DownloadLabel(result.Filename),
		Handle: handle,
	})
	c.showStatus(StatusSuccess)
	c.setState(StateSuccess)

	c.logger.Info("Tailored resume ready", map[string]interface{}{
		"filename": result.Filename,
		"bytes":    len(result.Data),
	})

	return StateSuccess, nil
}

func (c *Controller) fail(err error) (State, error) {
	message := "Error: " + err.Error()

	var netErr *tailor.NetworkError
	if errors.As(err, &netErr) {
		message += NetworkHint
	}

	c.logger.Error("Submission failed", map[string]interface{}{"error": err.Error()})
	c.showError(message)
	c.setState(StateFailed)
	return StateFailed, err
}

// showStatus and showError keep at most one of the two regions visible

func (c *Controller) showStatus(message string) {
	c.view.ShowStatus(message)
	c.view.HideError()
}

func (c *Controller) showError(message string) {
	c.view.ShowError(message)
	c.view.HideStatus()
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}
