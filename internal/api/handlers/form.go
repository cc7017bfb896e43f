package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"tailor-form/internal/api/middleware"
	"tailor-form/internal/config"
	"tailor-form/internal/logging"
	"tailor-form/internal/submission"
	"tailor-form/internal/tailor"
	"tailor-form/pkg/models"
	"tailor-form/pkg/utils"
)

// uploads beyond this spill to temporary files
const maxFormMemory = 32 << 20

// PageData feeds the form template
type PageData struct {
	JobDescription  string
	FileInfo        string
	MaxFileSize     string
	Accept          string
	BusyLabel       string
	UploadingStatus string
	View            Snapshot
}

// RulesFromConfig maps the tailor section onto submission rules
func RulesFromConfig(cfg *config.Config) submission.Rules {
	rules := submission.DefaultRules()
	rules.StrictMIME = cfg.Tailor.StrictMIME
	rules.MaxFileSize = cfg.Tailor.MaxFileSize
	return rules
}

func newPageData(cfg *config.Config, view *PageView) PageData {
	return PageData{
		MaxFileSize:     utils.FormatBytes(cfg.Tailor.MaxFileSize),
		Accept:          ".pdf,.docx," + submission.MIMEPDF + "," + submission.MIMEDOCX,
		BusyLabel:       submission.LabelBusy,
		UploadingStatus: submission.StatusUploading,
		View:            view.Snapshot(),
	}
}

// FormHandler serves the empty tailoring form
func FormHandler(cfg *config.Config) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.Render(http.StatusOK, "index.html", newPageData(cfg, NewPageView()))
	}
}

// SubmitHandler handles the browser form post and re-renders the page with
// the outcome. Every outcome, including failures, is a 200 page.
func SubmitHandler(cfg *config.Config, client submission.Tailorer, publisher submission.Publisher) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := requestIDFrom(c)
		logger := logging.LogWithRequestID(requestID)

		view := NewPageView()
		input, closeFile, err := readInput(c)
		if err != nil {
			if isBodyTooLarge(err) {
				logger.Warn("Submission body over the limit", map[string]interface{}{"error": err.Error()})
				return renderTooLarge(c, cfg)
			}
			logger.Error("Failed to parse submission form", map[string]interface{}{"error": err.Error()})
			view.ShowError("Error: " + err.Error())
			return c.Render(http.StatusOK, "index.html", newPageData(cfg, view))
		}
		defer closeFile()

		controller, err := submission.NewController(view, client, publisher, RulesFromConfig(cfg), logger)
		if err != nil {
			return err
		}

		state, _ := controller.Submit(c.Request().Context(), input)
		logger.Info("Form submission finished", map[string]interface{}{"state": state.String()})

		data := newPageData(cfg, view)
		data.JobDescription = input.JobDescription
		if state == submission.StateSuccess {
			data.FileInfo = submission.FileInfo(input.Resume)
		}
		return c.Render(http.StatusOK, "index.html", data)
	}
}

// FormTooLargeHandler answers oversized browser form posts with the form
// page and the file size message; other routes get the default JSON 413.
func FormTooLargeHandler(cfg *config.Config, formPath string) func(c echo.Context, limit int64) error {
	return func(c echo.Context, limit int64) error {
		if c.Request().URL.Path != formPath {
			return middleware.ErrUseDefaultTooLarge
		}
		logging.LogWithRequestID(requestIDFrom(c)).Warn("Submission body over the limit", map[string]interface{}{
			"content_length": c.Request().ContentLength,
			"limit":          limit,
		})
		return renderTooLarge(c, cfg)
	}
}

func renderTooLarge(c echo.Context, cfg *config.Config) error {
	view := NewPageView()
	view.ShowError(submission.MsgFileTooLarge)
	return c.Render(http.StatusOK, "index.html", newPageData(cfg, view))
}

func isBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

// APISubmitHandler handles POST /api/v1/submit and reports the outcome as JSON
func APISubmitHandler(cfg *config.Config, client submission.Tailorer, publisher submission.Publisher) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		requestID := requestIDFrom(c)
		logger := logging.LogWithRequestID(requestID)

		logger.Info("Processing submission", map[string]interface{}{
			"endpoint": "/api/v1/submit",
			"method":   "POST",
		})

		input, closeFile, err := readInput(c)
		if err != nil {
			cerr := utils.NewBadRequestError("Invalid multipart form: " + err.Error())
			if isBodyTooLarge(err) {
				cerr = utils.NewPayloadTooLargeError(cfg.Server.BodyLimit)
			}
			return c.JSON(cerr.Code, models.SubmitResponse{
				Success:        false,
				State:          submission.StateIdle.String(),
				Error:          cerr.Error(),
				ProcessingTime: time.Since(start),
				RequestID:      requestID,
			})
		}
		defer closeFile()

		view := NewPageView()
		controller, err := submission.NewController(view, client, publisher, RulesFromConfig(cfg), logger)
		if err != nil {
			return err
		}

		state, err := controller.Submit(c.Request().Context(), input)
		snap := view.Snapshot()

		response := models.SubmitResponse{
			Success:        state == submission.StateSuccess,
			State:          state.String(),
			Status:         snap.Status,
			Error:          snap.Error,
			ProcessingTime: time.Since(start),
			RequestID:      requestID,
		}
		if len(snap.Downloads) > 0 {
			d := snap.Downloads[0]
			response.Filename = d.Name
			response.DownloadURL = d.Handle
			response.DownloadLabel = d.Label
		}

		var verr *submission.ValidationError
		if errors.As(err, &verr) {
			response.Field = verr.Field
		}

		return c.JSON(statusForError(err), response)
	}
}

// statusForError maps a submission error onto the HTTP status of the JSON API
func statusForError(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var (
		verr      *submission.ValidationError
		netErr    *tailor.NetworkError
		statusErr *tailor.StatusError
		parseErr  *tailor.ParseError
	)
	// timeouts surface as network errors too, so they are checked first
	switch {
	case errors.As(err, &verr):
		return utils.NewValidationError(verr.Message).Code
	case tailor.IsTimeout(err):
		return utils.NewTimeoutError(err.Error()).Code
	case errors.As(err, &netErr):
		return utils.NewUnavailableError(netErr.Error()).Code
	case errors.As(err, &statusErr), errors.As(err, &parseErr):
		return utils.NewUpstreamError(err.Error()).Code
	default:
		return utils.NewInternalServerError(err.Error()).Code
	}
}

// readInput builds a submission from the multipart form. A missing resume
// part is not an error here; the submission rules report it.
func readInput(c echo.Context) (submission.Input, func(), error) {
	noop := func() {}
	// parse up front so body cap errors are not swallowed by FormValue
	if err := c.Request().ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return submission.Input{}, noop, fmt.Errorf("could not read submission form: %w", err)
	}
	input := submission.Input{JobDescription: c.FormValue(tailor.FieldJobDescription)}

	header, err := c.FormFile(tailor.FieldResume)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return input, noop, nil
		}
		return input, noop, fmt.Errorf("could not read resume upload: %w", err)
	}
	// browsers send an empty part when no file was picked
	if header.Filename == "" && header.Size == 0 {
		return input, noop, nil
	}

	f, err := header.Open()
	if err != nil {
		return input, noop, fmt.Errorf("could not open resume upload: %w", err)
	}

	input.Resume = &tailor.File{
		Name:        header.Filename,
		ContentType: strings.TrimSpace(header.Header.Get("Content-Type")),
		Size:        header.Size,
		Content:     f,
	}
	return input, func() { f.Close() }, nil
}

func requestIDFrom(c echo.Context) string {
	if id, ok := c.Get("request_id").(string); ok && id != "" {
		return id
	}
	id := utils.GenerateRequestID()
	c.Set("request_id", id)
	return id
}
