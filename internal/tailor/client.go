package tailor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"tailor-form/internal/logging"
)

// Multipart field names expected by the tailoring service
const (
	FieldJobDescription = "job_description"
	FieldResume         = "resume"
)

const (
	unknownServerError = "Unknown server error. Check backend logs."
	noErrorDetail      = "Could not retrieve detailed error. Check backend logs."

	// error bodies are only ever shown to a human
	maxErrorBody = 64 * 1024
)

// File is a resume as the user selected it
type File struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Request is one tailoring call
type Request struct {
	JobDescription string
	Resume         *File

	// OnResponse, when set, runs as soon as response headers arrive and
	// before the body is read or the status is inspected
	OnResponse func(status int)
}

// Result is the tailored document returned by the service
type Result struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ClientConfig holds configuration for the tailoring client
type ClientConfig struct {
	Endpoint  string
	Timeout   time.Duration // 0 waits indefinitely
	UserAgent string

	// HTTPClient overrides the default transport, mostly for tests
	HTTPClient *http.Client
}

// Client posts submissions to the tailoring service
type Client struct {
	endpoint   string
	userAgent  string
	httpClient *http.Client
	logger     logging.Logger
}

// NewClient creates a new tailoring client
func NewClient(config ClientConfig, logger logging.Logger) (*Client, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("tailoring endpoint is required")
	}
	u, err := url.Parse(config.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid tailoring endpoint %q", config.Endpoint)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}
	if logger == nil {
		logger = logging.Nop()
	}

	return &Client{
		endpoint:   config.Endpoint,
		userAgent:  config.UserAgent,
		httpClient: httpClient,
		logger:     logger.WithField("component", "tailor_client"),
	}, nil
}

// Endpoint returns the URL submissions are posted to
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Tailor uploads the job description and resume and returns the tailored
// document. Errors are *NetworkError, *StatusError or *ParseError.
func (c *Client) Tailor(ctx context.Context, req Request) (*Result, error) {
	if req.Resume == nil || req.Resume.Content == nil {
		return nil, fmt.Errorf("resume content is required")
	}

	body, contentType, err := encodeForm(req.JobDescription, req.Resume)
	if err != nil {
		return nil, fmt.Errorf("failed to encode submission: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	started := time.Now()
	c.logger.Debug("Posting submission to tailoring service", map[string]interface{}{
		"endpoint":    c.endpoint,
		"resume_name": req.Resume.Name,
		"resume_size": req.Resume.Size,
	})

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("Tailoring service unreachable", map[string]interface{}{
			"endpoint": c.endpoint,
			"error":    err.Error(),
		})
		return nil, &NetworkError{Endpoint: c.endpoint, Err: err}
	}
	defer resp.Body.Close()

	if req.OnResponse != nil {
		req.OnResponse(resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := readErrorDetail(resp.Body)
		c.logger.Warn("Tailoring service returned an error", map[string]interface{}{
			"status": resp.StatusCode,
			"detail": detail,
		})
		return nil, &StatusError{Status: resp.StatusCode, Detail: detail}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	result := &Result{
		Filename:    FilenameFromDisposition(resp.Header.Get("Content-Disposition")),
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}
	if result.ContentType == "" {
		result.ContentType = "application/octet-stream"
	}

	c.logger.Info("Tailored document received", map[string]interface{}{
		"filename":   result.Filename,
		"bytes":      len(data),
		"elapsed_ms": time.Since(started).Milliseconds(),
	})

	return result, nil
}

// readErrorDetail prefers the "error" field of a JSON body and falls back to
// the raw text. A falsy or missing "error" in valid JSON is reported as
// unknownServerError.
func readErrorDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil && len(raw) == 0 {
		return noErrorDetail
	}

	var payload struct {
		Error interface{} `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		switch v := payload.Error.(type) {
		case string:
			if v != "" {
				return v
			}
		case bool:
			if v {
				return "true"
			}
		case nil:
		case float64:
			if v != 0 {
				return fmt.Sprint(v)
			}
		default:
			return fmt.Sprint(v)
		}
		return unknownServerError
	}
	// scalars and arrays are JSON too, just without an "error" field
	if json.Valid(raw) {
		return unknownServerError
	}

	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}
	return noErrorDetail
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeForm builds the two-field multipart body. The resume part keeps
// its original filename and declared content type.
func encodeForm(jobDescription string, resume *File) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	if err := w.WriteField(FieldJobDescription, jobDescription); err != nil {
		return nil, "", err
	}

	contentType := resume.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		FieldResume, quoteEscaper.Replace(resume.Name)))
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, resume.Content); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return body, w.FormDataContentType(), nil
}
