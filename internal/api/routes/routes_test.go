package routes

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/labstack/echo/v4"

	"tailor-form/internal/api/middleware"
	"tailor-form/internal/config"
	"tailor-form/internal/downloads"
	"tailor-form/internal/logging"
	"tailor-form/internal/submission"
	"tailor-form/internal/tailor"
	"tailor-form/pkg/models"
)

func TestMain(m *testing.M) {
	cfg := config.Default()
	cfg.Logging.Level = "error"
	if err := logging.InitializeLogging(cfg); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type testServer struct {
	echo    *echo.Echo
	store   *downloads.MemoryStore
	backend *httptest.Server
	calls   atomic.Int32
}

func newTestServer(t *testing.T, backend http.HandlerFunc, tweak func(*config.Config, *Dependencies)) *testServer {
	t.Helper()

	ts := &testServer{}
	ts.backend = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.calls.Add(1)
		backend(w, r)
	}))
	t.Cleanup(ts.backend.Close)

	cfg := config.Default()
	cfg.Tailor.Endpoint = ts.backend.URL

	client, err := tailor.NewClient(tailor.ClientConfig{Endpoint: cfg.Tailor.Endpoint}, nil)
	if err != nil {
		t.Fatal(err)
	}
	ts.store = downloads.NewMemoryStore(time.Minute, 0, nil)
	t.Cleanup(func() { ts.store.Close() })

	deps := Dependencies{Client: client, Store: ts.store}
	if tweak != nil {
		tweak(cfg, &deps)
	}

	ts.echo = echo.New()
	if err := SetupRoutes(ts.echo, cfg, deps); err != nil {
		t.Fatal(err)
	}
	return ts
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.echo.ServeHTTP(rec, req)
	return rec
}

func multipartRequest(t *testing.T, path, jobDescription, filename, contentType string, data []byte) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if err := w.WriteField(tailor.FieldJobDescription, jobDescription); err != nil {
		t.Fatal(err)
	}
	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="resume"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(data)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func parsePage(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func hidden(sel *goquery.Selection) bool {
	style, _ := sel.Attr("style")
	return strings.Contains(style, "display:none")
}

func docxBackend(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("docx-bytes"))
}

func TestFormPage(t *testing.T) {
	ts := newTestServer(t, docxBackend, nil)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	doc := parsePage(t, rec)

	if got := strings.TrimSpace(doc.Find("#submitBtn .btn-text").Text()); got != submission.LabelIdle {
		t.Errorf("button label = %q", got)
	}
	if _, disabled := doc.Find("#submitBtn").Attr("disabled"); disabled {
		t.Error("button should be enabled")
	}
	if !hidden(doc.Find("#statusArea")) || !hidden(doc.Find("#errorArea")) {
		t.Error("status and error regions should start hidden")
	}
	if doc.Find("#resultArea a").Length() != 0 {
		t.Error("no download link expected")
	}
	if name, _ := doc.Find("#jobDescription").Attr("name"); name != tailor.FieldJobDescription {
		t.Errorf("textarea name = %q", name)
	}
	if name, _ := doc.Find("#resumeFile").Attr("name"); name != tailor.FieldResume {
		t.Errorf("file input name = %q", name)
	}
}

func TestSubmitFormValidationError(t *testing.T) {
	ts := newTestServer(t, docxBackend, nil)

	rec := ts.do(multipartRequest(t, "/submit", "   ", "cv.pdf", submission.MIMEPDF, []byte("pdf")))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	doc := parsePage(t, rec)

	if got := doc.Find("#errorArea").Text(); got != submission.MsgMissingJobDescription {
		t.Errorf("error region = %q", got)
	}
	if hidden(doc.Find("#errorArea")) || !hidden(doc.Find("#statusArea")) {
		t.Error("only the error region should be visible")
	}
	if ts.calls.Load() != 0 {
		t.Error("validation failure must not reach the tailoring service")
	}
}

func TestSubmitFormMissingResume(t *testing.T) {
	ts := newTestServer(t, docxBackend, nil)

	doc := parsePage(t, ts.do(multipartRequest(t, "/submit", "Go developer", "", "", nil)))
	if got := doc.Find("#errorArea").Text(); got != submission.MsgMissingResume {
		t.Errorf("error region = %q", got)
	}
	if got := doc.Find("#jobDescription").Text(); got != "Go developer" {
		t.Errorf("job description not echoed back: %q", got)
	}
}

func TestSubmitFormSuccessAndDownload(t *testing.T) {
	var gotJD, gotFilename, gotType string
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotJD = r.FormValue(tailor.FieldJobDescription)
		if _, header, err := r.FormFile(tailor.FieldResume); err == nil {
			gotFilename = header.Filename
			gotType = header.Header.Get("Content-Type")
		}
		w.Header().Set("Content-Disposition", `attachment; filename="resume_v2.pdf"`)
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-tailored"))
	}, nil)

	rec := ts.do(multipartRequest(t, "/submit", "  Backend engineer  ", "my cv.pdf", submission.MIMEPDF, []byte("%PDF-original")))
	doc := parsePage(t, rec)

	if gotJD != "Backend engineer" || gotFilename != "my cv.pdf" || gotType != submission.MIMEPDF {
		t.Errorf("backend saw jd=%q filename=%q type=%q", gotJD, gotFilename, gotType)
	}

	link := doc.Find("#resultArea a.download-link")
	if link.Length() != 1 {
		t.Fatalf("expected one download link, got %d", link.Length())
	}
	if link.Text() != "Download Tailored Resume (PDF)" {
		t.Errorf("link text = %q", link.Text())
	}
	if name, _ := link.Attr("download"); name != "resume_v2.pdf" {
		t.Errorf("download attribute = %q", name)
	}
	if got := doc.Find("#statusArea").Text(); got != submission.StatusSuccess {
		t.Errorf("status region = %q", got)
	}
	if got := strings.TrimSpace(doc.Find("#submitBtn .btn-text").Text()); got != submission.LabelIdle {
		t.Errorf("button label = %q", got)
	}
	if got := doc.Find("#fileInfoDisplay").Text(); got != "Selected: my cv.pdf" {
		t.Errorf("file info = %q", got)
	}

	href, _ := link.Attr("href")
	dl := ts.do(httptest.NewRequest(http.MethodGet, href, nil))
	if dl.Code != http.StatusOK {
		t.Fatalf("download status = %d", dl.Code)
	}
	if dl.Body.String() != "%PDF-tailored" {
		t.Errorf("download body = %q", dl.Body.String())
	}
	if cd := dl.Header().Get(echo.HeaderContentDisposition); cd != `attachment; filename=resume_v2.pdf` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if ct := dl.Header().Get(echo.HeaderContentType); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestSubmitFormServerError(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"bad file"}`))
	}, nil)

	doc := parsePage(t, ts.do(multipartRequest(t, "/submit", "jd", "cv.docx", submission.MIMEDOCX, []byte("docx"))))
	if got := doc.Find("#errorArea").Text(); got != "Error: Server Error 400: bad file" {
		t.Errorf("error region = %q", got)
	}
	if !hidden(doc.Find("#statusArea")) {
		t.Error("status region should be hidden after a failure")
	}
	if doc.Find("#resultArea a").Length() != 0 {
		t.Error("no download link expected")
	}
}

func TestAPISubmit(t *testing.T) {
	tests := []struct {
		name       string
		backend    http.HandlerFunc
		closeFirst bool
		jd         string
		filename   string
		ctype      string
		wantCode   int
		wantState  string
		check      func(t *testing.T, resp models.SubmitResponse)
	}{
		{
			name:      "success",
			backend:   docxBackend,
			jd:        "jd",
			filename:  "cv.pdf",
			ctype:     submission.MIMEPDF,
			wantCode:  http.StatusOK,
			wantState: "success",
			check: func(t *testing.T, resp models.SubmitResponse) {
				if resp.Filename != tailor.DefaultFilename || !strings.HasPrefix(resp.DownloadURL, downloads.PathPrefix) {
					t.Errorf("unexpected response %+v", resp)
				}
				if resp.DownloadLabel != "Download Tailored Resume (DOCX)" {
					t.Errorf("label = %q", resp.DownloadLabel)
				}
			},
		},
		{
			name:      "invalid type",
			backend:   docxBackend,
			jd:        "jd",
			filename:  "cv.txt",
			ctype:     "text/plain",
			wantCode:  http.StatusBadRequest,
			wantState: "idle",
			check: func(t *testing.T, resp models.SubmitResponse) {
				if resp.Error != submission.MsgInvalidFileType || resp.Field != tailor.FieldResume {
					t.Errorf("unexpected response %+v", resp)
				}
			},
		},
		{
			name: "upstream text error",
			backend: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("oops"))
			},
			jd:        "jd",
			filename:  "cv.pdf",
			ctype:     submission.MIMEPDF,
			wantCode:  http.StatusBadGateway,
			wantState: "failed",
			check: func(t *testing.T, resp models.SubmitResponse) {
				if resp.Error != "Error: Server Error 500: oops" {
					t.Errorf("error = %q", resp.Error)
				}
			},
		},
		{
			name:       "upstream unreachable",
			backend:    docxBackend,
			closeFirst: true,
			jd:         "jd",
			filename:   "cv.pdf",
			ctype:      submission.MIMEPDF,
			wantCode:   http.StatusServiceUnavailable,
			wantState:  "failed",
			check: func(t *testing.T, resp models.SubmitResponse) {
				if !strings.HasSuffix(resp.Error, submission.NetworkHint) {
					t.Errorf("error = %q", resp.Error)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.backend, nil)
			if tt.closeFirst {
				ts.backend.Close()
			}

			rec := ts.do(multipartRequest(t, "/api/v1/submit", tt.jd, tt.filename, tt.ctype, []byte("data")))
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantCode, rec.Body.String())
			}

			var resp models.SubmitResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.State != tt.wantState {
				t.Errorf("state = %q, want %q", resp.State, tt.wantState)
			}
			if resp.RequestID == "" || rec.Header().Get(echo.HeaderXRequestID) != resp.RequestID {
				t.Errorf("request id mismatch: body %q header %q", resp.RequestID, rec.Header().Get(echo.HeaderXRequestID))
			}
			tt.check(t, resp)
		})
	}
}

func TestDownloadNotFound(t *testing.T) {
	ts := newTestServer(t, docxBackend, nil)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/downloads/does-not-exist", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestBodyLimit(t *testing.T) {
	ts := newTestServer(t, docxBackend, func(cfg *config.Config, _ *Dependencies) {
		cfg.Server.BodyLimit = 512
	})

	rec := ts.do(multipartRequest(t, "/api/v1/submit", "jd", "cv.pdf", submission.MIMEPDF, bytes.Repeat([]byte("x"), 2048)))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d", rec.Code)
	}
	if ts.calls.Load() != 0 {
		t.Error("oversized request reached the tailoring service")
	}
}

func TestSubmitFormTooLarge(t *testing.T) {
	tests := []struct {
		name    string
		chunked bool
	}{
		{"declared length", false},
		{"chunked body", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, docxBackend, func(cfg *config.Config, _ *Dependencies) {
				cfg.Server.BodyLimit = 512
			})

			req := multipartRequest(t, "/submit", "jd", "cv.pdf", submission.MIMEPDF, bytes.Repeat([]byte("x"), 2048))
			if tt.chunked {
				req.ContentLength = -1
			}
			rec := ts.do(req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, echo.MIMETextHTML) {
				t.Errorf("Content-Type = %q", ct)
			}
			doc := parsePage(t, rec)
			if got := doc.Find("#errorArea").Text(); got != submission.MsgFileTooLarge {
				t.Errorf("error region = %q", got)
			}
			if hidden(doc.Find("#errorArea")) {
				t.Error("error region should be visible")
			}
			if ts.calls.Load() != 0 {
				t.Error("oversized request reached the tailoring service")
			}
		})
	}
}

func TestSubmitSlowTailoringService(t *testing.T) {
	slow := func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
	}
	tweak := func(cfg *config.Config, deps *Dependencies) {
		cfg.Tailor.Timeout = 300 * time.Millisecond
		client, err := tailor.NewClient(tailor.ClientConfig{Endpoint: cfg.Tailor.Endpoint, Timeout: cfg.Tailor.Timeout}, nil)
		if err != nil {
			t.Fatal(err)
		}
		deps.Client = client
	}

	t.Run("form", func(t *testing.T) {
		ts := newTestServer(t, slow, tweak)

		rec := ts.do(multipartRequest(t, "/submit", "jd", "cv.pdf", submission.MIMEPDF, []byte("pdf")))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want the rendered form", rec.Code)
		}
		doc := parsePage(t, rec)

		errArea := doc.Find("#errorArea")
		if errArea.Length() != 1 || hidden(errArea) {
			t.Fatal("error region should be rendered and visible")
		}
		if got := errArea.Text(); !strings.HasPrefix(got, "Error: ") || !strings.HasSuffix(got, submission.NetworkHint) {
			t.Errorf("error region = %q", got)
		}
		if got := strings.TrimSpace(doc.Find("#submitBtn .btn-text").Text()); got != submission.LabelIdle {
			t.Errorf("button label = %q", got)
		}
	})

	t.Run("api", func(t *testing.T) {
		ts := newTestServer(t, slow, tweak)

		rec := ts.do(multipartRequest(t, "/api/v1/submit", "jd", "cv.pdf", submission.MIMEPDF, []byte("pdf")))
		if rec.Code != http.StatusRequestTimeout {
			t.Fatalf("status = %d, want 408", rec.Code)
		}
		var resp models.SubmitResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Success || resp.State != submission.StateFailed.String() {
			t.Errorf("unexpected response %+v", resp)
		}
	})
}

func TestSubmitTimeout(t *testing.T) {
	cfg := config.Default()
	if got := submitTimeout(cfg); got != cfg.Tailor.Timeout+submitTimeoutGrace {
		t.Errorf("submitTimeout = %v", got)
	}
	cfg.Tailor.Timeout = 0
	if got := submitTimeout(cfg); got != 0 {
		t.Errorf("an unbounded client should leave the route unbounded, got %v", got)
	}
}

func TestSubmitRateLimited(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, 1, 0)
	ts := newTestServer(t, docxBackend, func(_ *config.Config, deps *Dependencies) {
		deps.RateLimiter = limiter
	})

	first := ts.do(multipartRequest(t, "/api/v1/submit", "jd", "cv.pdf", submission.MIMEPDF, []byte("pdf")))
	if first.Code != http.StatusOK {
		t.Fatalf("first status = %d", first.Code)
	}
	second := ts.do(multipartRequest(t, "/api/v1/submit", "jd", "cv.pdf", submission.MIMEPDF, []byte("pdf")))
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("second status = %d", second.Code)
	}

	// the form page itself is never throttled
	if rec := ts.do(httptest.NewRequest(http.MethodGet, "/", nil)); rec.Code != http.StatusOK {
		t.Errorf("form status = %d", rec.Code)
	}
}

func TestHealthRoutes(t *testing.T) {
	ts := newTestServer(t, docxBackend, nil)

	for _, path := range []string{"/health", "/health/ready", "/health/live", "/health/logging", "/status"} {
		rec := ts.do(httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rec.Code)
		}
	}
}
