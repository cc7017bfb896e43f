package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tailor-form/internal/submission"
	"tailor-form/internal/tailor"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDirPublisherKeepsBaseName(t *testing.T) {
	dir := t.TempDir()
	p := NewDirPublisher(dir)

	tests := map[string]string{
		"resume_v2.pdf":     "resume_v2.pdf",
		"../../etc/passwd":  "passwd",
		`..\..\evil.docx`:   "evil.docx",
		"/abs/path/cv.docx": "cv.docx",
		"":                  tailor.DefaultFilename,
		"..":                tailor.DefaultFilename,
	}
	for name, want := range tests {
		path, err := p.Publish(context.Background(), name, "", []byte("x"))
		if err != nil {
			t.Fatalf("Publish(%q): %v", name, err)
		}
		if path != filepath.Join(dir, want) {
			t.Errorf("Publish(%q) wrote %q, want %q", name, path, filepath.Join(dir, want))
		}
	}
}

func TestReadJobDescription(t *testing.T) {
	jd, err := ReadJobDescription("-", strings.NewReader("from stdin"))
	if err != nil || jd != "from stdin" {
		t.Errorf("stdin: %q, %v", jd, err)
	}

	path := writeFile(t, t.TempDir(), "jd.txt", "from file")
	jd, err = ReadJobDescription(path, nil)
	if err != nil || jd != "from file" {
		t.Errorf("file: %q, %v", jd, err)
	}

	if jd, err := ReadJobDescription("", nil); jd != "" || err != nil {
		t.Errorf("empty path: %q, %v", jd, err)
	}

	if _, err := ReadJobDescription(filepath.Join(t.TempDir(), "missing"), nil); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestOpenResumeDetectsType(t *testing.T) {
	dir := t.TempDir()
	pdf := writeFile(t, dir, "cv.bin", "%PDF-1.7\n%fake pdf body\n")

	f, closeFn, err := OpenResume(pdf, "")
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()

	if f.ContentType != submission.MIMEPDF {
		t.Errorf("detected %q, want %q", f.ContentType, submission.MIMEPDF)
	}
	if f.Name != "cv.bin" || f.Size != int64(len("%PDF-1.7\n%fake pdf body\n")) {
		t.Errorf("unexpected file %+v", f)
	}

	// content is rewound after sniffing
	buf := new(bytes.Buffer)
	buf.ReadFrom(f.Content)
	if !strings.HasPrefix(buf.String(), "%PDF") {
		t.Errorf("content not rewound: %q", buf.String())
	}
}

func TestOpenResumeOverride(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cv.txt", "plain text")

	f, closeFn, err := OpenResume(path, submission.MIMEDOCX)
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()
	if f.ContentType != submission.MIMEDOCX {
		t.Errorf("override ignored: %q", f.ContentType)
	}

	if f, _, err := OpenResume("", ""); f != nil || err != nil {
		t.Errorf("empty path should give no file: %v, %v", f, err)
	}
	if _, _, err := OpenResume(t.TempDir(), ""); err == nil {
		t.Error("directories should be rejected")
	}
}

func TestRunSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="resume_v2.pdf"`)
		w.Write([]byte("tailored"))
	}))
	defer server.Close()

	dir := t.TempDir()
	resume := writeFile(t, dir, "cv.pdf", "%PDF-1.4\n")
	out := filepath.Join(dir, "out")

	var stdout, stderr bytes.Buffer
	err := Run(context.Background(), Options{
		JobDescriptionPath: "-",
		ResumePath:         resume,
		OutDir:             out,
		Endpoint:           server.URL,
		StrictMIME:         true,
	}, strings.NewReader("Senior Go engineer"), &stdout, &stderr, nil)
	if err != nil {
		t.Fatalf("Run: %v (stderr %q)", err, stderr.String())
	}

	data, err := os.ReadFile(filepath.Join(out, "resume_v2.pdf"))
	if err != nil || string(data) != "tailored" {
		t.Errorf("output file: %q, %v", data, err)
	}
	if !strings.Contains(stdout.String(), "Download Tailored Resume (PDF): "+filepath.Join(out, "resume_v2.pdf")) {
		t.Errorf("stdout = %q", stdout.String())
	}
	if !strings.Contains(stdout.String(), submission.StatusSuccess) {
		t.Errorf("missing success status in %q", stdout.String())
	}
}

func TestRunValidationFailure(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	dir := t.TempDir()
	resume := writeFile(t, dir, "notes.txt", "just text")

	var stdout, stderr bytes.Buffer
	err := Run(context.Background(), Options{
		JobDescriptionPath: "-",
		ResumePath:         resume,
		OutDir:             dir,
		Endpoint:           server.URL,
		StrictMIME:         true,
	}, strings.NewReader("jd"), &stdout, &stderr, nil)

	if !errors.Is(err, ErrSubmissionFailed) {
		t.Fatalf("expected ErrSubmissionFailed, got %v", err)
	}
	if strings.TrimSpace(stderr.String()) != submission.MsgInvalidFileType {
		t.Errorf("stderr = %q", stderr.String())
	}
	if called {
		t.Error("no request should be sent")
	}
}

func TestRunNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL
	server.Close()

	dir := t.TempDir()
	resume := writeFile(t, dir, "cv.pdf", "%PDF-1.4\n")

	var stdout, stderr bytes.Buffer
	err := Run(context.Background(), Options{
		JobDescriptionPath: "-",
		ResumePath:         resume,
		OutDir:             dir,
		Endpoint:           endpoint,
	}, strings.NewReader("jd"), &stdout, &stderr, nil)

	if !errors.Is(err, ErrSubmissionFailed) {
		t.Fatalf("expected ErrSubmissionFailed, got %v", err)
	}
	if !strings.Contains(stderr.String(), submission.NetworkHint) {
		t.Errorf("stderr = %q", stderr.String())
	}
}
