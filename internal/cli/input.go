package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"tailor-form/internal/tailor"
)

// ReadJobDescription reads the job description from a file, or from stdin
// when path is "-"
func ReadJobDescription(path string, stdin io.Reader) (string, error) {
	if path == "" {
		return "", nil
	}

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read job description: %w", err)
	}
	return string(data), nil
}

// OpenResume opens the resume and declares its content type. Without an
// override the type is sniffed from the file's contents, the way a browser
// declares it from the picked file.
func OpenResume(path, contentType string) (*tailor.File, func() error, error) {
	if path == "" {
		return nil, func() error { return nil }, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open resume: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to stat resume: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, fmt.Errorf("resume %s is a directory", path)
	}

	if contentType == "" {
		mt, err := mimetype.DetectReader(f)
		if err != nil {
			f.Close()
			return nil, nil, fmt.Errorf("failed to detect resume type: %w", err)
		}
		contentType = mt.String()
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			f.Close()
			return nil, nil, fmt.Errorf("failed to rewind resume: %w", err)
		}
	}

	return &tailor.File{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Size:        info.Size(),
		Content:     f,
	}, f.Close, nil
}
