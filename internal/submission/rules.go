package submission

import (
	"fmt"
	"mime"
	"strings"

	"github.com/go-playground/validator/v10"

	"tailor-form/internal/tailor"
)

// Validation messages, in rule order
const (
	MsgMissingJobDescription = "Please paste the Job Description."
	MsgMissingResume         = "Please upload your resume file."
	MsgInvalidFileType       = "Invalid file type. Please upload a PDF or DOCX file."
	MsgFileTooLarge          = "File is too large. Maximum size is 10MB."
)

const (
	MIMEPDF  = "application/pdf"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	DefaultMaxFileSize int64 = 10 * 1024 * 1024
)

var validate = validator.New()

// Input is built fresh from the form for every attempt
type Input struct {
	JobDescription string
	Resume         *tailor.File
}

// ValidationError is a local, pre-request rejection
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Rules configures input validation
type Rules struct {
	// StrictMIME rejects files whose declared type is not in AllowedTypes
	StrictMIME   bool
	AllowedTypes []string
	MaxFileSize  int64
}

// DefaultRules returns the strict rule set: PDF or DOCX up to 10 MiB
func DefaultRules() Rules {
	return Rules{
		StrictMIME:   true,
		AllowedTypes: []string{MIMEPDF, MIMEDOCX},
		MaxFileSize:  DefaultMaxFileSize,
	}
}

// Validate applies the rules in order and returns the first failure
func (r Rules) Validate(in Input) *ValidationError {
	if validate.Var(strings.TrimSpace(in.JobDescription), "required") != nil {
		return &ValidationError{Field: tailor.FieldJobDescription, Message: MsgMissingJobDescription}
	}

	if in.Resume == nil {
		return &ValidationError{Field: tailor.FieldResume, Message: MsgMissingResume}
	}

	if r.StrictMIME {
		allowed := r.AllowedTypes
		if len(allowed) == 0 {
			allowed = []string{MIMEPDF, MIMEDOCX}
		}
		tag := "oneof=" + strings.Join(allowed, " ")
		if validate.Var(baseMediaType(in.Resume.ContentType), tag) != nil {
			return &ValidationError{Field: tailor.FieldResume, Message: MsgInvalidFileType}
		}
	}

	maxSize := r.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if validate.Var(in.Resume.Size, fmt.Sprintf("lte=%d", maxSize)) != nil {
		return &ValidationError{Field: tailor.FieldResume, Message: MsgFileTooLarge}
	}

	return nil
}

// baseMediaType drops parameters such as charset from a declared type
func baseMediaType(contentType string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// FileInfo is the hint shown next to the file picker once a file is chosen
func FileInfo(f *tailor.File) string {
	if f == nil {
		return ""
	}
	return "Selected: " + f.Name
}
