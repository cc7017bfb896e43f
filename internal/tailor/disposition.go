package tailor

import (
	"regexp"
	"strings"
)

// DefaultFilename is used when the service does not suggest one
const DefaultFilename = "tailored_resume.docx"

// matches filename=, filename*= and friends; quoted or bare value
var filenameParam = regexp.MustCompile(`(?i)filename[^;=\n]*=(?:"([^"]*)"|'([^']*)'|([^;\n]*))`)

// FilenameFromDisposition extracts the suggested filename from a
// Content-Disposition header value. Only headers containing a lowercase
// "attachment" count; anything else yields DefaultFilename. The parameter
// name is matched case-insensitively and the value is kept verbatim apart
// from one pair of surrounding quotes.
func FilenameFromDisposition(header string) string {
	if !strings.Contains(header, "attachment") {
		return DefaultFilename
	}

	m := filenameParam.FindStringSubmatch(header)
	if m == nil {
		return DefaultFilename
	}

	var name string
	for _, group := range m[1:] {
		if group != "" {
			name = group
			break
		}
	}

	name = strings.TrimPrefix(name, `"`)
	name = strings.TrimPrefix(name, `'`)
	name = strings.TrimSuffix(name, `"`)
	name = strings.TrimSuffix(name, `'`)
	if name == "" {
		return DefaultFilename
	}
	return name
}

// Extension returns the uppercased text after the last dot of name,
// or the whole name uppercased when it has no dot
func Extension(name string) string {
	return strings.ToUpper(name[strings.LastIndex(name, ".")+1:])
}

// DownloadLabel is the visible text of the download link for name
func DownloadLabel(name string) string {
	return "Download Tailored Resume (" + Extension(name) + ")"
}
