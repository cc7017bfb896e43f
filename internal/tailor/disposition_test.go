package tailor

import "testing"

func TestFilenameFromDisposition(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"quoted", `attachment; filename="resume_v2.pdf"`, "resume_v2.pdf"},
		{"unquoted", `attachment; filename=tailored_cv.docx`, "tailored_cv.docx"},
		{"single quoted", `attachment; filename='cv.docx'`, "cv.docx"},
		{"case insensitive", `attachment; FILENAME="Upper.DOCX"`, "Upper.DOCX"},
		{"trailing params", `attachment; filename=cv.docx; size=100`, "cv.docx"},
		{"absent header", ``, DefaultFilename},
		{"inline disposition", `inline; filename="view.pdf"`, DefaultFilename},
		{"attachment without filename", `attachment`, DefaultFilename},
		{"empty filename", `attachment; filename=""`, DefaultFilename},
		{"uppercase attachment", `ATTACHMENT; filename="cv.pdf"`, DefaultFilename},
		{"unquoted keeps spaces", `attachment; filename= my cv.pdf `, " my cv.pdf "},
		{"quoted keeps spaces", `attachment; filename=" cv.pdf"`, " cv.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FilenameFromDisposition(tt.header); got != tt.want {
				t.Errorf("FilenameFromDisposition(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestDownloadLabel(t *testing.T) {
	tests := map[string]string{
		"resume_v2.pdf":        "Download Tailored Resume (PDF)",
		"tailored_resume.docx": "Download Tailored Resume (DOCX)",
		"archive.tar.gz":       "Download Tailored Resume (GZ)",
		"README":               "Download Tailored Resume (README)",
	}

	for name, want := range tests {
		if got := DownloadLabel(name); got != want {
			t.Errorf("DownloadLabel(%q) = %q, want %q", name, got, want)
		}
	}
}
