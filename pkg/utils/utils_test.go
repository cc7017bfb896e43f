package utils

import (
	"net/http"
	"testing"
	"time"
)

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		0:                "0 B",
		1023:             "1023 B",
		1024:             "1.0 KiB",
		10 * 1024 * 1024: "10.0 MiB",
		3 << 30:          "3.0 GiB",
	}
	for n, want := range tests {
		if got := FormatBytes(n); got != want {
			t.Errorf("FormatBytes(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[time.Duration]string{
		250 * time.Millisecond: "250ms",
		1500 * time.Millisecond: "1.50s",
		90 * time.Second:        "1.5m",
		2 * time.Hour:           "2.0h",
	}
	for d, want := range tests {
		if got := FormatDuration(d); got != want {
			t.Errorf("FormatDuration(%v) = %q, want %q", d, got, want)
		}
	}
}

func TestCustomError(t *testing.T) {
	err := NewUpstreamError("Server Error 500: oops")
	if err.Code != http.StatusBadGateway {
		t.Errorf("code = %d", err.Code)
	}
	if err.Error() != "Tailoring service error: Server Error 500: oops" {
		t.Errorf("message = %q", err.Error())
	}
	if NewBadRequestError("bad").Error() != "bad" {
		t.Error("errors without detail render the message only")
	}
	if NewPayloadTooLargeError(10).Code != http.StatusRequestEntityTooLarge {
		t.Error("payload too large should be 413")
	}
}

func TestGenerateRequestID(t *testing.T) {
	a, b := GenerateRequestID(), GenerateRequestID()
	if a == "" || a == b {
		t.Errorf("ids should be unique: %q %q", a, b)
	}
	if GetStringOrDefault("  ", "x") != "x" || GetStringOrDefault("y", "x") != "y" {
		t.Error("GetStringOrDefault")
	}
}
