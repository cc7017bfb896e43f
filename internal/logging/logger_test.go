package logging

import (
	"errors"
	"sync"
	"testing"

	"tailor-form/internal/config"
	"tailor-form/internal/logging/types"
)

type recordingAdapter struct {
	name    string
	mu      sync.Mutex
	entries []*types.LogEntry
	healthy error
}

func (r *recordingAdapter) Write(entry *types.LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *recordingAdapter) Close() error  { return nil }
func (r *recordingAdapter) Health() error { return r.healthy }
func (r *recordingAdapter) Name() string  { return r.name }

func TestMultiLoggerLevelFiltering(t *testing.T) {
	logger := NewMultiLogger()
	rec := &recordingAdapter{name: "rec"}
	if err := logger.AddAdapter(rec); err != nil {
		t.Fatal(err)
	}

	logger.SetLevel(WarnLevel)
	logger.Info("dropped")
	logger.Warn("kept", map[string]interface{}{"k": "v"})

	if len(rec.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(rec.entries))
	}
	if rec.entries[0].Message != "kept" || rec.entries[0].Fields["k"] != "v" {
		t.Errorf("unexpected entry %+v", rec.entries[0])
	}
}

func TestWithFieldSharesAdapters(t *testing.T) {
	logger := NewMultiLogger()
	child := logger.WithField("component", "submission")

	rec := &recordingAdapter{name: "rec"}
	if err := logger.AddAdapter(rec); err != nil {
		t.Fatal(err)
	}

	child.Info("hello", map[string]interface{}{"attempt": 1})

	if len(rec.entries) != 1 {
		t.Fatalf("child logger should reach adapters added later, got %d entries", len(rec.entries))
	}
	fields := rec.entries[0].Fields
	if fields["component"] != "submission" || fields["attempt"] != 1 {
		t.Errorf("fields not merged: %v", fields)
	}
}

func TestAddAdapterRejectsDuplicates(t *testing.T) {
	logger := NewMultiLogger()
	if err := logger.AddAdapter(&recordingAdapter{name: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := logger.AddAdapter(&recordingAdapter{name: "a"}); err == nil {
		t.Error("expected duplicate adapter error")
	}
	if err := logger.RemoveAdapter("a"); err != nil {
		t.Errorf("remove failed: %v", err)
	}
	if err := logger.RemoveAdapter("a"); err == nil {
		t.Error("expected error removing unknown adapter")
	}
}

func TestHealthReportsUnhealthyAdapter(t *testing.T) {
	logger := NewMultiLogger()
	_ = logger.AddAdapter(&recordingAdapter{name: "ok"})
	_ = logger.AddAdapter(&recordingAdapter{name: "broken", healthy: errors.New("disk full")})

	if err := logger.Health(); err == nil {
		t.Error("expected health error")
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   DebugLevel,
		"WARNING": WarnLevel,
		"error":   ErrorLevel,
		"bogus":   InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestManagerFallsBackToConsoleAdapter(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "debug"

	m := NewManager()
	if err := m.Initialize(cfg); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer m.Close()

	if m.GetLogger().GetLevel() != DebugLevel {
		t.Errorf("expected debug level")
	}
	if err := m.GetLogger().Health(); err != nil {
		t.Errorf("console adapter should be healthy: %v", err)
	}
}
