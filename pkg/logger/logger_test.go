package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	for _, format := range []string{FormatText, FormatJSON, FormatPretty, "bogus"} {
		var buf bytes.Buffer
		if err := Init(WithFormat(format), WithWriter(&buf)); err != nil {
			t.Fatalf("failed to initialize %s logger: %v", format, err)
		}
		if Get() == nil {
			t.Fatalf("logger is nil after %s initialization", format)
		}
		Get().Info(context.Background(), "hello", String("k", "v"))
		if !strings.Contains(buf.String(), "hello") {
			t.Errorf("%s output missing message: %q", format, buf.String())
		}
	}
	if err := Sync(); err != nil {
		t.Errorf("failed to sync logger: %v", err)
	}
}

// Basic logging test (slog-backed; no Sugar)
func TestLoggerBasic(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithFormat(FormatJSON), WithWriter(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	Get().Info(ctx, "computed limit",
		Float64("endotoxin_limit", 140),
		Int("readings", 3),
		Bool("passes", true),
		Error(errors.New("boom")),
	)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "computed limit" {
		t.Errorf("unexpected msg: %v", rec["msg"])
	}
	if rec["endotoxin_limit"] != 140.0 {
		t.Errorf("unexpected endotoxin_limit: %v", rec["endotoxin_limit"])
	}
	if src, _ := rec["source"].(string); !strings.Contains(src, "logger_test.go") {
		t.Errorf("source should point at the caller, got %q", src)
	}
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	if err := SetLevelString("warn"); err != nil {
		t.Fatalf("set level: %v", err)
	}
	defer func() { _ = SetLevelString("info") }()

	Get().Info(context.Background(), "hidden")
	Get().Warn(context.Background(), "shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("level filtering failed: %q", buf.String())
	}

	if err := SetLevelString("loud"); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

func TestLoggerNamed(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	namedLogger := Named("engine")
	if namedLogger == nil {
		t.Fatal("named logger is nil")
	}

	namedLogger.Info(context.Background(), "test message")
	if !strings.Contains(buf.String(), "logger=engine") {
		t.Errorf("named logger should tag records: %q", buf.String())
	}
}

func TestValidFormat(t *testing.T) {
	if !ValidFormat("Pretty") || ValidFormat("xml") {
		t.Error("ValidFormat misclassified formats")
	}
}
