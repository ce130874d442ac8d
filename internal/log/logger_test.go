package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerJSONIncludesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentChart, Output: &buf})

	logger.Info("month loaded", FieldYear, 2024)
	logger.Debug("hidden")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected a single JSON record, got %q: %v", buf.String(), err)
	}
	if rec[FieldComponent] != ComponentChart {
		t.Fatalf("expected component %q, got %v", ComponentChart, rec[FieldComponent])
	}
	if rec[FieldYear] != float64(2024) {
		t.Fatalf("expected year attribute, got %v", rec[FieldYear])
	}
}

func TestWithComponentKeepsHandler(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "json", Output: &buf})
	if base.Component() != ComponentApp {
		t.Fatalf("default component = %q, want %q", base.Component(), ComponentApp)
	}

	sec := base.With(FieldUser, "a@b.c").WithComponent(ComponentSecurity)
	if sec.Component() != ComponentSecurity {
		t.Fatalf("Component() = %q", sec.Component())
	}
	sec.Warn("probe")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec[FieldComponent] != ComponentSecurity || rec[FieldUser] != "a@b.c" {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("expected fallback logger")
	}

	logger := New(Config{Component: ComponentHTTP, Output: &bytes.Buffer{}})
	ctx := NewContext(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Fatal("expected logger from context")
	}
}

func TestStructuredLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelDebug, Output: &buf}))

	req := httptest.NewRequest("GET", "/api/chart/month", nil)
	sl.LogHTTPEnd(context.Background(), req, 502, 12, "127.0.0.1")
	if !strings.Contains(buf.String(), "level=ERROR") {
		t.Fatalf("expected ERROR level for 5xx, got %q", buf.String())
	}

	buf.Reset()
	sl.LogError(context.Background(), "lookup failed", errors.New("boom"), ComponentAPI, OpRead, nil)
	out := buf.String()
	if !strings.Contains(out, "error=boom") || !strings.Contains(out, "component=api") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestLogFieldsToSliceSorted(t *testing.T) {
	got := NewFields().WithUser("u").WithComponent("c").ToSlice()
	want := []any{FieldComponent, "c", FieldUser, "u"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
