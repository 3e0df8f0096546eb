package logutil

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestTraceLevel(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	slog.SetDefault(NewLogger(&buf, LevelTrace))
	Trace("encoded input", "bytes", 12)

	out := buf.String()
	if !strings.Contains(out, "level=TRACE") || !strings.Contains(out, "bytes=12") {
		t.Errorf("Ausgabe = %q, erwartet TRACE mit bytes=12", out)
	}
	if !strings.Contains(out, "source=logutil_test.go:") {
		t.Errorf("Ausgabe = %q, erwartet kurze Quellangabe", out)
	}
}

func TestTraceDisabled(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	slog.SetDefault(NewLogger(&buf, slog.LevelInfo))
	Trace("hidden")
	slog.Info("visible")

	if out := buf.String(); strings.Contains(out, "hidden") || !strings.Contains(out, "visible") {
		t.Errorf("Ausgabe = %q", out)
	}
}
