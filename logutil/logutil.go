// Package logutil baut den slog-Logger der Bridge.
//
// MODUL: logutil
// ZWECK: Text-Logger mit TRACE-Level und kurzen Quellangaben
// INPUT: Ziel-Writer, Level aus envconfig.LogLevel()
// OUTPUT: *slog.Logger
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: log/slog (stdlib)
// HINWEISE: TRACE liegt unter DEBUG und wird nur mit TFLITE_DEBUG=2 ausgegeben
package logutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"
)

// LevelTrace ist das Level fuer sehr ausfuehrliche Ausgaben
const LevelTrace slog.Level = -8

// NewLogger erstellt einen Text-Logger; Quellangaben nur ab DEBUG.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				if attr.Value.Any().(slog.Level) == LevelTrace {
					attr.Value = slog.StringValue("TRACE")
				}
			case slog.SourceKey:
				source := attr.Value.Any().(*slog.Source)
				source.File = filepath.Base(source.File)
			}
			return attr
		},
	}))
}

// Trace loggt auf LevelTrace mit der Quellzeile des Aufrufers
func Trace(msg string, args ...any) {
	ctx := context.TODO()
	if logger := slog.Default(); logger.Enabled(ctx, LevelTrace) {
		var pcs [1]uintptr
		runtime.Callers(2, pcs[:])
		r := slog.NewRecord(time.Now(), LevelTrace, msg, pcs[0])
		r.Add(args...)
		logger.Handler().Handle(ctx, r)
	}
}
