package dataset

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var baseTime = time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func ms(t time.Time) int64 { return t.UnixMilli() }

func textMsg(sender string, at time.Time, content string) RawMessage {
	return RawMessage{SenderName: sender, TimestampMS: ms(at), Content: strPtr(content)}
}

func classified(raw ...RawMessage) []ClassifiedMessage {
	return ClassifyAll(DecodeMessages(raw))
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Location = time.UTC
	opts.GeneratedAt = time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	return opts
}

func observedLogger(level zapcore.Level) (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return zap.New(core), logs
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
