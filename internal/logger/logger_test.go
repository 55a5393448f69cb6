package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Development(t *testing.T) {
	log, err := New(true)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	if log == nil {
		t.Fatal("expected non-nil logger")
	}
	if !log.Core().Enabled(zapcore.DebugLevel) {
		t.Error("development logger should enable debug")
	}

	// Should not panic
	log.Info("test message")
}

func TestNew_Production(t *testing.T) {
	log, err := New(false)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	if log == nil {
		t.Fatal("expected non-nil logger")
	}
	if log.Core().Enabled(zapcore.InfoLevel) {
		t.Error("production logger should not enable info")
	}
	if !log.Core().Enabled(zapcore.WarnLevel) {
		t.Error("production logger should enable warn")
	}
}

func TestMust(t *testing.T) {
	// Should not panic
	log := Must(true)
	if log == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestForRun(t *testing.T) {
	obs, logs := observer.New(zapcore.InfoLevel)
	log := ForRun(zap.New(obs), "3f1c", "klines")

	log.Info("batch finished")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["run_id"] != "3f1c" {
		t.Errorf("expected run_id 3f1c, got %v", fields["run_id"])
	}
	if fields["command"] != "klines" {
		t.Errorf("expected command klines, got %v", fields["command"])
	}
}
