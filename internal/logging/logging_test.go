package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestDefaultSilent(t *testing.T) {
	l := Logger()
	if l == nil {
		t.Fatal("Logger() returned nil")
	}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if l.Enabled(context.Background(), level) {
			t.Errorf("default logger should not be enabled for %v", level)
		}
	}
}

func TestSetAndRestore(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { Set(orig) })

	var buf bytes.Buffer
	custom := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	Set(custom)
	if Logger() != custom {
		t.Fatal("Logger() did not return the logger passed to Set")
	}
	Logger().Debug("compiled", "steps", 3)
	if !strings.Contains(buf.String(), "steps=3") {
		t.Errorf("log output = %q", buf.String())
	}

	Set(nil)
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("Set(nil) should restore the silent logger")
	}
}

func TestConcurrentAccess(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { Set(orig) })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			Set(slog.Default())
		}()
		go func() {
			defer wg.Done()
			_ = Logger()
		}()
	}
	wg.Wait()
}
