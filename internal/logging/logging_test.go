package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DBG", slog.LevelDebug},
		{" warn ", slog.LevelWarn},
		{"wrn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"err", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestInitLoggerFallsBackToEnv(t *testing.T) {
	t.Setenv(EnvLevel, "error")
	l := InitLogger("")
	if l.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("expected warn to be disabled when env level is error")
	}
	if !l.Enabled(context.Background(), slog.LevelError) {
		t.Error("expected error to be enabled")
	}
}
