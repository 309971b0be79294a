package config

import (
	"log/slog"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 || cfg.Engine != DefaultEngine() {
		t.Errorf("defaults = %+v", cfg)
	}
	if !cfg.IsAnonymousRoom("lobby") || cfg.IsAnonymousRoom("private") {
		t.Error("anonymous rooms default wrong")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ANONYMOUS_ROOMS", " a, b ,,")
	t.Setenv("ALLOWED_ORIGINS", "example.com")
	t.Setenv("FRAME_RATE", "30")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("MDNS_ENABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9000 || cfg.Engine.FrameRate != 30 || !cfg.MDNSEnabled {
		t.Errorf("config = %+v", cfg)
	}
	if !cfg.IsAnonymousRoom("b") || cfg.IsAnonymousRoom("") {
		t.Error("anonymous room list not trimmed")
	}
	if got := cfg.Origins(); len(got) != 1 || got[0] != "example.com" {
		t.Errorf("origins = %v", got)
	}
	if cfg.Level() != slog.LevelDebug {
		t.Errorf("level = %v", cfg.Level())
	}
}

func TestLoadRejectsBadEngine(t *testing.T) {
	t.Setenv("FRAME_RATE", "0")
	if _, err := Load(); err == nil {
		t.Error("zero frame rate accepted")
	}
}
