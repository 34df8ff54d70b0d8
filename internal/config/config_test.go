package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(viper.New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BasePath != "/api" {
		t.Fatalf("base_path = %q", cfg.BasePath)
	}
	if cfg.Timeout != 60*time.Second {
		t.Fatalf("timeout = %v", cfg.Timeout)
	}
	if cfg.ServerURL != "http://127.0.0.1:8000" {
		t.Fatalf("server_url = %q", cfg.ServerURL)
	}
	if cfg.JournalType != "none" || cfg.JournalTTL != 30*24*time.Hour {
		t.Fatalf("unexpected journal settings %+v", cfg)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("BASE_PATH", "/grader/api")
	t.Setenv("TIMEOUT_MS", "1500")
	t.Setenv("JOURNAL_TYPE", "bbolt")

	cfg, err := load(viper.New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BasePath != "/grader/api" || cfg.Timeout != 1500*time.Millisecond || cfg.JournalType != "bbolt" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsNonPositiveTimeout(t *testing.T) {
	t.Setenv("TIMEOUT_MS", "0")
	if _, err := load(viper.New()); err == nil {
		t.Fatalf("expected error for zero timeout")
	}
}
