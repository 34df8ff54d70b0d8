package grader

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultServerURL = "http://127.0.0.1:8000"
	DefaultBasePath  = "/api"
	DefaultTimeout   = 60000 * time.Millisecond

	ocrPath         = "/ocr"
	gradePath       = "/ai_grade"
	assignmentsPath = "/assignments"
)

// ClientConfig holds the connection settings of a Client.
// The effective base URL is ServerURL joined with BasePath; a BasePath that is
// already an absolute URL is used as-is.
type ClientConfig struct {
	ServerURL string        `json:"server_url"`
	BasePath  string        `json:"base_path"`
	Timeout   time.Duration `json:"timeout"`
}

// DefaultConfig returns the configuration applied when no override is supplied.
func DefaultConfig() ClientConfig {
	return ClientConfig{
		ServerURL: DefaultServerURL,
		BasePath:  DefaultBasePath,
		Timeout:   DefaultTimeout,
	}
}

// withDefaults fills zero-valued fields from DefaultConfig.
func (cfg ClientConfig) withDefaults() ClientConfig {
	cfg.ServerURL = strings.TrimSpace(cfg.ServerURL)
	cfg.BasePath = strings.TrimSpace(cfg.BasePath)
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}
	if cfg.BasePath == "" {
		cfg.BasePath = DefaultBasePath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return cfg
}

// BaseURL returns the absolute URL every endpoint path is appended to.
func (cfg ClientConfig) BaseURL() string {
	base := strings.TrimRight(cfg.BasePath, "/")
	if isAbsoluteURL(base) {
		return base
	}
	if base != "" && !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	return strings.TrimRight(cfg.ServerURL, "/") + base
}

func (cfg ClientConfig) validate() error {
	u, err := url.Parse(cfg.BaseURL())
	if err != nil {
		return fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base url %q must use http or https", cfg.BaseURL())
	}
	if u.Host == "" {
		return fmt.Errorf("base url %q has no host", cfg.BaseURL())
	}
	return nil
}

func isAbsoluteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
