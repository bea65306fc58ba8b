package config

import (
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/breeze-rmm/monitorcapture/internal/duplicator"
)

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

// ValidationResult splits problems into fatals, which must stop startup, and
// warnings, which were corrected or can be ignored.
type ValidationResult struct {
	Fatals   []error
	Warnings []error
}

func (r ValidationResult) HasFatals() bool { return len(r.Fatals) > 0 }

// AllErrors returns fatals followed by warnings.
func (r ValidationResult) AllErrors() []error {
	all := make([]error, 0, len(r.Fatals)+len(r.Warnings))
	all = append(all, r.Fatals...)
	return append(all, r.Warnings...)
}

// clampInt clamps *v into [lo, hi], recording a warning when it changes.
func clampInt(r *ValidationResult, key string, v *int, lo, hi int) {
	switch {
	case *v < lo:
		r.Warnings = append(r.Warnings, fmt.Errorf("%s %d is below minimum %d, clamping", key, *v, lo))
		*v = lo
	case *v > hi:
		r.Warnings = append(r.Warnings, fmt.Errorf("%s %d exceeds maximum %d, clamping", key, *v, hi))
		*v = hi
	}
}

// ValidateTiered checks the config. Out-of-range numbers are clamped in
// place and reported as warnings.
func (c *Config) ValidateTiered() ValidationResult {
	var r ValidationResult

	if _, err := duplicator.ParseBackend(c.Backend); err != nil {
		r.Fatals = append(r.Fatals, fmt.Errorf("backend: %w", err))
	}

	if c.HTTPAddr != "" {
		if _, _, err := net.SplitHostPort(c.HTTPAddr); err != nil {
			r.Fatals = append(r.Fatals, fmt.Errorf("http_addr %q is not host:port: %w", c.HTTPAddr, err))
		}
	}

	clampInt(&r, "fps", &c.FPS, 1, 240)
	clampInt(&r, "preview_quality", &c.PreviewQuality, 1, 100)
	clampInt(&r, "preview_max_fps", &c.PreviewMaxFPS, 1, 60)
	clampInt(&r, "unhealthy_after_attempts", &c.UnhealthyAfterAttempts, 1, 1000)
	clampInt(&r, "log_max_size_mb", &c.LogMaxSizeMB, 1, 1024)
	clampInt(&r, "log_max_backups", &c.LogMaxBackups, 1, 100)

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		r.Warnings = append(r.Warnings, fmt.Errorf("log_level %q is not valid (use debug, info, warn, error)", c.LogLevel))
	}
	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		r.Warnings = append(r.Warnings, fmt.Errorf("log_format %q is not valid (use text or json)", c.LogFormat))
	}

	return r
}

// Validate runs ValidateTiered, logs every problem as a warning, and returns
// them all.
func (c *Config) Validate() []error {
	errs := c.ValidateTiered().AllErrors()
	for _, err := range errs {
		slog.Warn("config validation", "error", err)
	}
	return errs
}
