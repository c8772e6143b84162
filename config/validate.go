package config

import (
	"fmt"
	"regexp"
)

var fingerprintPattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// validate checks the configuration for structural errors. Policy level
// strings are deliberately left alone; unknown values fall back to defaults
// when the policy is resolved.
func validate(cfg *Config) error {
	if cfg.Engine.Workers < 1 {
		return fmt.Errorf("engine.workers must be at least 1")
	}
	if cfg.Engine.DisclosureTimeout < 0 {
		return fmt.Errorf("engine.disclosure_timeout must be non-negative")
	}
	if cfg.Engine.Interval <= 0 {
		return fmt.Errorf("engine.interval must be positive")
	}

	if !isValidDisclosureMode(cfg.Disclosure.Mode) {
		return fmt.Errorf("invalid disclosure.mode: %s (must be auto, interactive, line, accept, or decline)", cfg.Disclosure.Mode)
	}

	fp := cfg.Identity.ExpectedCertFingerprint
	if fp != "" && !fingerprintPattern.MatchString(fp) {
		return fmt.Errorf("identity.expected_cert_fingerprint must be a hex encoded sha256 digest")
	}

	if cfg.Storage.RetentionDays < 0 {
		return fmt.Errorf("storage.retention_days must be non-negative")
	}

	if !isValidColorMode(cfg.Display.Colors) {
		return fmt.Errorf("invalid display.colors: %s (must be auto, always, or never)", cfg.Display.Colors)
	}

	if err := validateStreamTargets(cfg.Streams.Targets); err != nil {
		return err
	}

	return nil
}

// isValidColorMode returns true if the given mode is valid.
func isValidColorMode(mode ColorMode) bool {
	switch mode {
	case ColorAuto, ColorAlways, ColorNever:
		return true
	default:
		return false
	}
}

func isValidDisclosureMode(mode DisclosureMode) bool {
	switch mode {
	case DisclosureAuto, DisclosureInteractive, DisclosureLine, DisclosureAccept, DisclosureDecline:
		return true
	default:
		return false
	}
}

// knownStreamTargetTypes lists the valid stream target types.
var knownStreamTargetTypes = map[string]bool{
	streamTargetTypeStdout: true,
	streamTargetTypeFile:   true,
	streamTargetTypeNop:    true,
}

func validateStreamTargets(targets []StreamTargetConfig) error {
	names := make(map[string]bool, len(targets))
	for i, t := range targets {
		if t.Name == "" {
			return fmt.Errorf("streams.targets[%d]: name must not be empty", i)
		}
		if t.Type == "" {
			return fmt.Errorf("streams.targets[%d]: type must not be empty", i)
		}
		if !knownStreamTargetTypes[t.Type] {
			return fmt.Errorf("streams.targets[%d]: unknown type %q", i, t.Type)
		}
		if names[t.Name] {
			return fmt.Errorf("streams.targets[%d]: duplicate name %q", i, t.Name)
		}
		if t.Type == streamTargetTypeFile {
			if p, _ := t.Config["path"].(string); p == "" {
				return fmt.Errorf("streams.targets[%d]: file target requires config.path", i)
			}
		}
		names[t.Name] = true
	}
	return nil
}
