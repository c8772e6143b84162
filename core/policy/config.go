package policy

import (
	"github.com/safedep/safeguard/core/check"
)

// Identity holds the values specific detectors compare against. The
// orchestrator itself never reads them.
type Identity struct {
	// ExpectedAppID is the application identity the running binary must have.
	ExpectedAppID string
	// ExpectedCertFingerprint is the expected signing fingerprint. Empty
	// disables the comparison.
	ExpectedCertFingerprint string
}

// Settings is the raw, unresolved policy as read from configuration.
type Settings struct {
	// Levels maps a kind to its raw level string.
	Levels map[check.Kind]string
	// Enabled lists optional kinds that were switched on.
	Enabled map[check.Kind]bool
	// Identity holds the detector comparison values.
	Identity Identity
}

// Config is the resolved, immutable policy. It is built once and safe to
// share between goroutines without locking.
type Config struct {
	levels    [check.NumKinds]Level
	enabled   [check.NumKinds]bool
	identity  Identity
	fallbacks []Fallback
}

var kindSlots = check.All()

// New resolves settings into a Config. Unknown level strings fall back to the
// per-kind default and are reported by Fallbacks.
func New(settings Settings) *Config {
	cfg := &Config{identity: settings.Identity}

	for _, kind := range kindSlots {
		level, fb := resolveKind(kind, settings.Levels[kind])
		cfg.levels[kind] = level
		if fb != nil {
			cfg.fallbacks = append(cfg.fallbacks, *fb)
		}

		cfg.enabled[kind] = !kind.Optional() || settings.Enabled[kind]
	}

	return cfg
}

// Default returns the policy with every kind at its documented default and
// optional kinds disabled.
func Default() *Config {
	return New(Settings{})
}

// Level returns the enforcement level bound to kind.
func (c *Config) Level(kind check.Kind) Level {
	if !kind.Valid() {
		return LevelIgnore
	}
	return c.levels[kind]
}

// Enabled reports whether kind takes part in checks.
func (c *Config) Enabled(kind check.Kind) bool {
	return kind.Valid() && c.enabled[kind]
}

// EnabledKinds returns the enabled kinds in the fixed detection order.
func (c *Config) EnabledKinds() []check.Kind {
	out := make([]check.Kind, 0, check.NumKinds)
	for _, kind := range kindSlots {
		if c.enabled[kind] {
			out = append(out, kind)
		}
	}
	return out
}

// Identity returns the detector comparison values.
func (c *Config) Identity() Identity {
	return c.identity
}

// Fallbacks returns the policy strings that were replaced by defaults.
func (c *Config) Fallbacks() []Fallback {
	out := make([]Fallback, len(c.fallbacks))
	copy(out, c.fallbacks)
	return out
}
