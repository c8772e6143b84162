// Package config provides configuration management using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/safedep/safeguard/core/check"
	"github.com/safedep/safeguard/core/policy"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "SAFEGUARD"

// ColorMode represents the color output mode.
type ColorMode string

const (
	// ColorAuto automatically detects terminal support.
	ColorAuto ColorMode = "auto"
	// ColorAlways always uses colors.
	ColorAlways ColorMode = "always"
	// ColorNever never uses colors.
	ColorNever ColorMode = "never"
)

// DisclosureMode selects how violations are presented to the user.
type DisclosureMode string

const (
	// DisclosureAuto uses the dialog on a terminal and a line prompt otherwise.
	DisclosureAuto DisclosureMode = "auto"
	// DisclosureInteractive always uses the full screen dialog.
	DisclosureInteractive DisclosureMode = "interactive"
	// DisclosureLine uses a plain line prompt.
	DisclosureLine DisclosureMode = "line"
	// DisclosureAccept answers every prompt with "continue anyway" where offered.
	DisclosureAccept DisclosureMode = "accept"
	// DisclosureDecline answers every prompt with "do not continue".
	DisclosureDecline DisclosureMode = "decline"
)

// Config holds all configuration values.
type Config struct {
	// Policy holds the raw level string per check key. Values are resolved
	// by the policy package and are never rejected here.
	Policy     map[string]string `mapstructure:"policy"`
	Checks     ChecksConfig      `mapstructure:"checks"`
	Identity   IdentityConfig    `mapstructure:"identity"`
	Engine     EngineConfig      `mapstructure:"engine"`
	Disclosure DisclosureConfig  `mapstructure:"disclosure"`
	Signatures SignaturesConfig  `mapstructure:"signatures"`
	Storage    StorageConfig     `mapstructure:"storage"`
	Display    DisplayConfig     `mapstructure:"display"`
	Streams    StreamsConfig     `mapstructure:"streams"`
}

// ChecksConfig enables the optional checks.
type ChecksConfig struct {
	OngoingCall         bool `mapstructure:"ongoing_call"`
	CertificateMismatch bool `mapstructure:"certificate_mismatch"`
}

// IdentityConfig holds the values identity checks compare against.
type IdentityConfig struct {
	ExpectedAppID           string `mapstructure:"expected_app_id"`
	ExpectedCertFingerprint string `mapstructure:"expected_cert_fingerprint"`
}

// EngineConfig holds orchestrator settings.
type EngineConfig struct {
	Workers           int           `mapstructure:"workers"`
	DisclosureTimeout time.Duration `mapstructure:"disclosure_timeout"`
	Interval          time.Duration `mapstructure:"interval"`
}

// DisclosureConfig holds disclosure presentation settings.
type DisclosureConfig struct {
	Mode DisclosureMode `mapstructure:"mode"`
}

// SignaturesConfig lists process names that indicate a threat.
type SignaturesConfig struct {
	Malware         []string `mapstructure:"malware"`
	Keylogger       []string `mapstructure:"keylogger"`
	ScreenMirroring []string `mapstructure:"screen_mirroring"`
	OngoingCall     []string `mapstructure:"ongoing_call"`
}

// StorageConfig holds storage-related settings.
type StorageConfig struct {
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// DisplayConfig holds display-related settings.
type DisplayConfig struct {
	Colors ColorMode `mapstructure:"colors"`
}

// StreamsConfig holds report sink settings.
type StreamsConfig struct {
	Targets []StreamTargetConfig `mapstructure:"targets"`
}

// StreamTargetConfig holds settings for a single report sink.
type StreamTargetConfig struct {
	Name    string         `mapstructure:"name"`
	Type    string         `mapstructure:"type"`
	Enabled bool           `mapstructure:"enabled"`
	Config  map[string]any `mapstructure:"config"`
}

// Paths holds resolved filesystem paths.
type Paths struct {
	ConfigFile   string
	ConfigDir    string
	DataDir      string
	DatabaseFile string
}

// Load loads configuration from the given path or default locations.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		paths := ResolvePaths()

		v.SetConfigName("config")
		v.AddConfigPath(paths.ConfigDir)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns a Config with all default values.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)

	return &cfg
}

// ResolvePaths returns the resolved filesystem paths for the current platform.
func ResolvePaths() *Paths {
	configDir := getConfigDir()
	dataDir := getDataDir()

	return &Paths{
		ConfigFile:   filepath.Join(configDir, "config.yaml"),
		ConfigDir:    configDir,
		DataDir:      dataDir,
		DatabaseFile: filepath.Join(dataDir, "history.db"),
	}
}

// GetDatabasePath returns the resolved database path from config or default.
func (c *Config) GetDatabasePath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}

	paths := ResolvePaths()
	return paths.DatabaseFile
}

// ShouldUseColors returns true if colors should be used based on config and terminal.
func (c *Config) ShouldUseColors() bool {
	switch c.Display.Colors {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		fileInfo, _ := os.Stdout.Stat()
		return (fileInfo.Mode() & os.ModeCharDevice) != 0
	}
}

// PolicySettings returns the unresolved policy for the engine.
func (c *Config) PolicySettings() policy.Settings {
	settings := policy.Settings{
		Levels: make(map[check.Kind]string, check.NumKinds),
		Enabled: map[check.Kind]bool{
			check.KindOngoingCall:         c.Checks.OngoingCall,
			check.KindCertificateMismatch: c.Checks.CertificateMismatch,
		},
		Identity: policy.Identity{
			ExpectedAppID:           c.ExpectedAppID(),
			ExpectedCertFingerprint: strings.ToLower(strings.TrimSpace(c.Identity.ExpectedCertFingerprint)),
		},
	}

	for _, kind := range check.All() {
		if raw, ok := c.Policy[kind.Key()]; ok {
			settings.Levels[kind] = raw
		}
	}

	return settings
}

// ExpectedAppID returns the configured application identity, or the running
// binary's own identity when none is configured.
func (c *Config) ExpectedAppID() string {
	if c.Identity.ExpectedAppID != "" {
		return c.Identity.ExpectedAppID
	}
	return RunningAppID()
}

// RunningAppID returns the identity of the running binary: its main module
// path when build info is available, else the executable name.
func RunningAppID() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Path != "" {
		return info.Main.Path
	}

	exe, err := os.Executable()
	if err != nil {
		return filepath.Base(os.Args[0])
	}
	return filepath.Base(exe)
}
