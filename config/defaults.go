package config

import (
	"github.com/safedep/safeguard/core/check"
	"github.com/safedep/safeguard/core/policy"
	"github.com/spf13/viper"
)

const (
	streamTargetTypeStdout = "stdout"
	streamTargetTypeFile   = "file"
	streamTargetTypeNop    = "nop"
)

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	// Policy defaults
	for _, kind := range check.All() {
		v.SetDefault("policy."+kind.Key(), policy.DefaultLevel(kind).String())
	}

	// Optional checks
	v.SetDefault("checks.ongoing_call", false)
	v.SetDefault("checks.certificate_mismatch", false)

	// Identity defaults. Empty means derive from the running binary.
	v.SetDefault("identity.expected_app_id", "")
	v.SetDefault("identity.expected_cert_fingerprint", "")

	// Engine defaults
	v.SetDefault("engine.workers", 4)
	v.SetDefault("engine.disclosure_timeout", "0s")
	v.SetDefault("engine.interval", "5m")

	v.SetDefault("disclosure.mode", string(DisclosureAuto))

	// Signature defaults
	v.SetDefault("signatures.malware", defaultMalwareSignatures())
	v.SetDefault("signatures.keylogger", defaultKeyloggerSignatures())
	v.SetDefault("signatures.screen_mirroring", defaultScreenMirroringSignatures())
	v.SetDefault("signatures.ongoing_call", defaultOngoingCallSignatures())

	// Storage defaults
	v.SetDefault("storage.path", "") // Empty means use platform default
	v.SetDefault("storage.retention_days", 30)

	v.SetDefault("display.colors", "auto")

	v.SetDefault("streams.targets", []StreamTargetConfig{
		{
			Name:    streamTargetTypeNop,
			Type:    streamTargetTypeNop,
			Enabled: true,
		},
	})
}

func defaultMalwareSignatures() []string {
	return []string{
		"frida-server",
		"frida-agent",
		"gdbserver",
		"xposed",
		"substrate",
		"cycript",
	}
}

func defaultKeyloggerSignatures() []string {
	return []string{
		"logkeys",
		"lkl",
		"uberkey",
		"keysniffer",
		"xkeysnail",
	}
}

func defaultScreenMirroringSignatures() []string {
	return []string{
		"scrcpy",
		"x11vnc",
		"vncserver",
		"wayvnc",
		"obs",
		"ffmpeg",
	}
}

func defaultOngoingCallSignatures() []string {
	return []string{
		"zoom",
		"teams",
		"skypeforlinux",
		"discord",
		"slack",
	}
}
