// Package check defines the integrity checks the engine knows about and the
// raw results their detectors produce.
package check

import (
	"errors"
	"fmt"
)

// ErrUnknownKind is returned when a name does not map to any CheckKind.
var ErrUnknownKind = errors.New("unknown check kind")

// Kind identifies one integrity check. The set is closed.
type Kind int

const (
	// KindRoot detects a rooted device or a privileged process.
	KindRoot Kind = iota
	// KindDeveloperOptions detects developer / debugging exposure.
	KindDeveloperOptions
	// KindMalwareOrTampering detects malware signatures or code injection.
	KindMalwareOrTampering
	// KindNetworkSecurity detects insecure network transport.
	KindNetworkSecurity
	// KindScreenMirroring detects screen mirroring or capture.
	KindScreenMirroring
	// KindAppSpoofing detects an application identity mismatch.
	KindAppSpoofing
	// KindKeylogger detects keylogging or accessibility abuse.
	KindKeylogger
	// KindOngoingCall detects an unexpected ongoing call. Optional.
	KindOngoingCall
	// KindCertificateMismatch detects a signing certificate mismatch. Optional.
	KindCertificateMismatch
)

// NumKinds is the size of the closed kind set.
const NumKinds = int(KindCertificateMismatch) + 1

// kindInfo holds the static naming data for a kind.
type kindInfo struct {
	key         string
	action      string
	title       string
	singleTitle string
	optional    bool
}

var kinds = [NumKinds]kindInfo{
	KindRoot:                {"root", "checkRoot", "Root Access Detected", "Root Access Check", false},
	KindDeveloperOptions:    {"developer_options", "checkDeveloperOptions", "Developer Options Enabled", "Developer Options Check", false},
	KindMalwareOrTampering:  {"malware_tampering", "checkMalware", "Malware Detected", "Malware Check", false},
	KindNetworkSecurity:     {"network_security", "checkNetwork", "Network Security Issue", "Network Security Check", false},
	KindScreenMirroring:     {"screen_mirroring", "checkScreenMirroring", "Screen Mirroring Detected", "Screen Mirroring Check", false},
	KindAppSpoofing:         {"app_spoofing", "checkAppSpoofing", "App Spoofing Detected", "App Spoofing Check", false},
	KindKeylogger:           {"keylogger", "checkKeyLogger", "Keylogger Detected", "Keylogger Check", false},
	KindOngoingCall:         {"ongoing_call", "checkOngoingCall", "Ongoing Call Detected", "Ongoing Call Check", true},
	KindCertificateMismatch: {"certificate_mismatch", "checkCertificate", "Certificate Mismatch Detected", "Certificate Check", true},
}

// All returns every kind in the fixed detection order.
func All() []Kind {
	out := make([]Kind, len(kinds))
	for i := range kinds {
		out[i] = Kind(i)
	}
	return out
}

// Valid reports whether k is a member of the closed set.
func (k Kind) Valid() bool {
	return k >= 0 && int(k) < len(kinds)
}

// Key returns the configuration key for the kind, e.g. "developer_options".
func (k Kind) Key() string {
	if !k.Valid() {
		return "unknown"
	}
	return kinds[k].key
}

// String returns the configuration key.
func (k Kind) String() string {
	return k.Key()
}

// Action returns the bridge action name for a single check of this kind.
func (k Kind) Action() string {
	if !k.Valid() {
		return ""
	}
	return kinds[k].action
}

// Title is the heading used when a violation is found during a full pass.
func (k Kind) Title() string {
	if !k.Valid() {
		return "Unknown Check"
	}
	return kinds[k].title
}

// SingleTitle is the heading used for an on-demand single check.
func (k Kind) SingleTitle() string {
	if !k.Valid() {
		return "Unknown Check"
	}
	return kinds[k].singleTitle
}

// Optional reports whether the kind only runs when explicitly enabled.
func (k Kind) Optional() bool {
	return k.Valid() && kinds[k].optional
}

// ParseKind maps a configuration key or bridge action name to a Kind.
func ParseKind(name string) (Kind, error) {
	for i, info := range kinds {
		if name == info.key || name == info.action {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// MarshalText encodes the kind as its configuration key.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	return []byte(k.Key()), nil
}

// UnmarshalText decodes a configuration key or action name.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
