package detector

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/safedep/safeguard/core/check"
	"github.com/safedep/safeguard/core/policy"
)

// Signatures lists process names that indicate a threat, per kind.
type Signatures struct {
	Malware         []string
	Keylogger       []string
	ScreenMirroring []string
	OngoingCall     []string
}

// Environment is the view of the host the probes read. Zero fields fall back
// to the real host.
type Environment struct {
	Getenv       func(string) string
	Geteuid      func() int
	ProcRoot     string
	Executable   func() (string, error)
	RunningAppID func() string
}

func (e Environment) withDefaults() Environment {
	if e.Getenv == nil {
		e.Getenv = os.Getenv
	}
	if e.Geteuid == nil {
		e.Geteuid = os.Geteuid
	}
	if e.ProcRoot == "" {
		e.ProcRoot = "/proc"
	}
	if e.Executable == nil {
		e.Executable = os.Executable
	}
	if e.RunningAppID == nil {
		e.RunningAppID = func() string { return "" }
	}
	return e
}

// Host probes the local machine. Each probe answers Success when its
// condition cannot be observed on this platform.
type Host struct {
	env      Environment
	sigs     Signatures
	identity policy.Identity
}

// NewHost creates host probes for the given environment.
func NewHost(env Environment, sigs Signatures, identity policy.Identity) *Host {
	return &Host{
		env:      env.withDefaults(),
		sigs:     sigs,
		identity: identity,
	}
}

// Detectors returns one detector per kind, in detection order.
func (h *Host) Detectors() []check.Detector {
	probes := map[check.Kind]func(context.Context) (check.Result, error){
		check.KindRoot:                h.root,
		check.KindDeveloperOptions:    h.developerOptions,
		check.KindMalwareOrTampering:  h.malware,
		check.KindNetworkSecurity:     h.network,
		check.KindScreenMirroring:     h.screenMirroring,
		check.KindAppSpoofing:         h.appSpoofing,
		check.KindKeylogger:           h.keylogger,
		check.KindOngoingCall:         h.ongoingCall,
		check.KindCertificateMismatch: h.certificate,
	}

	out := make([]check.Detector, 0, len(probes))
	for _, kind := range check.All() {
		out = append(out, check.DetectorFunc{K: kind, Fn: probes[kind]})
	}
	return out
}

// Register adds every host probe to r.
func (h *Host) Register(r *Registry) {
	for _, d := range h.Detectors() {
		r.Register(d)
	}
}

func (h *Host) root(context.Context) (check.Result, error) {
	if h.env.Geteuid() == 0 {
		return check.Critical("Process is running with root privileges (uid 0)"), nil
	}
	return check.Success(), nil
}

var debugEnv = []string{"GODEBUG", "GOTRACEBACK"}

func (h *Host) developerOptions(context.Context) (check.Result, error) {
	pid, err := tracerPID(h.env.ProcRoot)
	if err != nil {
		return check.Result{}, fmt.Errorf("failed to read tracer pid: %w", err)
	}
	if pid != 0 {
		return check.Warning(fmt.Sprintf("A debugger is attached (tracer pid %d)", pid)), nil
	}

	for _, name := range debugEnv {
		if v := h.env.Getenv(name); v != "" && !(name == "GOTRACEBACK" && v == "single") {
			return check.Warning(fmt.Sprintf("Debug environment is enabled (%s=%s)", name, v)), nil
		}
	}

	return check.Success(), nil
}

var injectionEnv = []string{"LD_PRELOAD", "LD_AUDIT", "DYLD_INSERT_LIBRARIES"}

func (h *Host) malware(context.Context) (check.Result, error) {
	for _, name := range injectionEnv {
		if v := h.env.Getenv(name); v != "" {
			return check.Critical(fmt.Sprintf("Library injection through %s: %s", name, v)), nil
		}
	}

	return h.signature(h.sigs.Malware, check.Critical, "Suspicious process is running")
}

var (
	proxyEnv = []string{"HTTPS_PROXY", "https_proxy", "HTTP_PROXY", "http_proxy", "ALL_PROXY", "all_proxy"}

	// insecureTLSEnv maps a variable to the value that disables verification.
	// An empty value means any non-empty setting does.
	insecureTLSEnv = map[string]string{
		"NODE_TLS_REJECT_UNAUTHORIZED": "0",
		"PYTHONHTTPSVERIFY":            "0",
		"GIT_SSL_NO_VERIFY":            "",
	}
)

func (h *Host) network(context.Context) (check.Result, error) {
	for _, name := range proxyEnv {
		raw := h.env.Getenv(name)
		if raw == "" {
			continue
		}

		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			continue
		}
		if u.Scheme == "http" && !isLoopback(u.Hostname()) {
			return check.Warning(fmt.Sprintf("Traffic is routed through an unencrypted proxy (%s=%s)", name, u.Host)), nil
		}
	}

	for _, name := range sortedKeys(insecureTLSEnv) {
		v := h.env.Getenv(name)
		if v == "" {
			continue
		}
		if want := insecureTLSEnv[name]; want == "" || v == want {
			return check.Warning(fmt.Sprintf("TLS certificate verification is disabled (%s=%s)", name, v)), nil
		}
	}

	return check.Success(), nil
}

func (h *Host) screenMirroring(context.Context) (check.Result, error) {
	if display := h.env.Getenv("DISPLAY"); display != "" && h.env.Getenv("SSH_CONNECTION") != "" {
		host, _, _ := strings.Cut(display, ":")
		if host != "" && host != "unix" {
			return check.Warning(fmt.Sprintf("X display is forwarded over SSH (DISPLAY=%s)", display)), nil
		}
	}

	return h.signature(h.sigs.ScreenMirroring, check.Warning, "Screen sharing application is running")
}

func (h *Host) appSpoofing(context.Context) (check.Result, error) {
	expected := h.identity.ExpectedAppID
	running := h.env.RunningAppID()
	if expected == "" || running == "" || expected == running {
		return check.Success(), nil
	}
	return check.Critical(fmt.Sprintf("Application identity %q does not match expected %q", running, expected)), nil
}

func (h *Host) keylogger(context.Context) (check.Result, error) {
	return h.signature(h.sigs.Keylogger, check.Critical, "Input capture process is running")
}

func (h *Host) ongoingCall(context.Context) (check.Result, error) {
	return h.signature(h.sigs.OngoingCall, check.Warning, "Call application is active")
}

func (h *Host) certificate(context.Context) (check.Result, error) {
	expected := h.identity.ExpectedCertFingerprint
	if expected == "" {
		return check.Success(), nil
	}

	exe, err := h.env.Executable()
	if err != nil {
		return check.Result{}, fmt.Errorf("failed to locate executable: %w", err)
	}

	actual, err := fileDigest(exe)
	if err != nil {
		return check.Result{}, err
	}

	if actual != expected {
		return check.Critical(fmt.Sprintf("Executable fingerprint %s does not match the expected fingerprint", actual)), nil
	}
	return check.Success(), nil
}

func (h *Host) signature(sigs []string, mk func(string) check.Result, what string) (check.Result, error) {
	if len(sigs) == 0 {
		return check.Success(), nil
	}

	names, err := processNames(h.env.ProcRoot)
	if err != nil {
		return check.Result{}, fmt.Errorf("failed to list processes: %w", err)
	}

	if sig, ok := matchSignature(names, sigs); ok {
		return mk(fmt.Sprintf("%s: %s", what, sig)), nil
	}
	return check.Success(), nil
}

// fileDigest returns the lowercase hex SHA-256 of the file at path.
func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func isLoopback(host string) bool {
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
