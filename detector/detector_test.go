package detector

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/safedep/safeguard/core/check"
	"github.com/safedep/safeguard/core/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeProc(t *testing.T, tracer int, procs ...string) string {
	t.Helper()

	root := t.TempDir()
	self := filepath.Join(root, "self")
	require.NoError(t, os.MkdirAll(self, 0o755))

	status := "Name:\tsafeguard\nState:\tR (running)\nTracerPid:\t" + strconv.Itoa(tracer) + "\nUid:\t1000\n"
	require.NoError(t, os.WriteFile(filepath.Join(self, "status"), []byte(status), 0o644))

	for i, name := range procs {
		dir := filepath.Join(root, strconv.Itoa(100+i))
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "comm"), []byte(name+"\n"), 0o644))
	}

	return root
}

func envOf(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func detect(t *testing.T, h *Host, kind check.Kind) check.Result {
	t.Helper()

	for _, d := range h.Detectors() {
		if d.Kind() == kind {
			res, err := d.Detect(context.Background())
			require.NoError(t, err)
			return res
		}
	}

	t.Fatalf("no detector for %s", kind)
	return check.Result{}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(check.DetectorFunc{K: check.KindKeylogger, Fn: func(context.Context) (check.Result, error) {
		return check.Success(), nil
	}})
	r.Register(check.DetectorFunc{K: check.KindRoot, Fn: func(context.Context) (check.Result, error) {
		return check.Critical("uid 0"), nil
	}})

	assert.Equal(t, []check.Kind{check.KindRoot, check.KindKeylogger}, r.Kinds())

	d, ok := r.Get(check.KindRoot)
	require.True(t, ok)
	res, err := d.Detect(context.Background())
	require.NoError(t, err)
	assert.True(t, res.IsCritical())

	_, ok = r.Get(check.KindAppSpoofing)
	assert.False(t, ok)

	assert.Equal(t, []check.Kind{check.KindAppSpoofing}, r.Missing([]check.Kind{check.KindRoot, check.KindAppSpoofing}))
}

func TestHost_CoversEveryKind(t *testing.T) {
	r := NewRegistry()
	NewHost(Environment{ProcRoot: t.TempDir()}, Signatures{}, policy.Identity{}).Register(r)
	assert.Equal(t, check.All(), r.Kinds())
	assert.Empty(t, r.Missing(check.All()))
}

func TestHost_Root(t *testing.T) {
	tests := []struct {
		name     string
		euid     int
		severity check.Severity
	}{
		{"root", 0, check.SeverityCritical},
		{"user", 1000, check.SeveritySuccess},
		{"unsupported platform", -1, check.SeveritySuccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			euid := tt.euid
			h := NewHost(Environment{Geteuid: func() int { return euid }}, Signatures{}, policy.Identity{})
			assert.Equal(t, tt.severity, detect(t, h, check.KindRoot).Severity())
		})
	}
}

func TestHost_DeveloperOptions(t *testing.T) {
	tests := []struct {
		name     string
		tracer   int
		env      map[string]string
		severity check.Severity
		contains string
	}{
		{"clean", 0, nil, check.SeveritySuccess, ""},
		{"tracer attached", 4242, nil, check.SeverityWarning, "tracer pid 4242"},
		{"godebug", 0, map[string]string{"GODEBUG": "gctrace=1"}, check.SeverityWarning, "GODEBUG=gctrace=1"},
		{"default traceback", 0, map[string]string{"GOTRACEBACK": "single"}, check.SeveritySuccess, ""},
		{"crash traceback", 0, map[string]string{"GOTRACEBACK": "crash"}, check.SeverityWarning, "GOTRACEBACK"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := Environment{ProcRoot: fakeProc(t, tt.tracer), Getenv: envOf(tt.env)}
			res := detect(t, NewHost(env, Signatures{}, policy.Identity{}), check.KindDeveloperOptions)
			assert.Equal(t, tt.severity, res.Severity())
			assert.Contains(t, res.Message(), tt.contains)
		})
	}
}

func TestHost_Malware(t *testing.T) {
	sigs := Signatures{Malware: []string{"frida-server"}}

	t.Run("preload", func(t *testing.T) {
		env := Environment{ProcRoot: fakeProc(t, 0), Getenv: envOf(map[string]string{"LD_PRELOAD": "/tmp/hook.so"})}
		res := detect(t, NewHost(env, sigs, policy.Identity{}), check.KindMalwareOrTampering)
		assert.True(t, res.IsCritical())
		assert.Contains(t, res.Message(), "LD_PRELOAD")
	})

	t.Run("signature process", func(t *testing.T) {
		env := Environment{ProcRoot: fakeProc(t, 0, "bash", "frida-server"), Getenv: envOf(nil)}
		res := detect(t, NewHost(env, sigs, policy.Identity{}), check.KindMalwareOrTampering)
		assert.True(t, res.IsCritical())
		assert.Contains(t, res.Message(), "frida-server")
	})

	t.Run("clean", func(t *testing.T) {
		env := Environment{ProcRoot: fakeProc(t, 0, "bash"), Getenv: envOf(nil)}
		res := detect(t, NewHost(env, sigs, policy.Identity{}), check.KindMalwareOrTampering)
		assert.True(t, res.IsSuccess())
	})
}

func TestHost_Network(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		severity check.Severity
	}{
		{"no proxy", nil, check.SeveritySuccess},
		{"https proxy", map[string]string{"HTTPS_PROXY": "https://proxy.corp:8443"}, check.SeveritySuccess},
		{"plain http proxy", map[string]string{"https_proxy": "http://10.0.0.5:8080"}, check.SeverityWarning},
		{"loopback proxy", map[string]string{"HTTP_PROXY": "http://127.0.0.1:3128"}, check.SeveritySuccess},
		{"node tls disabled", map[string]string{"NODE_TLS_REJECT_UNAUTHORIZED": "0"}, check.SeverityWarning},
		{"node tls enabled", map[string]string{"NODE_TLS_REJECT_UNAUTHORIZED": "1"}, check.SeveritySuccess},
		{"git ssl", map[string]string{"GIT_SSL_NO_VERIFY": "true"}, check.SeverityWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHost(Environment{Getenv: envOf(tt.env)}, Signatures{}, policy.Identity{})
			assert.Equal(t, tt.severity, detect(t, h, check.KindNetworkSecurity).Severity())
		})
	}
}

func TestHost_ScreenMirroring(t *testing.T) {
	sigs := Signatures{ScreenMirroring: []string{"scrcpy"}}

	tests := []struct {
		name     string
		env      map[string]string
		procs    []string
		severity check.Severity
	}{
		{"local display", map[string]string{"DISPLAY": ":0"}, nil, check.SeveritySuccess},
		{"forwarded display", map[string]string{"DISPLAY": "localhost:10.0", "SSH_CONNECTION": "1.2.3.4 5 6.7.8.9 22"}, nil, check.SeverityWarning},
		{"remote display without ssh", map[string]string{"DISPLAY": "localhost:10.0"}, nil, check.SeveritySuccess},
		{"signature", nil, []string{"scrcpy"}, check.SeverityWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := Environment{ProcRoot: fakeProc(t, 0, tt.procs...), Getenv: envOf(tt.env)}
			assert.Equal(t, tt.severity, detect(t, NewHost(env, sigs, policy.Identity{}), check.KindScreenMirroring).Severity())
		})
	}
}

func TestHost_AppSpoofing(t *testing.T) {
	running := func() string { return "github.com/safedep/safeguard" }

	h := NewHost(Environment{RunningAppID: running}, Signatures{}, policy.Identity{ExpectedAppID: "github.com/safedep/safeguard"})
	assert.True(t, detect(t, h, check.KindAppSpoofing).IsSuccess())

	h = NewHost(Environment{RunningAppID: running}, Signatures{}, policy.Identity{ExpectedAppID: "com.example.bank"})
	res := detect(t, h, check.KindAppSpoofing)
	assert.True(t, res.IsCritical())
	assert.Contains(t, res.Message(), "com.example.bank")
}

func TestHost_SignatureKinds(t *testing.T) {
	sigs := Signatures{
		Keylogger:   []string{"logkeys"},
		OngoingCall: []string{"zoom"},
	}
	env := Environment{ProcRoot: fakeProc(t, 0, "logkeys", "zoom"), Getenv: envOf(nil)}
	h := NewHost(env, sigs, policy.Identity{})

	assert.True(t, detect(t, h, check.KindKeylogger).IsCritical())
	assert.Equal(t, check.SeverityWarning, detect(t, h, check.KindOngoingCall).Severity())
}

func TestHost_Certificate(t *testing.T) {
	exe := filepath.Join(t.TempDir(), "app")
	content := []byte("signed binary")
	require.NoError(t, os.WriteFile(exe, content, 0o755))

	sum := sha256.Sum256(content)
	fingerprint := hex.EncodeToString(sum[:])
	executable := func() (string, error) { return exe, nil }

	tests := []struct {
		name     string
		expected string
		severity check.Severity
	}{
		{"disabled", "", check.SeveritySuccess},
		{"match", fingerprint, check.SeveritySuccess},
		{"mismatch", "00" + fingerprint[2:], check.SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHost(Environment{Executable: executable}, Signatures{}, policy.Identity{ExpectedCertFingerprint: tt.expected})
			assert.Equal(t, tt.severity, detect(t, h, check.KindCertificateMismatch).Severity())
		})
	}

	t.Run("unreadable executable is a fault", func(t *testing.T) {
		missing := func() (string, error) { return filepath.Join(t.TempDir(), "gone"), nil }
		h := NewHost(Environment{Executable: missing}, Signatures{}, policy.Identity{ExpectedCertFingerprint: fingerprint})
		for _, d := range h.Detectors() {
			if d.Kind() == check.KindCertificateMismatch {
				_, err := d.Detect(context.Background())
				assert.Error(t, err)
			}
		}
	})
}

func TestMatchSignature(t *testing.T) {
	names := []string{"systemd", "Frida-Server", "screen-recorder"}

	sig, ok := matchSignature(names, []string{"frida-server"})
	assert.True(t, ok)
	assert.Equal(t, "frida-server", sig)

	sig, ok = matchSignature(names, []string{"screen-recorder-daemon"})
	assert.True(t, ok, "comm names are truncated to 15 bytes")
	assert.Equal(t, "screen-recorder-daemon", sig)

	_, ok = matchSignature(names, []string{"recorder"})
	assert.False(t, ok)

	_, ok = matchSignature(names, nil)
	assert.False(t, ok)
}

func TestProcessNames_MissingProcfs(t *testing.T) {
	names, err := processNames(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestParseScenario(t *testing.T) {
	data := []byte(`
name: rooted device
checks:
  root:
    severity: critical
    message: su binary found
  checkKeyLogger:
    severity: warning
    message: accessibility hook
    delay: 10ms
  network_security:
    fault: resolver unavailable
`)

	s, err := ParseScenario(data)
	require.NoError(t, err)
	assert.Equal(t, "rooted device", s.Name)

	r := NewRegistry()
	s.Register(r)
	assert.Equal(t, check.All(), r.Kinds())

	ctx := context.Background()

	d, _ := r.Get(check.KindRoot)
	res, err := d.Detect(ctx)
	require.NoError(t, err)
	assert.True(t, res.IsCritical())
	assert.Equal(t, "su binary found", res.Message())

	d, _ = r.Get(check.KindKeylogger)
	start := time.Now()
	res, err = d.Detect(ctx)
	require.NoError(t, err)
	assert.Equal(t, check.SeverityWarning, res.Severity())
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)

	d, _ = r.Get(check.KindNetworkSecurity)
	_, err = d.Detect(ctx)
	assert.EqualError(t, err, "resolver unavailable")

	d, _ = r.Get(check.KindAppSpoofing)
	res, err = d.Detect(ctx)
	require.NoError(t, err)
	assert.True(t, res.IsSuccess())
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown kind", "checks:\n  jailbreak:\n    severity: critical\n"},
		{"unknown severity", "checks:\n  root:\n    severity: fatal\n"},
		{"bad delay", "checks:\n  root:\n    delay: soon\n"},
		{"not yaml", "checks: [unterminated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestScenario_DelayHonoursCancellation(t *testing.T) {
	s, err := ParseScenario([]byte("checks:\n  root:\n    severity: critical\n    delay: 1h\n"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, d := range s.Detectors() {
		if d.Kind() == check.KindRoot {
			_, err := d.Detect(ctx)
			assert.ErrorIs(t, err, context.Canceled)
		}
	}
}
