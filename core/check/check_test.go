package check

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Kind
		wantErr bool
	}{
		{"config key", "root", KindRoot, false},
		{"action name", "checkKeyLogger", KindKeylogger, false},
		{"optional key", "certificate_mismatch", KindCertificateMismatch, false},
		{"optional action", "checkOngoingCall", KindOngoingCall, false},
		{"case sensitive", "Root", 0, true},
		{"unknown", "bogus", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKind(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownKind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAll_DetectionOrder(t *testing.T) {
	all := All()
	require.Len(t, all, NumKinds)

	keys := make([]string, len(all))
	for i, k := range all {
		keys[i] = k.Key()
	}
	assert.Equal(t, []string{
		"root",
		"developer_options",
		"malware_tampering",
		"network_security",
		"screen_mirroring",
		"app_spoofing",
		"keylogger",
		"ongoing_call",
		"certificate_mismatch",
	}, keys)
}

func TestKind_Names(t *testing.T) {
	for _, k := range All() {
		assert.NotEmpty(t, k.Action(), k.Key())
		assert.NotEqual(t, k.Title(), k.SingleTitle(), k.Key())

		parsed, err := ParseKind(k.Action())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}

	assert.True(t, KindOngoingCall.Optional())
	assert.True(t, KindCertificateMismatch.Optional())
	assert.False(t, KindRoot.Optional())

	invalid := Kind(NumKinds)
	assert.False(t, invalid.Valid())
	assert.Equal(t, "unknown", invalid.Key())
	assert.Empty(t, invalid.Action())
}

func TestKind_JSON(t *testing.T) {
	type wrapper struct {
		Kind Kind `json:"kind"`
	}

	data, err := json.Marshal(wrapper{Kind: KindScreenMirroring})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"screen_mirroring"}`, string(data))

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"checkNetwork"}`), &w))
	assert.Equal(t, KindNetworkSecurity, w.Kind)

	assert.Error(t, json.Unmarshal([]byte(`{"kind":"bogus"}`), &w))

	_, err = json.Marshal(wrapper{Kind: Kind(-1)})
	assert.Error(t, err)
}

func TestResult(t *testing.T) {
	tests := []struct {
		name     string
		result   Result
		severity Severity
		message  string
	}{
		{"zero value is success", Result{}, SeveritySuccess, ""},
		{"success", Success(), SeveritySuccess, ""},
		{"warning", Warning("debugger attached"), SeverityWarning, "debugger attached"},
		{"critical", Critical("  su found "), SeverityCritical, "su found"},
		{"empty warning message", Warning(""), SeverityWarning, "Security check failed"},
		{"blank critical message", Critical("   "), SeverityCritical, "Security check failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.severity, tt.result.Severity())
			assert.Equal(t, tt.message, tt.result.Message())
			assert.Equal(t, tt.severity == SeveritySuccess, tt.result.IsSuccess())
			assert.Equal(t, tt.severity == SeverityCritical, tt.result.IsCritical())
		})
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		input string
		want  Severity
		ok    bool
	}{
		{"", SeveritySuccess, true},
		{"success", SeveritySuccess, true},
		{"WARNING", SeverityWarning, true},
		{" critical ", SeverityCritical, true},
		{"fatal", SeveritySuccess, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseSeverity(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
