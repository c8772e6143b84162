package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNewManager_NoConfigFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")

	mgr, err := NewManager(configFile)
	require.NoError(t, err)
	require.NotNil(t, mgr)

	assert.Equal(t, configFile, mgr.ConfigPath())
	assert.NotNil(t, mgr.AllSettings())
	assert.Equal(t, "ERROR", mgr.Get("policy.root"))
}

func TestNewManager_WithExistingConfig(t *testing.T) {
	configFile := writeConfig(t, `
policy:
  root: WARNING
storage:
  retention_days: 60
`)

	mgr, err := NewManager(configFile)
	require.NoError(t, err)

	assert.Equal(t, "WARNING", mgr.Get("policy.root"))
	assert.Equal(t, 60, mgr.Get("storage.retention_days"))
}

func TestManager_Get_ReturnsDefaults(t *testing.T) {
	mgr, err := NewManager(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	tests := []struct {
		key      string
		expected interface{}
	}{
		{"policy.root", "ERROR"},
		{"policy.keylogger", "WARNING"},
		{"checks.ongoing_call", false},
		{"engine.workers", 4},
		{"disclosure.mode", "auto"},
		{"storage.retention_days", 30},
		{"display.colors", "auto"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.expected, mgr.Get(tt.key))
		})
	}
}

func TestManager_Set_CreatesCompleteConfigFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")

	mgr, err := NewManager(configFile)
	require.NoError(t, err)

	old, err := mgr.Set("policy.keylogger", "ERROR")
	require.NoError(t, err)
	assert.Equal(t, "WARNING", old)

	data, err := os.ReadFile(configFile)
	require.NoError(t, err)

	var configMap map[string]interface{}
	require.NoError(t, yaml.Unmarshal(data, &configMap))

	for _, section := range []string{"policy", "checks", "engine", "disclosure", "signatures", "storage", "display", "streams"} {
		assert.Contains(t, configMap, section)
	}

	p, ok := configMap["policy"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ERROR", p["keylogger"])
	assert.Equal(t, "ERROR", p["root"])
}

func TestManager_Set_AcceptsUnknownPolicyString(t *testing.T) {
	mgr, err := NewManager(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	_, err = mgr.Set("policy.root", "block")
	require.NoError(t, err)
	assert.Equal(t, "block", mgr.Get("policy.root"))
}

func TestManager_Set_RejectsInvalid(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")

	mgr, err := NewManager(configFile)
	require.NoError(t, err)

	_, err = mgr.Set("no.such.key", "x")
	assert.ErrorIs(t, err, ErrUnknownKey)

	_, err = mgr.Set("engine.workers", 0)
	assert.Error(t, err)
	assert.Equal(t, 4, mgr.Get("engine.workers"))

	_, err = os.Stat(configFile)
	assert.True(t, os.IsNotExist(err))
}

func TestManager_Set_PreservesExistingValues(t *testing.T) {
	configFile := writeConfig(t, `
policy:
  developer_options: IGNORE
storage:
  retention_days: 60
`)

	mgr, err := NewManager(configFile)
	require.NoError(t, err)

	_, err = mgr.Set("display.colors", "always")
	require.NoError(t, err)

	assert.Equal(t, "IGNORE", mgr.Get("policy.developer_options"))
	assert.Equal(t, 60, mgr.Get("storage.retention_days"))
	assert.Equal(t, "always", mgr.Get("display.colors"))

	newMgr, err := NewManager(configFile)
	require.NoError(t, err)
	assert.Equal(t, "IGNORE", newMgr.Get("policy.developer_options"))
	assert.Equal(t, "always", newMgr.Get("display.colors"))
}

func TestManager_Reset_RemovesConfigFile(t *testing.T) {
	configFile := writeConfig(t, "policy:\n  root: IGNORE\n")

	mgr, err := NewManager(configFile)
	require.NoError(t, err)
	assert.Equal(t, "IGNORE", mgr.Get("policy.root"))

	require.NoError(t, mgr.Reset())

	_, err = os.Stat(configFile)
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, "ERROR", mgr.Get("policy.root"))
}

func TestManager_Reset_NonExistentFile(t *testing.T) {
	mgr, err := NewManager(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)

	require.NoError(t, mgr.Reset())
}

func TestManager_HasKey(t *testing.T) {
	mgr, err := NewManager(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	assert.True(t, mgr.HasKey("policy.root"))
	assert.True(t, mgr.HasKey("engine.workers"))
	assert.False(t, mgr.HasKey("nonexistent.key"))
}

func TestManager_Set_CreatesConfigDir(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "nested", "config", "dir", "config.yaml")

	mgr, err := NewManager(configFile)
	require.NoError(t, err)

	_, err = mgr.Set("engine.workers", 2)
	require.NoError(t, err)

	_, err = os.Stat(configFile)
	require.NoError(t, err)
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected interface{}
	}{
		{"boolean true", "true", true},
		{"boolean false", "false", false},
		{"string value", "hello", "hello"},
		{"level name", "ERROR", "ERROR"},
		{"integer", "42", 42},
		{"duration", "30s", "30s"},
		{"simple array", "[a, b, c]", []string{"a", "b", "c"}},
		{"empty array", "[]", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseValue(tt.input))
		})
	}
}
