package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yangjinze/EventBus/pkg/eventbus/config"
)

// TestNew verifies Config creation from maps.
func TestNew(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
	}{
		{"nil map", nil},
		{"empty map", map[string]any{}},
		{"with values", map[string]any{"key": "value"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(tt.data)
			assert.False(t, cfg.Bool("nonexistent", false))
		})
	}
}

// TestString verifies string extraction with defaults.
func TestString(t *testing.T) {
	tests := []struct {
		name       string
		data       map[string]any
		key        string
		defaultVal string
		want       string
	}{
		{"key exists", map[string]any{"naming_prefix": "Handle"}, "naming_prefix", "On", "Handle"},
		{"key missing", map[string]any{"other": "value"}, "naming_prefix", "On", "On"},
		{"empty string", map[string]any{"naming_prefix": ""}, "naming_prefix", "On", ""},
		{"wrong type int", map[string]any{"naming_prefix": 123}, "naming_prefix", "On", "On"},
		{"wrong type bool", map[string]any{"naming_prefix": true}, "naming_prefix", "On", "On"},
		{"nil map", nil, "naming_prefix", "On", "On"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(tt.data)
			got := cfg.String(tt.key, tt.defaultVal)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestBool verifies boolean extraction with defaults.
func TestBool(t *testing.T) {
	tests := []struct {
		name       string
		data       map[string]any
		key        string
		defaultVal bool
		want       bool
	}{
		{"true value", map[string]any{"event_inheritance": true}, "event_inheritance", false, true},
		{"false value", map[string]any{"event_inheritance": false}, "event_inheritance", true, false},
		{"key missing default false", map[string]any{"other": true}, "event_inheritance", false, false},
		{"key missing default true", map[string]any{"other": false}, "event_inheritance", true, true},
		{"wrong type string", map[string]any{"event_inheritance": "true"}, "event_inheritance", false, false},
		{"wrong type int", map[string]any{"event_inheritance": 1}, "event_inheritance", false, false},
		{"nil map", nil, "event_inheritance", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(tt.data)
			got := cfg.Bool(tt.key, tt.defaultVal)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestToBusSettingsDefaults verifies the zero-config defaults match
// eventbus.NewBus's own defaults.
func TestToBusSettingsDefaults(t *testing.T) {
	cfg := config.New(nil)
	settings := cfg.ToBusSettings()

	assert.Equal(t, config.BusSettings{
		EventInheritance:             true,
		ThrowSubscriberException:     false,
		SendNoSubscriberEvent:        true,
		SendSubscriberExceptionEvent: true,
		StrictMethodVerification:     false,
		IgnoreGeneratedIndex:         false,
		NamingPrefix:                 "On",
	}, settings)
}

// TestToBusSettingsOverridesEveryField verifies each key maps to its
// corresponding BusSettings field.
func TestToBusSettingsOverridesEveryField(t *testing.T) {
	cfg := config.New(map[string]any{
		"event_inheritance":               false,
		"throw_subscriber_exception":      true,
		"send_no_subscriber_event":        false,
		"send_subscriber_exception_event": false,
		"strict_method_verification":      true,
		"ignore_generated_index":          true,
		"naming_prefix":                   "Handle",
	})

	settings := cfg.ToBusSettings()

	assert.Equal(t, config.BusSettings{
		EventInheritance:             false,
		ThrowSubscriberException:     true,
		SendNoSubscriberEvent:        false,
		SendSubscriberExceptionEvent: false,
		StrictMethodVerification:     true,
		IgnoreGeneratedIndex:         true,
		NamingPrefix:                 "Handle",
	}, settings)
}

// TestFromYAML verifies YAML parsing.
func TestFromYAML(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
		check   func(*testing.T, config.Config)
	}{
		{
			"simple values",
			`naming_prefix: Handle
event_inheritance: false`,
			false,
			func(t *testing.T, cfg config.Config) {
				assert.Equal(t, "Handle", cfg.String("naming_prefix", "On"))
				assert.False(t, cfg.Bool("event_inheritance", true))
			},
		},
		{
			"empty yaml",
			``,
			false,
			func(t *testing.T, cfg config.Config) {
				assert.Equal(t, "On", cfg.String("naming_prefix", "On"))
			},
		},
		{
			"invalid yaml",
			`invalid: yaml: content:`,
			true,
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.FromYAML([]byte(tt.yaml))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

// TestFromJSON verifies JSON parsing.
func TestFromJSON(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr bool
		check   func(*testing.T, config.Config)
	}{
		{
			"simple values",
			`{"naming_prefix": "Handle", "event_inheritance": false}`,
			false,
			func(t *testing.T, cfg config.Config) {
				assert.Equal(t, "Handle", cfg.String("naming_prefix", "On"))
				assert.False(t, cfg.Bool("event_inheritance", true))
			},
		},
		{
			"empty json",
			`{}`,
			false,
			func(t *testing.T, cfg config.Config) {
				assert.Equal(t, "On", cfg.String("naming_prefix", "On"))
			},
		},
		{
			"invalid json",
			`{invalid json}`,
			true,
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.FromJSON([]byte(tt.json))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

// TestFromFile verifies file loading with extension detection.
func TestFromFile(t *testing.T) {
	tmpDir := t.TempDir()

	yamlPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`naming_prefix: FromYAML`), 0o644))

	jsonPath := filepath.Join(tmpDir, "config.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"naming_prefix": "FromJSON"}`), 0o644))

	txtPath := filepath.Join(tmpDir, "config.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("content"), 0o644))

	tests := []struct {
		name    string
		path    string
		wantErr bool
		errMsg  string
		check   func(*testing.T, config.Config)
	}{
		{
			"yaml file",
			yamlPath,
			false,
			"",
			func(t *testing.T, cfg config.Config) {
				assert.Equal(t, "FromYAML", cfg.String("naming_prefix", "On"))
			},
		},
		{
			"json file",
			jsonPath,
			false,
			"",
			func(t *testing.T, cfg config.Config) {
				assert.Equal(t, "FromJSON", cfg.String("naming_prefix", "On"))
			},
		},
		{
			"unsupported extension",
			txtPath,
			true,
			"unsupported config file extension",
			nil,
		},
		{
			"file not found",
			filepath.Join(tmpDir, "nonexistent.yaml"),
			true,
			"read config file",
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.FromFile(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

// TestFromFileCaseInsensitiveExtension verifies extension matching is case-insensitive.
func TestFromFileCaseInsensitiveExtension(t *testing.T) {
	tmpDir := t.TempDir()

	yamlPath := filepath.Join(tmpDir, "config.YAML")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`naming_prefix: Upper`), 0o644))

	cfg, err := config.FromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "Upper", cfg.String("naming_prefix", "On"))
}
