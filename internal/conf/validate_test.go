package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/classmark/classmark-go/internal/errors"
)

func validSettings() *Settings {
	return &Settings{
		Main: MainSettings{Name: "test-node"},
		Camera: CameraSettings{
			DeviceIndex: 0,
			StopKey:     "p",
			TickDelayMs: 1,
		},
		Detection: DetectionSettings{
			CascadePath:  "assets/haarcascade_frontalface_default.xml",
			ScaleFactor:  1.3,
			MinNeighbors: 5,
		},
		Registration: RegistrationSettings{CaptureDelay: 3},
		Output: OutputSettings{
			SQLite: SQLiteSettings{Enabled: true, Path: "test.db"},
		},
	}
}

func TestValidateSettingsAcceptsDefaults(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateSettings(validSettings()))
}

func TestValidateSettingsRejectsBadValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"negative device index", func(s *Settings) { s.Camera.DeviceIndex = -1 }},
		{"multi-character stop key", func(s *Settings) { s.Camera.StopKey = "pq" }},
		{"empty stop key", func(s *Settings) { s.Camera.StopKey = "" }},
		{"no cascade paths", func(s *Settings) {
			s.Detection.CascadePath = ""
			s.Detection.FallbackPath = ""
		}},
		{"scale factor at 1.0", func(s *Settings) { s.Detection.ScaleFactor = 1.0 }},
		{"zero min neighbors", func(s *Settings) { s.Detection.MinNeighbors = 0 }},
		{"negative capture delay", func(s *Settings) { s.Registration.CaptureDelay = -1 }},
		{"no outputs enabled", func(s *Settings) { s.Output.SQLite.Enabled = false }},
		{"sqlite without path", func(s *Settings) { s.Output.SQLite.Path = "" }},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			settings := validSettings()
			tc.mutate(settings)
			err := ValidateSettings(settings)
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, errors.CategoryValidation),
				"expected a validation category error, got %v", err)
		})
	}
}

func TestValidateSettingsClampsTickDelay(t *testing.T) {
	t.Parallel()

	settings := validSettings()
	settings.Camera.TickDelayMs = 0
	require.NoError(t, ValidateSettings(settings))
	assert.Equal(t, 1, settings.Camera.TickDelayMs)
}

func TestSaveSettingsRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	settings := validSettings()
	settings.Detection.MinNeighbors = 7
	require.NoError(t, SaveSettings(configPath, settings))

	// Saving twice must replace, not append.
	settings.Detection.MinNeighbors = 9
	require.NoError(t, SaveSettings(configPath, settings))

	loaded := &Settings{}
	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(data, loaded))
	assert.Equal(t, 9, loaded.Detection.MinNeighbors)
	assert.Equal(t, "p", loaded.Camera.StopKey)
}
