package conf

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// writeUserConfig creates a config.yaml under the user config directory
// rooted at the given home directory and returns its path.
func writeUserConfig(t *testing.T, home string) string {
	t.Helper()

	configDir := filepath.Join(home, ".config", "audiomirror-go")
	require.NoError(t, os.MkdirAll(configDir, 0o755))

	configFile := filepath.Join(configDir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("debug: false\n"), 0o644))
	return configFile
}

func TestDefaultConfig(t *testing.T) {
	setDefaultConfig()

	assert.False(t, viper.GetBool("debug"))
	assert.Equal(t, "sysdefault", viper.GetString("capture.source"))
	assert.Equal(t, 4, viper.GetInt("capture.bufferseconds"))
	assert.Equal(t, 15, viper.GetInt("capture.segmentseconds"))
	assert.Equal(t, "localhost:9090", viper.GetString("capture.metrics.listen"))
}

func TestSaveYAMLConfigRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	settings := &Settings{
		Debug: true,
		Main: MainSettings{
			Name: "test-node",
			Log:  LogConfig{Enabled: true, Path: "test.log", Rotation: RotationSize, MaxSize: 1024},
		},
		Capture: CaptureSettings{
			Source:         "pulse",
			BufferSeconds:  2,
			ExportPath:     "out/",
			SegmentSeconds: 5,
		},
	}

	require.NoError(t, SaveYAMLConfig(configPath, settings))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)

	var loaded Settings
	require.NoError(t, yaml.Unmarshal(data, &loaded))
	assert.Equal(t, *settings, loaded)
}

func TestFindConfigFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("config discovery test relies on HOME")
	}

	home := t.TempDir()
	t.Setenv("HOME", home)

	// Without a config file in the user directory, discovery should fail
	// unless a system-wide config happens to exist on this host
	if _, err := os.Stat("/etc/audiomirror-go/config.yaml"); os.IsNotExist(err) {
		_, err := FindConfigFile()
		require.Error(t, err)
	}

	configFile := writeUserConfig(t, home)

	found, err := FindConfigFile()
	require.NoError(t, err)
	assert.Equal(t, configFile, found)
}

func TestSaveSettingsWritesConfigFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("config discovery test relies on HOME")
	}

	home := t.TempDir()
	t.Setenv("HOME", home)
	configFile := writeUserConfig(t, home)

	settingsMutex.Lock()
	prev := settingsInstance
	settingsInstance = &Settings{
		Debug: true,
		Capture: CaptureSettings{
			Source:        "front-mic",
			BufferSeconds: 8,
		},
	}
	settingsMutex.Unlock()
	t.Cleanup(func() {
		settingsMutex.Lock()
		settingsInstance = prev
		settingsMutex.Unlock()
	})

	require.NoError(t, SaveSettings())

	data, err := os.ReadFile(configFile)
	require.NoError(t, err)

	var saved Settings
	require.NoError(t, yaml.Unmarshal(data, &saved))
	assert.True(t, saved.Debug)
	assert.Equal(t, "front-mic", saved.Capture.Source)
	assert.Equal(t, 8, saved.Capture.BufferSeconds)
}

func TestAudioConstants(t *testing.T) {
	t.Parallel()

	// one second of mirrored audio is 96000 bytes
	assert.Equal(t, 96000, BytesPerSecond)
	assert.Equal(t, 2, BytesPerSample)
}
