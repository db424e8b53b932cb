package zwconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	opts := Defaults()
	opts.DevicePath = "/dev/ttyACM0"
	require.NoError(t, Validate(opts))
}

func TestValidateRejectsMissingDevicePath(t *testing.T) {
	opts := Defaults()
	err := Validate(opts)
	require.Error(t, err)
	require.Contains(t, err.Error(), "DevicePath")
}

func TestValidateRejectsBadNetworkKeyLength(t *testing.T) {
	opts := Defaults()
	opts.DevicePath = "/dev/ttyACM0"
	opts.NetworkKey = []byte{0x01, 0x02, 0x03}
	err := Validate(opts)
	require.Error(t, err)
	require.Contains(t, err.Error(), "NetworkKey")
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	opts := Defaults()
	opts.DevicePath = "/dev/ttyACM0"
	opts.LogLevel = "VERBOSE"
	err := Validate(opts)
	require.Error(t, err)
	require.Contains(t, err.Error(), "oneof")
}

func TestLoadFallsBackToDefaultsWithoutConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	opts, err := Load(filepath.Join(tmpDir, "does-not-exist.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultBaud, opts.Baud)
	require.Equal(t, DefaultPollInterval, opts.PollInterval)
}

func TestLoadReadsYAMLFileAndEnvOverride(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	content := "" +
		"device_path: /dev/ttyACM0\n" +
		"baud: 115200\n" +
		"log_level: INFO\n" +
		"log_output: stderr\n" +
		"poll_interval: 2s\n" +
		"retry_budget: 3\n" +
		"state_file_path: " + filepath.ToSlash(tmpDir) + "/state.json\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	t.Setenv("ZWAVE_LOG_LEVEL", "DEBUG")

	opts, err := Load(configPath)
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyACM0", opts.DevicePath)
	require.Equal(t, "DEBUG", opts.LogLevel)
	require.Equal(t, 2*time.Second, opts.PollInterval)
}
