package mirror

import (
	"encoding/hex"
	"fmt"
	"runtime"
	"strings"

	"github.com/gen2brain/malgo"

	"github.com/audiomirror/audiomirror-go/internal/errors"
)

// AudioDeviceInfo holds information about an audio capture device.
type AudioDeviceInfo struct {
	Index int
	Name  string
	ID    string
}

// ListAudioSources returns a list of available audio capture devices.
func ListAudioSources() ([]AudioDeviceInfo, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, errors.New(err).
			Component("mirror").
			Category(errors.CategoryAudioCapture).
			Context("operation", "init-malgo-context").
			Build()
	}
	defer ctx.Uninit() //nolint:errcheck

	infos, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, errors.New(err).
			Component("mirror").
			Category(errors.CategoryAudioCapture).
			Context("operation", "enumerate-devices").
			Build()
	}

	devices := make([]AudioDeviceInfo, 0, len(infos))
	for i, info := range infos {
		decodedID, err := hexToASCII(info.ID.String())
		if err != nil {
			getLogger().Warn("skipping device with undecodable ID", "index", i, "error", err)
			continue
		}

		devices = append(devices, AudioDeviceInfo{
			Index: i,
			Name:  info.Name(),
			ID:    decodedID,
		})
	}

	return devices, nil
}

// matchesDeviceSettings checks if the device matches the source specified by the user.
func matchesDeviceSettings(decodedID string, info malgo.DeviceInfo, audioSource string) bool {
	if runtime.GOOS == "windows" && audioSource == "sysdefault" {
		// On Windows there is no "sysdefault" device, use miniaudio's default device instead.
		return info.IsDefault == 1
	}
	// Check if the decoded ID or device name matches the user's setting.
	return decodedID == audioSource || strings.Contains(info.Name(), audioSource)
}

// hexToASCII converts a hexadecimal string to an ASCII string.
func hexToASCII(hexStr string) (string, error) {
	decoded, err := hex.DecodeString(hexStr)
	if err != nil {
		return "", fmt.Errorf("decoding device ID: %w", err)
	}
	return string(decoded), nil
}
