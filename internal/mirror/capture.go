package mirror

import (
	"encoding/binary"
	"math"
	"runtime"
	"strings"
	"sync"
	"time"
	"unsafe"

	"github.com/gen2brain/malgo"

	"github.com/audiomirror/audiomirror-go/internal/conf"
	"github.com/audiomirror/audiomirror-go/internal/errors"
)

// MalgoSource is the stream buffer key used for the local capture device.
const MalgoSource = "malgo"

// captureSource holds information about a selected audio capture device.
type captureSource struct {
	Name    string
	ID      string
	Pointer unsafe.Pointer
}

// AudioLevelData reports the RMS level of the most recent capture callback.
type AudioLevelData struct {
	Level    int // 0-100
	Clipping bool
}

// CaptureAudio starts the local device capture. The malgo data callback is
// the producer side of the stream buffer: it runs on the audio backend's
// realtime thread and must never block, which is why the buffer write path
// is spin-locked only.
func CaptureAudio(settings *conf.Settings, wg *sync.WaitGroup, quitChan, restartChan chan struct{}, audioLevelChan chan AudioLevelData) {
	wg.Add(1)
	go captureAudioMalgo(settings, wg, quitChan, restartChan, audioLevelChan)
}

// selectCaptureSource selects a capture device matching the configured source
// from the available device information.
func selectCaptureSource(settings *conf.Settings, infos []malgo.DeviceInfo) (captureSource, error) {
	logger := getLogger()

	var selectedSource captureSource
	var deviceFound bool

	for i, info := range infos {
		decodedID, err := hexToASCII(info.ID.String())
		if err != nil {
			logger.Warn("skipping device with undecodable ID", "index", i, "error", err)
			continue
		}

		if matchesDeviceSettings(decodedID, info, settings.Capture.Source) {
			selectedSource = captureSource{
				Name:    info.Name(),
				ID:      decodedID,
				Pointer: info.ID.Pointer(),
			}
			deviceFound = true
		}

		logger.Debug("capture source", "index", i, "name", info.Name(), "id", decodedID)
	}

	if !deviceFound {
		return captureSource{}, errors.Newf("no suitable capture source found for device setting %s", settings.Capture.Source).
			Component("mirror").
			Category(errors.CategoryAudioCapture).
			Context("operation", "select-capture-source").
			Build()
	}

	return selectedSource, nil
}

// captureBackend returns the preferred miniaudio backend for the current OS.
func captureBackend() malgo.Backend {
	switch runtime.GOOS {
	case "linux":
		return malgo.BackendAlsa
	case "windows":
		return malgo.BackendWasapi
	case "darwin":
		return malgo.BackendCoreaudio
	default:
		return malgo.BackendNull
	}
}

func captureAudioMalgo(settings *conf.Settings, wg *sync.WaitGroup, quitChan, restartChan chan struct{}, audioLevelChan chan AudioLevelData) {
	defer wg.Done()
	logger := getLogger()

	for {
		restart := runCaptureDevice(settings, quitChan, restartChan, audioLevelChan)
		if !restart {
			return
		}
		// The buffered audio predates the restart, drop it before the new
		// device starts producing
		if err := ClearStreamBuffer(MalgoSource); err != nil {
			logger.Warn("clearing stream buffer failed", "error", err)
		}
		logger.Info("reinitializing capture device")
	}
}

// runCaptureDevice initializes and runs the capture device until a quit or
// restart signal arrives. It reports whether the capture should be restarted.
func runCaptureDevice(settings *conf.Settings, quitChan, restartChan chan struct{}, audioLevelChan chan AudioLevelData) bool {
	logger := getLogger()
	var device *malgo.Device

	malgoCtx, err := malgo.InitContext([]malgo.Backend{captureBackend()}, malgo.ContextConfig{}, func(message string) {
		if settings.Debug {
			logger.Debug("miniaudio", "message", strings.TrimSpace(message))
		}
	})
	if err != nil {
		logger.Error("capture context init failed", "error", err)
		return false
	}
	defer malgoCtx.Uninit() //nolint:errcheck

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = conf.NumChannels
	deviceConfig.SampleRate = conf.SampleRate
	deviceConfig.Alsa.NoMMap = 1

	infos, err := malgoCtx.Devices(malgo.Capture)
	if err != nil {
		logger.Error("listing capture devices failed", "error", err)
		return false
	}

	source, err := selectCaptureSource(settings, infos)
	if err != nil {
		logger.Error("selecting capture source failed", "error", err)
		return false
	}
	deviceConfig.Capture.DeviceID = source.Pointer

	// The data callback mirrors received frames into the stream buffer;
	// StreamMonitor polls that buffer and drains it.
	onReceiveFrames := func(pOutputSamples, pInputSamples []byte, framecount uint32) {
		if err := WriteToStreamBuffer(MalgoSource, pInputSamples); err != nil {
			logger.Warn("stream buffer write failed", "error", err)
		}

		audioLevelData := calculateAudioLevel(pInputSamples)

		// Send level to channel without ever blocking the audio thread
		select {
		case audioLevelChan <- audioLevelData:
		default:
		}
	}

	// onStopDevice is called when the device stops, either normally or unexpectedly
	onStopDevice := func() {
		go func() {
			select {
			case <-quitChan:
				// Quit signal has been received, do not attempt to restart
				return
			case <-time.After(100 * time.Millisecond):
				// Wait a bit before restarting to avoid rapid restart loops
				logger.Info("attempting to restart audio device")
				if err := device.Start(); err != nil {
					logger.Error("failed to restart audio device, requesting full restart", "error", err)
					time.Sleep(1 * time.Second)
					restartChan <- struct{}{}
				} else {
					logger.Info("audio device restarted")
				}
			}
		}()
	}

	deviceCallbacks := malgo.DeviceCallbacks{
		Data: onReceiveFrames,
		Stop: onStopDevice,
	}

	device, err = malgo.InitDevice(malgoCtx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		logger.Error("capture device init failed", "error", err)
		return false
	}

	if err := device.Start(); err != nil {
		logger.Error("capture device start failed", "error", err)
		return false
	}
	defer device.Stop() //nolint:errcheck

	logger.Info("listening on capture source", "name", source.Name, "id", source.ID)

	for {
		select {
		case <-quitChan:
			logger.Info("stopping capture due to quit signal")
			return false
		case <-restartChan:
			logger.Info("restart requested, tearing down capture device")
			return true
		case <-time.After(100 * time.Millisecond):
			// Keep polling the control channels
		}
	}
}

// calculateAudioLevel calculates the RMS (Root Mean Square) of the audio
// samples and returns an AudioLevelData with the scaled level and clipping
// status.
func calculateAudioLevel(samples []byte) AudioLevelData {
	if len(samples) < 2 {
		return AudioLevelData{Level: 0, Clipping: false}
	}

	var sum float64
	sampleCount := len(samples) / 2 // 2 bytes per sample for 16-bit audio
	isClipping := false

	for i := 0; i+1 < len(samples); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(samples[i : i+2]))
		sampleAbs := math.Abs(float64(sample))
		sum += sampleAbs * sampleAbs

		if sample == math.MaxInt16 || sample == math.MinInt16 {
			isClipping = true
		}
	}

	rms := math.Sqrt(sum / float64(sampleCount))

	// Convert RMS to decibels and scale to a 0-100 range
	db := 20 * math.Log10(rms/32768.0)
	scaledLevel := (db + 60) * (100.0 / 50.0)

	// If the audio is clipping, ensure the level is at or near 100
	if isClipping {
		scaledLevel = math.Max(scaledLevel, 95)
	}

	if scaledLevel < 0 {
		scaledLevel = 0
	} else if scaledLevel > 100 {
		scaledLevel = 100
	}

	return AudioLevelData{
		Level:    int(scaledLevel),
		Clipping: isClipping,
	}
}
