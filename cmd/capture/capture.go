// Package capture implements the capture subcommand, the realtime audio
// mirror pipeline.
package capture

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/audiomirror/audiomirror-go/internal/conf"
	"github.com/audiomirror/audiomirror-go/internal/logging"
	"github.com/audiomirror/audiomirror-go/internal/mirror"
	"github.com/audiomirror/audiomirror-go/internal/observability"
)

// Command creates the capture command
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "capture",
		Short: "Mirror audio from a capture device into WAV segments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunCapture(settings)
		},
	}
}

// RunCapture runs the mirror pipeline until interrupted: one stream buffer,
// a capture producer feeding it and a drain monitor exporting segments.
func RunCapture(settings *conf.Settings) error {
	logger := logging.ForService("capture")

	capacity := mirror.SecondsToBytes(float64(settings.Capture.BufferSeconds))
	if err := mirror.AllocateStreamBuffer(capacity, mirror.MalgoSource); err != nil {
		return fmt.Errorf("failed to allocate stream buffer: %w", err)
	}
	defer func() {
		if err := mirror.RemoveStreamBuffer(mirror.MalgoSource); err != nil {
			logger.Warn("stream buffer cleanup failed", "error", err)
		}
	}()

	var wg sync.WaitGroup
	quitChan := make(chan struct{})
	restartChan := make(chan struct{}, 3)
	audioLevelChan := make(chan mirror.AudioLevelData, 10)

	// Metrics endpoint is optional
	if settings.Capture.Metrics.Enabled {
		metrics, err := observability.NewMetrics()
		if err != nil {
			return fmt.Errorf("failed to create metrics: %w", err)
		}
		mirror.SetMetrics(metrics.Mirror)
		defer mirror.SetMetrics(nil)

		endpoint, err := observability.NewEndpoint(settings, metrics)
		if err != nil {
			return fmt.Errorf("failed to create metrics endpoint: %w", err)
		}
		endpoint.Start(&wg, quitChan)
	}

	mirror.CaptureAudio(settings, &wg, quitChan, restartChan, audioLevelChan)
	mirror.StreamMonitor(&wg, quitChan, mirror.MalgoSource, settings.Capture.SegmentSeconds,
		&mirror.WAVSegmentWriter{BasePath: settings.Capture.ExportPath})

	// Drain the level channel so the capture callback's non-blocking sends
	// always find room; a UI would consume these instead
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-quitChan:
				return
			case level := <-audioLevelChan:
				if settings.Debug && level.Clipping {
					logger.Warn("input is clipping", "level", level.Level)
				}
			}
		}
	}()

	logger.Info("audio mirror started",
		"source", settings.Capture.Source,
		"buffer_bytes", capacity,
		"segment_seconds", settings.Capture.SegmentSeconds)

	// Block until interrupted
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	logger.Info("shutting down", "signal", sig.String())
	close(quitChan)
	wg.Wait()

	return nil
}
