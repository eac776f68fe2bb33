package mirror

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/audiomirror/audiomirror-go/internal/conf"
	"github.com/audiomirror/audiomirror-go/internal/errors"
)

// SavePCMDataToWAV saves the given PCM data as a WAV file at the specified filePath.
func SavePCMDataToWAV(filePath string, pcmData []byte) error {
	// Create the directory structure if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return errors.New(err).
			Component("mirror").
			Category(errors.CategoryFileIO).
			Context("operation", "create-export-dir").
			Build()
	}

	outFile, err := os.Create(filePath)
	if err != nil {
		return errors.New(err).
			Component("mirror").
			Category(errors.CategoryFileIO).
			Context("operation", "create-wav-file").
			Build()
	}
	defer outFile.Close() // Ensure file closure on function exit.

	// Create a new WAV encoder with the stream format settings.
	enc := wav.NewEncoder(outFile, conf.SampleRate, conf.BitDepth, conf.NumChannels, 1)

	intSamples := byteSliceToInts(pcmData)

	if err := enc.Write(&audio.IntBuffer{
		Data:   intSamples,
		Format: &audio.Format{SampleRate: conf.SampleRate, NumChannels: conf.NumChannels},
	}); err != nil {
		return errors.New(err).
			Component("mirror").
			Category(errors.CategoryAudioExport).
			Context("operation", "encode-wav").
			Context("samples", len(intSamples)).
			Build()
	}

	// Close the WAV encoder, which finalizes the file format.
	return enc.Close()
}

// byteSliceToInts converts a byte slice to a slice of integers.
// Each pair of bytes is treated as a single 16-bit little-endian sample.
func byteSliceToInts(pcmData []byte) []int {
	samples := make([]int, 0, len(pcmData)/2)
	buf := bytes.NewBuffer(pcmData)

	for {
		var sample int16
		if err := binary.Read(buf, binary.LittleEndian, &sample); err != nil {
			break // Exit loop on read error (e.g., end of buffer).
		}
		samples = append(samples, int(sample))
	}

	return samples
}
