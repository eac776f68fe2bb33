package mirror

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiomirror/audiomirror-go/internal/conf"
)

// sinePCM generates n samples of a 1 kHz sine as 16-bit little-endian PCM.
func sinePCM(n int) []byte {
	out := make([]byte, n*2)
	for i := 0; i < n; i++ {
		sample := int16(10000 * math.Sin(2*math.Pi*1000*float64(i)/float64(conf.SampleRate)))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(sample))
	}
	return out
}

func TestSavePCMDataToWAV(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	filePath := filepath.Join(dir, "nested", "out.wav")

	pcm := sinePCM(4800) // 100 ms
	require.NoError(t, SavePCMDataToWAV(filePath, pcm))

	f, err := os.Open(filePath)
	require.NoError(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)

	assert.Equal(t, conf.SampleRate, buf.Format.SampleRate)
	assert.Equal(t, conf.NumChannels, buf.Format.NumChannels)
	require.Len(t, buf.Data, 4800)

	// Decoded samples must match the encoded stream
	for i, want := range byteSliceToInts(pcm) {
		if buf.Data[i] != want {
			t.Fatalf("sample %d: got %d, want %d", i, buf.Data[i], want)
		}
	}
}

func TestByteSliceToInts(t *testing.T) {
	t.Parallel()

	pcm := []byte{0x01, 0x00, 0xFF, 0xFF, 0x00, 0x80}
	samples := byteSliceToInts(pcm)
	assert.Equal(t, []int{1, -1, -32768}, samples)

	// Trailing odd byte is ignored
	samples = byteSliceToInts([]byte{0x02, 0x00, 0x7F})
	assert.Equal(t, []int{2}, samples)

	assert.Empty(t, byteSliceToInts(nil))
}
