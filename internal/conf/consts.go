// conf/consts.go hard coded constants
package conf

const (
	SampleRate     = 48000 // Sample rate of the mirrored audio stream
	BitDepth       = 16    // Bit depth of the mirrored audio stream
	NumChannels    = 1     // Number of channels of the mirrored audio stream
	BytesPerSample = BitDepth / 8

	// BytesPerSecond is the data rate of the mirrored stream.
	BytesPerSecond = SampleRate * NumChannels * BytesPerSample
)
