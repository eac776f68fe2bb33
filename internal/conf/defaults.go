// defaults.go default values for viper settings
package conf

import "github.com/spf13/viper"

// setDefaultConfig registers the default configuration values with viper.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	// Main configuration
	viper.SetDefault("main.name", "AudioMirror-Go")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "audiomirror.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 52428800) // 50 MiB when rotation is size based

	// Capture configuration
	viper.SetDefault("capture.source", "sysdefault")
	viper.SetDefault("capture.bufferseconds", 4)
	viper.SetDefault("capture.exportpath", "clips/")
	viper.SetDefault("capture.segmentseconds", 15)
	viper.SetDefault("capture.metrics.enabled", false)
	viper.SetDefault("capture.metrics.listen", "localhost:9090")
}
