package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/audiomirror/audiomirror-go/cmd/capture"
	"github.com/audiomirror/audiomirror-go/cmd/devices"
	"github.com/audiomirror/audiomirror-go/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "audiomirror",
		Short: "AudioMirror-Go CLI",
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, settings); err != nil {
		cobra.CheckErr(err)
	}

	// Add sub-commands to the root command.
	rootCmd.AddCommand(
		capture.Command(settings),
		devices.Command(),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Sync the settings struct with viper's values so command-line
		// arguments take precedence over the config file
		if err := viper.Unmarshal(settings); err != nil {
			return err
		}

		save, err := cmd.Root().PersistentFlags().GetBool("saveconfig")
		if err != nil {
			return err
		}
		if save {
			if err := conf.SaveSettings(); err != nil {
				return fmt.Errorf("error saving settings: %w", err)
			}
		}
		return nil
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVarP(&settings.Capture.Source, "source", "s", viper.GetString("capture.source"), "Audio capture source device name or ID")
	rootCmd.PersistentFlags().IntVar(&settings.Capture.BufferSeconds, "buffer", viper.GetInt("capture.bufferseconds"), "Stream buffer length in seconds")
	rootCmd.PersistentFlags().StringVar(&settings.Capture.ExportPath, "exportpath", viper.GetString("capture.exportpath"), "Path to save exported WAV segments to")
	rootCmd.PersistentFlags().IntVar(&settings.Capture.SegmentSeconds, "segment", viper.GetInt("capture.segmentseconds"), "Exported segment length in seconds")
	rootCmd.PersistentFlags().Bool("saveconfig", false, "Save the effective settings back to the config file before running")

	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		return fmt.Errorf("error binding debug flag: %w", err)
	}
	if err := viper.BindPFlag("capture.source", rootCmd.PersistentFlags().Lookup("source")); err != nil {
		return fmt.Errorf("error binding source flag: %w", err)
	}
	if err := viper.BindPFlag("capture.bufferseconds", rootCmd.PersistentFlags().Lookup("buffer")); err != nil {
		return fmt.Errorf("error binding buffer flag: %w", err)
	}
	if err := viper.BindPFlag("capture.exportpath", rootCmd.PersistentFlags().Lookup("exportpath")); err != nil {
		return fmt.Errorf("error binding exportpath flag: %w", err)
	}
	if err := viper.BindPFlag("capture.segmentseconds", rootCmd.PersistentFlags().Lookup("segment")); err != nil {
		return fmt.Errorf("error binding segment flag: %w", err)
	}

	return nil
}
