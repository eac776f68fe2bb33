// Package devices implements the devices subcommand, listing available
// audio capture devices.
package devices

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/audiomirror/audiomirror-go/internal/mirror"
)

// Command creates the devices command
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List available audio capture devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := mirror.ListAudioSources()
			if err != nil {
				return fmt.Errorf("failed to enumerate capture devices: %w", err)
			}
			if len(sources) == 0 {
				fmt.Println("No audio capture devices found")
				return nil
			}
			fmt.Println("Available audio capture devices:")
			for _, device := range sources {
				fmt.Printf("  [%d] %s\n", device.Index, device.Name)
			}
			return nil
		},
	}
}
