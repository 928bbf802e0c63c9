// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"luxsync/internal/audio"
	"luxsync/internal/tui"
)

func newListCommand() *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := audio.Initialize(); err != nil {
				return err
			}
			defer audio.Terminate()

			if interactive {
				sel, err := tui.StartDeviceListUI()
				if err != nil || sel == nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Selected %s: run with %s\n", sel.Device.Name, sel.Flags())
				return nil
			}

			devices, err := audio.HostDevices()
			if err != nil {
				return err
			}
			audio.ListDevices(cmd.OutOrStdout(), devices)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false,
		"Pick a device and sample rate in a terminal UI")
	return cmd
}
