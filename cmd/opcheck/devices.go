package main

import (
	"fmt"
	"slices"
	"sort"

	"github.com/born-ml/opcheck/internal/device"
	"github.com/spf13/cobra"
)

func newDevicesCmd() *cobra.Command {
	var probe bool
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "Show registered drivers and placement bindings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := requireConfig(); err != nil {
				return err
			}
			drivers := device.Drivers()
			bindings := device.Bindings()
			types := make([]string, 0, len(bindings))
			for t := range bindings {
				types = append(types, t)
			}
			sort.Strings(types)

			t := newTable("PLACEMENT", "DRIVER", "STATUS")
			for _, typ := range types {
				driver := bindings[typ]
				status := "registered"
				switch {
				case !slices.Contains(drivers, driver):
					status = "no such driver"
				case probe:
					status = probePlace(device.Custom(typ, 0))
				}
				t.Row(status != "registered" && status != "available", typ, driver, status)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), t)
			return err
		},
	}
	cmd.Flags().BoolVar(&probe, "probe", false, "Open each placement to check that it is available")
	return cmd
}

func probePlace(p device.Place) string {
	b, err := device.Open(p)
	if err != nil {
		return err.Error()
	}
	device.Close(b)
	return "available"
}
