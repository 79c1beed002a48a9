// Update command for the testbench CLI.
package main

import (
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update <key=value...>",
	Short: "Update the running test session",
	Long: `Update merges new control values onto the running session. Omitted
keys keep their current values; the fixture key appends to the
session's fixture history.

Example:
  testbench update datetime="2024-06-01 12:00:00"
  testbench update fixture=shop/tests/orders.yml`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		delta, err := parseDeltaArgs(args)
		if err != nil {
			return err
		}

		mgr, err := buildManager()
		if err != nil {
			fail("update", err)
		}
		defer func() { _ = mgr.Close() }()

		if err := mgr.UpdateTestSession(delta); err != nil {
			fail("update", err)
		}

		return printState(mgr.GetState())
	},
}
