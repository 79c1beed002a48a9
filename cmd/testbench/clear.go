// Clear command for the testbench CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the session database",
	Long: `Clear deletes all rows from every table of the session database while
keeping the session itself running. Use it between test cases that
need a blank slate without paying for a full re-provision.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := buildManager()
		if err != nil {
			fail("clear", err)
		}
		defer func() { _ = mgr.Close() }()

		if err := mgr.Clear(); err != nil {
			fail("clear", err)
		}

		fmt.Println("session database cleared")
		return nil
	},
}
