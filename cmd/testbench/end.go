// End command for the testbench CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var endCmd = &cobra.Command{
	Use:   "end",
	Short: "End the test session",
	Long: `End tears the session down: the scratch database is dropped, the
state file removed, and the deployment returns to its normal
configuration. Ending when no session is running is a no-op, so
cleanup scripts can call it unconditionally.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := buildManager()
		if err != nil {
			fail("end", err)
		}

		if err := mgr.EndTestSession(); err != nil {
			fail("end", err)
		}

		fmt.Println("test session ended")
		return nil
	},
}
