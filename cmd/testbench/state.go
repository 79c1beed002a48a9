// State command for the testbench CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/testbench/pkg/types"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show the running session state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := buildManager()
		if err != nil {
			fail("state", err)
		}
		defer func() { _ = mgr.Close() }()

		if !mgr.IsRunningTests() {
			fail("state", &types.PreconditionError{Op: "state"})
		}
		if err := mgr.LoadFromFile(); err != nil {
			fail("state", err)
		}

		return printState(mgr.GetState())
	},
}
