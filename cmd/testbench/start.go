// Start command for the testbench CLI.
package main

import (
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start [key=value...]",
	Short: "Start a test session",
	Long: `Start begins a new test session, provisioning a scratch database and
persisting the session state so every process in the deployment picks
it up. Control values are given as key=value pairs.

Recognized keys: database, createDatabase, createDatabaseTemplate,
fixture, datetime, mailer. Unknown keys are stored and served back
verbatim.

Example:
  testbench start
  testbench start fixture=shop/tests/cart.yml datetime="2024-01-01 00:00:00"
  testbench start database=ss_tmpdb1234567`,
	RunE: func(cmd *cobra.Command, args []string) error {
		delta, err := parseDeltaArgs(args)
		if err != nil {
			return err
		}

		mgr, err := buildManager()
		if err != nil {
			fail("start", err)
		}
		defer func() { _ = mgr.Close() }()

		if err := mgr.StartTestSession(delta); err != nil {
			fail("start", err)
		}

		return printState(mgr.GetState())
	},
}
