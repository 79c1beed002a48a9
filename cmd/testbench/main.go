// Package main provides the testbench CLI, the control plane for
// browser-driven test sessions: starting, inspecting, updating, and
// tearing down the per-session database and environment overrides.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUserError)
	}
}
