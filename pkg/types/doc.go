// Package types defines the state document, control delta, collaborator
// interfaces, and standard error types for the testbench session system.
// See docs/ARCHITECTURE § Main Interface, § System Components.
package types
