// Shared helpers for testbench CLI commands.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mesh-intelligence/testbench/internal/fixture"
	"github.com/mesh-intelligence/testbench/internal/mailer"
	"github.com/mesh-intelligence/testbench/internal/session"
	"github.com/mesh-intelligence/testbench/internal/sqlite"
	"github.com/mesh-intelligence/testbench/internal/statefile"
	"github.com/mesh-intelligence/testbench/pkg/types"
)

// buildConfig resolves flags, config.yaml, and environment into the
// runtime configuration shared by every subcommand.
func buildConfig() (types.Config, error) {
	stateFile, err := resolveStateFile()
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve state file: %w", err)
	}

	dataDir, err := resolveDataDir()
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}

	projectRoot := configProjectRoot
	if projectRoot == "" {
		projectRoot, err = os.Getwd()
		if err != nil {
			return types.Config{}, fmt.Errorf("resolve project root: %w", err)
		}
	}

	return types.Config{
		StateFile:      stateFile,
		DataDir:        dataDir,
		Database:       configDatabase,
		DatabasePrefix: configDatabasePrefix,
		TemplateDir:    configTemplateDir,
		ProjectRoot:    projectRoot,
	}, nil
}

// buildManager wires the provisioner, state store, fixture loader, and
// mailer registry into a session manager. The caller owns teardown.
func buildManager() (*session.Manager, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}

	prov, err := sqlite.NewProvisioner(cfg)
	if err != nil {
		return nil, fmt.Errorf("create provisioner: %w", err)
	}

	mgr, err := session.NewManager(cfg, statefile.NewStore(cfg.StateFile), prov, fixture.NewLoader(), mailer.NewRegistry())
	if err != nil {
		return nil, fmt.Errorf("create session manager: %w", err)
	}
	return mgr, nil
}

// parseDeltaArgs turns key=value command arguments into a session
// delta. Unknown keys ride along as pass-through state.
func parseDeltaArgs(args []string) (types.Delta, error) {
	values := make(map[string]string, len(args))
	for _, arg := range args {
		parts := strings.SplitN(arg, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return types.Delta{}, fmt.Errorf("invalid argument %q (expected key=value)", arg)
		}
		values[parts[0]] = parts[1]
	}
	return types.ParseDelta(values), nil
}

// printState renders the session document as JSON or as a key: value
// listing depending on the --json flag.
func printState(doc types.StateDocument) error {
	if flagJSON {
		output, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal state: %w", err)
		}
		fmt.Println(string(output))
		return nil
	}

	fmt.Println("database:", doc.Database)
	if doc.Datetime != "" {
		fmt.Println("datetime:", doc.Datetime)
	}
	if doc.Mailer != "" {
		fmt.Println("mailer:", doc.Mailer)
	}
	if len(doc.Fixtures) > 0 {
		fmt.Println("fixtures:", strings.Join(doc.Fixtures, ", "))
	}
	for key, value := range doc.Extra {
		fmt.Printf("%s: %v\n", key, value)
	}
	fmt.Println("sessionId:", doc.SessionID)
	return nil
}

// exitForError classifies an error into the CLI exit codes: validation
// and precondition failures are the user's, the rest are the system's.
func exitForError(err error) int {
	if types.IsValidationError(err) || types.IsPreconditionError(err) {
		return exitUserError
	}
	return exitSysError
}

// fail prints the error and exits with its classified code.
func fail(op string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", op, err)
	os.Exit(exitForError(err))
}
