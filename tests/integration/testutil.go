// Package integration provides CLI integration tests for testbench.
package integration

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

var (
	// testbenchBin is the path to the built testbench binary.
	testbenchBin string
	// buildErr captures any build error.
	buildErr error
)

// BuildError wraps a build error with output.
type BuildError struct {
	Err    error
	Output string
}

func (e *BuildError) Error() string {
	return e.Err.Error() + ": " + e.Output
}

// FindProjectRoot finds the repository root by walking up and looking for go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		goModPath := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(goModPath); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// SetTestbenchBin sets the path to the testbench binary (called from TestMain).
func SetTestbenchBin(path string) {
	testbenchBin = path
}

// SetBuildErr sets the build error (called from TestMain).
func SetBuildErr(err error) {
	buildErr = err
}

// TestEnv provides an isolated test environment: its own config
// directory, database directory, and web-app project root with a
// fixture and a template dump in place.
type TestEnv struct {
	t           *testing.T
	TempDir     string
	ConfigDir   string
	DataDir     string
	ProjectRoot string
	StateFile   string
}

// NewTestEnv creates a new isolated test environment.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	if buildErr != nil {
		t.Fatalf("failed to build testbench: %v", buildErr)
	}
	if testbenchBin == "" {
		t.Fatal("testbench binary not built (testbenchBin is empty)")
	}

	tempDir := t.TempDir()
	configDir := filepath.Join(tempDir, "config")
	dataDir := filepath.Join(tempDir, "data")
	projectRoot := filepath.Join(tempDir, "project")
	templateDir := filepath.Join(tempDir, "templates")

	testsDir := filepath.Join(projectRoot, "shop", "tests")
	for _, dir := range []string{configDir, dataDir, testsDir, templateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}

	fixture := `users:
  - user_id: u1
    email: alice@example.com
    name: Alice
`
	if err := os.WriteFile(filepath.Join(testsDir, "cart.yml"), []byte(fixture), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	template := "CREATE TABLE IF NOT EXISTS widgets (widget_id TEXT PRIMARY KEY, label TEXT);\n"
	if err := os.WriteFile(filepath.Join(templateDir, "base.sql"), []byte(template), 0o644); err != nil {
		t.Fatalf("failed to write template: %v", err)
	}

	config := "data_dir: " + dataDir + "\n" +
		"project_root: " + projectRoot + "\n" +
		"template_dir: " + templateDir + "\n"
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(config), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	return &TestEnv{
		t:           t,
		TempDir:     tempDir,
		ConfigDir:   configDir,
		DataDir:     dataDir,
		ProjectRoot: projectRoot,
		StateFile:   filepath.Join(configDir, "state.json"),
	}
}

// CmdResult holds the result of a testbench command execution.
type CmdResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// RunTestbench executes the testbench CLI with the given arguments.
func (e *TestEnv) RunTestbench(args ...string) CmdResult {
	e.t.Helper()

	allArgs := append([]string{"--config-dir", e.ConfigDir}, args...)
	cmd := exec.Command(testbenchBin, allArgs...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			e.t.Fatalf("failed to run testbench: %v", err)
		}
	}

	return CmdResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}
}

// MustRunTestbench executes the testbench CLI and fails the test if it
// returns non-zero.
func (e *TestEnv) MustRunTestbench(args ...string) CmdResult {
	e.t.Helper()
	result := e.RunTestbench(args...)
	if result.ExitCode != 0 {
		e.t.Fatalf("testbench %v failed with exit code %d:\nstdout: %s\nstderr: %s",
			args, result.ExitCode, result.Stdout, result.Stderr)
	}
	return result
}

// SessionState mirrors the persisted state document for JSON parsing.
type SessionState struct {
	Database  string   `json:"database"`
	Fixtures  []string `json:"fixtures"`
	Datetime  string   `json:"datetime"`
	Mailer    string   `json:"mailer"`
	SessionID string   `json:"sessionId"`
}

// ParseJSON parses JSON output into the target type.
func ParseJSON[T any](t *testing.T, jsonStr string) T {
	t.Helper()
	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		t.Fatalf("failed to parse JSON %q: %v", jsonStr, err)
	}
	return result
}
