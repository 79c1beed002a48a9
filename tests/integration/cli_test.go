// CLI integration tests for testbench.
// Exercises the full session lifecycle through the built binary.
package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

// TestMain builds the testbench binary once before running tests.
func TestMain(m *testing.M) {
	projectRoot, err := FindProjectRoot()
	if err != nil {
		SetBuildErr(err)
		os.Exit(1)
	}

	tmpDir, err := os.MkdirTemp("", "testbench-test-*")
	if err != nil {
		SetBuildErr(err)
		os.Exit(1)
	}
	binPath := filepath.Join(tmpDir, "testbench")
	SetTestbenchBin(binPath)

	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/testbench")
	cmd.Dir = projectRoot
	if output, err := cmd.CombinedOutput(); err != nil {
		SetBuildErr(&BuildError{Err: err, Output: string(output)})
		os.Exit(1)
	}

	code := m.Run()

	os.RemoveAll(tmpDir)

	os.Exit(code)
}

var scratchNameRe = regexp.MustCompile(`^ss_tmpdb[0-9]{7}$`)

// Test1_StartProvisionsSession verifies that start creates the state
// file and a scratch database on disk.
func Test1_StartProvisionsSession(t *testing.T) {
	env := NewTestEnv(t)

	result := env.MustRunTestbench("--json", "start")
	state := ParseJSON[SessionState](t, result.Stdout)

	if !scratchNameRe.MatchString(state.Database) {
		t.Errorf("expected a scratch database name, got %q", state.Database)
	}
	if state.SessionID == "" {
		t.Error("expected a session ID")
	}

	if _, err := os.Stat(env.StateFile); err != nil {
		t.Errorf("state file not written: %v", err)
	}
	dbFile := filepath.Join(env.DataDir, state.Database+".db")
	if _, err := os.Stat(dbFile); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

// Test2_SecondStartFails verifies the one-session-at-a-time rule.
func Test2_SecondStartFails(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunTestbench("start")

	result := env.RunTestbench("start")
	if result.ExitCode == 0 {
		t.Error("expected second start to fail")
	}
	if !strings.Contains(result.Stderr, "already running") {
		t.Errorf("expected conflict diagnostics, got: %s", result.Stderr)
	}
}

// Test3_UpdateMergesState verifies that update merges control values
// and the state survives across separate processes.
func Test3_UpdateMergesState(t *testing.T) {
	env := NewTestEnv(t)
	started := ParseJSON[SessionState](t, env.MustRunTestbench("--json", "start").Stdout)

	result := env.MustRunTestbench("--json", "update",
		"fixture=shop/tests/cart.yml", "datetime=2024-01-01 00:00:00")
	state := ParseJSON[SessionState](t, result.Stdout)

	if state.Database != started.Database {
		t.Errorf("update rebound the database: %q != %q", state.Database, started.Database)
	}
	if state.Datetime != "2024-01-01 00:00:00" {
		t.Errorf("datetime not applied: %q", state.Datetime)
	}
	if len(state.Fixtures) != 1 || state.Fixtures[0] != "shop/tests/cart.yml" {
		t.Errorf("fixture not recorded: %v", state.Fixtures)
	}

	// A fresh process sees the same session.
	shown := ParseJSON[SessionState](t, env.MustRunTestbench("--json", "state").Stdout)
	if shown.SessionID != started.SessionID {
		t.Errorf("state command saw a different session: %q != %q", shown.SessionID, started.SessionID)
	}
}

// Test4_InvalidFixtureRejected verifies fixture path validation through
// the CLI.
func Test4_InvalidFixtureRejected(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunTestbench("start")

	result := env.RunTestbench("update", "fixture=../outside/tests/x.yml")
	if result.ExitCode != 1 {
		t.Errorf("expected user-error exit code 1, got %d", result.ExitCode)
	}
}

// Test5_TemplateImport verifies createDatabaseTemplate loads the dump.
func Test5_TemplateImport(t *testing.T) {
	env := NewTestEnv(t)

	result := env.MustRunTestbench("--json", "start", "createDatabaseTemplate=base.sql")
	state := ParseJSON[SessionState](t, result.Stdout)

	if !scratchNameRe.MatchString(state.Database) {
		t.Errorf("expected a scratch database name, got %q", state.Database)
	}
}

// Test6_EndTearsDown verifies teardown removes the state file and the
// scratch database, and that a second end is still a success.
func Test6_EndTearsDown(t *testing.T) {
	env := NewTestEnv(t)
	state := ParseJSON[SessionState](t, env.MustRunTestbench("--json", "start").Stdout)

	env.MustRunTestbench("end")

	if _, err := os.Stat(env.StateFile); !os.IsNotExist(err) {
		t.Error("state file not removed")
	}
	dbFile := filepath.Join(env.DataDir, state.Database+".db")
	if _, err := os.Stat(dbFile); !os.IsNotExist(err) {
		t.Error("scratch database not dropped")
	}

	// Teardown is idempotent across processes.
	env.MustRunTestbench("end")
}

// Test7_ClearKeepsSession verifies clear empties data without ending
// the session.
func Test7_ClearKeepsSession(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunTestbench("start", "fixture=shop/tests/cart.yml")

	env.MustRunTestbench("clear")

	if _, err := os.Stat(env.StateFile); err != nil {
		t.Errorf("clear must not end the session: %v", err)
	}
}

// Test8_StateWithoutSessionFails verifies the state command needs a
// running session.
func Test8_StateWithoutSessionFails(t *testing.T) {
	env := NewTestEnv(t)

	result := env.RunTestbench("state")
	if result.ExitCode != 1 {
		t.Errorf("expected user-error exit code 1, got %d", result.ExitCode)
	}
}

// Test9_Version prints the version without touching any state.
func Test9_Version(t *testing.T) {
	env := NewTestEnv(t)

	result := env.MustRunTestbench("version")
	if !strings.Contains(result.Stdout, "testbench") {
		t.Errorf("unexpected version output: %s", result.Stdout)
	}
	if _, err := os.Stat(env.StateFile); !os.IsNotExist(err) {
		t.Error("version must not create session state")
	}
}
