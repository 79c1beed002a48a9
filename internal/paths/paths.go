// Package paths resolves state-file and data directory locations and
// enforces the fixture path rules.
package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/mesh-intelligence/testbench/pkg/types"
)

// CWD-relative defaults.
const (
	DefaultConfigDirName = ".testbench"
	DefaultDataDirName   = ".testbench-db"
	DefaultStateFileName = "state.json"
)

// Environment variable names for overrides.
const (
	EnvConfigDir = "TESTBENCH_CONFIG_DIR"
	EnvStateFile = "TESTBENCH_STATE_FILE"
	EnvDataDir   = "TESTBENCH_DATA_DIR"
)

// Fixture files carry one of these extensions.
var fixtureExtensions = map[string]bool{
	".yml":  true,
	".yaml": true,
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > TESTBENCH_CONFIG_DIR env > CWD default.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultConfigDirName), nil
}

// ResolveStateFile returns the state file path following the precedence
// chain: flag > configYAMLValue > TESTBENCH_STATE_FILE env > default
// (state.json inside the resolved config directory).
func ResolveStateFile(flag, configYAMLValue, configDir string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	if env := os.Getenv(EnvStateFile); env != "" {
		return filepath.Abs(env)
	}
	return filepath.Join(configDir, DefaultStateFileName), nil
}

// ResolveDataDir returns the data directory following the precedence
// chain: flag > configYAMLValue > TESTBENCH_DATA_DIR env > CWD default.
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// ValidateFixturePath checks that a fixture path, given relative to the
// project root, stays inside the root, sits under the tests/ directory
// of a top-level module, and carries a fixture-file extension. It
// returns a ValidationError naming the violated rule.
func ValidateFixturePath(projectRoot, fixture string) error {
	if fixture == "" {
		return &types.ValidationError{Field: "fixture", Reason: "path must not be empty"}
	}
	if filepath.IsAbs(fixture) {
		return &types.ValidationError{Field: "fixture", Reason: "path must be relative to the project root"}
	}

	clean := filepath.Clean(fixture)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return &types.ValidationError{Field: "fixture", Reason: "path escapes the project root"}
	}

	parts := strings.Split(clean, string(filepath.Separator))
	if len(parts) < 3 || parts[1] != "tests" {
		return &types.ValidationError{Field: "fixture", Reason: "path must be inside a tests directory of a top-level module"}
	}

	if !fixtureExtensions[strings.ToLower(filepath.Ext(clean))] {
		return &types.ValidationError{Field: "fixture", Reason: "path must have a fixture file extension (.yml)"}
	}

	// Resolve against the root and re-check containment, catching
	// symlink-free traversal that Clean alone would miss.
	abs := filepath.Join(projectRoot, clean)
	if rel, err := filepath.Rel(projectRoot, abs); err != nil || strings.HasPrefix(rel, "..") {
		return &types.ValidationError{Field: "fixture", Reason: "path escapes the project root"}
	}

	return nil
}

// FixtureAbs returns the absolute path of a validated fixture.
func FixtureAbs(projectRoot, fixture string) string {
	return filepath.Join(projectRoot, filepath.Clean(fixture))
}

// ValidateTemplatePath checks that a template dump path, resolved
// against the template directory, stays inside it and names a .sql
// file. It returns the absolute path on success.
func ValidateTemplatePath(templateDir, template string) (string, error) {
	if templateDir == "" {
		return "", &types.ConfigurationError{Reason: "no template directory configured"}
	}
	if strings.ToLower(filepath.Ext(template)) != ".sql" {
		return "", &types.ValidationError{Field: "createDatabaseTemplate", Reason: "template must be a .sql file"}
	}

	abs := template
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(templateDir, template)
	}
	abs = filepath.Clean(abs)

	rel, err := filepath.Rel(templateDir, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &types.ValidationError{Field: "createDatabaseTemplate", Reason: "template escapes the template directory"}
	}
	return abs, nil
}
