package types

import "errors"

// Config holds the externally supplied parameters for the session core.
type Config struct {
	// StateFile is the single well-known path the state document is
	// persisted to. Required.
	StateFile string `json:"state_file" yaml:"state_file"`

	// DataDir is where the provisioner keeps database files. Required
	// for the sqlite provisioner.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Database is the default database name bound when no session
	// override is present.
	Database string `json:"database" yaml:"database"`

	// DatabasePrefix prefixes generated scratch-database names.
	DatabasePrefix string `json:"database_prefix" yaml:"database_prefix"`

	// TemplateDir optionally points at a directory of .sql template
	// dumps referenced by createDatabaseTemplate.
	TemplateDir string `json:"template_dir" yaml:"template_dir"`

	// ProjectRoot anchors fixture path validation. Fixture files must
	// live inside it.
	ProjectRoot string `json:"project_root" yaml:"project_root"`
}

// DefaultDatabasePrefix is used when Config.DatabasePrefix is empty.
const DefaultDatabasePrefix = "ss_"

// Config validation errors.
var (
	ErrStateFileEmpty   = errors.New("state file path must not be empty")
	ErrDataDirEmpty     = errors.New("data dir must not be empty")
	ErrProjectRootEmpty = errors.New("project root must not be empty")
)

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.StateFile == "" {
		return ErrStateFileEmpty
	}
	if c.DataDir == "" {
		return ErrDataDirEmpty
	}
	if c.ProjectRoot == "" {
		return ErrProjectRootEmpty
	}
	return nil
}

// Prefix returns the effective scratch-database prefix.
func (c Config) Prefix() string {
	if c.DatabasePrefix == "" {
		return DefaultDatabasePrefix
	}
	return c.DatabasePrefix
}
