package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/testbench/pkg/types"
)

func TestResolveConfigDir(t *testing.T) {
	tests := []struct {
		name    string
		flag    string
		envVal  string
		wantSub string // substring the result must contain
	}{
		{
			name:    "flag wins over env",
			flag:    "/explicit/config",
			envVal:  "/env/config",
			wantSub: "/explicit/config",
		},
		{
			name:    "env wins when flag empty",
			flag:    "",
			envVal:  "/env/config",
			wantSub: "/env/config",
		},
		{
			name:    "CWD default when both empty",
			flag:    "",
			envVal:  "",
			wantSub: DefaultConfigDirName,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigDir, tt.envVal)
			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Contains(t, got, tt.wantSub)
		})
	}
}

func TestResolveStateFile(t *testing.T) {
	tests := []struct {
		name          string
		flag          string
		configYAMLVal string
		envVal        string
		want          string
	}{
		{
			name:          "flag wins over all",
			flag:          "/flag/state.json",
			configYAMLVal: "/config/state.json",
			envVal:        "/env/state.json",
			want:          "/flag/state.json",
		},
		{
			name:          "config.yaml wins over env",
			configYAMLVal: "/config/state.json",
			envVal:        "/env/state.json",
			want:          "/config/state.json",
		},
		{
			name:   "env wins when flag and config empty",
			envVal: "/env/state.json",
			want:   "/env/state.json",
		},
		{
			name: "config dir default when all empty",
			want: filepath.Join("/resolved/confdir", DefaultStateFileName),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvStateFile, tt.envVal)
			got, err := ResolveStateFile(tt.flag, tt.configYAMLVal, "/resolved/confdir")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDataDir(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)

	t.Run("flag wins", func(t *testing.T) {
		t.Setenv(EnvDataDir, "/env/data")
		got, err := ResolveDataDir("/flag/data", "/config/data")
		require.NoError(t, err)
		assert.Equal(t, "/flag/data", got)
	})

	t.Run("CWD default when all empty", func(t *testing.T) {
		t.Setenv(EnvDataDir, "")
		got, err := ResolveDataDir("", "")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(cwd, DefaultDataDirName), got)
	})

	t.Run("relative flag becomes absolute", func(t *testing.T) {
		got, err := ResolveDataDir("relative/path", "")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)
	})
}

func TestValidateFixturePath(t *testing.T) {
	const root = "/srv/app"

	tests := []struct {
		name    string
		fixture string
		wantErr bool
	}{
		{"valid module tests path", "mymodule/tests/x.yml", false},
		{"valid nested under tests", "mymodule/tests/sub/x.yml", false},
		{"valid yaml extension", "mymodule/tests/x.yaml", false},
		{"escapes project root", "../outside/tests/x.yml", true},
		{"escapes via inner dotdot", "mymodule/../../tests/x.yml", true},
		{"not inside tests dir", "mymodule/nottests/x.yml", true},
		{"top-level tests without module", "tests/x.yml", true},
		{"wrong extension", "mymodule/tests/x.sql", true},
		{"absolute path", "/etc/passwd.yml", true},
		{"empty path", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFixturePath(root, tt.fixture)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, types.IsValidationError(err), "expected ValidationError, got %v", err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestFixtureAbs(t *testing.T) {
	got := FixtureAbs("/srv/app", "shop/tests/cart.yml")
	assert.Equal(t, filepath.Join("/srv/app", "shop", "tests", "cart.yml"), got)
}

func TestValidateTemplatePath(t *testing.T) {
	const dir = "/srv/templates"

	t.Run("plain name resolves inside template dir", func(t *testing.T) {
		got, err := ValidateTemplatePath(dir, "base.sql")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "base.sql"), got)
	})

	t.Run("escaping path rejected", func(t *testing.T) {
		_, err := ValidateTemplatePath(dir, "../secrets.sql")
		require.Error(t, err)
		assert.True(t, types.IsValidationError(err))
	})

	t.Run("wrong extension rejected", func(t *testing.T) {
		_, err := ValidateTemplatePath(dir, "base.yml")
		require.Error(t, err)
		assert.True(t, types.IsValidationError(err))
	})

	t.Run("no template dir configured", func(t *testing.T) {
		_, err := ValidateTemplatePath("", "base.sql")
		require.Error(t, err)
		assert.True(t, types.IsConfigurationError(err))
	})
}
