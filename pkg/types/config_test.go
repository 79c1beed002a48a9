package types

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	valid := Config{
		StateFile:   "/tmp/testbench/state.json",
		DataDir:     "/tmp/testbench-db",
		ProjectRoot: "/srv/app",
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: nil,
		},
		{
			name:    "empty state file returns ErrStateFileEmpty",
			mutate:  func(c *Config) { c.StateFile = "" },
			wantErr: ErrStateFileEmpty,
		},
		{
			name:    "empty data dir returns ErrDataDirEmpty",
			mutate:  func(c *Config) { c.DataDir = "" },
			wantErr: ErrDataDirEmpty,
		},
		{
			name:    "empty project root returns ErrProjectRootEmpty",
			mutate:  func(c *Config) { c.ProjectRoot = "" },
			wantErr: ErrProjectRootEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigPrefix(t *testing.T) {
	if got := (Config{}).Prefix(); got != DefaultDatabasePrefix {
		t.Fatalf("expected default prefix %q, got %q", DefaultDatabasePrefix, got)
	}
	if got := (Config{DatabasePrefix: "shop_"}).Prefix(); got != "shop_" {
		t.Fatalf("expected shop_, got %q", got)
	}
}
