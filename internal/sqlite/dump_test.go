package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name string
		dump string
		want []string
	}{
		{
			name: "single statement",
			dump: "SELECT 1;",
			want: []string{"SELECT 1"},
		},
		{
			name: "multiple statements",
			dump: "CREATE TABLE t (x INT);\nINSERT INTO t VALUES (1);",
			want: []string{"CREATE TABLE t (x INT)", "INSERT INTO t VALUES (1)"},
		},
		{
			name: "comments and blanks stripped",
			dump: "-- header\n\n# other comment\nSELECT 1;\n   \n-- trailing\n",
			want: []string{"SELECT 1"},
		},
		{
			name: "multi-line statement stays together",
			dump: "CREATE TABLE t (\n  x INT,\n  y INT\n);",
			want: []string{"CREATE TABLE t (\n  x INT,\n  y INT\n)"},
		},
		{
			name: "missing trailing terminator",
			dump: "SELECT 1;\nSELECT 2",
			want: []string{"SELECT 1", "SELECT 2"},
		},
		{
			name: "empty dump",
			dump: "",
			want: nil,
		},
		{
			name: "comments only",
			dump: "-- nothing here\n# nope\n",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitStatements(tt.dump))
		})
	}
}
