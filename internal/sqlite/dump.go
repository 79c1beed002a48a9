// SQL dump splitting for template imports.
package sqlite

import "strings"

// splitStatements breaks a SQL dump into executable statements. It
// splits on the ; terminator, drops blank lines and full-line comments
// (-- and #), and trims whitespace. Semicolons inside string literals
// are not handled; template dumps produced by the harness tooling do
// not contain them.
func splitStatements(dump string) []string {
	var kept []string
	for _, line := range strings.Split(dump, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") || strings.HasPrefix(trimmed, "#") {
			continue
		}
		kept = append(kept, line)
	}

	var stmts []string
	for _, raw := range strings.Split(strings.Join(kept, "\n"), ";") {
		stmt := strings.TrimSpace(raw)
		if stmt == "" {
			continue
		}
		stmts = append(stmts, stmt)
	}
	return stmts
}
