// package repositories provides durable key-value media for the record store.
package repositories

import (
	"database/sql"
	"fmt"
	"strings"
)

// escapeLike escapes LIKE wildcards so prefix matches are literal. Use with ESCAPE '\'.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// CountRows returns the number of rows in table. Used by setup to report database contents.
func CountRows(db *sql.DB, table string) (int, error) {
	var n int
	if err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}
