// Package shared provides helpers used by more than one console package.
//
//nolint:revive // "shared" is an intentional package name for cross-cutting helpers.
package shared

import "strings"

// sqliteConflictMarkers are the error fragments SQLite emits when another
// connection holds the write lock.
var sqliteConflictMarkers = []string{"SQLITE_BUSY", "database is locked"}

// IsSQLiteConflictError reports whether err is a SQLite lock contention
// error worth retrying.
func IsSQLiteConflictError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range sqliteConflictMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
