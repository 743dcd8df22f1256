package shared

import "strings"

// IsUniqueConstraintError checks if the error is a SQLite UNIQUE constraint
// violation. The modernc driver exposes these only through the message text.
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsSQLiteBusyError checks if the error is a SQLITE_BUSY error. This occurs
// when the database is locked by another connection.
func IsSQLiteBusyError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "SQLITE_BUSY") || strings.Contains(err.Error(), "database is locked")
}
