package db

import "strings"

// IsUniqueViolation reports whether err came from a unique constraint. With a
// constraint name it matches that specific constraint; otherwise it falls
// back to the generic Postgres and SQLite violation phrasings, since tests
// run against SQLite.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
