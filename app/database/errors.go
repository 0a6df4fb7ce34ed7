package database

import (
	"errors"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound signals a lookup miss for an id or unique key.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a uniqueness violation on create, e.g. a
	// duplicate feed URL or group title.
	ErrAlreadyExists = errors.New("already exists")
)

// isUniqueViolation reports whether err is a sqlite unique or primary key
// constraint failure.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return false
}
