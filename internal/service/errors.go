package service

import "errors"

// Centralized service layer errors.
// Membership workflow errors (validation, conflicts, rollbacks) are typed
// errors from the membership package and pass through unchanged.

// ===== Class Errors =====
var (
	ErrClassNotFound   = errors.New("class not found")
	ErrClassNameExists = errors.New("a class with this name already exists")
	ErrClassNotEmpty   = errors.New("class still has students")
)

// ===== Student Errors =====
var (
	ErrStudentNotFound = errors.New("student not found")
)

// ===== Roster Errors =====
var (
	ErrRosterStale    = errors.New("roster changed since it was read")
	ErrRosterNotReady = errors.New("roster has not been loaded")
	ErrEmptyUpdate    = errors.New("update contains no fields")
)
