package errors

import "errors"

var (
	ErrNotFound = errors.New("availability template not found")
)
