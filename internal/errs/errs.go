package errs

import "errors"

// Domain sentinel errors, mapped to user-facing replies in the bot and API layers.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)
