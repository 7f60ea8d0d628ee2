package loyalty

import "errors"

var (
	// ErrValidation reports malformed input (empty name, bad phone).
	ErrValidation = errors.New("invalid input")
	// ErrNotFound reports an unknown account or redemption code.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCode reports a malformed redemption code.
	ErrInvalidCode = errors.New("invalid redemption code")
	// ErrAlreadyUsed reports a redemption code that was already consumed.
	ErrAlreadyUsed = errors.New("redemption code already used")
	// ErrNoFreeCups reports a free-item redemption with no balance.
	ErrNoFreeCups = errors.New("no free cups available")
)
