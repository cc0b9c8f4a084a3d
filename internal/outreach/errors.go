package outreach

import (
	"errors"
	"fmt"
)

// ErrValidation is the parent of every user-correctable precondition failure.
// Validation failures never change session state.
var ErrValidation = errors.New("validation failed")

var (
	ErrNoRecipients    = fmt.Errorf("%w: no recipients selected", ErrValidation)
	ErrEmptySubject    = fmt.Errorf("%w: subject is empty", ErrValidation)
	ErrEmptyBody       = fmt.Errorf("%w: body is empty", ErrValidation)
	ErrNoDeliverable   = fmt.Errorf("%w: no selected recipient has an address", ErrValidation)
	ErrInvalidPageSize = fmt.Errorf("%w: page size must be at least 1", ErrValidation)
)

// ErrSendInProgress is returned when a send or test send is started while
// another one is still running.
var ErrSendInProgress = errors.New("send already in progress")

// ErrSendFailed wraps errors reported by the mail sender
var ErrSendFailed = errors.New("send failed")
