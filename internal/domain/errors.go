package domain

import (
	"errors"
	"fmt"
)

// Error categories. Specific errors wrap one of these so transport code
// can map with errors.Is without enumerating every case.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

var (
	ErrEmptyBody          = fmt.Errorf("%w: message body is required", ErrValidation)
	ErrBodyTooLong        = fmt.Errorf("%w: message body is too long", ErrValidation)
	ErrInvalidCursor      = fmt.Errorf("%w: invalid cursor", ErrValidation)
	ErrInvalidSecretKey   = fmt.Errorf("%w: invalid secret key", ErrValidation)
	ErrInvalidDisplayName = fmt.Errorf("%w: display name must be between 2 and 40 characters", ErrValidation)
	ErrAvatarTooLarge     = fmt.Errorf("%w: avatar is too large", ErrValidation)

	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)
)
