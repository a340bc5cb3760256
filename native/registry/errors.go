package registry

import "errors"

var (
	ErrNilState           = errors.New("registry: state not configured")
	ErrAlreadyInitialized = errors.New("registry: already initialized")
	ErrNotInitialized     = errors.New("registry: not initialized")
	ErrUnauthorized       = errors.New("registry: caller is not the current admin")
	ErrInvalidAdmin       = errors.New("registry: new admin must be a non-zero identity")
	ErrUnchangedAdmin     = errors.New("registry: new admin equals the current admin")
)
