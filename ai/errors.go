package ai

import "errors"

var (
	// ErrCredentialRequired is returned when a session is requested without a credential.
	ErrCredentialRequired = errors.New("credential required")

	// ErrEmptyResponse is returned when a completion call yields no choices.
	ErrEmptyResponse = errors.New("completion returned no choices")
)
