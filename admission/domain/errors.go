package domain

import "errors"

// Erros de registro/resolução de estratégia. São detectados na hora da
// resolução e nunca re-tentados pelo engine.
var (
	ErrNotRegistered     = errors.New("admission: strategy not registered")
	ErrAlreadyRegistered = errors.New("admission: strategy already registered")
	ErrTypeMismatch      = errors.New("admission: payload kind does not match strategy")
)
