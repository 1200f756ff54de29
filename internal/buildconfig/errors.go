package buildconfig

import "errors"

var (
	// ErrDuplicateRegistration indicates a rule, plugin or loader name registered twice
	ErrDuplicateRegistration = errors.New("duplicate registration")
	// ErrMissingRule indicates a module rule expected by a mutation is not registered
	ErrMissingRule = errors.New("module rule not registered")
	// ErrMissingPlugin indicates a plugin expected by a mutation is not registered
	ErrMissingPlugin = errors.New("plugin not registered")
)
