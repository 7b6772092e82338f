package service

import "errors"

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrConfigNotFound       = errors.New("configuration not found")
	ErrInvalidConfig        = errors.New("invalid configuration")
	ErrWrongGameKind        = errors.New("operation not supported for this game kind")
	ErrSessionLimit         = errors.New("session limit reached")
)
