package domain

import "errors"

var (
	ErrValidation    = errors.New("validation failed")
	ErrPublishFailed = errors.New("publish failed")
	ErrUnknownOrder  = errors.New("unknown order")
	ErrMalformed     = errors.New("malformed message")
	ErrInProgress    = errors.New("action already in progress")
)
