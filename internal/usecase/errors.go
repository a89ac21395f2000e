package usecase

import "errors"

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnknownFeed   = errors.New("unknown feed")
	ErrSessionClosed = errors.New("dashboard session is closed")
)
