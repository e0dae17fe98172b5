package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidToken = errors.New("invalid verification token")
	ErrExpired      = errors.New("verification token expired")
	ErrAlreadyDone  = errors.New("already done")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUpstream     = errors.New("upstream failure")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
)
