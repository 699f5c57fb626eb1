package services

import "errors"

var (
	ErrAuthentication       = errors.New("invalid credentials")
	ErrInvalidToken         = errors.New("invalid token")
	ErrOutOfRange           = errors.New("drop location is outside the city limit")
	ErrQuotaExceeded        = errors.New("daily drop limit reached")
	ErrSelfInteraction      = errors.New("cannot send a signal to your own box")
	ErrBoxNotFound          = errors.New("box not found")
	ErrChatNotFound         = errors.New("chat not found")
	ErrNotPending           = errors.New("chat request is not pending")
	ErrInvalidInput         = errors.New("invalid input")
	ErrPhotoStorageDisabled = errors.New("photo storage is not configured")
)
