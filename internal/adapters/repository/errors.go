package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrSampleRulesNotFound = errors.New("sample rules file not found")
	ErrInvalidPayload      = errors.New("invalid training payload")
	ErrPersist             = errors.New("snapshot persist failed")
)
