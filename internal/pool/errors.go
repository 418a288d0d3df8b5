package pool

import "errors"

var (
	// ErrPoolExhausted is returned by Next when no targets remain.
	ErrPoolExhausted = errors.New("target pool exhausted")

	// ErrTargetNotFound means the address was evicted, removed or never added.
	// Callers should drop their cached address and select again.
	ErrTargetNotFound = errors.New("target not found")

	// ErrDuplicateTarget is returned when adding an address that is already a member.
	ErrDuplicateTarget = errors.New("target already in pool")

	ErrInvalidThreshold = errors.New("failure threshold must be at least 1")
	ErrInvalidWeight    = errors.New("weight must be at least 1")
	ErrInvalidAddress   = errors.New("address cannot be empty")
	ErrUnknownPolicy    = errors.New("unknown selection policy")
)
