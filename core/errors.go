package core

import "errors"

// Validation errors are surfaced synchronously to the caller and never
// retried; the entitlement is simply not created.
var (
	ErrTargetNotFound    = errors.New("target not found")
	ErrTargetDeleted     = errors.New("target is deleted")
	ErrPricingNotFound   = errors.New("no price for entitlement")
	ErrInvalidDuration   = errors.New("duration not on menu")
	ErrInvalidType       = errors.New("unknown entitlement type")
	ErrGrantNotFound     = errors.New("grant not found")
	ErrRequestNotFound   = errors.New("verification request not found")
	ErrInvalidTransition = errors.New("invalid verification transition")
	ErrUnauthorized      = errors.New("caller may not modify target")
)
