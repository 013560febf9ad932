package services

import "errors"

// Common service errors. Handlers map these to HTTP status codes; anything
// not in this list is treated as an internal error.
var (
	ErrNotFound               = errors.New("record not found")
	ErrInvalidState           = errors.New("invalid state transition")
	ErrDuplicate              = errors.New("duplicate record")
	ErrInvalidAmount          = errors.New("amount must be greater than zero")
	ErrAmountExceedsBalance   = errors.New("payment amount exceeds invoice balance due")
	ErrReasonRequired         = errors.New("adjustment reason is required")
	ErrTransactionNumRequired = errors.New("transaction number is required for bank transfers")
	ErrNoActiveEnrollments    = errors.New("student has no active enrollments")
	ErrUnknownAdjustmentType  = errors.New("unknown adjustment type")
	ErrUnknownPaymentMethod   = errors.New("unknown payment method")
)
