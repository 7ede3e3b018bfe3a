package services

import "errors"

// Common service errors
var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidState = errors.New("invalid state transition")
)

// Recognition errors. ErrNotStarted, ErrAlreadyRecognized and ErrContractLocked
// are skips; the rest count as contract errors, except ErrRunFetch which aborts the run.
var (
	ErrNotStarted        = errors.New("contract has not started yet")
	ErrAlreadyRecognized = errors.New("revenue already recognized for all elapsed days")
	ErrContractLocked    = errors.New("contract is being recognized by another run")
	ErrInvalidContract   = errors.New("invalid contract")
	ErrAccountResolution = errors.New("account resolution failed")
	ErrRunFetch          = errors.New("failed to fetch contracts")
)

// IsSkip reports whether err means the contract was skipped rather than failed
func IsSkip(err error) bool {
	return errors.Is(err, ErrNotStarted) ||
		errors.Is(err, ErrAlreadyRecognized) ||
		errors.Is(err, ErrContractLocked)
}
