package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid executor context")

	// Settlement errors
	ErrVerificationFailed = errors.New("webhook signature verification failed")
	ErrAlreadyProcessed   = errors.New("event already processed")
	ErrTransferEmitted    = errors.New("transfer already emitted for payment")

	// Client sync errors
	ErrDraftLocked = errors.New("draft is being synced")
)
