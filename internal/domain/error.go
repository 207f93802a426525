package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("storage operation failed")
	ErrInvalidExecContext = errors.New("invalid executor context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Payment / reconciliation errors
	ErrInvalidSignature = errors.New("callback signature invalid")
	ErrAmountMismatch   = errors.New("declared amount does not match stored amount")
	ErrAttemptFinalized = errors.New("payment attempt already finalized")
	ErrOrderNotPayable  = errors.New("subscription order is not payable")
	ErrGatewayRequest   = errors.New("gateway initiation request failed")
	ErrRateLimited      = errors.New("too many payment requests")
	ErrLockHeld         = errors.New("lock is held by another worker")
)
