package subgate

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios. Every failure is a
// precondition evaluated before mutation: the call aborts with zero
// partial state change and the caller must resubmit corrected input.
var (
	// General errors
	ErrNotFound      = errors.New("subgate: not found")
	ErrAlreadyExists = errors.New("subgate: already exists")
	ErrInvalidInput  = errors.New("subgate: invalid input")
	ErrUnauthorized  = errors.New("subgate: unauthorized")

	// Config errors
	ErrDisabled      = errors.New("subgate: engine is disabled")
	ErrConfiguration = errors.New("subgate: payout address is not configured")

	// Catalog errors
	ErrUnknownPlan      = errors.New("subgate: unknown plan")
	ErrPlanExists       = errors.New("subgate: plan already exists")
	ErrPlanDisabled     = errors.New("subgate: plan is disabled")
	ErrAssetNotAccepted = errors.New("subgate: asset not accepted for this plan")

	// Payment errors
	ErrInvalidAmount  = errors.New("subgate: payment amount does not match the configured price")
	ErrTransferFailed = errors.New("subgate: outbound transfer failed")

	// Store errors
	ErrStoreNotReady     = errors.New("subgate: store not ready")
	ErrStoreClosed       = errors.New("subgate: store is closed")
	ErrTransactionFailed = errors.New("subgate: transaction failed")
	ErrMigrationFailed   = errors.New("subgate: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("subgate: validation failed for %s: %s", e.Field, e.Message)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUnknownPlan)
}

// IsRejected returns true if the error is a payment precondition failure:
// the pay call was refused before any state changed.
func IsRejected(err error) bool {
	return errors.Is(err, ErrDisabled) ||
		errors.Is(err, ErrUnknownPlan) ||
		errors.Is(err, ErrAssetNotAccepted) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrPlanDisabled)
}

// IsRetryable returns true if the error is temporary and the operation can
// be retried by the caller.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrTransactionFailed)
}
