package verc20

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrUserRejected is returned when the wallet declines a signature or
	// transaction prompt. Recoverable: the caller may simply re-prompt.
	ErrUserRejected = errors.New("user rejected request")

	// ErrFlowInFlight is returned when an action starts while another
	// attempt for the same subject has not finished.
	ErrFlowInFlight = errors.New("another attempt for this subject is in flight")

	// ErrTickNotFound is returned by tick lookups that resolve to 404,
	// which for deploy purposes means the tick is available.
	ErrTickNotFound = errors.New("tick not found")
)

// ValidationError reports a client-side constraint violation. It blocks the
// action before any network or chain call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ChainError reports a transaction that reverted or failed to confirm.
// Terminal for the attempt; no indexer update follows it.
type ChainError struct {
	TxHash string
	Reason string
}

func (e *ChainError) Error() string {
	if e.TxHash == "" {
		return fmt.Sprintf("chain error: %s", e.Reason)
	}
	return fmt.Sprintf("chain error (tx %s): %s", e.TxHash, e.Reason)
}

// IndexerError reports a plain indexer API failure with no durable on-chain
// state behind it. Safe to retry the whole action.
type IndexerError struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *IndexerError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("indexer %s: HTTP %d: %s", e.Endpoint, e.Status, e.Message)
	}
	return fmt.Sprintf("indexer %s: %s", e.Endpoint, e.Message)
}

// InconsistencyError reports an indexer failure that happened after an
// on-chain action already succeeded: chain and index are now divergent.
// It must be surfaced persistently and never retried automatically.
type InconsistencyError struct {
	TxHash string
	Step   string
	Cause  error
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("on-chain tx %s confirmed but %s failed: %v", e.TxHash, e.Step, e.Cause)
}

func (e *InconsistencyError) Unwrap() error { return e.Cause }

// IsUserRejected reports whether err is a wallet-level rejection.
func IsUserRejected(err error) bool {
	return errors.Is(err, ErrUserRejected)
}

// IsInconsistency reports whether err means on-chain and indexer state have
// diverged and operator follow-up is required.
func IsInconsistency(err error) bool {
	var target *InconsistencyError
	return errors.As(err, &target)
}
