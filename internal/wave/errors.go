package wave

import (
	"context"
	"errors"

	"github.com/Mantelijo/waveportal/internal/chain"
)

var (
	// ErrValidation is returned for empty or whitespace only messages. The
	// gateway is never contacted.
	ErrValidation = errors.New("a message is required")
	// ErrSubmissionInProgress is returned when a submission is already
	// awaiting signature or confirmation.
	ErrSubmissionInProgress = errors.New("a submission is already in progress")
	ErrNotConnected         = errors.New("wallet is not connected")
)

// Reason is a stable failure code that presentation layers can render.
type Reason string

const (
	ReasonNone                 Reason = ""
	ReasonProviderUnavailable  Reason = "provider_unavailable"
	ReasonUserRejected         Reason = "user_rejected"
	ReasonValidation           Reason = "validation"
	ReasonNetwork              Reason = "network"
	ReasonTimeout              Reason = "timeout"
	ReasonTransactionReverted  Reason = "transaction_reverted"
	ReasonInsufficientFunds    Reason = "insufficient_funds"
	ReasonSubmissionInProgress Reason = "submission_in_progress"
	ReasonNotConnected         Reason = "not_connected"
)

// ReasonOf maps an error returned by the gateway or by this package to its
// reason code. Unknown errors are reported as network failures.
func ReasonOf(err error) Reason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, ErrValidation):
		return ReasonValidation
	case errors.Is(err, ErrSubmissionInProgress):
		return ReasonSubmissionInProgress
	case errors.Is(err, ErrNotConnected):
		return ReasonNotConnected
	case errors.Is(err, chain.ErrProviderUnavailable):
		return ReasonProviderUnavailable
	case errors.Is(err, chain.ErrUserRejected):
		return ReasonUserRejected
	case errors.Is(err, chain.ErrInsufficientFunds):
		return ReasonInsufficientFunds
	case errors.Is(err, chain.ErrTransactionReverted):
		return ReasonTransactionReverted
	case errors.Is(err, chain.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	default:
		return ReasonNetwork
	}
}
