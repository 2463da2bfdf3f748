package chain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
)

var (
	// ErrProviderUnavailable is returned when no wallet provider is configured.
	// It is terminal: the user must configure a wallet.
	ErrProviderUnavailable = errors.New("wallet provider unavailable")
	// ErrUserRejected is returned when an interactive wallet action was
	// declined. The action may be retried.
	ErrUserRejected = errors.New("user rejected the request")
	ErrNetwork      = errors.New("network error")
	ErrTimeout      = errors.New("timed out")

	ErrTransactionReverted = errors.New("transaction reverted")
	ErrInsufficientFunds   = errors.New("insufficient funds")

	// ErrUnknownSubscription is returned when releasing a handle that is not
	// held, for example one that was already released.
	ErrUnknownSubscription = errors.New("unknown subscription")
)

// LedgerGateway is the only contract between the wave core and the outside
// world: the wallet provider and the WavePortal contract binding.
type LedgerGateway interface {
	// HasProvider reports whether a wallet provider is present.
	HasProvider() bool

	// AuthorizedAccounts returns the accounts the provider already authorized.
	// It never prompts the user.
	AuthorizedAccounts(ctx context.Context) ([]string, error)

	// RequestAccounts asks the provider for accounts and may prompt the user.
	// Fails with ErrUserRejected or ErrProviderUnavailable.
	RequestAccounts(ctx context.Context) ([]string, error)

	// FetchHistoricalRecords returns all waves stored by the contract in chain
	// order.
	FetchHistoricalRecords(ctx context.Context) ([]WaveRecord, error)

	// FetchRecordCount returns the contract's total wave count.
	FetchRecordCount(ctx context.Context) (uint64, error)

	// Subscribe starts delivering NewWave events to onEvent until the returned
	// handle is released with Unsubscribe. If the feed breaks, onError is
	// called once and no further events follow; the handle must still be
	// released. Both callbacks are called from a gateway goroutine.
	Subscribe(ctx context.Context, onEvent func(WaveEvent), onError func(error)) (SubscriptionHandle, error)

	// Unsubscribe releases a handle returned by Subscribe. After it returns no
	// further events are delivered for that handle.
	Unsubscribe(handle SubscriptionHandle) error

	// SubmitRecord sends a wave transaction and returns once it was signed and
	// broadcast.
	SubmitRecord(ctx context.Context, message string) (TxHandle, error)

	// AwaitConfirmation blocks until the transaction is mined. Fails with
	// ErrTransactionReverted or ErrTimeout.
	AwaitConfirmation(ctx context.Context, handle TxHandle) (ConfirmationResult, error)
}

type Origin string

const (
	OriginHistorical   Origin = "historical"
	OriginLive         Origin = "live"
	OriginPendingLocal Origin = "pending_local"
)

// WaveRecord is one logged wave. Records are values and are never mutated
// once created.
type WaveRecord struct {
	Address   string    `json:"address"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Origin    Origin    `json:"origin"`
}

// Key returns the logical identity of the record. Two records with the same
// key are the same wave regardless of their origin.
func (r WaveRecord) Key() RecordKey {
	return RecordKey{
		Address:   strings.ToLower(r.Address),
		Timestamp: r.Timestamp.Unix(),
		Message:   r.Message,
	}
}

type RecordKey struct {
	Address   string
	Timestamp int64
	Message   string
}

// WaveEvent is a NewWave event delivered by a live subscription.
type WaveEvent struct {
	Address   string
	Timestamp time.Time
	Message   string
}

// Record converts the event into a live WaveRecord.
func (e WaveEvent) Record() WaveRecord {
	return WaveRecord{
		Address:   e.Address,
		Timestamp: e.Timestamp,
		Message:   e.Message,
		Origin:    OriginLive,
	}
}

// SubscriptionHandle is an opaque token for a live subscription.
type SubscriptionHandle struct {
	id uint64
}

// Valid reports whether the handle was returned by a successful Subscribe.
func (h SubscriptionHandle) Valid() bool {
	return h.id != 0
}

// NewSubscriptionHandle is used by LedgerGateway implementations to mint
// handles. id must be non zero.
func NewSubscriptionHandle(id uint64) SubscriptionHandle {
	return SubscriptionHandle{id: id}
}

// TxHandle identifies a broadcast transaction.
type TxHandle struct {
	Hash string

	tx *types.Transaction
}

type ConfirmationResult struct {
	TxHash      string
	BlockNumber uint64
	// Record holds the NewWave event emitted by the transaction, when the
	// receipt contained one.
	Record *WaveRecord
}
