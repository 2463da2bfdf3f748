package wave

import (
	"context"
	"sync"
	"time"

	"github.com/Mantelijo/waveportal/internal/chain"
)

var _ chain.LedgerGateway = (*fakeGateway)(nil)

// fakeGateway is an in-memory LedgerGateway. Gates, when set, block the
// matching call until closed.
type fakeGateway struct {
	mu sync.Mutex

	provider bool

	authorized    []string
	authorizedErr error

	requested    []string
	requestErr   error
	requestGate  chan struct{}
	requestCalls int

	historical     []chain.WaveRecord
	historicalErr  error
	historicalGate chan struct{}
	historicalHits int

	count    uint64
	countErr error

	subscribeErr error
	onSubscribe  func()
	nextSub      uint64
	subs         map[uint64]func(chain.WaveEvent)
	subErrs      map[uint64]func(error)
	subscribed   int
	released     []chain.SubscriptionHandle

	submitErr   error
	submitCalls int
	txHash      string
	// Called by SubmitRecord before it returns, without holding mu
	onSubmit func(message string)

	confirm     chain.ConfirmationResult
	confirmErr  error
	confirmGate chan struct{}
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		provider:  true,
		requested: []string{alice},
		subs:      make(map[uint64]func(chain.WaveEvent)),
		subErrs:   make(map[uint64]func(error)),
		txHash:    "0xabc",
	}
}

func (f *fakeGateway) HasProvider() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.provider
}

func (f *fakeGateway) AuthorizedAccounts(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authorized, f.authorizedErr
}

func (f *fakeGateway) RequestAccounts(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	f.requestCalls++
	gate := f.requestGate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requested, f.requestErr
}

func (f *fakeGateway) FetchHistoricalRecords(ctx context.Context) ([]chain.WaveRecord, error) {
	f.mu.Lock()
	f.historicalHits++
	gate := f.historicalGate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]chain.WaveRecord{}, f.historical...), f.historicalErr
}

func (f *fakeGateway) FetchRecordCount(ctx context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count, f.countErr
}

func (f *fakeGateway) Subscribe(ctx context.Context, onEvent func(chain.WaveEvent), onError func(error)) (chain.SubscriptionHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscribeErr != nil {
		return chain.SubscriptionHandle{}, f.subscribeErr
	}
	if f.onSubscribe != nil {
		f.onSubscribe()
	}
	f.nextSub++
	f.subs[f.nextSub] = onEvent
	f.subErrs[f.nextSub] = onError
	f.subscribed++
	return chain.NewSubscriptionHandle(f.nextSub), nil
}

func (f *fakeGateway) Unsubscribe(handle chain.SubscriptionHandle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id := range f.subs {
		if chain.NewSubscriptionHandle(id) == handle {
			delete(f.subs, id)
			delete(f.subErrs, id)
			f.released = append(f.released, handle)
			return nil
		}
	}
	return chain.ErrUnknownSubscription
}

func (f *fakeGateway) SubmitRecord(ctx context.Context, message string) (chain.TxHandle, error) {
	f.mu.Lock()
	f.submitCalls++
	onSubmit := f.onSubmit
	err := f.submitErr
	hash := f.txHash
	f.mu.Unlock()

	if err != nil {
		return chain.TxHandle{}, err
	}
	if onSubmit != nil {
		onSubmit(message)
	}
	return chain.TxHandle{Hash: hash}, nil
}

func (f *fakeGateway) AwaitConfirmation(ctx context.Context, handle chain.TxHandle) (chain.ConfirmationResult, error) {
	f.mu.Lock()
	gate := f.confirmGate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return chain.ConfirmationResult{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.confirm, f.confirmErr
}

// emit delivers ev to every open subscription.
func (f *fakeGateway) emit(ev chain.WaveEvent) {
	f.mu.Lock()
	fns := make([]func(chain.WaveEvent), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// dropFeed reports err on every open subscription, as a broken websocket
// would.
func (f *fakeGateway) dropFeed(err error) {
	f.mu.Lock()
	fns := make([]func(error), 0, len(f.subErrs))
	for _, fn := range f.subErrs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(err)
	}
}

func (f *fakeGateway) openSubs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *fakeGateway) stats() (subscribed int, released []chain.SubscriptionHandle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subscribed, append([]chain.SubscriptionHandle{}, f.released...)
}

func (f *fakeGateway) set(update func(f *fakeGateway)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	update(f)
}

const (
	alice = "0x9642b23Ed1E01Df1092B92641051881a322F5D4E"
	bob   = "0xeEa5b26B94E4e5bA416c9725e51aB755E2ddE107"
)

var (
	t1 = time.Unix(1_650_000_000, 0).UTC()
	t2 = time.Unix(1_650_000_060, 0).UTC()
	t3 = time.Unix(1_650_000_120, 0).UTC()
)

func rec(address string, ts time.Time, message string, origin chain.Origin) chain.WaveRecord {
	return chain.WaveRecord{Address: address, Timestamp: ts, Message: message, Origin: origin}
}
