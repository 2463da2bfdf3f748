package wave

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Mantelijo/waveportal/internal/chain"
)

// SyncGateway is the part of chain.LedgerGateway used to keep the ledger in
// sync with the contract.
type SyncGateway interface {
	FetchHistoricalRecords(ctx context.Context) ([]chain.WaveRecord, error)
	FetchRecordCount(ctx context.Context) (uint64, error)
	Subscribe(ctx context.Context, onEvent func(chain.WaveEvent), onError func(error)) (chain.SubscriptionHandle, error)
	Unsubscribe(handle chain.SubscriptionHandle) error
}

// RecordSink receives every live record after it was applied to the ledger.
type RecordSink interface {
	Publish(ctx context.Context, record chain.WaveRecord) error
}

type SyncStatus struct {
	// Epoch of the session the ledger is synced with, 0 when idle
	Epoch      uint64 `json:"epoch"`
	Count      uint64 `json:"count"`
	Degraded   bool   `json:"degraded"`
	Subscribed bool   `json:"subscribed"`
}

// liveEvent carries a record, or err when the feed of epoch broke.
type liveEvent struct {
	epoch  uint64
	record chain.WaveRecord
	err    error
}

type settleRequest struct {
	SettleRequest
	done chan struct{}
}

const (
	transitionQueueSize = 64
	publishQueueSize    = 256
)

// SyncController keeps the ledger in sync with the session. Session
// transitions and live events are handled one at a time by the Run loop, so
// the historical load for a connection is always applied before its
// subscription is opened.
type SyncController struct {
	gw      SyncGateway
	session SessionReader
	ledger  *EventLedger
	sink    RecordSink

	transitions chan SessionState
	events      chan liveEvent
	settles     chan settleRequest
	publishes   chan chain.WaveRecord
	stopped     chan struct{}
	stopOnce    sync.Once

	// Owned by the Run loop
	epoch   uint64
	handle  chain.SubscriptionHandle
	subDone chan struct{}

	mu     sync.Mutex
	status SyncStatus
}

// NewSyncController wires a controller to session. Transitions are queued
// until Run is called.
func NewSyncController(gw SyncGateway, session *WalletSession, ledger *EventLedger, opts ...SyncOption) *SyncController {
	c := &SyncController{
		gw:          gw,
		session:     session,
		ledger:      ledger,
		transitions: make(chan SessionState, transitionQueueSize),
		events:      make(chan liveEvent),
		settles:     make(chan settleRequest),
		publishes:   make(chan chain.WaveRecord, publishQueueSize),
		stopped:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	session.Subscribe(c.enqueue)
	return c
}

type SyncOption func(*SyncController)

func WithRecordSink(sink RecordSink) SyncOption {
	return func(c *SyncController) {
		c.sink = sink
	}
}

func (c *SyncController) Status() SyncStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *SyncController) enqueue(st SessionState) {
	select {
	case c.transitions <- st:
	case <-c.stopped:
	}
}

// Run processes session transitions and live events until ctx is done. The
// held subscription is released and the ledger cleared before Run returns.
func (c *SyncController) Run(ctx context.Context) error {
	defer c.stopOnce.Do(func() { close(c.stopped) })

	if c.sink != nil {
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.publishLoop(ctx)
		}()
		defer wg.Wait()
	}

	// Pick up a session that connected before Run started
	if st := c.session.State(); st.Connected() {
		c.handleTransition(ctx, st)
	}

	for {
		select {
		case <-ctx.Done():
			c.teardown()
			return ctx.Err()
		case st := <-c.transitions:
			c.handleTransition(ctx, st)
		case ev := <-c.events:
			c.handleLive(ev)
		case req := <-c.settles:
			c.handleSettle(req.SettleRequest)
			close(req.done)
		}
	}
}

// SettlePending resolves the placeholder of a confirmed submission on the Run
// loop. It returns once the request was handled, or when ctx is done or Run
// has returned.
func (c *SyncController) SettlePending(ctx context.Context, req SettleRequest) {
	r := settleRequest{SettleRequest: req, done: make(chan struct{})}
	select {
	case c.settles <- r:
	case <-c.stopped:
		return
	case <-ctx.Done():
		return
	}
	select {
	case <-r.done:
	case <-c.stopped:
	case <-ctx.Done():
	}
}

func (c *SyncController) handleTransition(ctx context.Context, st SessionState) {
	if !st.Connected() {
		if st.Status == StatusConnecting {
			return
		}
		c.teardown()
		return
	}
	if st.Epoch == c.epoch {
		return
	}
	// Account switch: drop everything from the previous account first
	if c.epoch != 0 {
		c.teardown()
	}
	c.sync(ctx, st)
}

func (c *SyncController) sync(ctx context.Context, st SessionState) {
	logger := slog.With(slog.String("account", st.Account), slog.Uint64("epoch", st.Epoch))

	degraded := false
	records, err := c.gw.FetchHistoricalRecords(ctx)
	if c.stale(st) {
		logger.Info("discarding historical records from a stale session")
		return
	}
	if err != nil {
		logger.Error("failed to fetch historical waves", slog.Any("error", err))
		degraded = true
		records = nil
	} else {
		c.ledger.LoadHistorical(records)
	}

	count, err := c.gw.FetchRecordCount(ctx)
	if err != nil {
		logger.Warn("failed to fetch wave count, using historical length", slog.Any("error", err))
		count = uint64(len(records))
	}
	if c.stale(st) {
		c.ledger.Clear()
		return
	}

	c.epoch = st.Epoch
	done := make(chan struct{})
	epoch := st.Epoch
	handle, err := c.gw.Subscribe(ctx, func(ev chain.WaveEvent) {
		select {
		case c.events <- liveEvent{epoch: epoch, record: ev.Record()}:
		case <-done:
		}
	}, func(err error) {
		select {
		case c.events <- liveEvent{epoch: epoch, err: err}:
		case <-done:
		}
	})
	if err != nil {
		logger.Error("failed to subscribe to waves", slog.Any("error", err))
		degraded = true
	} else {
		c.handle = handle
		c.subDone = done
	}

	c.mu.Lock()
	c.status = SyncStatus{
		Epoch:      st.Epoch,
		Count:      count,
		Degraded:   degraded,
		Subscribed: handle.Valid(),
	}
	c.mu.Unlock()

	logger.Info("synced waves",
		slog.Int("historical", len(records)),
		slog.Uint64("count", count),
		slog.Bool("degraded", degraded),
	)
}

// stale reports whether the session moved on from st.
func (c *SyncController) stale(st SessionState) bool {
	cur := c.session.State()
	return !cur.Connected() || cur.Epoch != st.Epoch
}

func (c *SyncController) handleLive(ev liveEvent) {
	if ev.epoch != c.epoch {
		return
	}
	if ev.err != nil {
		c.handleFeedFailure(ev.err)
		return
	}

	res := c.ledger.AppendLive(ev.record)
	if !res.Added() {
		slog.Debug("dropped duplicate wave", slog.String("address", ev.record.Address))
		return
	}

	slog.Info("received new wave",
		slog.String("address", ev.record.Address),
		slog.Time("timestamp", ev.record.Timestamp),
		slog.Bool("superseded_pending", res == Superseded),
	)
	c.recordAdded(ev.record)
}

// handleFeedFailure releases a subscription whose feed broke. The ledger is
// kept but no longer receives live waves until the next connection.
func (c *SyncController) handleFeedFailure(err error) {
	slog.Error("wave subscription failed", slog.Any("error", err), slog.Uint64("epoch", c.epoch))

	c.releaseSubscription()

	c.mu.Lock()
	c.status.Degraded = true
	c.status.Subscribed = false
	c.mu.Unlock()
}

func (c *SyncController) handleSettle(req SettleRequest) {
	if req.Epoch != c.epoch {
		return
	}

	res := c.ledger.ResolvePending(req.PendingID, req.Since, req.Confirmed, req.Apply)
	if res == Superseded {
		slog.Info("applied confirmed wave from receipt", slog.String("submission", req.PendingID))
		c.recordAdded(*req.Confirmed)
	}
}

// recordAdded counts a record that entered the ledger and queues it for the
// sink.
func (c *SyncController) recordAdded(record chain.WaveRecord) {
	c.mu.Lock()
	c.status.Count++
	c.mu.Unlock()

	if c.sink == nil {
		return
	}
	record.Origin = chain.OriginLive
	select {
	case c.publishes <- record:
	default:
		slog.Warn("publish queue full, dropping wave", slog.String("address", record.Address))
	}
}

func (c *SyncController) publishLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case record := <-c.publishes:
			if err := c.sink.Publish(ctx, record); err != nil {
				slog.Warn("failed to publish wave", slog.Any("error", err))
			}
		}
	}
}

func (c *SyncController) releaseSubscription() {
	if c.handle.Valid() {
		close(c.subDone)
		if err := c.gw.Unsubscribe(c.handle); err != nil {
			slog.Error("failed to release wave subscription", slog.Any("error", err))
		}
	}
	c.handle = chain.SubscriptionHandle{}
	c.subDone = nil
}

// teardown releases the held subscription, if any, and clears the ledger.
func (c *SyncController) teardown() {
	c.releaseSubscription()
	c.epoch = 0
	c.ledger.Clear()

	c.mu.Lock()
	c.status = SyncStatus{}
	c.mu.Unlock()
}
