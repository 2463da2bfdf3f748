package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rpc"
)

const (
	DefaultGasLimit     = 300000
	defaultDialAttempts = 3

	newWaveEvent = "NewWave"
)

// WavePortalABI is the part of the WavePortal contract ABI used by the
// gateway.
const WavePortalABI = `[
	{"inputs":[],"name":"getAllWaves","outputs":[{"components":[{"internalType":"address","name":"waver","type":"address"},{"internalType":"string","name":"message","type":"string"},{"internalType":"uint256","name":"timestamp","type":"uint256"}],"internalType":"struct WavePortal.Wave[]","name":"","type":"tuple[]"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"getTotalWaves","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"string","name":"_message","type":"string"}],"name":"wave","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"anonymous":false,"inputs":[{"indexed":true,"internalType":"address","name":"from","type":"address"},{"indexed":false,"internalType":"uint256","name":"timestamp","type":"uint256"},{"indexed":false,"internalType":"string","name":"message","type":"string"}],"name":"NewWave","type":"event"}
]`

var parsedWavePortalABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(WavePortalABI))
	if err != nil {
		panic(fmt.Sprintf("invalid wave portal abi: %v", err))
	}
	return parsed
}()

// wavePortalWave mirrors the WavePortal.Wave struct returned by getAllWaves.
type wavePortalWave struct {
	Waver     common.Address
	Message   string
	Timestamp *big.Int
}

type newWaveLog struct {
	From      common.Address
	Timestamp *big.Int
	Message   string
}

type callFn func(opts *bind.CallOpts, results *[]interface{}, method string, params ...interface{}) error
type transactFn func(opts *bind.TransactOpts, method string, params ...interface{}) (*types.Transaction, error)
type watchLogsFn func(opts *bind.WatchOpts, name string, query ...[]interface{}) (chan types.Log, event.Subscription, error)
type waitMinedFn func(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)

func NewWavePortalGateway(rpcUrl, contract string, wallet WalletProvider, opts ...WavePortalGatewayOption) (*wavePortalGateway, error) {
	if !common.IsHexAddress(contract) {
		return nil, fmt.Errorf("invalid contract address %q", contract)
	}

	g := &wavePortalGateway{
		rpcUrl:       rpcUrl,
		contract:     common.HexToAddress(contract),
		wallet:       wallet,
		gasLimit:     DefaultGasLimit,
		dialAttempts: defaultDialAttempts,
		subs:         make(map[uint64]*liveSubscription),
	}

	for _, opt := range opts {
		opt.Apply(g)
	}

	return g, nil
}

var _ LedgerGateway = (*wavePortalGateway)(nil)

type wavePortalGateway struct {
	rpcUrl   string
	contract common.Address
	// Nil when no wallet is configured
	wallet WalletProvider

	// Options that will be applied to rpc client in Init
	rpcClientOpts []rpc.ClientOption
	gasLimit      uint64
	dialAttempts  uint

	c       *ethclient.Client
	chainId *big.Int

	// Account used for signing, the first account returned by the wallet
	selected common.Address
	// subs and selected mutex
	mu        sync.Mutex
	subs      map[uint64]*liveSubscription
	nextSubID uint64

	call      callFn
	transact  transactFn
	watchLogs watchLogsFn
	waitMined waitMinedFn
}

type liveSubscription struct {
	sub  event.Subscription
	done chan struct{}
	wg   sync.WaitGroup
}

// Init dials the rpc endpoint and binds the contract.
func (g *wavePortalGateway) Init(ctx context.Context) error {
	err := retry.Do(
		func() error {
			rpcClient, err := rpc.DialOptions(ctx, g.rpcUrl, g.rpcClientOpts...)
			if err != nil {
				return fmt.Errorf("failed to dial rpc: %w", err)
			}
			c := ethclient.NewClient(rpcClient)

			chainId, err := c.ChainID(ctx)
			if err != nil {
				c.Close()
				return fmt.Errorf("failed to get chain id: %w", err)
			}
			g.c = c
			g.chainId = chainId
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(g.dialAttempts),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(5*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("retrying rpc dial",
				slog.Uint64("attempt", uint64(n+1)),
				slog.Any("error", err),
			)
		}),
	)
	if err != nil {
		return err
	}

	bound := bind.NewBoundContract(g.contract, parsedWavePortalABI, g.c, g.c, g.c)
	g.call = bound.Call
	g.transact = bound.Transact
	g.watchLogs = bound.WatchLogs
	g.waitMined = func(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
		return bind.WaitMined(ctx, g.c, tx)
	}

	slog.Info("initialized wave portal gateway",
		slog.String("rpc_url", g.rpcUrl),
		slog.String("contract", g.contract.String()),
		slog.String("chain_id", g.chainId.String()),
	)

	return nil
}

// Close releases all live subscriptions and the rpc connection.
func (g *wavePortalGateway) Close() {
	g.mu.Lock()
	ids := make([]uint64, 0, len(g.subs))
	for id := range g.subs {
		ids = append(ids, id)
	}
	g.mu.Unlock()

	for _, id := range ids {
		g.Unsubscribe(NewSubscriptionHandle(id))
	}
	if g.c != nil {
		g.c.Close()
	}
}

func (g *wavePortalGateway) HasProvider() bool {
	return g.wallet != nil
}

func (g *wavePortalGateway) AuthorizedAccounts(ctx context.Context) ([]string, error) {
	if g.wallet == nil {
		return nil, ErrProviderUnavailable
	}
	accounts, err := g.wallet.AuthorizedAccounts(ctx)
	if err != nil {
		return nil, err
	}
	return g.selectAccounts(accounts), nil
}

func (g *wavePortalGateway) RequestAccounts(ctx context.Context) ([]string, error) {
	if g.wallet == nil {
		return nil, ErrProviderUnavailable
	}
	accounts, err := g.wallet.RequestAccounts(ctx)
	if err != nil {
		return nil, err
	}
	return g.selectAccounts(accounts), nil
}

// WatchAccounts forwards wallet account changes to fn.
func (g *wavePortalGateway) WatchAccounts(fn func([]string)) func() {
	if g.wallet == nil {
		return func() {}
	}
	return g.wallet.WatchAccounts(func(accounts []common.Address) {
		fn(g.selectAccounts(accounts))
	})
}

func (g *wavePortalGateway) selectAccounts(accounts []common.Address) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(accounts) == 0 {
		g.selected = common.Address{}
		return []string{}
	}
	g.selected = accounts[0]

	out := make([]string, len(accounts))
	for i, a := range accounts {
		out[i] = a.String()
	}
	return out
}

func (g *wavePortalGateway) FetchHistoricalRecords(ctx context.Context) ([]WaveRecord, error) {
	var out []interface{}
	if err := g.call(&bind.CallOpts{Context: ctx}, &out, "getAllWaves"); err != nil {
		return nil, fmt.Errorf("calling getAllWaves: %w", errors.Join(ErrNetwork, err))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("getAllWaves returned no values: %w", ErrNetwork)
	}

	waves, ok := abi.ConvertType(out[0], new([]wavePortalWave)).(*[]wavePortalWave)
	if !ok {
		return nil, fmt.Errorf("unexpected getAllWaves result %T", out[0])
	}

	records := make([]WaveRecord, 0, len(*waves))
	for _, w := range *waves {
		records = append(records, WaveRecord{
			Address:   w.Waver.String(),
			Timestamp: unixTime(w.Timestamp),
			Message:   w.Message,
			Origin:    OriginHistorical,
		})
	}
	return records, nil
}

func (g *wavePortalGateway) FetchRecordCount(ctx context.Context) (uint64, error) {
	var out []interface{}
	if err := g.call(&bind.CallOpts{Context: ctx}, &out, "getTotalWaves"); err != nil {
		return 0, fmt.Errorf("calling getTotalWaves: %w", errors.Join(ErrNetwork, err))
	}
	if len(out) == 0 {
		return 0, fmt.Errorf("getTotalWaves returned no values: %w", ErrNetwork)
	}

	count, ok := abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	if !ok || *count == nil {
		return 0, fmt.Errorf("unexpected getTotalWaves result %T", out[0])
	}
	return (*count).Uint64(), nil
}

func (g *wavePortalGateway) Subscribe(ctx context.Context, onEvent func(WaveEvent), onError func(error)) (SubscriptionHandle, error) {
	logs, sub, err := g.watchLogs(&bind.WatchOpts{Context: ctx}, newWaveEvent)
	if err != nil {
		return SubscriptionHandle{}, fmt.Errorf("failed to watch %s logs: %w", newWaveEvent, errors.Join(ErrNetwork, err))
	}

	live := &liveSubscription{
		sub:  sub,
		done: make(chan struct{}),
	}

	g.mu.Lock()
	g.nextSubID++
	id := g.nextSubID
	g.subs[id] = live
	g.mu.Unlock()

	live.wg.Add(1)
	go func() {
		defer live.wg.Done()
		for {
			select {
			case <-live.done:
				return
			case err := <-sub.Err():
				// Closed without an error on Unsubscribe
				if err != nil {
					slog.Error("subscription error",
						slog.Any("error", err),
						slog.Uint64("subscription", id),
					)
					if onError != nil {
						onError(errors.Join(ErrNetwork, err))
					}
				}
				return
			case l := <-logs:
				if l.Removed {
					continue
				}
				ev, err := decodeNewWave(l)
				if err != nil {
					slog.Error("failed to decode wave log",
						slog.Any("error", err),
						slog.String("tx_hash", l.TxHash.String()),
					)
					continue
				}
				onEvent(ev)
			}
		}
	}()

	slog.Info("subscribed to wave events", slog.Uint64("subscription", id))

	return NewSubscriptionHandle(id), nil
}

func (g *wavePortalGateway) Unsubscribe(handle SubscriptionHandle) error {
	g.mu.Lock()
	live, ok := g.subs[handle.id]
	delete(g.subs, handle.id)
	g.mu.Unlock()

	if !ok {
		return ErrUnknownSubscription
	}

	close(live.done)
	live.sub.Unsubscribe()
	live.wg.Wait()

	slog.Info("unsubscribed from wave events", slog.Uint64("subscription", handle.id))

	return nil
}

func (g *wavePortalGateway) SubmitRecord(ctx context.Context, message string) (TxHandle, error) {
	if g.wallet == nil {
		return TxHandle{}, ErrProviderUnavailable
	}

	g.mu.Lock()
	account := g.selected
	g.mu.Unlock()
	if account == (common.Address{}) {
		return TxHandle{}, fmt.Errorf("no account selected: %w", ErrUserRejected)
	}

	opts, err := g.wallet.Transactor(account, g.chainId)
	if err != nil {
		return TxHandle{}, classifyTxError(err)
	}
	opts.Context = ctx
	opts.GasLimit = g.gasLimit

	tx, err := g.transact(opts, "wave", message)
	if err != nil {
		return TxHandle{}, classifyTxError(err)
	}

	slog.Info("sent wave transaction",
		slog.String("tx_hash", tx.Hash().String()),
		slog.String("account", account.String()),
	)

	return TxHandle{Hash: tx.Hash().String(), tx: tx}, nil
}

func (g *wavePortalGateway) AwaitConfirmation(ctx context.Context, handle TxHandle) (ConfirmationResult, error) {
	if handle.tx == nil {
		return ConfirmationResult{}, fmt.Errorf("unknown transaction %s", handle.Hash)
	}

	receipt, err := g.waitMined(ctx, handle.tx)
	if err != nil {
		return ConfirmationResult{}, classifyTxError(err)
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return ConfirmationResult{}, fmt.Errorf("transaction %s: %w", handle.Hash, ErrTransactionReverted)
	}

	res := ConfirmationResult{
		TxHash: handle.Hash,
	}
	if receipt.BlockNumber != nil {
		res.BlockNumber = receipt.BlockNumber.Uint64()
	}

	waveID := parsedWavePortalABI.Events[newWaveEvent].ID
	for _, l := range receipt.Logs {
		if l == nil || l.Address != g.contract || len(l.Topics) == 0 || l.Topics[0] != waveID {
			continue
		}
		ev, err := decodeNewWave(*l)
		if err != nil {
			slog.Warn("failed to decode receipt log",
				slog.Any("error", err),
				slog.String("tx_hash", handle.Hash),
			)
			continue
		}
		rec := ev.Record()
		res.Record = &rec
		break
	}

	return res, nil
}

// decodeNewWave unpacks a NewWave log.
func decodeNewWave(l types.Log) (WaveEvent, error) {
	ev := parsedWavePortalABI.Events[newWaveEvent]
	if len(l.Topics) < 2 || l.Topics[0] != ev.ID {
		return WaveEvent{}, fmt.Errorf("log is not a %s event", newWaveEvent)
	}

	out := newWaveLog{}
	if err := parsedWavePortalABI.UnpackIntoInterface(&out, newWaveEvent, l.Data); err != nil {
		return WaveEvent{}, fmt.Errorf("unpacking %s data: %w", newWaveEvent, err)
	}

	var indexed abi.Arguments
	for _, arg := range ev.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if err := abi.ParseTopics(&out, indexed, l.Topics[1:]); err != nil {
		return WaveEvent{}, fmt.Errorf("parsing %s topics: %w", newWaveEvent, err)
	}

	return WaveEvent{
		Address:   out.From.String(),
		Timestamp: unixTime(out.Timestamp),
		Message:   out.Message,
	}, nil
}

func unixTime(ts *big.Int) time.Time {
	if ts == nil {
		return time.Unix(0, 0).UTC()
	}
	return time.Unix(ts.Int64(), 0).UTC()
}

// classifyTxError maps signing and rpc failures onto the gateway error set.
func classifyTxError(err error) error {
	lower := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, keystore.ErrLocked), errors.Is(err, ErrUserRejected):
		return fmt.Errorf("%w: %w", ErrUserRejected, err)
	case strings.Contains(lower, "insufficient funds"):
		return fmt.Errorf("%w: %w", ErrInsufficientFunds, err)
	case strings.Contains(lower, "execution reverted"):
		return fmt.Errorf("%w: %w", ErrTransactionReverted, err)
	default:
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
}

type WavePortalGatewayOption interface {
	Apply(*wavePortalGateway)
}

type WithRpcClientOptions struct {
	Opts []rpc.ClientOption
}

func (w WithRpcClientOptions) Apply(g *wavePortalGateway) {
	g.rpcClientOpts = w.Opts
}

type WithGasLimit uint64

func (w WithGasLimit) Apply(g *wavePortalGateway) {
	if w > 0 {
		g.gasLimit = uint64(w)
	}
}

type WithDialAttempts uint

func (w WithDialAttempts) Apply(g *wavePortalGateway) {
	if w > 0 {
		g.dialAttempts = uint(w)
	}
}
