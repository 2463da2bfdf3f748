package wave

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

type SessionStatus string

const (
	StatusDisconnected  SessionStatus = "disconnected"
	StatusConnecting    SessionStatus = "connecting"
	StatusConnected     SessionStatus = "connected"
	StatusConnectFailed SessionStatus = "connect_failed"
)

// SessionState is a snapshot of the wallet session. Epoch identifies one
// connected lifetime: it grows every time the session enters Connected with
// an account, so results started under an older epoch can be discarded.
type SessionState struct {
	Status  SessionStatus `json:"status"`
	Account string        `json:"account,omitempty"`
	Reason  Reason        `json:"reason,omitempty"`
	Epoch   uint64        `json:"epoch"`
}

func (s SessionState) Connected() bool {
	return s.Status == StatusConnected
}

func (s SessionState) String() string {
	switch s.Status {
	case StatusConnected:
		return fmt.Sprintf("connected(%s)", s.Account)
	case StatusConnectFailed:
		return fmt.Sprintf("connect_failed(%s)", s.Reason)
	default:
		return string(s.Status)
	}
}

// AccountGateway is the part of chain.LedgerGateway the session needs.
type AccountGateway interface {
	HasProvider() bool
	AuthorizedAccounts(ctx context.Context) ([]string, error)
	RequestAccounts(ctx context.Context) ([]string, error)
}

// WalletSession owns the connection state. It is the only writer of
// SessionState; everyone else observes it through State or Subscribe.
type WalletSession struct {
	gw AccountGateway

	// Serializes transitions so listeners see them in order
	transitionMu sync.Mutex

	mu        sync.Mutex
	state     SessionState
	epoch     uint64
	listeners []func(SessionState)
}

func NewWalletSession(gw AccountGateway) *WalletSession {
	return &WalletSession{
		gw:    gw,
		state: SessionState{Status: StatusDisconnected},
	}
}

func (s *WalletSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn to be called after every transition, in transition
// order. fn must not call back into the session's transition methods.
func (s *WalletSession) Subscribe(fn func(SessionState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// RequestConnect interactively asks the wallet for an account. It is a no-op
// while connecting or connected, and after the provider was found missing.
func (s *WalletSession) RequestConnect(ctx context.Context) SessionState {
	s.mu.Lock()
	cur := s.state
	ok := cur.Status == StatusDisconnected ||
		(cur.Status == StatusConnectFailed && cur.Reason != ReasonProviderUnavailable)
	s.mu.Unlock()
	if !ok {
		return cur
	}

	if !s.gw.HasProvider() {
		slog.Warn("no wallet provider available, configure a wallet to connect")
		return s.transition(func(SessionState) (SessionState, bool) {
			return SessionState{Status: StatusConnectFailed, Reason: ReasonProviderUnavailable}, true
		})
	}

	connecting := s.transition(func(cur SessionState) (SessionState, bool) {
		if cur.Status != StatusDisconnected && cur.Status != StatusConnectFailed {
			return cur, false
		}
		return SessionState{Status: StatusConnecting}, true
	})
	if connecting.Status != StatusConnecting {
		return connecting
	}

	accounts, err := s.gw.RequestAccounts(ctx)
	return s.transition(func(cur SessionState) (SessionState, bool) {
		if cur.Status != StatusConnecting {
			// Superseded by an external account change or a disconnect
			return cur, false
		}
		if err != nil {
			slog.Error("failed to request accounts", slog.Any("error", err))
			return SessionState{Status: StatusConnectFailed, Reason: ReasonOf(err)}, true
		}
		if len(accounts) == 0 {
			return SessionState{Status: StatusConnectFailed, Reason: ReasonUserRejected}, true
		}
		return s.connectedLocked(accounts[0]), true
	})
}

// CheckExistingConnection looks for an already authorized account without
// prompting. Failures are logged and leave the session disconnected.
func (s *WalletSession) CheckExistingConnection(ctx context.Context) SessionState {
	if !s.gw.HasProvider() {
		slog.Info("no wallet provider available")
		return s.State()
	}

	accounts, err := s.gw.AuthorizedAccounts(ctx)
	if err != nil {
		slog.Warn("failed to query authorized accounts", slog.Any("error", err))
		return s.State()
	}
	if len(accounts) == 0 {
		slog.Info("no authorized account found")
		return s.State()
	}

	slog.Info("found an authorized account", slog.String("account", accounts[0]))

	return s.transition(func(cur SessionState) (SessionState, bool) {
		if cur.Status != StatusDisconnected {
			return cur, false
		}
		return s.connectedLocked(accounts[0]), true
	})
}

// OnExternalAccountChange handles an account switch initiated by the wallet.
func (s *WalletSession) OnExternalAccountChange(accounts []string) SessionState {
	return s.transition(func(cur SessionState) (SessionState, bool) {
		if len(accounts) == 0 {
			if cur.Status == StatusDisconnected {
				return cur, false
			}
			return SessionState{Status: StatusDisconnected}, true
		}
		if cur.Connected() && cur.Account == accounts[0] {
			return cur, false
		}
		return s.connectedLocked(accounts[0]), true
	})
}

// Disconnect ends the session on the user's request.
func (s *WalletSession) Disconnect() SessionState {
	return s.transition(func(cur SessionState) (SessionState, bool) {
		if cur.Status == StatusDisconnected {
			return cur, false
		}
		return SessionState{Status: StatusDisconnected}, true
	})
}

// connectedLocked must be called with mu held.
func (s *WalletSession) connectedLocked(account string) SessionState {
	s.epoch++
	return SessionState{Status: StatusConnected, Account: account, Epoch: s.epoch}
}

// transition applies next to the current state and notifies listeners when it
// reports a change.
func (s *WalletSession) transition(next func(cur SessionState) (SessionState, bool)) SessionState {
	s.transitionMu.Lock()
	defer s.transitionMu.Unlock()

	s.mu.Lock()
	prev := s.state
	state, changed := next(prev)
	if changed {
		s.state = state
	}
	listeners := append([]func(SessionState){}, s.listeners...)
	s.mu.Unlock()

	if !changed {
		return state
	}

	slog.Info("wallet session changed",
		slog.String("from", prev.String()),
		slog.String("to", state.String()),
	)
	for _, fn := range listeners {
		fn(state)
	}
	return state
}
