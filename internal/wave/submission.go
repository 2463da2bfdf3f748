package wave

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Mantelijo/waveportal/internal/chain"
)

type Phase string

const (
	PhaseValidating        Phase = "validating"
	PhaseAwaitingSignature Phase = "awaiting_signature"
	PhasePending           Phase = "pending"
	PhaseConfirmed         Phase = "confirmed"
	PhaseFailed            Phase = "failed"
)

func (p Phase) Active() bool {
	return p == PhaseValidating || p == PhaseAwaitingSignature || p == PhasePending
}

type SubmissionState struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Phase   Phase  `json:"phase"`
	TxHash  string `json:"tx_hash,omitempty"`
	Reason  Reason `json:"reason,omitempty"`
	Err     error  `json:"-"`
}

// WriteGateway is the part of chain.LedgerGateway used for submissions.
type WriteGateway interface {
	SubmitRecord(ctx context.Context, message string) (chain.TxHandle, error)
	AwaitConfirmation(ctx context.Context, handle chain.TxHandle) (chain.ConfirmationResult, error)
}

type SessionReader interface {
	State() SessionState
}

// SettleRequest asks to resolve the placeholder of a confirmed submission.
type SettleRequest struct {
	// Epoch of the session the submission was placed under
	Epoch     uint64
	PendingID string
	// Ledger mark taken before the transaction was sent
	Since     uint64
	Confirmed *chain.WaveRecord
	// Replace the placeholder with Confirmed if the live feed has not
	// delivered it yet
	Apply bool
}

// PendingSettler resolves placeholders of confirmed submissions.
// *SyncController implements it so that records added this way are counted
// like live ones.
type PendingSettler interface {
	SettlePending(ctx context.Context, req SettleRequest)
}

type ledgerSettler struct {
	ledger *EventLedger
}

func (s ledgerSettler) SettlePending(ctx context.Context, req SettleRequest) {
	s.ledger.ResolvePending(req.PendingID, req.Since, req.Confirmed, req.Apply)
}

const DefaultConfirmTimeout = 2 * time.Minute

// WaveSubmission runs one outgoing wave at a time and reflects it in the
// ledger as a pending placeholder until it is confirmed or fails.
type WaveSubmission struct {
	gw      WriteGateway
	session SessionReader
	ledger  *EventLedger

	confirmTimeout time.Duration
	// Append the confirmed record directly instead of waiting for the live
	// subscription to deliver it.
	confirmFallback bool
	settler         PendingSettler

	now func() time.Time

	mu      sync.Mutex
	current *SubmissionState
}

func NewWaveSubmission(gw WriteGateway, session SessionReader, ledger *EventLedger, opts ...SubmissionOption) *WaveSubmission {
	w := &WaveSubmission{
		gw:             gw,
		session:        session,
		ledger:         ledger,
		confirmTimeout: DefaultConfirmTimeout,
		settler:        ledgerSettler{ledger: ledger},
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type SubmissionOption func(*WaveSubmission)

func WithConfirmTimeout(d time.Duration) SubmissionOption {
	return func(w *WaveSubmission) {
		if d > 0 {
			w.confirmTimeout = d
		}
	}
}

func WithConfirmFallback(enabled bool) SubmissionOption {
	return func(w *WaveSubmission) {
		w.confirmFallback = enabled
	}
}

// WithPendingSettler routes placeholder resolution of confirmed submissions
// through s instead of editing the ledger directly.
func WithPendingSettler(s PendingSettler) SubmissionOption {
	return func(w *WaveSubmission) {
		if s != nil {
			w.settler = s
		}
	}
}

// Current returns the latest submission, if any.
func (w *WaveSubmission) Current() (SubmissionState, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current == nil {
		return SubmissionState{}, false
	}
	return *w.current, true
}

// Submit sends message and blocks until it is confirmed or fails. The
// returned state is final; the error is non-nil exactly when the phase is
// PhaseFailed or the submission was refused before starting.
func (w *WaveSubmission) Submit(ctx context.Context, message string) (SubmissionState, error) {
	w.mu.Lock()
	if w.current != nil && w.current.Phase.Active() {
		w.mu.Unlock()
		return SubmissionState{Message: message, Phase: PhaseFailed, Reason: ReasonSubmissionInProgress, Err: ErrSubmissionInProgress},
			ErrSubmissionInProgress
	}

	st := &SubmissionState{
		ID:      uuid.NewString(),
		Message: message,
		Phase:   PhaseValidating,
	}
	if strings.TrimSpace(message) == "" {
		w.mu.Unlock()
		return w.refuse(st, ErrValidation)
	}
	session := w.session.State()
	if !session.Connected() {
		w.mu.Unlock()
		return w.refuse(st, ErrNotConnected)
	}

	st.Phase = PhaseAwaitingSignature
	w.current = st
	w.mu.Unlock()

	// The live event may be delivered before SubmitRecord returns
	mark := w.ledger.Mark()
	tx, err := w.gw.SubmitRecord(ctx, message)
	if err != nil {
		return w.fail(st, "", err)
	}

	w.setPhase(st, func(s *SubmissionState) {
		s.Phase = PhasePending
		s.TxHash = tx.Hash
	})
	placed := w.sameSession(session)
	if placed {
		w.ledger.AddPending(st.ID, chain.WaveRecord{
			Address:   session.Account,
			Timestamp: w.now(),
			Message:   message,
		})
	}

	slog.Info("wave pending confirmation",
		slog.String("submission", st.ID),
		slog.String("tx_hash", tx.Hash),
	)

	confirmCtx, cancel := context.WithTimeout(ctx, w.confirmTimeout)
	defer cancel()
	res, err := w.gw.AwaitConfirmation(confirmCtx, tx)
	if err != nil {
		if placed && w.sameSession(session) {
			w.ledger.RemovePending(st.ID)
		}
		return w.fail(st, tx.Hash, err)
	}

	if placed && w.sameSession(session) {
		w.settler.SettlePending(ctx, SettleRequest{
			Epoch:     session.Epoch,
			PendingID: st.ID,
			Since:     mark,
			Confirmed: res.Record,
			Apply:     w.confirmFallback,
		})
	}

	final := w.setPhase(st, func(s *SubmissionState) {
		s.Phase = PhaseConfirmed
	})

	slog.Info("wave confirmed",
		slog.String("submission", st.ID),
		slog.String("tx_hash", tx.Hash),
		slog.Uint64("block_number", res.BlockNumber),
	)

	return final, nil
}

// sameSession reports whether the session is still the one the submission
// started under.
func (w *WaveSubmission) sameSession(started SessionState) bool {
	cur := w.session.State()
	return cur.Connected() && cur.Epoch == started.Epoch
}

func (w *WaveSubmission) refuse(st *SubmissionState, err error) (SubmissionState, error) {
	st.Phase = PhaseFailed
	st.Reason = ReasonOf(err)
	st.Err = err
	return *st, err
}

func (w *WaveSubmission) fail(st *SubmissionState, txHash string, err error) (SubmissionState, error) {
	slog.Error("wave submission failed",
		slog.String("submission", st.ID),
		slog.String("tx_hash", txHash),
		slog.Any("error", err),
	)

	wrapped := fmt.Errorf("submitting wave: %w", err)
	final := w.setPhase(st, func(s *SubmissionState) {
		s.Phase = PhaseFailed
		s.Reason = ReasonOf(err)
		s.Err = wrapped
	})
	return final, wrapped
}

func (w *WaveSubmission) setPhase(st *SubmissionState, update func(*SubmissionState)) SubmissionState {
	w.mu.Lock()
	defer w.mu.Unlock()
	update(st)
	return *st
}
