package wave

import (
	"context"

	"github.com/Mantelijo/waveportal/internal/chain"
)

// Snapshot is a view of the ledger and its sync status for readers.
type Snapshot struct {
	Records []chain.WaveRecord `json:"records"`
	Sync    SyncStatus         `json:"sync"`
}

// Client bundles the session, ledger, submission and sync controller of one
// gateway.
type Client struct {
	Session    *WalletSession
	Ledger     *EventLedger
	Submission *WaveSubmission
	Sync       *SyncController
}

func NewClient(gw chain.LedgerGateway, submissionOpts []SubmissionOption, syncOpts ...SyncOption) *Client {
	session := NewWalletSession(gw)
	ledger := NewEventLedger()
	ctrl := NewSyncController(gw, session, ledger, syncOpts...)
	submissionOpts = append(submissionOpts[:len(submissionOpts):len(submissionOpts)], WithPendingSettler(ctrl))
	return &Client{
		Session:    session,
		Ledger:     ledger,
		Submission: NewWaveSubmission(gw, session, ledger, submissionOpts...),
		Sync:       ctrl,
	}
}

// Run starts syncing and checks for an existing connection at startup.
// It blocks until ctx is done.
func (c *Client) Run(ctx context.Context) error {
	go c.Session.CheckExistingConnection(ctx)
	return c.Sync.Run(ctx)
}

func (c *Client) Connect(ctx context.Context) SessionState {
	return c.Session.RequestConnect(ctx)
}

func (c *Client) Disconnect() SessionState {
	return c.Session.Disconnect()
}

func (c *Client) SessionState() SessionState {
	return c.Session.State()
}

func (c *Client) Waves() Snapshot {
	return Snapshot{
		Records: c.Ledger.Records(),
		Sync:    c.Sync.Status(),
	}
}

func (c *Client) Submit(ctx context.Context, message string) (SubmissionState, error) {
	return c.Submission.Submit(ctx, message)
}

func (c *Client) CurrentSubmission() (SubmissionState, bool) {
	return c.Submission.Current()
}
