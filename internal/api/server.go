package api

import (
	"context"

	"github.com/Mantelijo/waveportal/internal/wave"
)

// Server is API layer that exposes the wave portal session, ledger and
// submissions
type Server interface {
	// Serve starts the API server. Serve blocks until the server is stopped or
	// an error is encoutered.
	Serve() error

	// Close stops the server and cleans up any resources.
	Close() error
}

// WavePortal is the core the api server drives. It is implemented by
// *wave.Client.
type WavePortal interface {
	Connect(ctx context.Context) wave.SessionState
	Disconnect() wave.SessionState
	SessionState() wave.SessionState
	Waves() wave.Snapshot
	Submit(ctx context.Context, message string) (wave.SubmissionState, error)
	CurrentSubmission() (wave.SubmissionState, bool)
}
