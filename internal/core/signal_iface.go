package core

//go:generate mockgen -source=signal_iface.go -destination=mocks/signal_mock.go -package=mocks

import (
	"errors"

	"github.com/dkeye/Rendezvous/internal/domain"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

// Frame is one encoded text message.
type Frame []byte

// SignalConnection abstracts a peer's message transport.
// Owned by the adapter; the core never closes it on its own.
type SignalConnection interface {
	ID() domain.ConnID
	// TrySend queues f without blocking.
	TrySend(f Frame) error
	// Ping sends a liveness probe.
	Ping() error
	IsOpen() bool
	// Close says goodbye to the peer before closing.
	Close()
	// Terminate drops the transport without a close handshake.
	Terminate()
}
