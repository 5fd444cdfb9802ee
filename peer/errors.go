package peer

import "errors"

var (
	// ErrDisconnected is returned by a BlockFuture whose peer disconnected
	// before the requested block arrived.
	ErrDisconnected = errors.New("peer: disconnected before the request completed")

	// ErrNotRunning is returned by operations that require the reader
	// task to be active.
	ErrNotRunning = errors.New("peer: not running")
)
