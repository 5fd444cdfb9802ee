package peer

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/coinspv/spvchain/wire"
)

// fetchRequest is one outstanding explicit get_block(hash) request,
// indexed by the requested hash in Peer.fetches (spec.md §4.5, §9). id
// disambiguates log lines when the same hash is requested twice in
// succession; the table itself is keyed by hash, so a second request for
// the same hash simply replaces the first.
type fetchRequest struct {
	id        uuid.UUID
	resultCh  chan *wire.MsgBlock
	discarded atomic.Bool
}

// BlockFuture is returned by Peer.GetBlock. Cancel is advisory only: a
// block already in flight from the peer still completes the request
// table entry, it is simply dropped instead of delivered (spec.md §4.5).
type BlockFuture struct {
	req *fetchRequest
}

// Await blocks until the block arrives, ctx is done, or the peer
// disconnects (in which case the future's channel is closed without a
// value).
func (f *BlockFuture) Await(ctx context.Context) (*wire.MsgBlock, error) {
	select {
	case block, ok := <-f.req.resultCh:
		if !ok {
			return nil, ErrDisconnected
		}
		return block, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel marks the future discarded. The reader task still removes the
// request table entry when the block arrives; it just does not deliver
// it anywhere.
func (f *BlockFuture) Cancel() {
	f.req.discarded.Store(true)
}
