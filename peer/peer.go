// Package peer implements the SPV client's single-connection state
// machine: framing is handled by the wire package, chain acceptance by
// the blockchain package, and this package is left to drive the
// handshake-to-disconnect lifecycle and route inventory/block traffic
// between the two (spec.md §4.5).
package peer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/coinspv/spvchain/blockchain"
	"github.com/coinspv/spvchain/chainhash"
	"github.com/coinspv/spvchain/internal/latch"
	"github.com/coinspv/spvchain/wire"
)

// Peer drives one connection's lifecycle and message routing. Two
// actors touch it: the owning caller (Start, GetBlock,
// StartBlockChainDownload, Disconnect) and the reader task's own
// goroutine; besides the atomic state, what they share is the fetch
// table and latch, which mu guards (spec.md §5).
type Peer struct {
	conn            MessageConn
	chain           *blockchain.BlockChain
	genesisHash     chainhash.Hash
	protocolVersion uint32
	log             *logrus.Logger

	state atomic.Int32
	group *errgroup.Group

	mu      sync.Mutex
	fetches map[chainhash.Hash]*fetchRequest
	latch   *latch.CountdownLatch
}

// New creates a peer over conn, not yet started. genesisHash anchors
// block-locator construction; logger defaults to logrus's standard
// logger when nil, matching the teacher's injectable-logger convention.
func New(conn MessageConn, chain *blockchain.BlockChain, genesisHash chainhash.Hash, protocolVersion uint32, logger *logrus.Logger) *Peer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Peer{
		conn:            conn,
		chain:           chain,
		genesisHash:     genesisHash,
		protocolVersion: protocolVersion,
		log:             logger,
		fetches:         make(map[chainhash.Hash]*fetchRequest),
	}
}

// State reports the peer's current lifecycle state.
func (p *Peer) State() State {
	return State(p.state.Load())
}

// Start transitions CREATED -> RUNNING and launches the reader task. It
// returns an error, and changes nothing, if the peer is not in CREATED.
func (p *Peer) Start(ctx context.Context) error {
	if !p.state.CompareAndSwap(int32(StateCreated), int32(StateRunning)) {
		return fmt.Errorf("peer: Start called in state %s", p.State())
	}
	g, _ := errgroup.WithContext(ctx)
	p.group = g
	g.Go(p.readLoop)
	return nil
}

// readLoop is the sole goroutine that ever calls conn.ReadMessage,
// conn's implicit concurrency contract (spec.md §5).
func (p *Peer) readLoop() error {
	for {
		msg, err := p.conn.ReadMessage()
		if err != nil {
			if p.State() != StateRunning {
				p.log.WithError(err).Debug("reader exiting after disconnect")
				p.state.Store(int32(StateStopped))
				p.failOutstandingFetches()
				return nil
			}
			p.log.WithError(err).Error("peer read failed, terminating reader")
			p.state.Store(int32(StateStopped))
			p.failOutstandingFetches()
			return err
		}
		p.route(msg)
	}
}

func (p *Peer) route(msg wire.Message) {
	switch m := msg.(type) {
	case *wire.MsgInv:
		p.handleInv(m)
	case *wire.MsgBlock:
		p.handleBlock(m)
	case *wire.MsgAddr:
		// Address relay is out of scope; ignored per spec.md §4.5.
	default:
		p.log.WithField("command", msg.Command()).Debug("ignoring message with no routing rule")
	}
}

// handleInv filters an announcement down to block hashes. A single
// announced hash equal to the chain engine's most recent orphan is the
// "continue" signal: the peer is resuming a getblocks response that ran
// past its 500-entry cap, so the reply is a fresh getblocks anchored on
// that orphan rather than a getdata (spec.md §4.5).
func (p *Peer) handleInv(inv *wire.MsgInv) {
	var blockHashes []chainhash.Hash
	for _, iv := range inv.InvList {
		if iv.Type == wire.InvTypeBlock {
			blockHashes = append(blockHashes, iv.Hash)
		}
	}
	if len(blockHashes) == 0 {
		return
	}

	if len(blockHashes) == 1 {
		if last, ok := p.chain.LastOrphanHash(); ok && blockHashes[0] == last {
			if err := p.sendGetBlocksAnchored(last); err != nil {
				p.log.WithError(err).Error("failed to continue orphan catch-up")
			}
			return
		}
	}

	if err := p.sendGetData(blockHashes); err != nil {
		p.log.WithError(err).Error("failed to request announced blocks")
	}
}

// handleBlock completes an outstanding explicit fetch if this block was
// requested that way, otherwise hands it to the chain engine. A
// verification failure is logged and dropped; it never terminates the
// reader (spec.md §4.5). An unconnected (orphan) result immediately
// issues a follow-up getblocks anchored on the new orphan.
func (p *Peer) handleBlock(block *wire.MsgBlock) {
	hash := block.Header.BlockHash()

	p.mu.Lock()
	req, ok := p.fetches[hash]
	if ok {
		delete(p.fetches, hash)
	}
	p.mu.Unlock()

	if ok {
		if !req.discarded.Load() {
			req.resultCh <- block
		}
		close(req.resultCh)
		return
	}

	connected, err := p.chain.Add(block)
	if err != nil {
		p.log.WithError(err).WithField("hash", hash).Warn("dropping block that failed chain processing")
		return
	}

	if connected {
		p.mu.Lock()
		l := p.latch
		p.mu.Unlock()
		if l != nil {
			l.CountDown()
		}
		return
	}

	if last, ok := p.chain.LastOrphanHash(); ok {
		if err := p.sendGetBlocksAnchored(last); err != nil {
			p.log.WithError(err).Error("failed to request the orphan's ancestors")
		}
	}
}

// failOutstandingFetches unblocks any GetBlock caller stuck awaiting a
// future whose peer just disconnected.
func (p *Peer) failOutstandingFetches() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for hash, req := range p.fetches {
		close(req.resultCh)
		delete(p.fetches, hash)
	}
}

func (p *Peer) sendGetData(hashes []chainhash.Hash) error {
	invs := make([]wire.InvVect, len(hashes))
	for i, h := range hashes {
		invs[i] = wire.InvVect{Type: wire.InvTypeBlock, Hash: h}
	}
	return p.conn.WriteMessage(&wire.MsgGetData{InvList: invs})
}

// sendGetBlocksAnchored resumes catch-up past an orphan: the locator
// still names the known best chain (what the remote peer has to walk
// forward from), and anchor — the orphan's hash — is the stop hash, the
// point past which the remote peer's reply should not continue (spec.md
// §4.5).
func (p *Peer) sendGetBlocksAnchored(anchor chainhash.Hash) error {
	locator, err := p.buildLocator()
	if err != nil {
		return err
	}
	return p.conn.WriteMessage(&wire.MsgGetBlocks{
		ProtocolVersion: p.protocolVersion,
		BlockLocator:    locator,
		StopHash:        anchor,
	})
}

// buildLocator returns the sparse locator spec.md §4.5 describes: the
// genesis hash plus, when the chain has advanced past it, the current
// best-chain head. DESIGN.md records the decision not to thin this list
// exponentially; two entries are enough for a single-peer SPV client
// that never has a deep, unrelated fork to search through.
func (p *Peer) buildLocator() ([]chainhash.Hash, error) {
	head, err := p.chain.Head()
	if err != nil {
		return nil, err
	}
	if head.Hash() == p.genesisHash {
		return []chainhash.Hash{p.genesisHash}, nil
	}
	return []chainhash.Hash{p.genesisHash, head.Hash()}, nil
}

// StartBlockChainDownload begins catch-up sync: it sends a getblocks
// request built from the current locator and returns a countdown latch
// initialized to the estimated number of blocks still to fetch, which
// the reader task counts down once per connected block (spec.md §4.5).
func (p *Peer) StartBlockChainDownload(remoteBestHeight int64) (*latch.CountdownLatch, error) {
	head, err := p.chain.Head()
	if err != nil {
		return nil, err
	}
	remaining := remoteBestHeight - head.Height
	if remaining < 0 {
		remaining = 0
	}
	l := latch.New(int(remaining))

	p.mu.Lock()
	p.latch = l
	p.mu.Unlock()

	locator, err := p.buildLocator()
	if err != nil {
		return nil, err
	}
	if err := p.conn.WriteMessage(&wire.MsgGetBlocks{
		ProtocolVersion: p.protocolVersion,
		BlockLocator:    locator,
		StopHash:        chainhash.Hash{},
	}); err != nil {
		return nil, err
	}
	return l, nil
}

// GetBlock issues an explicit getdata for hash and returns a future for
// its delivery. The request is registered in the table before the
// message is written, so a reply racing the caller's own goroutine can
// never arrive unclaimed (spec.md §4.5, §5).
func (p *Peer) GetBlock(hash chainhash.Hash) (*BlockFuture, error) {
	req := &fetchRequest{
		id:       uuid.New(),
		resultCh: make(chan *wire.MsgBlock, 1),
	}

	p.mu.Lock()
	p.fetches[hash] = req
	p.mu.Unlock()

	inv := wire.InvVect{Type: wire.InvTypeBlock, Hash: hash}
	if err := p.conn.WriteMessage(&wire.MsgGetData{InvList: []wire.InvVect{inv}}); err != nil {
		p.mu.Lock()
		delete(p.fetches, hash)
		p.mu.Unlock()
		return nil, err
	}

	return &BlockFuture{req: req}, nil
}

// Disconnect stops the peer: the running flag drops, the connection is
// forced closed, and the reader task — which observes the resulting IO
// error and sees the peer is no longer running — exits quietly rather
// than reporting a failure (spec.md §4.5). It blocks until the reader
// task has actually exited.
func (p *Peer) Disconnect() error {
	for {
		cur := p.state.Load()
		if cur == int32(StateStopped) {
			return nil
		}
		if p.state.CompareAndSwap(cur, int32(StateShuttingDown)) {
			break
		}
	}

	closeErr := p.conn.Close()

	if p.group != nil {
		_ = p.group.Wait()
	}
	p.state.Store(int32(StateStopped))
	return closeErr
}
