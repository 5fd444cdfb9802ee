// Package blockchain implements block/Merkle verification, the block
// store, and the chain engine that accepts blocks, tracks the best
// chain by cumulative work, and drives reorganizations (spec.md §4.2-§4.4).
package blockchain

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/coinspv/spvchain/chaincfg"
	"github.com/coinspv/spvchain/chainhash"
	"github.com/coinspv/spvchain/wire"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
)

// maxOrphans bounds the orphan set. spec.md §9 permits either an
// append-only list or a prev_hash-keyed index; an attacker can flood
// unconnectable blocks, so this uses a bounded LRU rather than letting
// the set grow without limit.
const maxOrphans = 1000

// BlockKind tells a WalletNotifiee which side of the best chain a block
// arrived on (spec.md §4.6).
type BlockKind int

const (
	BestChain BlockKind = iota
	SideChain
)

func (k BlockKind) String() string {
	if k == BestChain {
		return "best-chain"
	}
	return "side-chain"
}

// WalletNotifiee receives block-arrival and reorganization callbacks from
// a BlockChain. The wallet package implements this without the
// blockchain package importing it, precluding an import cycle.
type WalletNotifiee interface {
	Receive(tx *wire.MsgTx, block *StoredBlock, kind BlockKind)
	Reorganize(oldChain, newChain []*StoredBlock)
}

// BlockChain accepts blocks, verifies difficulty transitions, connects
// them to the best chain or a side branch, holds orphans, and drives
// reorganizations (spec.md §4.4). All mutation is serialized on a single
// chain-wide lock, held across an entire Add call including orphan retry
// rounds and wallet callbacks (spec.md §5).
type BlockChain struct {
	mu     sync.Mutex
	store  BlockStore
	params *chaincfg.Params
	wallet WalletNotifiee

	// orphans is keyed by block hash and bounded, retried after every
	// successful connect (spec.md §9).
	orphans *lru.Cache[chainhash.Hash, *wire.MsgBlock]

	lastOrphan    chainhash.Hash
	hasLastOrphan bool

	now func() time.Time
}

// NewBlockChain creates a chain engine over store, parameterized by
// params, notifying wallet of block arrivals and reorganizations. wallet
// may be nil for header-only use (e.g. tests that only exercise chain
// mechanics).
func NewBlockChain(store BlockStore, params *chaincfg.Params, wallet WalletNotifiee) *BlockChain {
	orphans, err := lru.New[chainhash.Hash, *wire.MsgBlock](maxOrphans)
	if err != nil {
		// Only returns an error for a non-positive size, which maxOrphans
		// never is.
		panic(err)
	}
	return &BlockChain{
		store:   store,
		params:  params,
		wallet:  wallet,
		orphans: orphans,
		now:     time.Now,
	}
}

// LastOrphanHash returns the hash of the most recently recorded orphan
// block, used by the peer state machine to recognize a single-block
// "continue" inventory (spec.md §4.5).
func (bc *BlockChain) LastOrphanHash() (chainhash.Hash, bool) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.lastOrphan, bc.hasLastOrphan
}

// Head returns the current best-chain head.
func (bc *BlockChain) Head() (*StoredBlock, error) {
	return bc.store.Head()
}

// Add is the chain engine's public contract (spec.md §4.4): true means
// the block connected to the best chain or a known side chain, false
// means it was held as an orphan pending its parent.
func (bc *BlockChain) Add(block *wire.MsgBlock) (bool, error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.addLocked(block)
}

func (bc *BlockChain) addLocked(block *wire.MsgBlock) (bool, error) {
	head, err := bc.store.Head()
	if err != nil {
		return false, newStoreError("head", err)
	}

	blockHash := block.Header.BlockHash()
	if blockHash == head.Hash() {
		return true, nil
	}

	if err := Verify(block, bc.params.PowLimit, bc.now()); err != nil {
		return false, err
	}

	prev, ok, err := bc.store.Get(block.Header.PrevBlock)
	if err != nil {
		return false, newStoreError("get", err)
	}
	if !ok {
		bc.recordOrphan(block)
		return false, nil
	}

	next := prev.Build(block.Header)

	expectedBits, err := bc.expectedBits(prev)
	if err != nil {
		return false, err
	}
	if block.Header.Bits != expectedBits {
		return false, newVerificationError(blockHash, "difficulty transition mismatch: got 0x%08x want 0x%08x", block.Header.Bits, expectedBits)
	}

	if err := bc.store.Put(next); err != nil {
		return false, newStoreError("put", err)
	}

	bc.connect(block, head, prev, next)
	bc.retryOrphans()
	return true, nil
}

func (bc *BlockChain) recordOrphan(block *wire.MsgBlock) {
	hash := block.Header.BlockHash()
	bc.orphans.Add(hash, block)
	bc.lastOrphan = hash
	bc.hasLastOrphan = true
	logrus.WithField("hash", hash).Debug("block held as orphan")
}

// connect attaches next to the chain: promotes it to head when it
// extends the current head, otherwise evaluates whether its branch now
// outweighs the current head and reorganizes, or else files its
// transactions under SideChain (spec.md §4.4 step 7).
func (bc *BlockChain) connect(block *wire.MsgBlock, head, prev, next *StoredBlock) {
	if prev.Hash() == head.Hash() {
		if err := bc.store.SetHead(next.Hash()); err != nil {
			logrus.WithError(err).Error("failed to promote new head")
			return
		}
		logrus.WithFields(logrus.Fields{"hash": next.Hash(), "height": next.Height}).Info("block connected to best chain")
		bc.notifyWallet(block, next, BestChain)
		return
	}

	// File the block's transactions into the wallet's side-chain index
	// before deciding whether to reorganize: a reorg's new_chain replay
	// draws on transactions the wallet already cached this way for every
	// block of the branch, including the one that just tipped the scale
	// (spec.md §4.6's SideChain handling).
	bc.notifyWallet(block, next, SideChain)

	if next.Cumulative.Cmp(head.Cumulative) > 0 {
		if err := bc.reorganize(head, next); err != nil {
			logrus.WithError(err).Error("reorganization failed")
		}
	}
	// Equal cumulative work keeps the existing head: first-seen wins
	// (spec.md §4.4's edge policy).
}

func (bc *BlockChain) notifyWallet(block *wire.MsgBlock, sb *StoredBlock, kind BlockKind) {
	if bc.wallet == nil {
		return
	}
	for _, tx := range block.Transactions {
		bc.wallet.Receive(tx, sb, kind)
	}
}

func (bc *BlockChain) retryOrphans() {
	for {
		connectedAny := false
		for _, hash := range bc.orphans.Keys() {
			orphan, ok := bc.orphans.Peek(hash)
			if !ok {
				continue
			}
			head, err := bc.store.Head()
			if err != nil {
				continue
			}
			if orphan.Header.BlockHash() == head.Hash() {
				bc.orphans.Remove(hash)
				continue
			}
			prev, ok, err := bc.store.Get(orphan.Header.PrevBlock)
			if err != nil || !ok {
				continue
			}
			if err := Verify(orphan, bc.params.PowLimit, bc.now()); err != nil {
				logrus.WithError(err).Warn("dropping orphan that failed verification on retry")
				bc.orphans.Remove(hash)
				continue
			}
			next := prev.Build(orphan.Header)
			expectedBits, err := bc.expectedBits(prev)
			if err != nil || orphan.Header.Bits != expectedBits {
				logrus.Warn("dropping orphan with bad difficulty transition on retry")
				bc.orphans.Remove(hash)
				continue
			}
			if err := bc.store.Put(next); err != nil {
				continue
			}
			bc.orphans.Remove(hash)
			bc.connect(orphan, head, prev, next)
			connectedAny = true
		}
		if !connectedAny {
			return
		}
	}
}

// expectedBits implements spec.md §4.4's difficulty transition check.
func (bc *BlockChain) expectedBits(prev *StoredBlock) (uint32, error) {
	interval := bc.params.RetargetInterval
	if (prev.Height+1)%interval != 0 {
		return prev.Header.Bits, nil
	}

	epochStart := prev
	for i := int64(0); i < interval-1; i++ {
		ancestor, ok, err := bc.store.Get(epochStart.Header.PrevBlock)
		if err != nil {
			return 0, newStoreError("get", err)
		}
		if !ok {
			return 0, fmt.Errorf("blockchain: retarget walk-back ran off the known chain")
		}
		epochStart = ancestor
	}

	actualTimespan := prev.Header.Timestamp.Sub(epochStart.Header.Timestamp)
	minSpan := bc.params.TargetTimespan / 4
	maxSpan := bc.params.TargetTimespan * 4
	switch {
	case actualTimespan < minSpan:
		actualTimespan = minSpan
	case actualTimespan > maxSpan:
		actualTimespan = maxSpan
	}

	oldTarget := prev.Header.Target()
	newTarget := new(big.Int).Mul(oldTarget, big.NewInt(int64(actualTimespan/time.Second)))
	newTarget.Div(newTarget, big.NewInt(int64(bc.params.TargetTimespan/time.Second)))
	if newTarget.Cmp(bc.params.PowLimit) > 0 {
		newTarget = new(big.Int).Set(bc.params.PowLimit)
	}
	return wire.BigToCompact(newTarget), nil
}

// reorganize locates the common ancestor of the current head and next,
// then replaces the best-chain suffix (spec.md §4.4, §5's callback
// ordering: old_chain rewinds in reverse, then new_chain replays
// forward, then the head pointer updates).
func (bc *BlockChain) reorganize(oldHead, newHead *StoredBlock) error {
	_, oldChain, newChain, err := bc.commonAncestorChains(oldHead, newHead)
	if err != nil {
		return err
	}

	if bc.wallet != nil {
		bc.wallet.Reorganize(oldChain, newChain)
	}

	if err := bc.store.SetHead(newHead.Hash()); err != nil {
		return newStoreError("set-head", err)
	}

	logrus.WithFields(logrus.Fields{
		"old_head": oldHead.Hash(),
		"new_head": newHead.Hash(),
		"rewound":  len(oldChain),
		"replayed": len(newChain),
	}).Warn("chain reorganized")
	return nil
}

// commonAncestorChains walks both cursors back, always advancing the one
// at greater height, until they meet, then returns the ancestor plus the
// two branch segments in ascending-height order, ancestor exclusive.
func (bc *BlockChain) commonAncestorChains(oldHead, newHead *StoredBlock) (ancestor *StoredBlock, oldChain, newChain []*StoredBlock, err error) {
	cursorOld, cursorNew := oldHead, newHead

	for cursorOld.Height > cursorNew.Height {
		oldChain = append([]*StoredBlock{cursorOld}, oldChain...)
		cursorOld, err = bc.ancestorOf(cursorOld)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	for cursorNew.Height > cursorOld.Height {
		newChain = append([]*StoredBlock{cursorNew}, newChain...)
		cursorNew, err = bc.ancestorOf(cursorNew)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	for cursorOld.Hash() != cursorNew.Hash() {
		oldChain = append([]*StoredBlock{cursorOld}, oldChain...)
		newChain = append([]*StoredBlock{cursorNew}, newChain...)
		cursorOld, err = bc.ancestorOf(cursorOld)
		if err != nil {
			return nil, nil, nil, err
		}
		cursorNew, err = bc.ancestorOf(cursorNew)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	return cursorOld, oldChain, newChain, nil
}

func (bc *BlockChain) ancestorOf(sb *StoredBlock) (*StoredBlock, error) {
	parent, ok, err := bc.store.Get(sb.Header.PrevBlock)
	if err != nil {
		return nil, newStoreError("get", err)
	}
	if !ok {
		return nil, fmt.Errorf("blockchain: common-ancestor walk ran off the known chain at height %d", sb.Height)
	}
	return parent, nil
}
