// Package wallet implements the key ring and four-pool transaction
// reconciliation engine of spec.md §4.6: classifying incoming
// transactions across unspent/spent/pending/dead pools, applying block
// arrivals and reorganizations, detecting Finney-style double spends,
// and constructing signed outgoing sends.
package wallet

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/coinspv/spvchain/blockchain"
	"github.com/coinspv/spvchain/chainhash"
	"github.com/coinspv/spvchain/wire"
)

// DeadTransactionEvent reports a Finney-attack detection: a pending
// transaction this wallet sent was overridden by a conflicting
// transaction that reached the best chain first (spec.md §4.6).
type DeadTransactionEvent struct {
	Dead        *wire.MsgTx
	Replacement *wire.MsgTx
}

// BalanceMode selects which of the two balance computations GetBalance
// reports (spec.md §4.6).
type BalanceMode int

const (
	// Available is spendable right now: outputs belonging to us whose
	// transactions are in unspent and whose spend has not been locally
	// initiated.
	Available BalanceMode = iota
	// Estimated is Available plus outputs in pending, treated as
	// already spent.
	Estimated
)

// Wallet partitions known transactions across four pools and reconciles
// them against block arrivals and chain reorganizations (spec.md §3,
// §4.6). It implements blockchain.WalletNotifiee, letting a BlockChain
// drive it without the blockchain package importing this one.
type Wallet struct {
	mu  sync.Mutex
	log *logrus.Logger

	keys *KeyRing

	entries map[chainhash.Hash]*entry
	order   []chainhash.Hash

	// pendingSpends indexes the outpoints a still-pending, locally
	// created send consumes, the set Available must exclude and the set
	// Finney double-spend detection checks incoming inputs against.
	pendingSpends map[outPointKey]chainhash.Hash

	// blockTxs indexes every wallet-relevant transaction by the hash of
	// the block it was reported in, regardless of which side of the
	// chain that block was on at the time — Reorganize's rewind/replay
	// needs exactly this association (spec.md §4.6, §9).
	blockTxs map[chainhash.Hash][]*wire.MsgTx

	onDeadTransaction func(DeadTransactionEvent)
}

// New creates an empty wallet around ring. logger defaults to logrus's
// standard logger when nil, the teacher's injectable-logger convention
// (wallet.go's SetWalletLogger).
func New(ring *KeyRing, logger *logrus.Logger) *Wallet {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Wallet{
		log:           logger,
		keys:          ring,
		entries:       make(map[chainhash.Hash]*entry),
		pendingSpends: make(map[outPointKey]chainhash.Hash),
		blockTxs:      make(map[chainhash.Hash][]*wire.MsgTx),
	}
}

// OnDeadTransaction registers a callback invoked whenever a pending
// transaction is killed by a confirmed double-spend (spec.md §4.6).
func (w *Wallet) OnDeadTransaction(fn func(DeadTransactionEvent)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onDeadTransaction = fn
}

// KeyRing returns the wallet's key ring.
func (w *Wallet) KeyRing() *KeyRing { return w.keys }

// IsMine reports whether out's scriptPubKey pays to a key held in the
// ring, either by hash160 (pay-to-pubkey-hash) or directly by pubkey
// (pay-to-pubkey, the form real coinbases use) (spec.md §4.6).
func (w *Wallet) IsMine(out *wire.TxOut) bool {
	return ownedByRing(w.keys, out.PkScript)
}

// IsPubKeyMine reports whether pubKey belongs to a key held in the ring
// (spec.md §4.6).
func (w *Wallet) IsPubKeyMine(pubKey []byte) bool {
	return w.keys.IsPubKeyMine(pubKey)
}

func (w *Wallet) addEntry(txid chainhash.Hash, e *entry) {
	if _, exists := w.entries[txid]; !exists {
		w.order = append(w.order, txid)
	}
	w.entries[txid] = e
}

// Receive implements blockchain.WalletNotifiee: tx is known to touch
// this wallet (an output pays us, or an input is signed by one of our
// keys). kind tells us whether block is on the best chain or a side
// branch (spec.md §4.6).
func (w *Wallet) Receive(tx *wire.MsgTx, block *blockchain.StoredBlock, kind blockchain.BlockKind) {
	if !hasOutputToUs(w.keys, tx) && !hasInputFromUs(w.keys, tx) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	blockHash := block.Hash()
	w.blockTxs[blockHash] = append(w.blockTxs[blockHash], tx)

	if kind == blockchain.SideChain {
		// Side-chain arrivals never affect balance; they are cached
		// above purely so a later reorganization that promotes this
		// branch can replay them (spec.md §4.6).
		return
	}

	w.receiveBestChainLocked(tx)
}

// receiveBestChainLocked applies spec.md §4.6's BestChain classification
// rules. Callers must hold w.mu.
func (w *Wallet) receiveBestChainLocked(tx *wire.MsgTx) {
	txid := tx.TxHash()

	w.detectDoubleSpendLocked(tx)

	for _, in := range tx.TxIn {
		if prev, ok := w.entries[in.PreviousOutPoint.Hash]; ok && prev.pool == PoolUnspent {
			prev.pool = PoolSpent
		}
	}

	if existing, ok := w.entries[txid]; ok && existing.pool == PoolPending {
		if w.spentByKnownTxLocked(txid) {
			existing.pool = PoolSpent
		} else {
			existing.pool = PoolUnspent
		}
		w.clearPendingSpendsFor(txid)
		return
	}

	if hasOutputToUs(w.keys, tx) {
		w.addEntry(txid, &entry{tx: tx, pool: PoolUnspent})
	}
}

// spentByKnownTxLocked reports whether any output of the transaction
// identified by txid is referenced by the input of another transaction
// this wallet already holds.
func (w *Wallet) spentByKnownTxLocked(txid chainhash.Hash) bool {
	for _, e := range w.entries {
		for _, in := range e.tx.TxIn {
			if in.PreviousOutPoint.Hash == txid {
				return true
			}
		}
	}
	return false
}

// clearPendingSpendsFor removes any pendingSpends entries that named txid
// as their spending transaction, now that txid has left the pending pool.
func (w *Wallet) clearPendingSpendsFor(txid chainhash.Hash) {
	for k, spender := range w.pendingSpends {
		if spender == txid {
			delete(w.pendingSpends, k)
		}
	}
}

// detectDoubleSpendLocked implements the Finney-attack check: if any
// input of tx references the same outpoint as a pending transaction's
// input, that pending transaction is killed (spec.md §4.6, §9's Open
// Question resolved in DESIGN.md: this fires only on a BestChain
// arrival, applied uniformly whether this call came from a direct
// receive or a reorg replay).
func (w *Wallet) detectDoubleSpendLocked(tx *wire.MsgTx) {
	incomingTxid := tx.TxHash()
	for _, in := range tx.TxIn {
		k := keyOf(in.PreviousOutPoint)
		deadTxid, ok := w.pendingSpends[k]
		if !ok || deadTxid == incomingTxid {
			continue
		}
		deadEntry, ok := w.entries[deadTxid]
		if !ok || deadEntry.pool != PoolPending {
			continue
		}
		deadEntry.pool = PoolDead
		w.clearPendingSpendsFor(deadTxid)
		if w.onDeadTransaction != nil {
			w.onDeadTransaction(DeadTransactionEvent{Dead: deadEntry.tx, Replacement: tx})
		}
		w.log.WithFields(logrus.Fields{
			"dead":        deadTxid,
			"replacement": incomingTxid,
		}).Warn("pending transaction killed by confirmed double-spend")
	}
}

// Reorganize implements blockchain.WalletNotifiee: it rewinds every
// wallet-relevant transaction of oldChain (in reverse, highest height
// first) and replays every wallet-relevant transaction of newChain
// forward, through the same classification rules Receive uses (spec.md
// §4.6, §5's callback ordering).
func (w *Wallet) Reorganize(oldChain, newChain []*blockchain.StoredBlock) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := len(oldChain) - 1; i >= 0; i-- {
		w.rewindBlockLocked(oldChain[i])
	}
	for _, sb := range newChain {
		for _, tx := range w.blockTxs[sb.Hash()] {
			w.receiveBestChainLocked(tx)
		}
	}
}

// rewindBlockLocked undoes the best-chain effect of every wallet-relevant
// transaction recorded against sb: a locally created transaction returns
// to pending; any other transaction is simply dropped from spent/unspent
// (spec.md §4.6). Any predecessor this transaction had moved to spent is
// restored to unspent.
func (w *Wallet) rewindBlockLocked(sb *blockchain.StoredBlock) {
	txs := w.blockTxs[sb.Hash()]
	for i := len(txs) - 1; i >= 0; i-- {
		tx := txs[i]
		txid := tx.TxHash()
		e, ok := w.entries[txid]
		if !ok {
			continue
		}

		for _, in := range tx.TxIn {
			if prev, ok := w.entries[in.PreviousOutPoint.Hash]; ok && prev.pool == PoolSpent {
				prev.pool = PoolUnspent
			}
		}

		if e.local {
			e.pool = PoolPending
			for _, in := range tx.TxIn {
				w.pendingSpends[keyOf(in.PreviousOutPoint)] = txid
			}
		} else {
			delete(w.entries, txid)
		}
	}
}

// GetBalance computes the wallet's balance under mode (spec.md §4.6).
func (w *Wallet) GetBalance(mode BalanceMode) int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.availableLocked() + w.extraForModeLocked(mode)
}

func (w *Wallet) availableLocked() int64 {
	var total int64
	for _, txid := range w.order {
		e := w.entries[txid]
		if e.pool != PoolUnspent {
			continue
		}
		for _, idx := range ourOutputIndices(w.keys, e.tx) {
			op := outPointKey{hash: txid, index: uint32(idx)}
			if _, reserved := w.pendingSpends[op]; reserved {
				continue
			}
			total += e.tx.TxOut[idx].Value
		}
	}
	return total
}

func (w *Wallet) extraForModeLocked(mode BalanceMode) int64 {
	if mode != Estimated {
		return 0
	}
	var total int64
	for _, txid := range w.order {
		e := w.entries[txid]
		if e.pool != PoolPending {
			continue
		}
		for _, idx := range ourOutputIndices(w.keys, e.tx) {
			total += e.tx.TxOut[idx].Value
		}
	}
	return total
}

// Pool reports which pool txid currently occupies, for tests and
// diagnostics. The second return is false if the wallet has no record of
// txid.
func (w *Wallet) Pool(txid chainhash.Hash) (Pool, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.entries[txid]
	if !ok {
		return 0, false
	}
	return e.pool, true
}
