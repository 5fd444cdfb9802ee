package wallet

import (
	"github.com/coinspv/spvchain/chainhash"
	"github.com/coinspv/spvchain/wire"
)

// Pool identifies which of the wallet's four transaction-id-partitioned
// sets a transaction currently belongs to (spec.md §3).
type Pool int

const (
	PoolUnspent Pool = iota
	PoolSpent
	PoolPending
	PoolDead
)

func (p Pool) String() string {
	switch p {
	case PoolUnspent:
		return "unspent"
	case PoolSpent:
		return "spent"
	case PoolPending:
		return "pending"
	case PoolDead:
		return "dead"
	default:
		return "unknown"
	}
}

// entry is one transaction's bookkeeping record. local marks a
// transaction this wallet itself produced via CreateSend/ConfirmSend,
// the fact Reorganize needs to decide whether a rewound transaction
// returns to pending or is simply dropped (spec.md §4.6).
type entry struct {
	tx    *wire.MsgTx
	pool  Pool
	local bool
}

// ourOutputIndices returns the indices of tx's outputs that pay to a key
// held in ring, whether by hash160 (pay-to-pubkey-hash) or directly by
// pubkey (pay-to-pubkey, the form real coinbases use).
func ourOutputIndices(ring *KeyRing, tx *wire.MsgTx) []int {
	var idxs []int
	for i, out := range tx.TxOut {
		if ownedByRing(ring, out.PkScript) {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

// ownedByRing reports whether pkScript pays to a key held in ring.
func ownedByRing(ring *KeyRing, pkScript []byte) bool {
	if pkHash, err := extractPubKeyHash(pkScript); err == nil {
		if _, ok := ring.byPubKeyHash(pkHash); ok {
			return true
		}
	}
	if pubKey, err := extractPubKey(pkScript); err == nil {
		if ring.IsPubKeyMine(pubKey) {
			return true
		}
	}
	return false
}

// hasOutputToUs reports whether any of tx's outputs pay to a key in ring.
func hasOutputToUs(ring *KeyRing, tx *wire.MsgTx) bool {
	return len(ourOutputIndices(ring, tx)) > 0
}

// inputPubKey extracts the public key from a standard
// push(sig) push(pubkey) scriptSig, as built by buildSignatureScript.
func inputPubKey(sigScript []byte) ([]byte, error) {
	sig, pos, err := readPushData(sigScript, 0)
	if err != nil {
		return nil, err
	}
	_ = sig
	pubKey, _, err := readPushData(sigScript, pos)
	if err != nil {
		return nil, err
	}
	return pubKey, nil
}

// readPushData reads one minimally-encoded single-byte-length push
// starting at offset, returning the pushed bytes and the offset of the
// next push.
func readPushData(script []byte, offset int) ([]byte, int, error) {
	if offset >= len(script) {
		return nil, 0, newScriptError("scriptSig truncated at offset %d", offset)
	}
	n := int(script[offset])
	if n == 0 || n >= 0x4c || offset+1+n > len(script) {
		return nil, 0, newScriptError("scriptSig: unsupported push length %d at offset %d", n, offset)
	}
	return script[offset+1 : offset+1+n], offset + 1 + n, nil
}

// hasInputFromUs reports whether any of tx's inputs carry a scriptSig
// signed by a key in ring (spec.md §4.6's "input signed by one of our
// keys" relevance test).
func hasInputFromUs(ring *KeyRing, tx *wire.MsgTx) bool {
	for _, in := range tx.TxIn {
		pubKey, err := inputPubKey(in.SignatureScript)
		if err != nil {
			continue
		}
		if ring.IsPubKeyMine(pubKey) {
			return true
		}
	}
	return false
}

// outPointKey is a map key for a (txid, index) reference.
type outPointKey struct {
	hash  chainhash.Hash
	index uint32
}

func keyOf(op wire.OutPoint) outPointKey {
	return outPointKey{hash: op.Hash, index: op.Index}
}
