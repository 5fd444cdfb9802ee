package wallet

import (
	"github.com/coinspv/spvchain/wire"
)

// CreateSend selects coins from the unspent pool by the simple greedy
// policy spec.md §4.6 describes (iterate in insertion order, accumulate
// until the required amount is reached), builds a transaction paying
// amount to toPubKeyHash with one change output back to changePubKeyHash
// if a remainder is left, and signs every input. The result is not
// placed in any pool; call ConfirmSend to do that. CreateSend is
// stateless with respect to the wallet's pools (spec.md §4.6).
func (w *Wallet) CreateSend(toPubKeyHash []byte, amount int64, changePubKeyHash []byte) (*wire.MsgTx, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if changePubKeyHash == nil {
		keys := w.keys.Keys()
		if len(keys) == 0 {
			return nil, newScriptError("no key available to receive change")
		}
		changePubKeyHash = keys[0].PubKeyHash()
	}

	var inputs []*wire.TxIn
	var sources []*wire.MsgTx
	var total int64

	for _, txid := range w.order {
		if total >= amount {
			break
		}
		e := w.entries[txid]
		if e.pool != PoolUnspent {
			continue
		}
		var contributes bool
		for _, idx := range ourOutputIndices(w.keys, e.tx) {
			op := outPointKey{hash: txid, index: uint32(idx)}
			if _, reserved := w.pendingSpends[op]; reserved {
				continue
			}
			inputs = append(inputs, &wire.TxIn{
				PreviousOutPoint: wire.OutPoint{Hash: txid, Index: uint32(idx)},
				Sequence:         0xFFFFFFFF,
			})
			total += e.tx.TxOut[idx].Value
			contributes = true
		}
		if contributes {
			sources = append(sources, e.tx)
		}
	}

	if total < amount {
		return nil, newInsufficientFundsError(amount, w.availableLocked())
	}

	outputs := []*wire.TxOut{{
		Value:    amount,
		PkScript: payToPubKeyHashScript(toPubKeyHash),
	}}
	if change := total - amount; change > 0 {
		outputs = append(outputs, &wire.TxOut{
			Value:    change,
			PkScript: payToPubKeyHashScript(changePubKeyHash),
		})
	}

	tx := &wire.MsgTx{
		Version:  1,
		TxIn:     inputs,
		TxOut:    outputs,
		LockTime: 0,
	}

	if err := w.signLocked(tx, sources); err != nil {
		return nil, err
	}
	return tx, nil
}

// signLocked signs every input of tx. Script execution is out of scope
// (spec.md §1's non-goals), so every input is signed over the same
// digest: the hash of tx with all scriptSigs empty, the simplest digest
// that still binds the signature to this transaction's full set of
// inputs and outputs.
func (w *Wallet) signLocked(tx *wire.MsgTx, sources []*wire.MsgTx) error {
	sigHash := tx.TxHash()

	for i, in := range tx.TxIn {
		owner, isPubKeySource, err := w.ownerOfLocked(sources, in.PreviousOutPoint)
		if err != nil {
			return err
		}
		sig := owner.Sign(sigHash[:])
		if isPubKeySource {
			// The source output already embeds the pubkey, so the
			// scriptSig needs only the signature.
			tx.TxIn[i].SignatureScript = buildPubKeySignatureScript(sig)
		} else {
			tx.TxIn[i].SignatureScript = buildSignatureScript(sig, owner.PubKeyCompressed())
		}
	}
	return nil
}

// ownerOfLocked finds the key ring entry owning the output referenced by
// op, by locating it among sources (the source transactions CreateSend
// selected coins from). The second return reports whether the source
// output is pay-to-pubkey, which spends with a shorter scriptSig than
// pay-to-pubkey-hash (spec.md §4.6).
func (w *Wallet) ownerOfLocked(sources []*wire.MsgTx, op wire.OutPoint) (*KeyPair, bool, error) {
	for _, src := range sources {
		if src.TxHash() != op.Hash {
			continue
		}
		if int(op.Index) >= len(src.TxOut) {
			continue
		}
		pkScript := src.TxOut[op.Index].PkScript
		if pkHash, err := extractPubKeyHash(pkScript); err == nil {
			if kp, ok := w.keys.byPubKeyHash(pkHash); ok {
				return kp, false, nil
			}
		}
		if pubKey, err := extractPubKey(pkScript); err == nil {
			if kp, ok := w.keys.byPubKeyHash(Hash160(pubKey)); ok {
				return kp, true, nil
			}
		}
	}
	return nil, false, newScriptError("no key ring entry owns outpoint %s:%d", op.Hash, op.Index)
}

// buildSignatureScript builds the standard push(sig) push(pubkey)
// scriptSig signLocked's digest scheme expects inputPubKey to parse back.
func buildSignatureScript(sig, pubKey []byte) []byte {
	out := make([]byte, 0, 1+len(sig)+1+len(pubKey))
	out = append(out, byte(len(sig)))
	out = append(out, sig...)
	out = append(out, byte(len(pubKey)))
	out = append(out, pubKey...)
	return out
}

// buildPubKeySignatureScript builds the scriptSig for spending a
// pay-to-pubkey output: push(sig) alone, since the pubkey is already
// carried by the output being spent.
func buildPubKeySignatureScript(sig []byte) []byte {
	out := make([]byte, 0, 1+len(sig))
	out = append(out, byte(len(sig)))
	out = append(out, sig...)
	return out
}

// ConfirmSend places tx, the result of a prior CreateSend, into the
// pending pool: this wallet has sent it but has not yet seen it in a
// block (spec.md §4.6).
func (w *Wallet) ConfirmSend(tx *wire.MsgTx) {
	w.mu.Lock()
	defer w.mu.Unlock()

	txid := tx.TxHash()
	w.addEntry(txid, &entry{tx: tx, pool: PoolPending, local: true})

	// The spent source's pool membership is left as unspent until the
	// send actually confirms on-chain (spec.md §4.6): Available excludes
	// the reserved outpoint directly rather than moving its source tx to
	// spent prematurely.
	for _, in := range tx.TxIn {
		w.pendingSpends[keyOf(in.PreviousOutPoint)] = txid
	}
}
