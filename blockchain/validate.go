package blockchain

import (
	"math/big"
	"time"

	"github.com/coinspv/spvchain/chainhash"
	"github.com/coinspv/spvchain/wire"
)

// maxFutureDrift bounds how far a block's timestamp may sit ahead of the
// verifier's clock (spec.md §4.2 rule 3).
const maxFutureDrift = 2 * time.Hour

// Verify enforces the context-free block rules of spec.md §4.2: proof of
// work, a target within the network's proof-of-work limit, a timestamp
// not too far in the future, and — when transactions are present —
// coinbase placement and a matching Merkle root. It does not check
// difficulty-retarget transitions; those are contextual and live in
// BlockChain.Add.
func Verify(block *wire.MsgBlock, powLimit *big.Int, now time.Time) error {
	hdr := &block.Header
	hash := hdr.BlockHash()

	target := hdr.Target()
	if target.Sign() <= 0 || target.Cmp(powLimit) > 0 {
		return newVerificationError(hash, "target out of range (0, powLimit]")
	}
	if hash.BigInt().Cmp(target) >= 0 {
		return newVerificationError(hash, "block hash does not satisfy its proof-of-work target")
	}
	if hdr.Timestamp.After(now.Add(maxFutureDrift)) {
		return newVerificationError(hash, "timestamp %s too far in the future", hdr.Timestamp)
	}

	if len(block.Transactions) == 0 {
		return nil
	}

	coinbase := block.Transactions[0]
	if !coinbase.IsCoinbase() {
		return newVerificationError(hash, "first transaction is not coinbase")
	}
	for i, tx := range block.Transactions[1:] {
		if tx.IsCoinbase() {
			return newVerificationError(hash, "transaction %d is an unexpected second coinbase", i+1)
		}
	}

	leaves := make([]chainhash.Hash, len(block.Transactions))
	for i, tx := range block.Transactions {
		leaves[i] = tx.TxHash()
	}
	root, err := MerkleRoot(leaves)
	if err != nil {
		return newVerificationError(hash, "merkle root: %v", err)
	}
	if root != hdr.MerkleRoot {
		return newVerificationError(hash, "computed merkle root %s does not match header field %s", root, hdr.MerkleRoot)
	}
	return nil
}
