package blockchain

import (
	"time"

	"github.com/coinspv/spvchain/chainhash"
	"github.com/coinspv/spvchain/wire"
)

// mineBlock finds a nonce satisfying bits's target against the UnitTests
// proof-of-work limit, which is easy enough that this terminates quickly.
func mineBlock(prevHash chainhash.Hash, bits uint32, timestamp time.Time, txs []*wire.MsgTx) *wire.MsgBlock {
	root := coinbaseOnlyRoot(txs)
	hdr := wire.BlockHeader{
		Version:    1,
		PrevBlock:  prevHash,
		MerkleRoot: root,
		Timestamp:  timestamp,
		Bits:       bits,
	}
	target := hdr.Target()
	for nonce := uint32(0); ; nonce++ {
		hdr.Nonce = nonce
		if hdr.BlockHash().BigInt().Cmp(target) < 0 {
			break
		}
	}
	return &wire.MsgBlock{Header: hdr, Transactions: txs}
}

func coinbaseOnlyRoot(txs []*wire.MsgTx) chainhash.Hash {
	if len(txs) == 0 {
		return chainhash.Hash{}
	}
	leaves := make([]chainhash.Hash, len(txs))
	for i, tx := range txs {
		leaves[i] = tx.TxHash()
	}
	root, err := MerkleRoot(leaves)
	if err != nil {
		panic(err)
	}
	return root
}

func coinbaseTx(height int64, payout int64) *wire.MsgTx {
	return &wire.MsgTx{
		Version: 1,
		TxIn: []*wire.TxIn{{
			PreviousOutPoint: wire.OutPoint{Index: wire.CoinbaseIndex},
			SignatureScript:  []byte{byte(height)},
			Sequence:         0xFFFFFFFF,
		}},
		TxOut: []*wire.TxOut{{Value: payout, PkScript: []byte{}}},
	}
}
