package wallet

import (
	"math/big"
	"time"

	"github.com/coinspv/spvchain/blockchain"
	"github.com/coinspv/spvchain/wire"
)

// fakeBlock builds a StoredBlock distinguishable from every other fakeBlock
// call by nonce, standing in for a real mined block in tests that only care
// about block identity, not proof-of-work validity.
func fakeBlock(height int64, nonce uint32) *blockchain.StoredBlock {
	hdr := wire.BlockHeader{
		Version:   1,
		Timestamp: time.Unix(1600000000+int64(nonce), 0),
		Bits:      0x1d00ffff,
		Nonce:     nonce,
	}
	return &blockchain.StoredBlock{
		Header:     hdr,
		Height:     height,
		Cumulative: big.NewInt(int64(height) + 1),
	}
}

// payTx builds a one-output coinbase-shaped transaction paying amount to
// pkHash, distinguished from other payTx outputs by nonce so each call
// produces a distinct txid.
func payTx(pkHash []byte, amount int64, nonce uint32) *wire.MsgTx {
	return &wire.MsgTx{
		Version: 1,
		TxIn: []*wire.TxIn{{
			PreviousOutPoint: wire.OutPoint{Index: wire.CoinbaseIndex},
			SignatureScript:  []byte{byte(nonce), byte(nonce >> 8)},
			Sequence:         0xFFFFFFFF,
		}},
		TxOut: []*wire.TxOut{{Value: amount, PkScript: payToPubKeyHashScript(pkHash)}},
	}
}

// payPubKeyTx builds a one-output coinbase-shaped transaction paying
// amount directly to pubKey via a pay-to-pubkey scriptPubKey, the form
// real coinbase outputs use.
func payPubKeyTx(pubKey []byte, amount int64, nonce uint32) *wire.MsgTx {
	script := make([]byte, 0, len(pubKey)+2)
	script = append(script, byte(len(pubKey)))
	script = append(script, pubKey...)
	script = append(script, opCheckSig)
	return &wire.MsgTx{
		Version: 1,
		TxIn: []*wire.TxIn{{
			PreviousOutPoint: wire.OutPoint{Index: wire.CoinbaseIndex},
			SignatureScript:  []byte{byte(nonce), byte(nonce >> 8)},
			Sequence:         0xFFFFFFFF,
		}},
		TxOut: []*wire.TxOut{{Value: amount, PkScript: script}},
	}
}
