package wallet

import (
	"testing"

	"github.com/coinspv/spvchain/blockchain"
)

// TestIsMineRecognizesPayToPubKey covers spec.md §4.6: IsMine must
// recognize a pay-to-pubkey scriptPubKey — the form real coinbase
// outputs use — not only pay-to-pubkey-hash.
func TestIsMineRecognizesPayToPubKey(t *testing.T) {
	w, kp := newTestWallet(t)

	coinbase := payPubKeyTx(kp.PubKeyCompressed(), 50*1e8, 1)
	if !w.IsMine(coinbase.TxOut[0]) {
		t.Fatalf("IsMine = false for a pay-to-pubkey output we hold the key for")
	}

	other, err := GenerateKeyPair("other")
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	foreign := payPubKeyTx(other.PubKeyCompressed(), 50*1e8, 2)
	if w.IsMine(foreign.TxOut[0]) {
		t.Fatalf("IsMine = true for a pay-to-pubkey output we do not hold the key for")
	}
}

// TestReceivePayToPubKeyCreditsBalanceAndSpends covers the full path a
// coinbase reward takes: credited to Available once confirmed, and
// spendable by CreateSend.
func TestReceivePayToPubKeyCreditsBalanceAndSpends(t *testing.T) {
	w, kp := newTestWallet(t)

	block1 := fakeBlock(1, 1)
	coinbase := payPubKeyTx(kp.PubKeyCompressed(), 50*1e8, 1)
	w.Receive(coinbase, block1, blockchain.BestChain)

	if got := w.GetBalance(Available); got != 50*1e8 {
		t.Fatalf("balance after pay-to-pubkey funding = %d, want %d", got, int64(50*1e8))
	}

	other, err := GenerateKeyPair("other")
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	send, err := w.CreateSend(other.PubKeyHash(), 10*1e8, kp.PubKeyHash())
	if err != nil {
		t.Fatalf("CreateSend: %v", err)
	}
	if len(send.TxIn) != 1 {
		t.Fatalf("send has %d inputs, want 1", len(send.TxIn))
	}
}
