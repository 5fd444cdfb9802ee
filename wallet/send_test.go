package wallet

import (
	"errors"
	"testing"

	"github.com/coinspv/spvchain/blockchain"
)

func TestCreateSendInsufficientFunds(t *testing.T) {
	w, kp := newTestWallet(t)

	block1 := fakeBlock(1, 1)
	funding := payTx(kp.PubKeyHash(), 1000, 1)
	w.Receive(funding, block1, blockchain.BestChain)

	other, err := GenerateKeyPair("other")
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	_, err = w.CreateSend(other.PubKeyHash(), 5000, nil)
	if err == nil {
		t.Fatalf("CreateSend: expected insufficient funds error, got nil")
	}
	var insufficient *InsufficientFundsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("CreateSend error = %v, want *InsufficientFundsError", err)
	}
}

func TestCreateSendExactAmountOmitsChange(t *testing.T) {
	w, kp := newTestWallet(t)

	block1 := fakeBlock(1, 1)
	funding := payTx(kp.PubKeyHash(), 1000, 1)
	w.Receive(funding, block1, blockchain.BestChain)

	other, err := GenerateKeyPair("other")
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	send, err := w.CreateSend(other.PubKeyHash(), 1000, nil)
	if err != nil {
		t.Fatalf("CreateSend: %v", err)
	}
	if len(send.TxOut) != 1 {
		t.Fatalf("send has %d outputs, want 1 (no change when amount matches exactly)", len(send.TxOut))
	}
}
