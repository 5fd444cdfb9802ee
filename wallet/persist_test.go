package wallet

import (
	"bytes"
	"testing"

	"github.com/coinspv/spvchain/blockchain"
	"github.com/coinspv/spvchain/internal/testutil"
)

// TestSaveLoadRoundTrip covers spec.md §6's persisted-state round-trip
// property across all four pools.
func TestSaveLoadRoundTrip(t *testing.T) {
	w, kp := newTestWallet(t)

	block1 := fakeBlock(1, 1)
	funding := payTx(kp.PubKeyHash(), 1*1e8, 1)
	w.Receive(funding, block1, blockchain.BestChain)

	other, err := GenerateKeyPair("other")
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	send, err := w.CreateSend(other.PubKeyHash(), 50000000, kp.PubKeyHash())
	if err != nil {
		t.Fatalf("CreateSend: %v", err)
	}
	w.ConfirmSend(send)

	var buf bytes.Buffer
	if err := w.Save(&buf); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(&buf, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got, want := loaded.GetBalance(Available), w.GetBalance(Available); got != want {
		t.Fatalf("loaded available balance = %d, want %d", got, want)
	}
	if got, want := loaded.GetBalance(Estimated), w.GetBalance(Estimated); got != want {
		t.Fatalf("loaded estimated balance = %d, want %d", got, want)
	}
	if len(loaded.KeyRing().Keys()) != 1 {
		t.Fatalf("loaded key ring has %d keys, want 1", len(loaded.KeyRing().Keys()))
	}
	if !loaded.IsPubKeyMine(kp.PubKeyCompressed()) {
		t.Fatalf("loaded wallet does not recognize the original key")
	}

	pool, ok := loaded.Pool(funding.TxHash())
	if !ok || pool != PoolUnspent {
		t.Fatalf("loaded funding pool = %v, want unspent (send has not confirmed yet)", pool)
	}
	pool, ok = loaded.Pool(send.TxHash())
	if !ok || pool != PoolPending {
		t.Fatalf("loaded send pool = %v, want pending", pool)
	}
}

// TestSaveLoadOnDiskRoundTrip exercises Save/Load against a real file,
// the on-disk round-trip spec.md §6 calls for persisted wallet state.
func TestSaveLoadOnDiskRoundTrip(t *testing.T) {
	w, kp := newTestWallet(t)

	block1 := fakeBlock(1, 1)
	funding := payTx(kp.PubKeyHash(), 1*1e8, 1)
	w.Receive(funding, block1, blockchain.BestChain)

	sandbox, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox: %v", err)
	}
	defer sandbox.Cleanup()

	var buf bytes.Buffer
	if err := w.Save(&buf); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := sandbox.WriteFile("wallet.dat", buf.Bytes(), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	data, err := sandbox.ReadFile("wallet.dat")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	loaded, err := Load(bytes.NewReader(data), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, want := loaded.GetBalance(Available), w.GetBalance(Available); got != want {
		t.Fatalf("loaded available balance = %d, want %d", got, want)
	}
}

func TestLoadRejectsBadMagic(t *testing.T) {
	buf := bytes.NewBufferString("nope")
	if _, err := Load(buf, nil); err == nil {
		t.Fatalf("Load with bad magic: expected error, got nil")
	}
}
