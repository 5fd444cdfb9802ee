package wire

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/coinspv/spvchain/chainhash"
)

func sampleHash(b byte) chainhash.Hash {
	var h chainhash.Hash
	for i := range h {
		h[i] = b
	}
	return h
}

func TestVarIntRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 0xFC, 0xFD, 0xFFFF, 0x10000, 0xFFFFFFFF, 0x100000000, ^uint64(0)}
	for _, v := range cases {
		var buf bytes.Buffer
		if err := WriteVarInt(&buf, v); err != nil {
			t.Fatalf("write %d: %v", v, err)
		}
		if buf.Len() != VarIntSerializeSize(v) {
			t.Fatalf("value %d: wrote %d bytes, want %d", v, buf.Len(), VarIntSerializeSize(v))
		}
		got, err := ReadVarInt(&buf)
		if err != nil {
			t.Fatalf("read %d: %v", v, err)
		}
		if got != v {
			t.Fatalf("round trip %d got %d", v, got)
		}
	}
}

func TestBlockHeaderRoundTrip(t *testing.T) {
	h := &BlockHeader{
		Version:    1,
		PrevBlock:  sampleHash(0xAA),
		MerkleRoot: sampleHash(0xBB),
		Timestamp:  time.Unix(1700000000, 0).UTC(),
		Bits:       0x1d00ffff,
		Nonce:      12345,
	}
	var buf bytes.Buffer
	if err := h.Encode(&buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if buf.Len() != BlockHeaderLen {
		t.Fatalf("encoded length = %d, want %d", buf.Len(), BlockHeaderLen)
	}

	var got BlockHeader
	if err := got.Decode(&buf); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != *h {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, *h)
	}
}

func TestBlockHeaderHashIndependentOfTransactions(t *testing.T) {
	hdr := BlockHeader{Version: 1, Bits: 0x1d00ffff}
	blk1 := &MsgBlock{Header: hdr}
	blk2 := &MsgBlock{Header: hdr, Transactions: []*MsgTx{{Version: 1, LockTime: 99}}}
	if blk1.BlockHash() != blk2.BlockHash() {
		t.Fatalf("block hash must depend only on the header")
	}
}

func TestMsgTxRoundTrip(t *testing.T) {
	tx := &MsgTx{
		Version: 1,
		TxIn: []*TxIn{{
			PreviousOutPoint: OutPoint{Hash: sampleHash(0x01), Index: 0},
			SignatureScript:  []byte{0x01, 0x02, 0x03},
			Sequence:         0xFFFFFFFF,
		}},
		TxOut: []*TxOut{{
			Value:    5000000000,
			PkScript: []byte{0x76, 0xa9, 0x14},
		}},
		LockTime: 0,
	}
	var buf bytes.Buffer
	if err := tx.Encode(&buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	var got MsgTx
	if err := got.Decode(&buf); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.TxHash() != tx.TxHash() {
		t.Fatalf("round trip hash mismatch")
	}
}

func TestCoinbaseDetection(t *testing.T) {
	coinbase := &MsgTx{TxIn: []*TxIn{{PreviousOutPoint: OutPoint{Index: CoinbaseIndex}}}}
	if !coinbase.IsCoinbase() {
		t.Fatalf("expected coinbase detection")
	}
	normal := &MsgTx{TxIn: []*TxIn{{PreviousOutPoint: OutPoint{Hash: sampleHash(1), Index: 0}}}}
	if normal.IsCoinbase() {
		t.Fatalf("non-coinbase misdetected")
	}
}

func TestMessageFramingRoundTrip(t *testing.T) {
	magic := [4]byte{0xF9, 0xBE, 0xB4, 0xD9}
	msg := &MsgVerAck{}

	var buf bytes.Buffer
	if err := WriteMessage(&buf, magic, msg); err != nil {
		t.Fatalf("write message: %v", err)
	}

	got, err := ReadMessage(&buf, magic, true)
	if err != nil {
		t.Fatalf("read message: %v", err)
	}
	if got.Command() != CmdVerAck {
		t.Fatalf("command = %s, want %s", got.Command(), CmdVerAck)
	}
}

func TestMessageFramingRejectsWrongMagic(t *testing.T) {
	magic := [4]byte{0xF9, 0xBE, 0xB4, 0xD9}
	wrongMagic := [4]byte{0x00, 0x00, 0x00, 0x00}

	var buf bytes.Buffer
	if err := WriteMessage(&buf, magic, &MsgVerAck{}); err != nil {
		t.Fatalf("write message: %v", err)
	}

	if _, err := ReadMessage(&buf, wrongMagic, true); err == nil {
		t.Fatalf("expected magic mismatch error")
	}
}

func TestVersionMessageRoundTrip(t *testing.T) {
	v := &MsgVersion{
		ProtocolVersion: 70015,
		Services:        1,
		Timestamp:       1700000000,
		AddrRecv:        NetAddress{Services: 1, IP: net.ParseIP("127.0.0.1"), Port: 8333},
		AddrFrom:        NetAddress{Services: 1, IP: net.ParseIP("127.0.0.1"), Port: 8333},
		Nonce:           42,
		UserAgent:       "/spvchain:0.1/",
		LastBlock:       100,
		Relay:           true,
	}
	var buf bytes.Buffer
	if err := v.Encode(&buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	var got MsgVersion
	if err := got.Decode(&buf); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.UserAgent != v.UserAgent || got.Nonce != v.Nonce || !got.AddrRecv.IP.Equal(v.AddrRecv.IP) {
		t.Fatalf("round trip mismatch: got %+v", got)
	}
}

func TestInvRoundTrip(t *testing.T) {
	inv := &MsgInv{InvList: []InvVect{
		{Type: InvTypeBlock, Hash: sampleHash(1)},
		{Type: InvTypeTx, Hash: sampleHash(2)},
	}}
	var buf bytes.Buffer
	if err := inv.Encode(&buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	var got MsgInv
	if err := got.Decode(&buf); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.InvList) != 2 || got.InvList[0].Hash != sampleHash(1) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestGetBlocksRoundTrip(t *testing.T) {
	gb := &MsgGetBlocks{
		ProtocolVersion: 1,
		BlockLocator:    []chainhash.Hash{sampleHash(0x10)},
		StopHash:        chainhash.Hash{},
	}
	var buf bytes.Buffer
	if err := gb.Encode(&buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	var got MsgGetBlocks
	if err := got.Decode(&buf); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.BlockLocator) != 1 || got.BlockLocator[0] != sampleHash(0x10) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !got.StopHash.IsZero() {
		t.Fatalf("expected zero stop hash to mean unbounded")
	}
}

func TestCompactBitsWork(t *testing.T) {
	lowDifficultyBits := uint32(0x1d00ffff)
	harderBits := uint32(0x1d00efff) // lower target, same exponent

	w1 := CalcWork(lowDifficultyBits)
	w2 := CalcWork(harderBits)
	if w2.Cmp(w1) <= 0 {
		t.Fatalf("harder target must yield more work: got w1=%s w2=%s", w1, w2)
	}
}

func TestCompactRoundTrip(t *testing.T) {
	cases := []uint32{0x1d00ffff, 0x1b0404cb, 0x207fffff, 0x03123456}
	for _, c := range cases {
		n := CompactToBig(c)
		got := BigToCompact(n)
		if got != c {
			t.Fatalf("compact round trip: in=%08x out=%08x", c, got)
		}
	}
}

func TestMalformedVarIntReportsProtocolError(t *testing.T) {
	// A 0xFD prefix byte promises two more bytes that are never supplied.
	buf := bytes.NewReader([]byte{0xFD, 0x01})
	_, err := ReadVarInt(buf)
	if err == nil {
		t.Fatalf("expected error on truncated varint")
	}
	if _, ok := err.(*ProtocolError); !ok {
		t.Fatalf("expected *ProtocolError, got %T", err)
	}
}
