package wire

import (
	"bytes"
	"io"

	"github.com/coinspv/spvchain/chainhash"
)

// OutPoint references a previous transaction's output (spec.md §3).
type OutPoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// CoinbaseIndex is the previous-output index a coinbase input always
// carries (spec.md §3).
const CoinbaseIndex = 0xFFFFFFFF

// IsCoinbasePrevOut reports whether op is the all-zero-hash/0xFFFFFFFF
// sentinel previous-output that marks a coinbase input.
func (op OutPoint) IsCoinbasePrevOut() bool {
	return op.Hash.IsZero() && op.Index == CoinbaseIndex
}

func (op *OutPoint) encode(w io.Writer) error {
	if err := writeHash(w, op.Hash); err != nil {
		return err
	}
	return writeUint32(w, op.Index)
}

func (op *OutPoint) decode(r io.Reader) error {
	var err error
	if op.Hash, err = readHash(r); err != nil {
		return err
	}
	op.Index, err = readUint32(r)
	return err
}

// TxIn is a transaction input (spec.md §3).
type TxIn struct {
	PreviousOutPoint OutPoint
	SignatureScript  []byte
	Sequence         uint32
}

func (ti *TxIn) encode(w io.Writer) error {
	if err := ti.PreviousOutPoint.encode(w); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(len(ti.SignatureScript))); err != nil {
		return err
	}
	if _, err := w.Write(ti.SignatureScript); err != nil {
		return err
	}
	return writeUint32(w, ti.Sequence)
}

func (ti *TxIn) decode(r io.Reader) error {
	if err := ti.PreviousOutPoint.decode(r); err != nil {
		return err
	}
	n, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	ti.SignatureScript = make([]byte, n)
	if _, err := io.ReadFull(r, ti.SignatureScript); err != nil {
		return err
	}
	ti.Sequence, err = readUint32(r)
	return err
}

// TxOut is a transaction output (spec.md §3). Value is denominated in
// nanocoins, the protocol's base unit.
type TxOut struct {
	Value        int64
	PkScript     []byte
}

func (to *TxOut) encode(w io.Writer) error {
	if err := writeInt64(w, to.Value); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(len(to.PkScript))); err != nil {
		return err
	}
	_, err := w.Write(to.PkScript)
	return err
}

func (to *TxOut) decode(r io.Reader) error {
	var err error
	if to.Value, err = readInt64(r); err != nil {
		return err
	}
	n, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	to.PkScript = make([]byte, n)
	_, err = io.ReadFull(r, to.PkScript)
	return err
}

// MsgTx is a transaction message (spec.md §3, §6).
type MsgTx struct {
	Version  int32
	TxIn     []*TxIn
	TxOut    []*TxOut
	LockTime uint32
}

func (m *MsgTx) Command() string { return CmdTx }

// TxHash returns the double-SHA256 of the transaction's full
// serialization (spec.md §3).
func (m *MsgTx) TxHash() chainhash.Hash {
	var buf bytes.Buffer
	_ = m.Encode(&buf)
	return chainhash.DoubleHashH(buf.Bytes())
}

// IsCoinbase reports whether m has the single all-zero-prevout input
// that identifies a coinbase transaction (spec.md §3).
func (m *MsgTx) IsCoinbase() bool {
	return len(m.TxIn) == 1 && m.TxIn[0].PreviousOutPoint.IsCoinbasePrevOut()
}

func (m *MsgTx) Encode(w io.Writer) error {
	if err := writeUint32(w, uint32(m.Version)); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(len(m.TxIn))); err != nil {
		return err
	}
	for _, in := range m.TxIn {
		if err := in.encode(w); err != nil {
			return err
		}
	}
	if err := WriteVarInt(w, uint64(len(m.TxOut))); err != nil {
		return err
	}
	for _, out := range m.TxOut {
		if err := out.encode(w); err != nil {
			return err
		}
	}
	return writeUint32(w, m.LockTime)
}

func (m *MsgTx) Decode(r io.Reader) error {
	version, err := readUint32(r)
	if err != nil {
		return newProtocolError(0, "read tx version: %v", err)
	}
	m.Version = int32(version)

	inCount, err := ReadVarInt(r)
	if err != nil {
		return newProtocolError(4, "read tx_in count: %v", err)
	}
	m.TxIn = make([]*TxIn, inCount)
	for i := range m.TxIn {
		in := &TxIn{}
		if err := in.decode(r); err != nil {
			return newProtocolError(0, "read tx_in[%d]: %v", i, err)
		}
		m.TxIn[i] = in
	}

	outCount, err := ReadVarInt(r)
	if err != nil {
		return newProtocolError(0, "read tx_out count: %v", err)
	}
	m.TxOut = make([]*TxOut, outCount)
	for i := range m.TxOut {
		out := &TxOut{}
		if err := out.decode(r); err != nil {
			return newProtocolError(0, "read tx_out[%d]: %v", i, err)
		}
		m.TxOut[i] = out
	}

	m.LockTime, err = readUint32(r)
	if err != nil {
		return newProtocolError(0, "read lock_time: %v", err)
	}
	return nil
}
