package wire

import (
	"io"

	"github.com/coinspv/spvchain/chainhash"
)

// MsgBlock is the `block` message: a header plus its ordered transactions
// (spec.md §3, §6). Transactions may be absent (e.g. when constructing a
// header-only announcement) — spec.md §4.2's invariants only apply when
// transactions are present.
type MsgBlock struct {
	Header       BlockHeader
	Transactions []*MsgTx
}

func (m *MsgBlock) Command() string { return CmdBlock }

// BlockHash returns the header's identity hash (spec.md §3).
func (m *MsgBlock) BlockHash() chainhash.Hash { return m.Header.BlockHash() }

func (m *MsgBlock) Encode(w io.Writer) error {
	if err := m.Header.Encode(w); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(len(m.Transactions))); err != nil {
		return err
	}
	for _, tx := range m.Transactions {
		if err := tx.Encode(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *MsgBlock) Decode(r io.Reader) error {
	if err := m.Header.Decode(r); err != nil {
		return err
	}
	count, err := ReadVarInt(r)
	if err != nil {
		return newProtocolError(BlockHeaderLen, "read tx count: %v", err)
	}
	m.Transactions = make([]*MsgTx, count)
	for i := range m.Transactions {
		tx := &MsgTx{}
		if err := tx.Decode(r); err != nil {
			return newProtocolError(BlockHeaderLen, "read tx[%d]: %v", i, err)
		}
		m.Transactions[i] = tx
	}
	return nil
}
