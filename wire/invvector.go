package wire

import (
	"io"

	"github.com/coinspv/spvchain/chainhash"
)

// InvType identifies the kind of item an inventory vector announces
// (spec.md §6).
type InvType uint32

const (
	InvTypeTx    InvType = 1
	InvTypeBlock InvType = 2
)

// InvVect is a single (type, hash) inventory entry.
type InvVect struct {
	Type InvType
	Hash chainhash.Hash
}

func (iv *InvVect) encode(w io.Writer) error {
	if err := writeUint32(w, uint32(iv.Type)); err != nil {
		return err
	}
	return writeHash(w, iv.Hash)
}

func (iv *InvVect) decode(r io.Reader) error {
	t, err := readUint32(r)
	if err != nil {
		return err
	}
	iv.Type = InvType(t)
	iv.Hash, err = readHash(r)
	return err
}

// maxInvPerMsg bounds a single inv/getdata vector (and a getblocks
// locator) at 50,000 entries, well above the 500 announcements of one
// getblocks response (spec.md §4.5).
const maxInvPerMsg = 50000

func encodeInvVectors(w io.Writer, items []InvVect) error {
	if err := WriteVarInt(w, uint64(len(items))); err != nil {
		return err
	}
	for i := range items {
		if err := items[i].encode(w); err != nil {
			return err
		}
	}
	return nil
}

func decodeInvVectors(r io.Reader) ([]InvVect, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if count > maxInvPerMsg {
		return nil, newProtocolError(0, "inventory vector count %d exceeds maximum", count)
	}
	items := make([]InvVect, count)
	for i := range items {
		if err := items[i].decode(r); err != nil {
			return nil, newProtocolError(0, "read inv[%d]: %v", i, err)
		}
	}
	return items, nil
}

// MsgInv announces items a peer has available (spec.md §6).
type MsgInv struct {
	InvList []InvVect
}

func (m *MsgInv) Command() string         { return CmdInv }
func (m *MsgInv) Encode(w io.Writer) error { return encodeInvVectors(w, m.InvList) }
func (m *MsgInv) Decode(r io.Reader) error {
	items, err := decodeInvVectors(r)
	if err != nil {
		return err
	}
	m.InvList = items
	return nil
}

// MsgGetData requests the full contents of announced items (spec.md §6).
type MsgGetData struct {
	InvList []InvVect
}

func (m *MsgGetData) Command() string         { return CmdGetData }
func (m *MsgGetData) Encode(w io.Writer) error { return encodeInvVectors(w, m.InvList) }
func (m *MsgGetData) Decode(r io.Reader) error {
	items, err := decodeInvVectors(r)
	if err != nil {
		return err
	}
	m.InvList = items
	return nil
}
