package wire

import (
	"io"

	"github.com/coinspv/spvchain/chainhash"
)

// MsgGetBlocks requests a forward range of block announcements via a
// block locator (spec.md §4.5, §6). A zero StopHash means "send as many
// as possible" (up to the peer's own 500-entry cap).
type MsgGetBlocks struct {
	ProtocolVersion uint32
	BlockLocator    []chainhash.Hash
	StopHash        chainhash.Hash
}

func (m *MsgGetBlocks) Command() string { return CmdGetBlocks }

func (m *MsgGetBlocks) Encode(w io.Writer) error {
	if err := writeUint32(w, m.ProtocolVersion); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(len(m.BlockLocator))); err != nil {
		return err
	}
	for _, h := range m.BlockLocator {
		if err := writeHash(w, h); err != nil {
			return err
		}
	}
	return writeHash(w, m.StopHash)
}

func (m *MsgGetBlocks) Decode(r io.Reader) error {
	var err error
	if m.ProtocolVersion, err = readUint32(r); err != nil {
		return newProtocolError(0, "read version: %v", err)
	}
	count, err := ReadVarInt(r)
	if err != nil {
		return newProtocolError(4, "read locator count: %v", err)
	}
	if count > maxInvPerMsg {
		return newProtocolError(4, "locator count %d exceeds maximum", count)
	}
	m.BlockLocator = make([]chainhash.Hash, count)
	for i := range m.BlockLocator {
		if m.BlockLocator[i], err = readHash(r); err != nil {
			return newProtocolError(0, "read locator[%d]: %v", i, err)
		}
	}
	if m.StopHash, err = readHash(r); err != nil {
		return newProtocolError(0, "read stop hash: %v", err)
	}
	return nil
}
