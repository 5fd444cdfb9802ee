package wire

import "io"

// NetAddressTimestamped is a network address carried in an addr message,
// which (unlike the version handshake's NetAddress) includes a last-seen
// timestamp.
type NetAddressTimestamped struct {
	Timestamp uint32
	Addr      NetAddress
}

// MsgAddr is accepted and parsed but otherwise ignored (spec.md §4.5,
// §6): the peer state machine never acts on it, but a conforming codec
// must still be able to round-trip it.
type MsgAddr struct {
	AddrList []NetAddressTimestamped
}

func (m *MsgAddr) Command() string { return CmdAddr }

const maxAddrPerMsg = 1000

func (m *MsgAddr) Encode(w io.Writer) error {
	if err := WriteVarInt(w, uint64(len(m.AddrList))); err != nil {
		return err
	}
	for _, a := range m.AddrList {
		if err := writeUint32(w, a.Timestamp); err != nil {
			return err
		}
		if err := a.Addr.encode(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *MsgAddr) Decode(r io.Reader) error {
	count, err := ReadVarInt(r)
	if err != nil {
		return newProtocolError(0, "read addr count: %v", err)
	}
	if count > maxAddrPerMsg {
		return newProtocolError(0, "addr count %d exceeds maximum", count)
	}
	m.AddrList = make([]NetAddressTimestamped, count)
	for i := range m.AddrList {
		ts, err := readUint32(r)
		if err != nil {
			return newProtocolError(0, "read addr[%d] timestamp: %v", i, err)
		}
		m.AddrList[i].Timestamp = ts
		if err := m.AddrList[i].Addr.decode(r); err != nil {
			return newProtocolError(0, "read addr[%d]: %v", i, err)
		}
	}
	return nil
}
