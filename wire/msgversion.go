package wire

import "io"

// MsgVersion is the first message exchanged on a new connection
// (spec.md §6).
type MsgVersion struct {
	ProtocolVersion int32
	Services        uint64
	Timestamp       int64
	AddrRecv        NetAddress
	AddrFrom        NetAddress
	Nonce           uint64
	UserAgent       string
	LastBlock       int32
	Relay           bool
}

func (m *MsgVersion) Command() string { return CmdVersion }

func (m *MsgVersion) Encode(w io.Writer) error {
	if err := writeUint32(w, uint32(m.ProtocolVersion)); err != nil {
		return err
	}
	if err := writeUint64(w, m.Services); err != nil {
		return err
	}
	if err := writeInt64(w, m.Timestamp); err != nil {
		return err
	}
	if err := m.AddrRecv.encode(w); err != nil {
		return err
	}
	if err := m.AddrFrom.encode(w); err != nil {
		return err
	}
	if err := writeUint64(w, m.Nonce); err != nil {
		return err
	}
	if err := WriteVarString(w, m.UserAgent); err != nil {
		return err
	}
	if err := writeUint32(w, uint32(m.LastBlock)); err != nil {
		return err
	}
	return writeBool(w, m.Relay)
}

func (m *MsgVersion) Decode(r io.Reader) error {
	version, err := readUint32(r)
	if err != nil {
		return newProtocolError(0, "read protocol version: %v", err)
	}
	m.ProtocolVersion = int32(version)

	if m.Services, err = readUint64(r); err != nil {
		return newProtocolError(4, "read services: %v", err)
	}
	if m.Timestamp, err = readInt64(r); err != nil {
		return newProtocolError(12, "read timestamp: %v", err)
	}
	if err := m.AddrRecv.decode(r); err != nil {
		return newProtocolError(20, "read addr_recv: %v", err)
	}
	if err := m.AddrFrom.decode(r); err != nil {
		return newProtocolError(46, "read addr_from: %v", err)
	}
	if m.Nonce, err = readUint64(r); err != nil {
		return newProtocolError(72, "read nonce: %v", err)
	}
	if m.UserAgent, err = ReadVarString(r); err != nil {
		return newProtocolError(80, "read user agent: %v", err)
	}
	lastBlock, err := readUint32(r)
	if err != nil {
		return newProtocolError(0, "read last block: %v", err)
	}
	m.LastBlock = int32(lastBlock)
	if m.Relay, err = readBool(r); err != nil {
		return newProtocolError(0, "read relay flag: %v", err)
	}
	return nil
}

// MsgVerAck acknowledges a version message. It carries no payload.
type MsgVerAck struct{}

func (m *MsgVerAck) Command() string         { return CmdVerAck }
func (m *MsgVerAck) Encode(w io.Writer) error { return nil }
func (m *MsgVerAck) Decode(r io.Reader) error { return nil }
