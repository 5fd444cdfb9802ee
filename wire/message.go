package wire

import (
	"bytes"
	"io"

	"github.com/coinspv/spvchain/chainhash"
)

// Command strings identify a message's payload type on the wire
// (spec.md §6).
const (
	CmdVersion   = "version"
	CmdVerAck    = "verack"
	CmdInv       = "inv"
	CmdGetData   = "getdata"
	CmdGetBlocks = "getblocks"
	CmdBlock     = "block"
	CmdTx        = "tx"
	CmdAddr      = "addr"
)

const (
	commandSize  = 12
	checksumSize = 4
	headerSize   = 4 + commandSize + 4 + checksumSize

	// MaxPayloadSize bounds a single message's declared payload length so
	// a malicious or corrupt peer cannot force an unbounded allocation.
	MaxPayloadSize = 32 * 1024 * 1024
)

// Message is implemented by every wire payload type.
type Message interface {
	Command() string
	Encode(w io.Writer) error
	Decode(r io.Reader) error
}

// WriteMessage frames msg with the given network magic and writes it to w.
// Per spec.md §6 the checksum is the first four bytes of the double-SHA256
// of the payload.
func WriteMessage(w io.Writer, magic [4]byte, msg Message) error {
	var payloadBuf bytes.Buffer
	if err := msg.Encode(&payloadBuf); err != nil {
		return errf("wire: encode %s payload: %w", msg.Command(), err)
	}
	payload := payloadBuf.Bytes()
	if len(payload) > MaxPayloadSize {
		return errf("wire: %s payload too large: %d bytes", msg.Command(), len(payload))
	}

	var hdr bytes.Buffer
	hdr.Write(magic[:])

	var cmd [commandSize]byte
	copy(cmd[:], msg.Command())
	hdr.Write(cmd[:])

	if err := writeUint32(&hdr, uint32(len(payload))); err != nil {
		return err
	}

	checksum := chainhash.DoubleHashB(payload)
	hdr.Write(checksum[:checksumSize])

	if _, err := w.Write(hdr.Bytes()); err != nil {
		return errf("wire: write header: %w", err)
	}
	_, err := w.Write(payload)
	return err
}

// ReadMessageHeader is the parsed, not-yet-dispatched framing prefix of a
// message. requireChecksum is false only during the version/verack
// handshake, per spec.md §6's backward-compatibility allowance.
type ReadMessageHeader struct {
	Magic    [4]byte
	Command  string
	Length   uint32
	Checksum [checksumSize]byte
}

// ReadMessage reads one framed message from r, verifies its magic and (when
// requireChecksum is set) its checksum, and decodes the payload into a
// concrete Message selected by command. Unknown commands are returned as
// *RawMessage so callers can log-and-ignore them per spec.md §4.5's
// "Other: logged, ignored" rule.
func ReadMessage(r io.Reader, magic [4]byte, requireChecksum bool) (Message, error) {
	var raw [headerSize]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return nil, errf("wire: read header: %w", err)
	}

	var hdr ReadMessageHeader
	copy(hdr.Magic[:], raw[0:4])
	if hdr.Magic != magic {
		return nil, newProtocolError(0, "unexpected network magic %x", hdr.Magic)
	}

	cmdBytes := raw[4 : 4+commandSize]
	end := bytes.IndexByte(cmdBytes, 0)
	if end == -1 {
		end = len(cmdBytes)
	}
	hdr.Command = string(cmdBytes[:end])

	hdr.Length = uint32(raw[16]) | uint32(raw[17])<<8 | uint32(raw[18])<<16 | uint32(raw[19])<<24
	copy(hdr.Checksum[:], raw[20:24])

	if hdr.Length > MaxPayloadSize {
		return nil, newProtocolError(headerSize, "payload length %d exceeds maximum", hdr.Length)
	}

	payload := make([]byte, hdr.Length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, errf("wire: read payload (%s): %w", hdr.Command, err)
	}

	if requireChecksum || isHandshakeChecksumPresent(hdr.Checksum) {
		sum := chainhash.DoubleHashB(payload)
		if !bytes.Equal(sum[:checksumSize], hdr.Checksum[:]) {
			return nil, newProtocolError(headerSize, "checksum mismatch for %s", hdr.Command)
		}
	}

	msg, err := makeEmptyMessage(hdr.Command)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return &RawMessage{CommandName: hdr.Command, Payload: payload}, nil
	}
	if err := msg.Decode(bytes.NewReader(payload)); err != nil {
		return nil, errf("wire: decode %s: %w", hdr.Command, err)
	}
	return msg, nil
}

// isHandshakeChecksumPresent treats an all-zero checksum field as "absent"
// for the version/verack handshake, matching the older network variants
// spec.md §6 says must be accepted.
func isHandshakeChecksumPresent(c [checksumSize]byte) bool {
	return c != [checksumSize]byte{}
}

// RawMessage carries the payload of a recognized-but-unhandled command
// (or any command this codec does not implement), so callers can log it
// without failing to parse the stream.
type RawMessage struct {
	CommandName string
	Payload     []byte
}

func (m *RawMessage) Command() string { return m.CommandName }
func (m *RawMessage) Encode(w io.Writer) error {
	_, err := w.Write(m.Payload)
	return err
}
func (m *RawMessage) Decode(r io.Reader) error {
	buf, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.Payload = buf
	return nil
}

func makeEmptyMessage(command string) (Message, error) {
	switch command {
	case CmdVersion:
		return &MsgVersion{}, nil
	case CmdVerAck:
		return &MsgVerAck{}, nil
	case CmdInv:
		return &MsgInv{}, nil
	case CmdGetData:
		return &MsgGetData{}, nil
	case CmdGetBlocks:
		return &MsgGetBlocks{}, nil
	case CmdBlock:
		return &MsgBlock{}, nil
	case CmdTx:
		return &MsgTx{}, nil
	case CmdAddr:
		return &MsgAddr{}, nil
	default:
		return nil, nil
	}
}
