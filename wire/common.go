package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/coinspv/spvchain/chainhash"
)

// byteOffsetReader wraps an io.Reader and tracks how many bytes have been
// consumed, so a malformed-input error can report the offset at which
// decoding failed (spec.md §4.1's verification rule for ProtocolError).
type byteOffsetReader struct {
	r      io.Reader
	offset int64
}

func (b *byteOffsetReader) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	b.offset += int64(n)
	return n, err
}

// ReadVarInt reads a variable-length encoded integer following the
// encoding rules of spec.md §4.1.
func ReadVarInt(r io.Reader) (uint64, error) {
	var prefix [1]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return 0, newProtocolError(0, "read varint prefix: %v", err)
	}

	switch prefix[0] {
	case 0xFF:
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, newProtocolError(1, "read varint uint64: %v", err)
		}
		return binary.LittleEndian.Uint64(buf[:]), nil
	case 0xFE:
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, newProtocolError(1, "read varint uint32: %v", err)
		}
		return uint64(binary.LittleEndian.Uint32(buf[:])), nil
	case 0xFD:
		var buf [2]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, newProtocolError(1, "read varint uint16: %v", err)
		}
		return uint64(binary.LittleEndian.Uint16(buf[:])), nil
	default:
		return uint64(prefix[0]), nil
	}
}

// WriteVarInt writes val using the variable-length encoding of spec.md §4.1.
func WriteVarInt(w io.Writer, val uint64) error {
	switch {
	case val < 0xFD:
		_, err := w.Write([]byte{byte(val)})
		return err
	case val <= 0xFFFF:
		buf := make([]byte, 3)
		buf[0] = 0xFD
		binary.LittleEndian.PutUint16(buf[1:], uint16(val))
		_, err := w.Write(buf)
		return err
	case val <= 0xFFFFFFFF:
		buf := make([]byte, 5)
		buf[0] = 0xFE
		binary.LittleEndian.PutUint32(buf[1:], uint32(val))
		_, err := w.Write(buf)
		return err
	default:
		buf := make([]byte, 9)
		buf[0] = 0xFF
		binary.LittleEndian.PutUint64(buf[1:], val)
		_, err := w.Write(buf)
		return err
	}
}

// VarIntSerializeSize returns the number of bytes WriteVarInt would write.
func VarIntSerializeSize(val uint64) int {
	switch {
	case val < 0xFD:
		return 1
	case val <= 0xFFFF:
		return 3
	case val <= 0xFFFFFFFF:
		return 5
	default:
		return 9
	}
}

// ReadVarString reads a varint-length-prefixed UTF-8 string (used by the
// version message's user-agent field).
func ReadVarString(r io.Reader) (string, error) {
	n, err := ReadVarInt(r)
	if err != nil {
		return "", err
	}
	if n > maxVarStringLen {
		return "", newProtocolError(0, "varstring too long: %d", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", newProtocolError(0, "read varstring: %v", err)
	}
	return string(buf), nil
}

// WriteVarString writes s as a varint-length-prefixed string.
func WriteVarString(w io.Writer, s string) error {
	if err := WriteVarInt(w, uint64(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

const maxVarStringLen = 1 << 20

// readUint32 reads a little-endian uint32.
func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func writeUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func writeUint64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readInt64(r io.Reader) (int64, error) {
	v, err := readUint64(r)
	return int64(v), err
}

func writeInt64(w io.Writer, v int64) error {
	return writeUint64(w, uint64(v))
}

// readHash reads a 32-byte hash. A Hash is held in wire order (spec.md
// §3's Hash invariant), so its bytes are taken as they appear on the
// wire; only String reverses them for display.
func readHash(r io.Reader) (chainhash.Hash, error) {
	var h chainhash.Hash
	if _, err := io.ReadFull(r, h[:]); err != nil {
		return h, err
	}
	return h, nil
}

func writeHash(w io.Writer, h chainhash.Hash) error {
	_, err := w.Write(h[:])
	return err
}

// readBool reads a single-byte boolean.
func readBool(r io.Reader) (bool, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return false, err
	}
	return buf[0] != 0, nil
}

func writeBool(w io.Writer, v bool) error {
	b := byte(0)
	if v {
		b = 1
	}
	_, err := w.Write([]byte{b})
	return err
}

// errf is a small formatting helper kept local to avoid importing errors
// for the common case of wrapping a read/write failure.
func errf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
