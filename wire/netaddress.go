package wire

import (
	"io"
	"net"
)

// NetAddress is the sender/receiver address form carried by the version
// handshake (spec.md §6). The reference implementation omits the
// time field the full network address format carries in addr messages,
// matching the version message's layout.
type NetAddress struct {
	Services uint64
	IP       net.IP
	Port     uint16
}

func (a *NetAddress) encode(w io.Writer) error {
	if err := writeUint64(w, a.Services); err != nil {
		return err
	}
	var ip [16]byte
	copy(ip[:], a.IP.To16())
	if _, err := w.Write(ip[:]); err != nil {
		return err
	}
	// Port is transmitted big-endian, matching the original protocol's
	// network-byte-order convention for this one field.
	if _, err := w.Write([]byte{byte(a.Port >> 8), byte(a.Port)}); err != nil {
		return err
	}
	return nil
}

func (a *NetAddress) decode(r io.Reader) error {
	services, err := readUint64(r)
	if err != nil {
		return err
	}
	a.Services = services

	var ip [16]byte
	if _, err := io.ReadFull(r, ip[:]); err != nil {
		return err
	}
	a.IP = net.IP(append([]byte{}, ip[:]...))

	var portBuf [2]byte
	if _, err := io.ReadFull(r, portBuf[:]); err != nil {
		return err
	}
	a.Port = uint16(portBuf[0])<<8 | uint16(portBuf[1])
	return nil
}
