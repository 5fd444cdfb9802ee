package peer

import (
	"net"

	"github.com/coinspv/spvchain/wire"
)

// MessageConn abstracts a single peer's framed message channel so the
// state machine in Peer never touches a net.Conn directly. Tests supply
// an in-memory implementation; NetConn is the real one.
type MessageConn interface {
	WriteMessage(msg wire.Message) error
	ReadMessage() (wire.Message, error)
	Close() error
}

// NetConn frames wire.Message values over a net.Conn using the magic and
// checksum rules of spec.md §6.
type NetConn struct {
	conn            net.Conn
	magic           [4]byte
	requireChecksum bool
}

// NewNetConn wraps conn. requireChecksum should be false only while the
// version/verack handshake is in flight, per spec.md §6's allowance for
// older peers that omit the checksum on those two messages.
func NewNetConn(conn net.Conn, magic [4]byte, requireChecksum bool) *NetConn {
	return &NetConn{conn: conn, magic: magic, requireChecksum: requireChecksum}
}

// RequireChecksum flips the handshake allowance off once version/verack
// has completed.
func (c *NetConn) RequireChecksum(require bool) {
	c.requireChecksum = require
}

func (c *NetConn) WriteMessage(msg wire.Message) error {
	return wire.WriteMessage(c.conn, c.magic, msg)
}

func (c *NetConn) ReadMessage() (wire.Message, error) {
	return wire.ReadMessage(c.conn, c.magic, c.requireChecksum)
}

func (c *NetConn) Close() error {
	return c.conn.Close()
}
