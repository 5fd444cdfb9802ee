package peer_test

import (
	"errors"
	"time"

	"github.com/coinspv/spvchain/blockchain"
	"github.com/coinspv/spvchain/chainhash"
	"github.com/coinspv/spvchain/wire"
)

// errClosedConn is pipeConn's ReadMessage/WriteMessage error once Close
// has been called, standing in for the io error a real closed net.Conn
// would return.
var errClosedConn = errors.New("peer_test: pipe closed")

// mineBlock finds a nonce satisfying bits's target against the
// UnitTests proof-of-work limit, which is easy enough that this
// terminates quickly (same approach as blockchain/helpers_test.go's
// mineBlock, rebuilt here against the exported API since peer_test is
// an external test package).
func mineBlock(prevHash chainhash.Hash, bits uint32, timestamp time.Time, txs []*wire.MsgTx) *wire.MsgBlock {
	root, err := blockchain.MerkleRoot(txHashes(txs))
	if err != nil {
		panic(err)
	}
	hdr := wire.BlockHeader{
		Version:    1,
		PrevBlock:  prevHash,
		MerkleRoot: root,
		Timestamp:  timestamp,
		Bits:       bits,
	}
	target := hdr.Target()
	for nonce := uint32(0); ; nonce++ {
		hdr.Nonce = nonce
		if hdr.BlockHash().BigInt().Cmp(target) < 0 {
			break
		}
	}
	return &wire.MsgBlock{Header: hdr, Transactions: txs}
}

func txHashes(txs []*wire.MsgTx) []chainhash.Hash {
	hashes := make([]chainhash.Hash, len(txs))
	for i, tx := range txs {
		hashes[i] = tx.TxHash()
	}
	return hashes
}

func coinbaseTx(height int64) *wire.MsgTx {
	return &wire.MsgTx{
		Version: 1,
		TxIn: []*wire.TxIn{{
			PreviousOutPoint: wire.OutPoint{Index: wire.CoinbaseIndex},
			SignatureScript:  []byte{byte(height)},
			Sequence:         0xFFFFFFFF,
		}},
		TxOut: []*wire.TxOut{{Value: 50 * 1e8, PkScript: []byte{}}},
	}
}

// chainBuilder mines a sequence of blocks extending from a parent, each
// exactly 20 minutes after the last — the UnitTests retarget timespan,
// so every block in a test shares one constant difficulty.
type chainBuilder struct {
	bits uint32
}

func (cb *chainBuilder) extend(parentHash chainhash.Hash, parentTime time.Time, n int, startHeight int64) []*wire.MsgBlock {
	blocks := make([]*wire.MsgBlock, n)
	prevHash := parentHash
	prevTime := parentTime
	for i := 0; i < n; i++ {
		height := startHeight + int64(i) + 1
		ts := prevTime.Add(20 * time.Minute)
		tx := coinbaseTx(height)
		block := mineBlock(prevHash, cb.bits, ts, []*wire.MsgTx{tx})
		blocks[i] = block
		prevHash = block.BlockHash()
		prevTime = ts
	}
	return blocks
}

// pipeConn is an in-memory MessageConn backed by two message channels,
// standing in for the real NetConn transport (spec.md §4.5a's
// MessageConn seam).
type pipeConn struct {
	in     chan wire.Message
	out    chan wire.Message
	closed chan struct{}
}

func newPipePair() (*pipeConn, *pipeConn) {
	a := make(chan wire.Message, 64)
	b := make(chan wire.Message, 64)
	closedA := make(chan struct{})
	closedB := make(chan struct{})
	return &pipeConn{in: a, out: b, closed: closedA}, &pipeConn{in: b, out: a, closed: closedB}
}

func (c *pipeConn) WriteMessage(msg wire.Message) error {
	select {
	case c.out <- msg:
		return nil
	case <-c.closed:
		return errClosedConn
	}
}

func (c *pipeConn) ReadMessage() (wire.Message, error) {
	select {
	case msg, ok := <-c.in:
		if !ok {
			return nil, errClosedConn
		}
		return msg, nil
	case <-c.closed:
		return nil, errClosedConn
	}
}

func (c *pipeConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}
	return nil
}
