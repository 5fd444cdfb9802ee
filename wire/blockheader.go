package wire

import (
	"bytes"
	"io"
	"math/big"
	"time"

	"github.com/coinspv/spvchain/chainhash"
)

// BlockHeaderLen is the fixed 80-byte serialized size of a BlockHeader
// (spec.md §3).
const BlockHeaderLen = 4 + chainhash.Size + chainhash.Size + 4 + 4 + 4

// BlockHeader is the 80-byte identity-bearing prefix of a Block
// (spec.md §3).
type BlockHeader struct {
	Version    int32
	PrevBlock  chainhash.Hash
	MerkleRoot chainhash.Hash
	Timestamp  time.Time
	Bits       uint32
	Nonce      uint32
}

// BlockHash returns the double-SHA256 of the header's 80-byte
// serialization. It depends only on the header, never on the block's
// transaction list (spec.md §8's hash-stability property).
func (h *BlockHeader) BlockHash() chainhash.Hash {
	var buf bytes.Buffer
	// encoding a fixed 80-byte header cannot fail except on OOM, which
	// would itself panic; ignore the error as the reference client does.
	_ = h.Encode(&buf)
	return chainhash.DoubleHashH(buf.Bytes())
}

// Work returns floor(2^256 / (target+1)) for this header's difficulty
// bits (GLOSSARY: "Cumulative work").
func (h *BlockHeader) Work() *big.Int {
	return CalcWork(h.Bits)
}

// Target decodes Bits into the big.Int proof-of-work target.
func (h *BlockHeader) Target() *big.Int {
	return CompactToBig(h.Bits)
}

// Encode writes the 80-byte wire serialization of the header.
func (h *BlockHeader) Encode(w io.Writer) error {
	if err := writeUint32(w, uint32(h.Version)); err != nil {
		return err
	}
	if err := writeHash(w, h.PrevBlock); err != nil {
		return err
	}
	if err := writeHash(w, h.MerkleRoot); err != nil {
		return err
	}
	if err := writeUint32(w, uint32(h.Timestamp.Unix())); err != nil {
		return err
	}
	if err := writeUint32(w, h.Bits); err != nil {
		return err
	}
	return writeUint32(w, h.Nonce)
}

// Decode reads the 80-byte wire serialization of the header.
func (h *BlockHeader) Decode(r io.Reader) error {
	version, err := readUint32(r)
	if err != nil {
		return newProtocolError(0, "read version: %v", err)
	}
	h.Version = int32(version)

	if h.PrevBlock, err = readHash(r); err != nil {
		return newProtocolError(4, "read prev hash: %v", err)
	}
	if h.MerkleRoot, err = readHash(r); err != nil {
		return newProtocolError(4+chainhash.Size, "read merkle root: %v", err)
	}

	sec, err := readUint32(r)
	if err != nil {
		return newProtocolError(4+2*chainhash.Size, "read timestamp: %v", err)
	}
	h.Timestamp = time.Unix(int64(sec), 0).UTC()

	if h.Bits, err = readUint32(r); err != nil {
		return newProtocolError(8+2*chainhash.Size, "read bits: %v", err)
	}
	if h.Nonce, err = readUint32(r); err != nil {
		return newProtocolError(12+2*chainhash.Size, "read nonce: %v", err)
	}
	return nil
}
