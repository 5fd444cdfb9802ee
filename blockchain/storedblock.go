package blockchain

import (
	"math/big"

	"github.com/coinspv/spvchain/chainhash"
	"github.com/coinspv/spvchain/wire"
)

// StoredBlock is a block header together with the chain-contextual facts
// that make it addressable in the block store: its height and the
// cumulative proof-of-work of the chain ending at it (spec.md §3).
type StoredBlock struct {
	Header     wire.BlockHeader
	Height     int64
	Cumulative *big.Int
}

// Hash returns the block's identity hash.
func (sb *StoredBlock) Hash() chainhash.Hash {
	return sb.Header.BlockHash()
}

// Build derives the StoredBlock for child, a header whose PrevBlock is
// sb's hash: height+1, cumulative work plus the child's own work
// (spec.md §3's "Derived from parent by a build(child_header) operation").
func (sb *StoredBlock) Build(child wire.BlockHeader) *StoredBlock {
	return &StoredBlock{
		Header:     child,
		Height:     sb.Height + 1,
		Cumulative: new(big.Int).Add(sb.Cumulative, child.Work()),
	}
}

// Clone returns a deep copy, so a caller holding a *StoredBlock returned
// from a store never observes a mutation made through another reference
// (spec.md §4.3, §9's "fresh-record-per-read policy via cloning").
func (sb *StoredBlock) Clone() *StoredBlock {
	return &StoredBlock{
		Header:     sb.Header,
		Height:     sb.Height,
		Cumulative: new(big.Int).Set(sb.Cumulative),
	}
}

// genesisStoredBlock builds the StoredBlock for a network's literal
// genesis header: height 0, cumulative work equal to its own work.
func genesisStoredBlock(header wire.BlockHeader) *StoredBlock {
	return &StoredBlock{
		Header:     header,
		Height:     0,
		Cumulative: header.Work(),
	}
}
