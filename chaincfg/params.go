// Package chaincfg selects the network-specific constants a chain
// synchronization session runs under (spec.md §6, "Network parameters").
package chaincfg

import (
	"math/big"
	"time"

	"github.com/coinspv/spvchain/wire"
)

// Net identifies which parameter set a node is configured for.
type Net uint8

const (
	ProdNet Net = iota
	TestNet
	UnitTests
)

func (n Net) String() string {
	switch n {
	case ProdNet:
		return "prodnet"
	case TestNet:
		return "testnet"
	case UnitTests:
		return "unittests"
	default:
		return "unknown"
	}
}

// Params fixes every network-dependent constant a syncing node needs
// (spec.md §6).
type Params struct {
	Net Net

	// Magic is the 4-byte prefix every framed wire message carries.
	Magic [4]byte

	// Genesis is the literal genesis block this network starts from.
	Genesis wire.MsgBlock

	// PowLimit is the easiest allowed proof-of-work target: the decoded
	// target may never exceed this value (spec.md §4.2's Verify rule 2).
	PowLimit *big.Int

	// PowLimitBits is PowLimit pre-encoded in compact form, used as the
	// genesis block's and newly-retargeted-but-clamped blocks' Bits field.
	PowLimitBits uint32

	// RetargetInterval is the number of blocks between difficulty
	// transitions (spec.md §4.4): 2016 for ProdNet/TestNet, 2 for
	// UnitTests.
	RetargetInterval int64

	// TargetTimespan is the intended wall-clock duration of one retarget
	// interval (spec.md §4.4): 14 days for ProdNet/TestNet, shortened for
	// UnitTests.
	TargetTimespan time.Duration

	// DefaultPort is the network's conventional TCP port.
	DefaultPort string

	// AddressPrefix is the single byte prefixing a base58-style address
	// derived from a hash160 public key.
	AddressPrefix byte

	// SeedPeers lists literal bootstrap addresses. Empty for TestNet and
	// UnitTests, matching spec.md's scope (DNS seed resolution is out of
	// scope; only literal seed lists are in-model).
	SeedPeers []string
}

var bigOne = big.NewInt(1)

func genesisCoinbase(message string) *wire.MsgTx {
	return &wire.MsgTx{
		Version: 1,
		TxIn: []*wire.TxIn{{
			PreviousOutPoint: wire.OutPoint{Index: wire.CoinbaseIndex},
			SignatureScript:  []byte(message),
			Sequence:         0xFFFFFFFF,
		}},
		TxOut: []*wire.TxOut{{
			Value:    50 * 1e8,
			PkScript: []byte{},
		}},
		LockTime: 0,
	}
}

func genesisBlock(bits uint32, timestamp time.Time, nonce uint32, message string) wire.MsgBlock {
	coinbase := genesisCoinbase(message)
	root := coinbase.TxHash()
	return wire.MsgBlock{
		Header: wire.BlockHeader{
			Version:    1,
			PrevBlock:  [32]byte{},
			MerkleRoot: root,
			Timestamp:  timestamp,
			Bits:       bits,
			Nonce:      nonce,
		},
		Transactions: []*wire.MsgTx{coinbase},
	}
}

// ProdNetParams returns the production-network parameters.
func ProdNetParams() *Params {
	powLimit := new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne)
	bits := wire.BigToCompact(powLimit)
	return &Params{
		Net:              ProdNet,
		Magic:            [4]byte{0xF9, 0xBE, 0xB4, 0xD9},
		Genesis:          genesisBlock(bits, time.Unix(1231006505, 0).UTC(), 2083236893, "prodnet genesis"),
		PowLimit:         powLimit,
		PowLimitBits:     bits,
		RetargetInterval: 2016,
		TargetTimespan:   14 * 24 * time.Hour,
		DefaultPort:      "8333",
		AddressPrefix:    0x00,
		SeedPeers: []string{
			"seed.prodnet.example.com:8333",
		},
	}
}

// TestNetParams returns the public test-network parameters: same retarget
// cadence as ProdNet but a much easier proof-of-work limit and no literal
// seed list (spec.md §6).
func TestNetParams() *Params {
	powLimit := new(big.Int).Sub(new(big.Int).Lsh(bigOne, 236), bigOne)
	bits := wire.BigToCompact(powLimit)
	return &Params{
		Net:              TestNet,
		Magic:            [4]byte{0x0B, 0x11, 0x09, 0x07},
		Genesis:          genesisBlock(bits, time.Unix(1296688602, 0).UTC(), 414098458, "testnet genesis"),
		PowLimit:         powLimit,
		PowLimitBits:     bits,
		RetargetInterval: 2016,
		TargetTimespan:   14 * 24 * time.Hour,
		DefaultPort:      "18333",
		AddressPrefix:    0x6F,
	}
}

// UnitTestsParams returns trivially-easy parameters for deterministic
// in-process tests (spec.md §8 end-to-end scenarios all run under this
// parameter set): retarget interval 2, a short target timespan, and a
// proof-of-work limit (2^255-1) easy enough that roughly half of all
// nonces satisfy it.
func UnitTestsParams() *Params {
	powLimit := new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)
	bits := wire.BigToCompact(powLimit)
	return &Params{
		Net:              UnitTests,
		Magic:            [4]byte{0xFA, 0xBF, 0xB5, 0xDA},
		Genesis:          genesisBlock(bits, time.Unix(1600000000, 0).UTC(), 0, "unit test genesis"),
		PowLimit:         powLimit,
		PowLimitBits:     bits,
		RetargetInterval: 2,
		TargetTimespan:   20 * time.Minute,
		DefaultPort:      "18555",
		AddressPrefix:    0x6F,
	}
}

// ByName resolves a network parameter set from its Net.String() form, for
// use by configuration loaders (internal/config).
func ByName(name string) (*Params, bool) {
	switch name {
	case ProdNet.String():
		return ProdNetParams(), true
	case TestNet.String():
		return TestNetParams(), true
	case UnitTests.String():
		return UnitTestsParams(), true
	default:
		return nil, false
	}
}
