package wire

import "math/big"

// CompactToBig decodes the "nBits" compact difficulty-target encoding
// (spec.md §3: BlockHeader.difficulty-target) into a big.Int. The format
// is a single exponent byte followed by a three-byte mantissa, as
// popularized by the original Bitcoin client and used unchanged by every
// proof-of-work fork in the retrieved corpus.
func CompactToBig(compact uint32) *big.Int {
	mantissa := compact & 0x007fffff
	exponent := uint(compact >> 24)

	var result *big.Int
	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		result = big.NewInt(int64(mantissa))
	} else {
		result = big.NewInt(int64(mantissa))
		result.Lsh(result, 8*(exponent-3))
	}

	if compact&0x00800000 != 0 {
		result.Neg(result)
	}
	return result
}

// BigToCompact encodes n into the compact nBits representation, masking
// to the same 3-byte-mantissa precision the reference client uses. This
// mask is load-bearing for difficulty-retarget bit-compatibility
// (spec.md §9's Design Notes) — callers must compare the full encoded
// uint32, never the underlying big.Int value.
func BigToCompact(n *big.Int) uint32 {
	if n.Sign() == 0 {
		return 0
	}

	var mantissa uint32
	exponent := uint(len(n.Bytes()))

	if exponent <= 3 {
		mantissa = uint32(n.Bits()[0])
		mantissa <<= 8 * (3 - exponent)
	} else {
		tn := new(big.Int).Set(n)
		mantissa = uint32(tn.Rsh(tn, 8*(exponent-3)).Bits()[0])
	}

	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		exponent++
	}

	compact := uint32(exponent<<24) | mantissa
	if n.Sign() < 0 {
		compact |= 0x00800000
	}
	return compact
}

// CalcWork computes a block's proof-of-work contribution,
// floor(2^256 / (target+1)), per the GLOSSARY's "Cumulative work"
// definition. Returns zero for a non-positive target.
func CalcWork(bits uint32) *big.Int {
	target := CompactToBig(bits)
	if target.Sign() <= 0 {
		return big.NewInt(0)
	}

	// 2^256 / (target+1)
	denominator := new(big.Int).Add(target, big.NewInt(1))
	numerator := new(big.Int).Lsh(big.NewInt(1), 256)
	return numerator.Div(numerator, denominator)
}
