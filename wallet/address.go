package wallet

import (
	"crypto/sha256"

	"golang.org/x/crypto/ripemd160"
)

// These are the handful of standard-script opcodes a pay-to-pubkey-hash
// output/input pair uses. Full script interpretation is out of scope
// (spec.md §1); the wallet builds only this pattern and recognizes it
// plus the bare pay-to-pubkey form, the idiom other btcsuite-family repos
// in the retrieved corpus use for the same purpose.
const (
	opDup         = 0x76
	opHash160     = 0xa9
	opData20      = 0x14
	opEqualVerify = 0x88
	opCheckSig    = 0xac
)

// pubKeyHashScriptLen is the fixed length of a standard
// OP_DUP OP_HASH160 <20-byte-hash> OP_EQUALVERIFY OP_CHECKSIG script.
const pubKeyHashScriptLen = 25

// pubKeyCompressedLen and pubKeyUncompressedLen are the two SEC1
// encodings a pay-to-pubkey scriptPubKey carries directly.
const (
	pubKeyCompressedLen   = 33
	pubKeyUncompressedLen = 65
)

// Hash160 computes RIPEMD160(SHA256(b)), the address-derivation digest
// used throughout the corpus (spec.md §4.6's IsMine, §6's AddressPrefix).
func Hash160(b []byte) []byte {
	sum := sha256.Sum256(b)
	r := ripemd160.New()
	r.Write(sum[:])
	return r.Sum(nil)
}

// payToPubKeyHashScript builds the standard scriptPubKey paying to
// hash160(pubkey).
func payToPubKeyHashScript(pkHash []byte) []byte {
	script := make([]byte, 0, pubKeyHashScriptLen)
	script = append(script, opDup, opHash160, opData20)
	script = append(script, pkHash...)
	script = append(script, opEqualVerify, opCheckSig)
	return script
}

// extractPubKeyHash recognizes a standard pay-to-pubkey-hash scriptPubKey
// and returns the 20-byte hash it pays to. Any other pattern is reported
// as a ScriptError; the wallet's scanning callers treat it as a script
// that does not pay to the ring, never fatal and not logged.
func extractPubKeyHash(pkScript []byte) ([]byte, error) {
	if len(pkScript) != pubKeyHashScriptLen ||
		pkScript[0] != opDup || pkScript[1] != opHash160 || pkScript[2] != opData20 ||
		pkScript[23] != opEqualVerify || pkScript[24] != opCheckSig {
		return nil, newScriptError("unrecognized scriptPubKey pattern (%d bytes)", len(pkScript))
	}
	return pkScript[3:23], nil
}

// extractPubKey recognizes a standard pay-to-pubkey scriptPubKey —
// push(pubkey) OP_CHECKSIG, the form real coinbase outputs use — and
// returns the embedded public key (spec.md §4.6's "pubkey or hash160").
func extractPubKey(pkScript []byte) ([]byte, error) {
	if len(pkScript) < 2 || pkScript[len(pkScript)-1] != opCheckSig {
		return nil, newScriptError("unrecognized scriptPubKey pattern (%d bytes)", len(pkScript))
	}
	pushLen := int(pkScript[0])
	if pushLen != pubKeyCompressedLen && pushLen != pubKeyUncompressedLen {
		return nil, newScriptError("unrecognized scriptPubKey pattern (%d bytes)", len(pkScript))
	}
	if len(pkScript) != 1+pushLen+1 {
		return nil, newScriptError("unrecognized scriptPubKey pattern (%d bytes)", len(pkScript))
	}
	return pkScript[1 : 1+pushLen], nil
}
