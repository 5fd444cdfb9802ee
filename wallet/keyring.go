package wallet

import (
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// KeyPair is one entry of a wallet's key ring: an ECDSA key pair plus an
// optional human label (spec.md §3's persisted-state layout "private-key
// scalar + optional label"). The elliptic-curve primitives themselves are
// the opaque external collaborator spec.md §1 calls out; KeyPair only
// wraps btcec's secp256k1 implementation with the address-derivation and
// signing glue the rest of the package needs.
type KeyPair struct {
	priv  *btcec.PrivateKey
	Label string

	pubKeyHash []byte
}

// NewKeyPair wraps an existing private key with an optional label,
// precomputing its pay-to-pubkey-hash address digest.
func NewKeyPair(priv *btcec.PrivateKey, label string) *KeyPair {
	return &KeyPair{
		priv:       priv,
		Label:      label,
		pubKeyHash: Hash160(priv.PubKey().SerializeCompressed()),
	}
}

// GenerateKeyPair creates a fresh random key pair, the only place this
// package calls into the opaque key-generation primitive.
func GenerateKeyPair(label string) (*KeyPair, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("wallet: generate key pair: %w", err)
	}
	return NewKeyPair(priv, label), nil
}

// PrivateKeyBytes returns a copy of the 32-byte private scalar, the form
// persisted by Save (spec.md §6). Callers should treat the result as
// sensitive.
func (k *KeyPair) PrivateKeyBytes() []byte {
	b := k.priv.Serialize()
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// PubKeyHash returns the 20-byte hash160 of the key's compressed public
// key, the digest embedded in a standard pay-to-pubkey-hash scriptPubKey.
func (k *KeyPair) PubKeyHash() []byte {
	return k.pubKeyHash
}

// PubKeyCompressed returns the 33-byte SEC1-compressed public key.
func (k *KeyPair) PubKeyCompressed() []byte {
	return k.priv.PubKey().SerializeCompressed()
}

// Sign produces a DER-encoded ECDSA signature over hash using this key's
// private scalar.
func (k *KeyPair) Sign(hash []byte) []byte {
	sig := ecdsa.Sign(k.priv, hash)
	return sig.Serialize()
}

// keyPairFromBytes reconstructs a KeyPair from a persisted private-key
// scalar, used by Load.
func keyPairFromBytes(scalar []byte, label string) (*KeyPair, error) {
	priv, _ := btcec.PrivKeyFromBytes(scalar)
	if priv == nil {
		return nil, fmt.Errorf("wallet: invalid private key scalar")
	}
	return NewKeyPair(priv, label), nil
}

// KeyRing is the wallet's set of key pairs (spec.md §3). Keys are created
// externally and added; they are never removed during reconciliation.
// Reads (IsMine, IsPubKeyMine) happen concurrently with wallet
// operations; spec.md §5 documents this as tolerated but not linearized
// against concurrent additions ("isMine is not thread-safe against key
// additions").
type KeyRing struct {
	mu   sync.RWMutex
	keys []*KeyPair

	// byHash indexes keys by their pay-to-pubkey-hash digest for O(1)
	// IsMine lookups.
	byHash map[[20]byte]*KeyPair
}

// NewKeyRing creates an empty key ring.
func NewKeyRing() *KeyRing {
	return &KeyRing{byHash: make(map[[20]byte]*KeyPair)}
}

// Add appends kp to the ring. Safe to call concurrently with reads
// (IsMine, IsPubKeyMine, Keys), though a read racing an Add may miss the
// newly added key for its duration (spec.md §5).
func (r *KeyRing) Add(kp *KeyPair) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, kp)
	var h [20]byte
	copy(h[:], kp.pubKeyHash)
	r.byHash[h] = kp
}

// Keys returns a snapshot slice of the ring's key pairs.
func (r *KeyRing) Keys() []*KeyPair {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*KeyPair, len(r.keys))
	copy(out, r.keys)
	return out
}

// byPubKeyHash returns the key pair owning pkHash, if any.
func (r *KeyRing) byPubKeyHash(pkHash []byte) (*KeyPair, bool) {
	if len(pkHash) != 20 {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var h [20]byte
	copy(h[:], pkHash)
	kp, ok := r.byHash[h]
	return kp, ok
}

// IsPubKeyMine reports whether pubKey (compressed SEC1 encoding) belongs
// to a key pair held in this ring (spec.md §4.6).
func (r *KeyRing) IsPubKeyMine(pubKey []byte) bool {
	_, ok := r.byPubKeyHash(Hash160(pubKey))
	return ok
}
