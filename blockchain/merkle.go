package blockchain

import (
	"errors"

	"github.com/coinspv/spvchain/chainhash"
)

// reverseHash returns h with its bytes in reverse order. A Hash is held
// in wire order, so the Merkle combine step hashes the reversed
// (display-order) form of each child hash and reverses the result back
// before it is stored as the parent (spec.md §4.2).
func reverseHash(h chainhash.Hash) chainhash.Hash {
	var out chainhash.Hash
	for i := 0; i < chainhash.Size; i++ {
		out[i] = h[chainhash.Size-1-i]
	}
	return out
}

func combine(a, b chainhash.Hash) chainhash.Hash {
	ra, rb := reverseHash(a), reverseHash(b)
	buf := make([]byte, 0, chainhash.Size*2)
	buf = append(buf, ra[:]...)
	buf = append(buf, rb[:]...)
	return reverseHash(chainhash.DoubleHashH(buf))
}

// BuildMerkleTree builds the Merkle tree over leaves, in transaction order
// (spec.md §4.2), and returns it as a slice of levels ([leaves], [level1],
// …, [root]); it does not return one flat slice. An odd-cardinality level
// duplicates its last element before pairing.
func BuildMerkleTree(leaves []chainhash.Hash) ([][]chainhash.Hash, error) {
	if len(leaves) == 0 {
		return nil, errors.New("blockchain: cannot build a merkle tree with no leaves")
	}

	level := make([]chainhash.Hash, len(leaves))
	copy(level, leaves)
	tree := [][]chainhash.Hash{level}

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]chainhash.Hash, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next[i/2] = combine(level[i], level[i+1])
		}
		tree = append(tree, next)
		level = next
	}
	return tree, nil
}

// MerkleRoot returns the single root hash of the tree built over leaves.
func MerkleRoot(leaves []chainhash.Hash) (chainhash.Hash, error) {
	tree, err := BuildMerkleTree(leaves)
	if err != nil {
		return chainhash.Hash{}, err
	}
	top := tree[len(tree)-1]
	return top[0], nil
}
