package blockchain

import (
	"testing"

	"github.com/coinspv/spvchain/chainhash"
)

func leaf(b byte) chainhash.Hash {
	var h chainhash.Hash
	h[0] = b
	return h
}

func TestMerkleRootSingleLeaf(t *testing.T) {
	root, err := MerkleRoot([]chainhash.Hash{leaf(1)})
	if err != nil {
		t.Fatalf("MerkleRoot: %v", err)
	}
	if root != leaf(1) {
		t.Fatalf("root of a single-transaction block must equal that transaction's hash")
	}
}

func TestMerkleRootOddDuplicationProperty(t *testing.T) {
	leaves := []chainhash.Hash{leaf(1), leaf(2), leaf(3)}
	root1, err := MerkleRoot(leaves)
	if err != nil {
		t.Fatalf("MerkleRoot: %v", err)
	}

	padded := append(append([]chainhash.Hash{}, leaves...), leaves[len(leaves)-1])
	root2, err := MerkleRoot(padded)
	if err != nil {
		t.Fatalf("MerkleRoot: %v", err)
	}

	if root1 != root2 {
		t.Fatalf("root(T) must equal root(T ++ [T[-1]]) for odd |T|: %s != %s", root1, root2)
	}
}

func TestMerkleRootEvenCardinality(t *testing.T) {
	root, err := MerkleRoot([]chainhash.Hash{leaf(1), leaf(2), leaf(3), leaf(4)})
	if err != nil {
		t.Fatalf("MerkleRoot: %v", err)
	}
	if root.IsZero() {
		t.Fatalf("root must not be the zero hash")
	}
}

func TestBuildMerkleTreeEmptyRejected(t *testing.T) {
	if _, err := BuildMerkleTree(nil); err == nil {
		t.Fatalf("expected an error building a tree with no leaves")
	}
}

func TestBuildMerkleTreeFlatRepresentation(t *testing.T) {
	tree, err := BuildMerkleTree([]chainhash.Hash{leaf(1), leaf(2), leaf(3)})
	if err != nil {
		t.Fatalf("BuildMerkleTree: %v", err)
	}
	// 3 leaves -> level0 (3, padded internally to pair), level1 (2), level2 (root)
	if len(tree) != 3 {
		t.Fatalf("tree has %d levels, want 3", len(tree))
	}
	if len(tree[0]) != 3 {
		t.Fatalf("leaf level has %d entries, want 3", len(tree[0]))
	}
	if len(tree[len(tree)-1]) != 1 {
		t.Fatalf("root level must have exactly one entry")
	}
}
