package minter

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"passage/core/types"
)

// LeafHash is the whitelist leaf of addr: keccak256(address bytes).
func LeafHash(addr types.Address) common.Hash {
	return ethcrypto.Keccak256Hash(addr[:])
}

func hashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return ethcrypto.Keccak256Hash(a[:], b[:])
}

// VerifyProof checks a sorted-pair merkle proof of addr against root.
func VerifyProof(root common.Hash, addr types.Address, proof []common.Hash) bool {
	node := LeafHash(addr)
	for _, sibling := range proof {
		node = hashPair(node, sibling)
	}
	return node == root
}

// MerkleTree builds the sorted-pair tree over addrs. Level 0 holds the leaves;
// an unpaired node is promoted to the next level unchanged.
func MerkleTree(addrs []types.Address) [][]common.Hash {
	if len(addrs) == 0 {
		return nil
	}
	level := make([]common.Hash, len(addrs))
	for i, addr := range addrs {
		level[i] = LeafHash(addr)
	}
	tree := [][]common.Hash{level}
	for len(level) > 1 {
		next := make([]common.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, hashPair(level[i], level[i+1]))
		}
		tree = append(tree, next)
		level = next
	}
	return tree
}

// MerkleRoot returns the root over addrs, or the zero hash for an empty list.
func MerkleRoot(addrs []types.Address) common.Hash {
	tree := MerkleTree(addrs)
	if len(tree) == 0 {
		return common.Hash{}
	}
	return tree[len(tree)-1][0]
}

// MerkleProof returns the proof for the leaf at index.
func MerkleProof(addrs []types.Address, index int) []common.Hash {
	tree := MerkleTree(addrs)
	if index < 0 || index >= len(addrs) {
		return nil
	}
	var proof []common.Hash
	for _, level := range tree[:len(tree)-1] {
		sibling := index ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		index /= 2
	}
	return proof
}
