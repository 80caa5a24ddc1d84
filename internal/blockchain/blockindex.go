// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2018-2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"bytes"
	"sort"
	"sync"
	"time"

	"github.com/6zip-project/dash/internal/primitives"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/decred/dcrd/math/uint256"
)

// medianTimeBlocks is the number of previous blocks which should be used to
// calculate the median time used to validate block timestamps.
const medianTimeBlocks = 11

// blockStatus is a bit field representing the validation state of the block.
type blockStatus byte

// The following constants specify possible status bit flags for a block.
const (
	// statusNone indicates that the block has no validation state flags set.
	statusNone blockStatus = 0

	// statusDataConnected indicates that the full block, including its
	// special transactions, has been validated and connected.
	statusDataConnected blockStatus = 1 << 0

	// statusValidateFailed indicates that the block has failed validation.
	statusValidateFailed blockStatus = 1 << 1
)

// KnownInvalid returns whether the block is known to be invalid.
func (status blockStatus) KnownInvalid() bool {
	return status&statusValidateFailed != 0
}

// blockNode represents a block within the block chain and is primarily used to
// aid in selecting the best chain to be the main chain.  The main chain is
// stored into the block database.
type blockNode struct {
	// NOTE: Additions, deletions, or modifications to the order of the
	// definitions in this struct should not be changed without considering
	// how it affects alignment on 64-bit platforms.

	// parent is the parent block for this node.
	parent *blockNode

	// skipToAncestor is used to provide logarithmic access to ancestors.
	skipToAncestor *blockNode

	// hash is the hash of the block this node represents.
	hash chainhash.Hash

	// workSum is the total amount of work in the chain up to and including
	// this node.
	workSum uint256.Uint256

	// Some fields from block headers to aid in best chain selection and
	// reconstructing headers from memory.  These must be treated as
	// immutable and are intentionally ordered to avoid padding on 64-bit
	// platforms.
	height     int64
	timestamp  int64
	merkleRoot chainhash.Hash
	version    int32
	bits       uint32
	nonce      uint32

	// status is a bitfield representing the validation state of the block.
	// This field, unlike the other fields, may be changed after the block
	// node is created, so it must only be accessed or updated using the
	// concurrent-safe NodeStatus, SetStatusFlags, and UnsetStatusFlags
	// methods on blockIndex once the node has been added to the index.
	status blockStatus
}

// clearLowestOneBit clears the lowest set bit in the passed value.
func clearLowestOneBit(n int64) int64 {
	return n & (n - 1)
}

// calcSkipListHeight calculates the height of an ancestor block to use when
// constructing the ancestor traversal skip list.
func calcSkipListHeight(height int64) int64 {
	if height < 2 {
		return 0
	}

	// Traditional skip lists create multiple levels to achieve expected
	// logarithmic access times.  However, since blocks are immutable, the
	// skip list can be built deterministically by clearing the lowest one
	// bits twice.  This yields logarithmic ancestor traversal with only a
	// single pointer per node.
	return clearLowestOneBit(clearLowestOneBit(height))
}

// initBlockNode initializes a block node from the given header and parent
// node.  The height is derived from the parent since headers do not commit to
// it.  This function is NOT safe for concurrent access.  It must only be called
// when initially creating a node.
func initBlockNode(node *blockNode, blockHeader *wire.BlockHeader, parent *blockNode) {
	*node = blockNode{
		hash:       blockHeader.BlockHash(),
		timestamp:  blockHeader.Timestamp.Unix(),
		merkleRoot: blockHeader.MerkleRoot,
		version:    blockHeader.Version,
		bits:       blockHeader.Bits,
		nonce:      blockHeader.Nonce,
	}
	node.workSum = primitives.CalcWork(blockHeader.Bits)
	if parent != nil {
		node.parent = parent
		node.height = parent.height + 1
		node.skipToAncestor = parent.Ancestor(calcSkipListHeight(node.height))
		node.workSum.Add(&parent.workSum)
	}
}

// newBlockNode returns a new block node for the given block header and parent
// node.  This function is NOT safe for concurrent access.
func newBlockNode(blockHeader *wire.BlockHeader, parent *blockNode) *blockNode {
	var node blockNode
	initBlockNode(&node, blockHeader, parent)
	return &node
}

// Header constructs a block header from the node and returns it.
//
// This function is safe for concurrent access.
func (node *blockNode) Header() wire.BlockHeader {
	// No lock is needed because all accessed fields are immutable.
	prevHash := &zeroHash
	if node.parent != nil {
		prevHash = &node.parent.hash
	}
	return wire.BlockHeader{
		Version:    node.version,
		PrevBlock:  *prevHash,
		MerkleRoot: node.merkleRoot,
		Timestamp:  time.Unix(node.timestamp, 0),
		Bits:       node.bits,
		Nonce:      node.nonce,
	}
}

// Ancestor returns the ancestor block node at the provided height by following
// the chain backwards from this node.  The returned block will be nil when a
// height is requested that is after the height of the passed node or is less
// than zero.
//
// This function is safe for concurrent access.
func (node *blockNode) Ancestor(height int64) *blockNode {
	if height < 0 || height > node.height {
		return nil
	}

	// Traverse back until the target height is reached using the skip list
	// pointers whenever they do not overshoot.
	n := node
	for n != nil && n.height != height {
		if n.skipToAncestor != nil && n.skipToAncestor.height >= height {
			n = n.skipToAncestor
			continue
		}
		n = n.parent
	}
	return n
}

// RelativeAncestor returns the ancestor block node a relative 'distance' blocks
// before this node.  This is equivalent to calling Ancestor with the node's
// height minus provided distance.
//
// This function is safe for concurrent access.
func (node *blockNode) RelativeAncestor(distance int64) *blockNode {
	return node.Ancestor(node.height - distance)
}

// CalcPastMedianTime calculates the median time of the previous few blocks
// prior to, and including, the block node.
//
// This function is safe for concurrent access.
func (node *blockNode) CalcPastMedianTime() time.Time {
	timestamps := make([]int64, 0, medianTimeBlocks)
	iterNode := node
	for i := 0; i < medianTimeBlocks && iterNode != nil; i++ {
		timestamps = append(timestamps, iterNode.timestamp)
		iterNode = iterNode.parent
	}
	sort.Slice(timestamps, func(i, j int) bool {
		return timestamps[i] < timestamps[j]
	})

	// The median of an even number of timestamps deliberately takes the
	// upper middle element.  That only happens for the first few blocks of
	// the chain since medianTimeBlocks is odd.
	return time.Unix(timestamps[len(timestamps)/2], 0)
}

// blockIndex provides facilities for keeping track of an in-memory index of the
// block chain.  Although the name block chain suggests a single chain of
// blocks, it is actually a tree-shaped structure where any node can have
// multiple children.  However, there can only be one active branch which does
// indeed form a chain from the tip all the way back to the genesis block.
type blockIndex struct {
	sync.RWMutex
	index map[chainhash.Hash]*blockNode

	// bestHeader tracks the header with the most cumulative work that is not
	// known to be invalid.
	bestHeader *blockNode
}

// newBlockIndex returns a new empty instance of a block index.
func newBlockIndex() *blockIndex {
	return &blockIndex{
		index: make(map[chainhash.Hash]*blockNode),
	}
}

// LookupNode returns the block node identified by the provided hash.  It will
// return nil if there is no entry for the hash.
//
// This function is safe for concurrent access.
func (bi *blockIndex) LookupNode(hash *chainhash.Hash) *blockNode {
	bi.RLock()
	node := bi.index[*hash]
	bi.RUnlock()
	return node
}

// AddNode adds the provided node to the block index and updates the best
// known header when the node has more cumulative work.  Duplicate entries are
// not checked so it is up to caller to avoid adding them.
//
// This function is safe for concurrent access.
func (bi *blockIndex) AddNode(node *blockNode) {
	bi.Lock()
	bi.index[node.hash] = node
	if bi.bestHeader == nil || node.workSum.Gt(&bi.bestHeader.workSum) {
		bi.bestHeader = node
	}
	bi.Unlock()
}

// BestHeader returns the known header with the most cumulative work.
//
// This function is safe for concurrent access.
func (bi *blockIndex) BestHeader() *blockNode {
	bi.RLock()
	best := bi.bestHeader
	bi.RUnlock()
	return best
}

// NodeStatus returns the status associated with the provided node.
//
// This function is safe for concurrent access.
func (bi *blockIndex) NodeStatus(node *blockNode) blockStatus {
	bi.RLock()
	status := node.status
	bi.RUnlock()
	return status
}

// SetStatusFlags sets the provided status flags for the given block node
// regardless of their previous state.  It does not unset any flags.
//
// This function is safe for concurrent access.
func (bi *blockIndex) SetStatusFlags(node *blockNode, flags blockStatus) {
	bi.Lock()
	node.status |= flags
	bi.Unlock()
}

// MarkValidateFailed marks the provided node as having failed validation.  The
// best known header is recalculated when it is the node or one of its
// descendants.
//
// This function is safe for concurrent access.
func (bi *blockIndex) MarkValidateFailed(node *blockNode) {
	bi.Lock()
	node.status |= statusValidateFailed
	if bi.bestHeader != nil && bi.bestHeader.Ancestor(node.height) == node {
		bi.bestHeader = bi.findBestHeader()
	}
	bi.Unlock()
}

// findBestHeader returns the node with the most cumulative work that neither
// is nor descends from a block known to be invalid.  Ties are broken in favor
// of the lowest hash so the result does not depend on map iteration order.
//
// This function MUST be called with the block index lock held (for reads).
func (bi *blockIndex) findBestHeader() *blockNode {
	var best *blockNode
	for _, node := range bi.index {
		if best != nil {
			if best.workSum.Gt(&node.workSum) {
				continue
			}
			if best.workSum.Eq(&node.workSum) &&
				bytes.Compare(node.hash[:], best.hash[:]) >= 0 {

				continue
			}
		}
		if hasInvalidAncestor(node) {
			continue
		}
		best = node
	}
	return best
}

// hasInvalidAncestor returns whether the provided node or any of its ancestors
// is known to be invalid.  The block index lock must be held.
func hasInvalidAncestor(node *blockNode) bool {
	for n := node; n != nil; n = n.parent {
		if n.status.KnownInvalid() {
			return true
		}
	}
	return false
}

// UnsetStatusFlags unsets the provided status flags for the given block node
// regardless of their previous state.
//
// This function is safe for concurrent access.
func (bi *blockIndex) UnsetStatusFlags(node *blockNode, flags blockStatus) {
	bi.Lock()
	node.status &^= flags
	bi.Unlock()
}
