// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package llmq

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/6zip-project/dash/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// ErrDuplicateQuorum indicates an attempt to add a quorum that is already
// known.
var ErrDuplicateQuorum = errors.New("duplicate quorum")

// quorumKey identifies a quorum within the registry.
type quorumKey struct {
	llmqType chaincfg.LLMQType
	hash     chainhash.Hash
}

// Registry is an in-memory QuorumManager.  Quorums are added as their
// commitments are mined and removed when the blocks that mined them are
// disconnected.
//
// The registry does not track forks, so a quorum is considered part of every
// chain whose tip is at or after the height it was mined at.
type Registry struct {
	mtx sync.RWMutex

	// byType houses the quorums of each type ordered by ascending mined
	// height.  Quorums mined at the same height keep insertion order.
	byType map[chaincfg.LLMQType][]*Quorum
	byHash map[quorumKey]*Quorum
}

// Ensure Registry implements the QuorumManager interface.
var _ QuorumManager = (*Registry)(nil)

// NewRegistry returns an empty quorum registry.
func NewRegistry() *Registry {
	return &Registry{
		byType: make(map[chaincfg.LLMQType][]*Quorum),
		byHash: make(map[quorumKey]*Quorum),
	}
}

// AddQuorum adds the provided quorum to the registry.
//
// This function is safe for concurrent access.
func (r *Registry) AddQuorum(q *Quorum) error {
	key := quorumKey{llmqType: q.Type, hash: q.Hash}

	r.mtx.Lock()
	defer r.mtx.Unlock()

	if _, ok := r.byHash[key]; ok {
		return fmt.Errorf("%w: %v quorum %v", ErrDuplicateQuorum, q.Type,
			q.Hash)
	}
	r.byHash[key] = q

	quorums := r.byType[q.Type]
	i := sort.Search(len(quorums), func(i int) bool {
		return quorums[i].MinedHeight > q.MinedHeight
	})
	quorums = append(quorums, nil)
	copy(quorums[i+1:], quorums[i:])
	quorums[i] = q
	r.byType[q.Type] = quorums

	log.Debugf("Added %v quorum %v mined at height %d", q.Type, q.Hash,
		q.MinedHeight)
	return nil
}

// RemoveQuorum removes the quorum of the provided type with the provided hash
// and reports whether it was known.
//
// This function is safe for concurrent access.
func (r *Registry) RemoveQuorum(llmqType chaincfg.LLMQType, quorumHash *chainhash.Hash) bool {
	key := quorumKey{llmqType: llmqType, hash: *quorumHash}

	r.mtx.Lock()
	defer r.mtx.Unlock()

	q, ok := r.byHash[key]
	if !ok {
		return false
	}
	delete(r.byHash, key)

	quorums := r.byType[llmqType]
	for i := range quorums {
		if quorums[i] == q {
			r.byType[llmqType] = append(quorums[:i], quorums[i+1:]...)
			break
		}
	}

	log.Debugf("Removed %v quorum %v", llmqType, quorumHash)
	return true
}

// ScanQuorums returns up to count quorums of the provided type that were mined
// at or before the provided tip ordered from the most recently mined to the
// least recently mined.
//
// This function is safe for concurrent access.
func (r *Registry) ScanQuorums(llmqType chaincfg.LLMQType, tip BlockRef, count int) []*Quorum {
	if count <= 0 {
		return nil
	}

	r.mtx.RLock()
	defer r.mtx.RUnlock()

	quorums := r.byType[llmqType]
	end := sort.Search(len(quorums), func(i int) bool {
		return quorums[i].MinedHeight > tip.Height
	})
	result := make([]*Quorum, 0, count)
	for i := end - 1; i >= 0 && len(result) < count; i-- {
		result = append(result, quorums[i])
	}
	return result
}

// GetQuorum returns the quorum of the provided type with the provided hash or
// nil when it is not known.
//
// This function is safe for concurrent access.
func (r *Registry) GetQuorum(llmqType chaincfg.LLMQType, quorumHash *chainhash.Hash) *Quorum {
	r.mtx.RLock()
	q := r.byHash[quorumKey{llmqType: llmqType, hash: *quorumHash}]
	r.mtx.RUnlock()
	return q
}
