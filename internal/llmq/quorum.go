// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package llmq

import (
	"bytes"

	"github.com/6zip-project/dash/chaincfg"
	"github.com/6zip-project/dash/internal/bls"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// BlockRef identifies a block by its hash and height.
type BlockRef struct {
	Hash   chainhash.Hash
	Height int64
}

// Quorum describes a mined quorum.  The hash of a quorum is the hash of the
// block at which its formation started.
type Quorum struct {
	Type        chaincfg.LLMQType
	Hash        chainhash.Hash
	MinedHeight int64
	PublicKey   bls.PublicKey
}

// QuorumManager provides access to the quorums known to the chain.
//
// The interface contract requires that all of these methods are safe for
// concurrent access.
type QuorumManager interface {
	// ScanQuorums returns up to count quorums of the provided type that were
	// mined at or before the provided tip ordered from the most recently
	// mined to the least recently mined.
	ScanQuorums(llmqType chaincfg.LLMQType, tip BlockRef, count int) []*Quorum

	// GetQuorum returns the quorum of the provided type with the provided
	// hash or nil when it is not known.
	GetQuorum(llmqType chaincfg.LLMQType, quorumHash *chainhash.Hash) *Quorum
}

// BuildSignHash returns the hash quorum members sign for the provided signing
// request.  It commits to the quorum type and hash, the request identifier,
// and the hash of the message being signed.
func BuildSignHash(llmqType chaincfg.LLMQType, quorumHash, id, msgHash *chainhash.Hash) chainhash.Hash {
	var buf bytes.Buffer
	buf.Grow(1 + chainhash.HashSize*3)
	buf.WriteByte(byte(llmqType))
	buf.Write(quorumHash[:])
	buf.Write(id[:])
	buf.Write(msgHash[:])
	return chainhash.DoubleHashH(buf.Bytes())
}
