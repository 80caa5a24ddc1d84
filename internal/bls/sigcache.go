// Copyright (c) 2015-2016 The btcsuite developers
// Copyright (c) 2016-2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bls

import (
	"bytes"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/decred/dcrd/container/lru"
)

// SigCache implements a BLS signature verification cache with a bounded
// number of entries, evicting the least recently used entries when full.  Only
// valid signatures are added to the cache.  Quorum signatures are typically
// verified once when the transaction is first seen and again when the block
// containing it is connected, so the cache avoids the second pairing check.
//
// Entries are keyed by the hash of the public key, the signed hash, and the
// signature, so an entry can only be hit by the exact same triple.
type SigCache struct {
	validSigs *lru.Set[chainhash.Hash]
}

// NewSigCache creates and initializes a new instance of SigCache.  Its sole
// parameter 'maxEntries' represents the maximum number of entries allowed to
// exist in the SigCache at any particular moment.
func NewSigCache(maxEntries uint32) *SigCache {
	return &SigCache{validSigs: lru.NewSet[chainhash.Hash](maxEntries)}
}

// cacheKey returns the key of the entry for the provided triple.
func cacheKey(pk *PublicKey, hash *chainhash.Hash, sig *Signature) chainhash.Hash {
	var buf bytes.Buffer
	buf.Grow(PublicKeySize + chainhash.HashSize + SignatureSize)
	buf.Write(pk[:])
	buf.Write(hash[:])
	buf.Write(sig[:])
	return chainhash.HashH(buf.Bytes())
}

// Exists returns true if an existing entry for the provided triple is found
// within the SigCache.
//
// This function is safe for concurrent access.
func (s *SigCache) Exists(pk *PublicKey, hash *chainhash.Hash, sig *Signature) bool {
	return s.validSigs.Contains(cacheKey(pk, hash, sig))
}

// VerifyInsecure returns whether the provided signature is a valid signature
// of the provided hash by the provided public key as described by the package
// level function of the same name.  Valid signatures are added to the cache
// and later verifications of the same triple are answered from it.  A nil
// cache always performs the full verification.
//
// This function is safe for concurrent access.
func (s *SigCache) VerifyInsecure(pk *PublicKey, hash *chainhash.Hash, sig *Signature) bool {
	if s == nil {
		return VerifyInsecure(pk, hash, sig)
	}

	key := cacheKey(pk, hash, sig)
	if s.validSigs.Contains(key) {
		return true
	}
	if !VerifyInsecure(pk, hash, sig) {
		return false
	}
	s.validSigs.Put(key)
	return true
}
