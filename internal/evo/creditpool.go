// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package evo

import (
	"fmt"
	"maps"
	"slices"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// CreditPool is the state of the credit pool as of a specific block.  It
// tracks the amount locked by asset locks that has not been withdrawn by asset
// unlocks along with every asset unlock index that has been consumed.
//
// A pool is treated as an immutable value once created.  The pool that results
// from connecting a block is produced by Apply.
type CreditPool struct {
	// BlockHash and Height identify the block the pool is the state of.
	BlockHash chainhash.Hash
	Height    int64

	// Locked is the amount available for withdrawal.
	Locked btcutil.Amount

	indexes map[uint64]struct{}
}

// NewCreditPool returns an empty credit pool as of the provided block.
func NewCreditPool(blockHash *chainhash.Hash, height int64) *CreditPool {
	return &CreditPool{
		BlockHash: *blockHash,
		Height:    height,
		indexes:   make(map[uint64]struct{}),
	}
}

// Contains returns whether or not the provided asset unlock index has been
// consumed.
func (p *CreditPool) Contains(index uint64) bool {
	_, ok := p.indexes[index]
	return ok
}

// NumIndexes returns the number of consumed asset unlock indexes.
func (p *CreditPool) NumIndexes() int {
	return len(p.indexes)
}

// Indexes returns the consumed asset unlock indexes in ascending order.
func (p *CreditPool) Indexes() []uint64 {
	indexes := make([]uint64, 0, len(p.indexes))
	for index := range p.indexes {
		indexes = append(indexes, index)
	}
	slices.Sort(indexes)
	return indexes
}

// Clone returns a deep copy of the pool.
func (p *CreditPool) Clone() *CreditPool {
	return &CreditPool{
		BlockHash: p.BlockHash,
		Height:    p.Height,
		Locked:    p.Locked,
		indexes:   maps.Clone(p.indexes),
	}
}

// String returns the pool in human-readable form.
func (p *CreditPool) String() string {
	return fmt.Sprintf("CreditPool(block=%v, height=%d, locked=%d, "+
		"indexes=%d)", p.BlockHash, p.Height, int64(p.Locked),
		len(p.indexes))
}

// Apply returns the pool that results from applying the provided diff to the
// pool as of the block identified by the provided hash and height.  The diff
// must have been created from the receiver.  The receiver is not modified.
func (p *CreditPool) Apply(diff *CreditPoolDiff, blockHash *chainhash.Hash, height int64) (*CreditPool, error) {
	if diff.base != p {
		return nil, AssertError("credit pool diff applied to a pool other " +
			"than the one it was created from")
	}

	locked := p.Locked + diff.sessionLocked - diff.sessionUnlocked
	if locked > btcutil.MaxSatoshi {
		str := fmt.Sprintf("locked amount %d is higher than the max "+
			"allowed value of %d", int64(locked), int64(btcutil.MaxSatoshi))
		return nil, ruleError(ErrCreditPoolLockedOutOfRange, str)
	}
	if locked < 0 {
		str := fmt.Sprintf("block unlocks %d which is more than the %d "+
			"available", int64(diff.sessionUnlocked),
			int64(p.Locked+diff.sessionLocked))
		return nil, ruleError(ErrCreditPoolUnlockTooMuch, str)
	}

	newPool := &CreditPool{
		BlockHash: *blockHash,
		Height:    height,
		Locked:    locked,
		indexes: make(map[uint64]struct{}, len(p.indexes)+
			len(diff.newIndexes)),
	}
	maps.Copy(newPool.indexes, p.indexes)
	maps.Copy(newPool.indexes, diff.newIndexes)
	return newPool, nil
}

// CreditPoolDiff accumulates the changes the transactions of a single block
// make to a credit pool.
type CreditPoolDiff struct {
	base            *CreditPool
	sessionLocked   btcutil.Amount
	sessionUnlocked btcutil.Amount
	newIndexes      map[uint64]struct{}
}

// NewCreditPoolDiff returns an empty diff against the provided pool.
func NewCreditPoolDiff(base *CreditPool) *CreditPoolDiff {
	return &CreditPoolDiff{
		base:       base,
		newIndexes: make(map[uint64]struct{}),
	}
}

// ProcessLockTx adds the amount credited by the provided asset lock to the
// diff.  The transaction must already have been validated.  Credit outputs
// that are out of range, or a locked amount that would exceed the max allowed
// amount, are rejected.
func (d *CreditPoolDiff) ProcessLockTx(tx *AssetLockTx) error {
	payload, err := tx.Payload()
	if err != nil {
		str := fmt.Sprintf("unable to decode asset lock payload: %v", err)
		return ruleError(ErrAssetLockPayload, str)
	}
	credit, err := payload.CreditAmount()
	if err != nil {
		return err
	}
	locked := d.base.Locked + d.sessionLocked + credit
	if !moneyRange(d.sessionLocked+credit) || !moneyRange(locked) {
		str := fmt.Sprintf("asset lock of %d raises the locked amount "+
			"above the max allowed value of %d", int64(credit),
			int64(btcutil.MaxSatoshi))
		return ruleError(ErrCreditPoolLockedOutOfRange, str)
	}
	d.sessionLocked += credit
	return nil
}

// ProcessUnlockTx adds the amount withdrawn by the provided asset unlock to the
// diff and marks its index as consumed.  The withdrawn amount is the sum of
// the outputs and the fee.  Every output must be in range.  The transaction must already have been validated
// against the base pool, so only the indexes used earlier in the same block
// are checked for duplicates here.  A withdrawal that exceeds the amount
// available to the block is rejected.
func (d *CreditPoolDiff) ProcessUnlockTx(tx *AssetUnlockTx) error {
	payload, err := tx.Payload()
	if err != nil {
		str := fmt.Sprintf("unable to decode asset unlock payload: %v", err)
		return ruleError(ErrAssetUnlockPayload, str)
	}

	if _, ok := d.newIndexes[payload.Index]; ok || d.base.Contains(payload.Index) {
		str := fmt.Sprintf("asset unlock index %d is used more than once",
			payload.Index)
		return ruleError(ErrCreditPoolDuplicatedIndex, str)
	}

	withdrawn, err := sumOutputAmounts(tx.Tx().TxOut)
	if err != nil {
		return err
	}
	toUnlock := withdrawn + btcutil.Amount(payload.Fee)
	available := d.base.Locked + d.sessionLocked - d.sessionUnlocked
	if toUnlock > available {
		str := fmt.Sprintf("asset unlock %d withdraws %d which is more than "+
			"the %d available", payload.Index, int64(toUnlock),
			int64(available))
		return ruleError(ErrCreditPoolUnlockTooMuch, str)
	}

	d.sessionUnlocked += toUnlock
	d.newIndexes[payload.Index] = struct{}{}
	return nil
}
