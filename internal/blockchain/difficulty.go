// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"
	"time"

	"github.com/6zip-project/dash/chaincfg"
	"github.com/6zip-project/dash/internal/primitives"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/decred/dcrd/math/uint256"
)

// clampTimespan limits the provided timespan to the range [timespan/4,
// timespan*4] which bounds how far a single adjustment may move the target.
func clampTimespan(actual, timespan int64) int64 {
	minTimespan := timespan / 4
	maxTimespan := timespan * 4
	switch {
	case actual < minTimespan:
		return minTimespan
	case actual > maxTimespan:
		return maxTimespan
	}
	return actual
}

// scaleTarget returns target * numerator / denominator computed with the
// modular 256-bit arithmetic the consensus rules are defined in terms of.  The
// multiplication happens first, so any bits lost to overflow are lost before
// the division.
func scaleTarget(target *uint256.Uint256, numerator, denominator int64) uint256.Uint256 {
	var n, d uint256.Uint256
	n.SetUint64(uint64(numerator))
	d.SetUint64(uint64(denominator))
	result := *target
	result.Mul(&n).Div(&d)
	return result
}

// findPrevTestNetDifficulty returns the difficulty of the previous block which
// did not have the special testnet minimum difficulty rule applied.
//
// The walk stops at a retarget interval boundary, at the genesis block, or at
// the first block whose bits differ from the proof-of-work limit, so it never
// visits more than one retarget interval worth of ancestors.
func findPrevTestNetDifficulty(startNode *blockNode, powLimitBits uint32, interval int64) uint32 {
	iterNode := startNode
	for steps := int64(0); steps < interval; steps++ {
		if iterNode.parent == nil || iterNode.height%interval == 0 ||
			iterNode.bits != powLimitBits {

			break
		}
		iterNode = iterNode.parent
	}
	return iterNode.bits
}

// calculateNextWorkRequired returns the target for the block after prevNode
// at a retarget interval boundary given the timestamp of the first block in
// the interval.
//
// The new target is the target of prevNode scaled by the ratio of the actual
// time the interval took to the desired timespan, with the actual time limited
// to a factor of four in either direction.  The result never exceeds the
// proof-of-work limit.
func calculateNextWorkRequired(prevNode *blockNode, firstBlockTime int64, params *chaincfg.Params) uint32 {
	if params.NoRetargeting {
		return prevNode.bits
	}

	targetTimespan := params.TargetTimespanSecs()
	actualTimespan := clampTimespan(prevNode.timestamp-firstBlockTime,
		targetTimespan)

	oldTarget, _, _ := primitives.DiffBitsToUint256(prevNode.bits)
	newTarget := scaleTarget(&oldTarget, actualTimespan, targetTimespan)
	if newTarget.Gt(params.PowLimit) {
		newTarget.Set(params.PowLimit)
	}

	log.Debugf("Difficulty retarget at block height %d", prevNode.height+1)
	log.Debugf("Old target %08x (%064x)", prevNode.bits, &oldTarget)
	log.Debugf("New target %08x (%064x)", primitives.Uint256ToDiffBits(&newTarget),
		&newTarget)
	log.Debugf("Actual timespan %v, target timespan %v",
		time.Duration(actualTimespan)*time.Second,
		time.Duration(targetTimespan)*time.Second)

	return primitives.Uint256ToDiffBits(&newTarget)
}

// blockTimeVarianceAdjustment returns the target for the block after prevNode
// computed from the recent variance of block times.
//
// The targets of the most recent DifficultyAdjustmentRange blocks, ending with
// prevNode, are combined into a recency-weighted running average where the
// first (most recent) sample is taken as-is and each subsequent sample i (1
// based) updates the average to (avg*i + target) / (i+1).  The average is then
// scaled by the ratio of the observed time across the sampled blocks to the
// desired time for the same number of blocks, limited to a factor of four in
// either direction.
//
// The result is capped by the proof-of-work limit, except that during every
// other HeightInterval window the cap is doubled so the network can recover
// from sudden losses of hash power.
func blockTimeVarianceAdjustment(prevNode *blockNode, params *chaincfg.Params) (uint32, error) {
	adjustmentRange := params.DifficultyAdjustmentRange
	if prevNode.height < adjustmentRange {
		return params.PowLimitBits, nil
	}

	var avgTarget uint256.Uint256
	oldestNode := prevNode
	for count := int64(1); count <= adjustmentRange; count++ {
		target, _, _ := primitives.DiffBitsToUint256(oldestNode.bits)
		if count == 1 {
			avgTarget = target
		} else {
			var weight, divisor uint256.Uint256
			weight.SetUint64(uint64(count))
			divisor.SetUint64(uint64(count + 1))
			avgTarget.Mul(&weight).Add(&target).Div(&divisor)
		}

		if count != adjustmentRange {
			if oldestNode.parent == nil {
				str := fmt.Sprintf("block at height %d is missing the "+
					"ancestor needed to sample %d blocks", prevNode.height,
					adjustmentRange)
				return 0, AssertError(str)
			}
			oldestNode = oldestNode.parent
		}
	}

	targetTimespan := adjustmentRange * params.TargetSpacingSecs()
	actualTimespan := clampTimespan(prevNode.timestamp-oldestNode.timestamp,
		targetTimespan)
	newTarget := scaleTarget(&avgTarget, actualTimespan, targetTimespan)

	limit := *params.PowLimit
	if (prevNode.height/params.HeightInterval)%2 == 1 {
		limit.Lsh(1)
	}
	if newTarget.Gt(&limit) {
		newTarget = limit
	}

	return primitives.Uint256ToDiffBits(&newTarget), nil
}

// calcNextRequiredDifficulty calculates the required difficulty for the block
// after the passed previous block node based on the difficulty retarget rules.
//
// The rules are applied in the following order:
//
//  1. Networks that allow minimum difficulty blocks accept the proof-of-work
//     limit once more than twice the target spacing has elapsed and otherwise
//     repeat the last difficulty that was not set by that rule
//  2. Blocks between retarget intervals after PowRTHeight use the per-block
//     variance adjustment
//  3. Other blocks between retarget intervals repeat the parent's difficulty
//  4. Blocks at retarget interval boundaries retarget over the interval
//
// An AssertError is returned when the ancestor at the start of the retarget
// interval is not available.
func calcNextRequiredDifficulty(prevNode *blockNode, newBlockTime int64, params *chaincfg.Params) (uint32, error) {
	if prevNode == nil {
		return 0, AssertError("next required difficulty requested without " +
			"a previous block")
	}

	powLimitBits := params.PowLimitBits
	interval := params.DifficultyAdjustmentInterval()
	if (prevNode.height+1)%interval != 0 {
		if params.ReduceMinDifficulty {
			// Return minimum difficulty when more than the desired amount
			// of time has elapsed without mining a block.
			reductionTime := params.TargetSpacingSecs() * 2
			if newBlockTime > prevNode.timestamp+reductionTime {
				return powLimitBits, nil
			}

			// The block was mined within the desired timeframe, so return
			// the difficulty for the last block which did not have the
			// special minimum difficulty rule applied.
			return findPrevTestNetDifficulty(prevNode, powLimitBits, interval), nil
		}

		if prevNode.height+1 > params.PowRTHeight {
			return blockTimeVarianceAdjustment(prevNode, params)
		}

		// For networks that do not allow minimum difficulty blocks, return
		// the previous block's difficulty requirements.
		return prevNode.bits, nil
	}

	// Go back by what we want to be the full interval worth of blocks.
	firstHeight := prevNode.height - (interval - 1)
	if firstHeight < 0 {
		str := fmt.Sprintf("retarget at height %d starts before the genesis "+
			"block", prevNode.height+1)
		return 0, AssertError(str)
	}
	firstNode := prevNode.RelativeAncestor(interval - 1)
	if firstNode == nil {
		str := fmt.Sprintf("unable to obtain previous retarget block at "+
			"height %d", firstHeight)
		return 0, AssertError(str)
	}

	return calculateNextWorkRequired(prevNode, firstNode.timestamp, params), nil
}

// PermittedDifficultyTransition returns whether or not the difficulty bits of
// a block at the given height may follow the difficulty bits of its parent
// without knowledge of the rest of the chain.
//
// At a retarget interval boundary the new target must lie within the targets
// produced by the largest and smallest permitted timespans, each limited to
// the proof-of-work limit and rounded through the compact representation.
// Between boundaries the bits must not change at all.  Networks that allow
// minimum difficulty blocks permit every transition.
//
// Note that this check does not account for the per-block variance adjustment,
// so callers must not apply it to blocks governed by that rule.
func PermittedDifficultyTransition(params *chaincfg.Params, height int64, oldBits, newBits uint32) bool {
	if params.ReduceMinDifficulty {
		return true
	}

	if height%params.DifficultyAdjustmentInterval() != 0 {
		return oldBits == newBits
	}

	targetTimespan := params.TargetTimespanSecs()
	smallestTimespan := targetTimespan / 4
	largestTimespan := targetTimespan * 4
	oldTarget, _, _ := primitives.DiffBitsToUint256(oldBits)
	observedTarget, _, _ := primitives.DiffBitsToUint256(newBits)

	// Calculate the largest difficulty value possible.
	largestTarget := scaleTarget(&oldTarget, largestTimespan, targetTimespan)
	if largestTarget.Gt(params.PowLimit) {
		largestTarget.Set(params.PowLimit)
	}
	maxNewTarget := primitives.RoundTripDiffBits(&largestTarget)
	if maxNewTarget.Lt(&observedTarget) {
		return false
	}

	// Calculate the smallest difficulty value possible.
	smallestTarget := scaleTarget(&oldTarget, smallestTimespan, targetTimespan)
	if smallestTarget.Gt(params.PowLimit) {
		smallestTarget.Set(params.PowLimit)
	}
	minNewTarget := primitives.RoundTripDiffBits(&smallestTarget)
	return !minNewTarget.Gt(&observedTarget)
}

// usesVarianceAdjustment returns whether the difficulty of the block after
// prevNode is determined by the per-block variance adjustment.
func usesVarianceAdjustment(prevNode *blockNode, params *chaincfg.Params) bool {
	nextHeight := prevNode.height + 1
	return !params.ReduceMinDifficulty &&
		nextHeight%params.DifficultyAdjustmentInterval() != 0 &&
		nextHeight > params.PowRTHeight
}

// CalcNextRequiredDifficulty calculates the required difficulty for the block
// after the block identified by the provided hash based on the difficulty
// retarget rules.
//
// This function is safe for concurrent access.
func (b *BlockChain) CalcNextRequiredDifficulty(hash *chainhash.Hash, timestamp time.Time) (uint32, error) {
	node := b.index.LookupNode(hash)
	if node == nil {
		return 0, unknownBlockError(hash)
	}

	return calcNextRequiredDifficulty(node, timestamp.Unix(), b.chainParams)
}
