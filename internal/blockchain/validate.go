// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"errors"
	"fmt"

	"github.com/6zip-project/dash/chaincfg"
	"github.com/6zip-project/dash/internal/evo"
	"github.com/6zip-project/dash/internal/llmq"
	"github.com/6zip-project/dash/internal/primitives"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// primitivesToChainRuleError converts rule errors returned by the primitives
// package to the equivalent chain rule error so callers only need to deal
// with a single set of error kinds.
func primitivesToChainRuleError(err error) error {
	var pErr primitives.RuleError
	if !errors.As(err, &pErr) {
		return err
	}

	switch {
	case errors.Is(err, primitives.ErrUnexpectedDifficulty):
		return ruleError(ErrUnexpectedDifficulty, pErr.Description)
	case errors.Is(err, primitives.ErrHighHash):
		return ruleError(ErrHighHash, pErr.Description)
	}
	return err
}

// checkProofOfWorkSanity ensures the block header commits to a target
// difficulty that is within the range allowed by the network and that the
// proof-of-work hash is at or below it.
func checkProofOfWorkSanity(header *wire.BlockHeader, powHash *chainhash.Hash, params *chaincfg.Params) error {
	err := primitives.CheckProofOfWork(powHash, header.Bits, params.PowLimit)
	return primitivesToChainRuleError(err)
}

// checkBlockHeaderSanity performs some preliminary checks on a block header to
// ensure it is sane before continuing with processing.  These checks are
// context free.
func (b *BlockChain) checkBlockHeaderSanity(header *wire.BlockHeader) error {
	powHash := b.powHash(header)
	return checkProofOfWorkSanity(header, &powHash, b.chainParams)
}

// checkBlockHeaderPositional performs several validation checks on the block
// header which depend on its position within the block chain.
//
// The difficulty bits must match those calculated by the retarget rules and,
// for blocks not governed by the per-block variance adjustment, also be a
// permitted transition from the bits of the parent.  The timestamp must be
// after the median time of the last several blocks.
func (b *BlockChain) checkBlockHeaderPositional(header *wire.BlockHeader, prevNode *blockNode) error {
	params := b.chainParams
	blockTime := header.Timestamp.Unix()
	expectedBits, err := calcNextRequiredDifficulty(prevNode, blockTime, params)
	if err != nil {
		return err
	}
	if header.Bits != expectedBits {
		str := fmt.Sprintf("block difficulty of %08x is not the expected "+
			"value of %08x", header.Bits, expectedBits)
		return ruleError(ErrUnexpectedDifficulty, str)
	}

	height := prevNode.height + 1
	if !usesVarianceAdjustment(prevNode, params) &&
		!PermittedDifficultyTransition(params, height, prevNode.bits, header.Bits) {

		str := fmt.Sprintf("block difficulty of %08x at height %d is not a "+
			"permitted transition from %08x", header.Bits, height,
			prevNode.bits)
		return ruleError(ErrBadDifficultyTransition, str)
	}

	medianTime := prevNode.CalcPastMedianTime()
	if !header.Timestamp.After(medianTime) {
		str := fmt.Sprintf("block timestamp of %v is not after expected %v",
			header.Timestamp, medianTime)
		return ruleError(ErrTimeTooOld, str)
	}

	return nil
}

// checkBlockSpecialTxns validates every special transaction in the block
// against the chain state prior to the block and returns the credit pool that
// results from connecting it.  The provided pool is not modified.
//
// Each transaction is validated against the tip before the block and the
// provided pool, while the credit pool diff tracks the indexes and amounts of
// all transactions in the block so conflicts between them are detected.  The
// diff is only applied once every transaction has passed.
func (b *BlockChain) checkBlockSpecialTxns(block *Block, node, prevNode *blockNode, pool *evo.CreditPool) (*evo.CreditPool, error) {
	tip := llmq.BlockRef{Hash: prevNode.hash, Height: prevNode.height}
	diff := evo.NewCreditPoolDiff(pool)
	for i, tx := range block.Transactions {
		stx, err := b.validator.CheckSpecialTx(tx, tip, pool)
		if err != nil {
			var aErr evo.AssertError
			if errors.As(err, &aErr) {
				return nil, err
			}
			str := fmt.Sprintf("transaction %d (%v) in block %v failed "+
				"special transaction validation: %v", i, tx.TxHash(),
				node.hash, err)
			return nil, RuleError{Err: ErrBadSpecialTx, Description: str,
				RawErr: err}
		}

		switch stx := stx.(type) {
		case *evo.AssetLockTx:
			err = diff.ProcessLockTx(stx)
		case *evo.AssetUnlockTx:
			err = diff.ProcessUnlockTx(stx)
		}
		if err != nil {
			str := fmt.Sprintf("transaction %d (%v) in block %v is not "+
				"accepted by the credit pool: %v", i, tx.TxHash(), node.hash,
				err)
			return nil, RuleError{Err: ErrBadCreditPool, Description: str,
				RawErr: err}
		}
	}

	newPool, err := pool.Apply(diff, &node.hash, node.height)
	if err != nil {
		str := fmt.Sprintf("unable to apply credit pool changes of block %v: "+
			"%v", node.hash, err)
		return nil, RuleError{Err: ErrBadCreditPool, Description: str,
			RawErr: err}
	}
	return newPool, nil
}
