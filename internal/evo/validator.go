// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package evo

import (
	"fmt"

	"github.com/6zip-project/dash/chaincfg"
	"github.com/6zip-project/dash/internal/bls"
	"github.com/6zip-project/dash/internal/llmq"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// activeQuorumScanCount is the number of most recent quorums an asset unlock
// may be signed by.  It covers the current quorum and the one before it.
const activeQuorumScanCount = 2

// BlockLookup provides access to the known blocks by hash.
type BlockLookup interface {
	// LookupBlock returns a reference to the block with the provided hash
	// along with whether or not it is known.
	LookupBlock(hash *chainhash.Hash) (llmq.BlockRef, bool)
}

// CreditPoolView provides read access to the asset unlock indexes that have
// already been consumed.
type CreditPoolView interface {
	// Contains returns whether or not the index has been consumed.
	Contains(index uint64) bool
}

// ValidatorConfig is a descriptor which specifies the validator instance
// configuration.
type ValidatorConfig struct {
	// ChainParams identifies which chain parameters the validator is
	// associated with.
	ChainParams *chaincfg.Params

	// Blocks resolves the block a quorum hash refers to.
	Blocks BlockLookup

	// Quorums provides access to the quorums that sign asset unlocks.
	Quorums llmq.QuorumManager

	// SigCache defines a signature cache to use.  It may be nil.
	SigCache *bls.SigCache
}

// Validator validates special transactions that depend on chain state.
type Validator struct {
	chainParams *chaincfg.Params
	blocks      BlockLookup
	quorums     llmq.QuorumManager
	sigCache    *bls.SigCache
}

// NewValidator returns a validator using the provided configuration.
func NewValidator(config *ValidatorConfig) *Validator {
	return &Validator{
		chainParams: config.ChainParams,
		blocks:      config.Blocks,
		quorums:     config.Quorums,
		sigCache:    config.SigCache,
	}
}

// CheckAssetUnlockTx validates an asset unlock transaction against the chain
// state as of the provided tip and the provided credit pool.
//
// The transaction must not have inputs, must have at most MaxWithdrawals
// outputs, and must carry a payload with a supported version whose index has
// not been consumed and whose quorum hash identifies a known block.  Finally
// the quorum signature must be valid for the hash of the transaction as
// described by VerifySig.
func (v *Validator) CheckAssetUnlockTx(tx *Transaction, tip llmq.BlockRef, pool CreditPoolView) error {
	if tx.Type != TxTypeAssetUnlock {
		str := fmt.Sprintf("transaction type %v is not an asset unlock",
			tx.Type)
		return ruleError(ErrAssetUnlockType, str)
	}
	if len(tx.TxIn) != 0 {
		str := fmt.Sprintf("asset unlock has %d inputs", len(tx.TxIn))
		return ruleError(ErrAssetUnlockHaveInput, str)
	}
	if len(tx.TxOut) > MaxWithdrawals {
		str := fmt.Sprintf("asset unlock has %d outputs which is more than "+
			"the max allowed of %d", len(tx.TxOut), MaxWithdrawals)
		return ruleError(ErrAssetUnlockTooManyOuts, str)
	}

	payload, err := (&AssetUnlockTx{tx: tx}).Payload()
	if err != nil {
		str := fmt.Sprintf("unable to decode asset unlock payload: %v", err)
		return ruleError(ErrAssetUnlockPayload, str)
	}
	if payload.Version == 0 || payload.Version > AssetUnlockCurrentVersion {
		str := fmt.Sprintf("asset unlock payload version %d is not "+
			"supported", payload.Version)
		return ruleError(ErrAssetUnlockVersion, str)
	}

	if pool.Contains(payload.Index) {
		str := fmt.Sprintf("asset unlock index %d has already been used",
			payload.Index)
		return ruleError(ErrAssetUnlockDuplicatedIndex, str)
	}

	if _, ok := v.blocks.LookupBlock(&payload.QuorumHash); !ok {
		str := fmt.Sprintf("quorum hash %v does not identify a known block",
			payload.QuorumHash)
		return ruleError(ErrAssetUnlockQuorumHash, str)
	}

	msgHash := CalcAssetUnlockMsgHash(tx, payload)
	return v.VerifySig(payload, &msgHash, tip)
}

// VerifySig ensures the quorum signature of the provided asset unlock payload
// authorizes the provided message hash as of the provided tip.
//
// The quorum must be one of the two most recent quorums of the type that signs
// asset unlocks and the tip must be within the window that starts at the
// requested height and lasts AssetUnlockExpiryHeight blocks.  The signature
// commits to the quorum, the request identifier derived from the index, and
// the message hash.
func (v *Validator) VerifySig(payload *AssetUnlockPayload, msgHash *chainhash.Hash, tip llmq.BlockRef) error {
	llmqType := v.chainParams.LLMQTypeAssetLocks
	llmqParams, ok := v.chainParams.LLMQParams(llmqType)
	if !ok {
		str := fmt.Sprintf("quorum type %v is not configured on %s",
			llmqType, v.chainParams.Name)
		return ruleError(ErrAssetUnlockLLMQType, str)
	}

	var isActive bool
	for _, q := range v.quorums.ScanQuorums(llmqType, tip, activeQuorumScanCount) {
		if q.Hash == payload.QuorumHash {
			isActive = true
			break
		}
	}
	if !isActive {
		str := fmt.Sprintf("quorum %v is not one of the %d most recent %v "+
			"quorums", payload.QuorumHash, activeQuorumScanCount,
			llmqParams.Name)
		return ruleError(ErrAssetUnlockNotActiveQuorum, str)
	}

	if tip.Height < int64(payload.RequestedHeight) ||
		tip.Height >= payload.HeightToExpiry() {

		log.Debugf("Asset unlock tx %d with requested height %d could not "+
			"be accepted on height: %d", payload.Index,
			payload.RequestedHeight, tip.Height)
		str := fmt.Sprintf("asset unlock with requested height %d is not "+
			"valid at height %d", payload.RequestedHeight, tip.Height)
		return ruleError(ErrAssetUnlockTooLate, str)
	}

	quorum := v.quorums.GetQuorum(llmqType, &payload.QuorumHash)
	if quorum == nil {
		str := fmt.Sprintf("active quorum %v could not be fetched",
			payload.QuorumHash)
		return AssertError(str)
	}

	requestID := payload.RequestID()
	signHash := llmq.BuildSignHash(llmqType, &quorum.Hash, &requestID, msgHash)
	if !v.sigCache.VerifyInsecure(&quorum.PublicKey, &signHash, &payload.QuorumSig) {
		str := fmt.Sprintf("quorum signature of asset unlock %d is not "+
			"valid", payload.Index)
		return ruleError(ErrAssetUnlockNotVerified, str)
	}
	return nil
}

// CheckAssetLockUnlockTx validates an asset lock or asset unlock transaction.
// The output amounts must be in range.  Transactions of any other type are
// rejected.
func (v *Validator) CheckAssetLockUnlockTx(tx *Transaction, tip llmq.BlockRef, pool CreditPoolView) error {
	if tx.Type == TxTypeAssetLock || tx.Type == TxTypeAssetUnlock {
		if err := CheckTransactionAmounts(tx); err != nil {
			return err
		}
	}
	switch tx.Type {
	case TxTypeAssetLock:
		return CheckAssetLockTx(tx)
	case TxTypeAssetUnlock:
		return v.CheckAssetUnlockTx(tx, tip, pool)
	}
	str := fmt.Sprintf("transaction type %v is neither an asset lock nor an "+
		"asset unlock", tx.Type)
	return ruleError(ErrNotAssetLockOrUnlock, str)
}

// CheckSpecialTx classifies the provided transaction and validates it when it
// is an asset lock or asset unlock.  Normal transactions and the other known
// special types are accepted as they are validated elsewhere, while unknown
// special types are rejected.  The classified transaction is returned so
// callers are able to track its effect on the credit pool.
func (v *Validator) CheckSpecialTx(tx *Transaction, tip llmq.BlockRef, pool CreditPoolView) (SpecialTx, error) {
	stx := DecodeSpecialTx(tx)
	switch stx.(type) {
	case *AssetLockTx, *AssetUnlockTx:
		if err := v.CheckAssetLockUnlockTx(tx, tip, pool); err != nil {
			return nil, err
		}
	case *UnknownSpecialTx:
		str := fmt.Sprintf("special transaction type %v is not known",
			tx.Type)
		return nil, ruleError(ErrBadTxType, str)
	}
	return stx, nil
}
