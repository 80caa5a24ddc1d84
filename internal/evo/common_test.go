// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package evo

import (
	"testing"

	"github.com/6zip-project/dash/chaincfg"
	"github.com/6zip-project/dash/internal/bls"
	"github.com/6zip-project/dash/internal/llmq"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// p2pkhScript returns a pay-to-pubkey-hash script whose hash consists of the
// provided byte repeated.
func p2pkhScript(b byte) []byte {
	script := make([]byte, 25)
	script[0] = txscript.OP_DUP
	script[1] = txscript.OP_HASH160
	script[2] = txscript.OP_DATA_20
	for i := 3; i < 23; i++ {
		script[i] = b
	}
	script[23] = txscript.OP_EQUALVERIFY
	script[24] = txscript.OP_CHECKSIG
	return script
}

// p2shScript returns a pay-to-script-hash script whose hash consists of the
// provided byte repeated.
func p2shScript(b byte) []byte {
	script := make([]byte, 23)
	script[0] = txscript.OP_HASH160
	script[1] = txscript.OP_DATA_20
	for i := 2; i < 22; i++ {
		script[i] = b
	}
	script[22] = txscript.OP_EQUAL
	return script
}

// burnScript is the script of an asset lock burn output.
var burnScript = []byte{txscript.OP_RETURN, txscript.OP_0}

// newAssetLockTx returns an asset lock transaction that burns the provided
// amount and credits the provided values to pay-to-pubkey-hash outputs.
func newAssetLockTx(burn int64, credits ...int64) *Transaction {
	tx := NewTransaction(SpecialTxVersion, TxTypeAssetLock)
	prevHash := chainhash.HashH([]byte("funding"))
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&prevHash, 0), nil, nil))
	tx.AddTxOut(wire.NewTxOut(burn, burnScript))
	tx.AddTxOut(wire.NewTxOut(5000, p2pkhScript(0xcc)))

	payload := AssetLockPayload{Version: AssetLockCurrentVersion}
	for i, value := range credits {
		payload.CreditOutputs = append(payload.CreditOutputs,
			wire.NewTxOut(value, p2pkhScript(byte(i))))
	}
	tx.ExtraPayload = payload.Bytes()
	return tx
}

// fakeBlocks is a BlockLookup backed by a map.
type fakeBlocks map[chainhash.Hash]llmq.BlockRef

// LookupBlock returns the block with the provided hash.
func (b fakeBlocks) LookupBlock(hash *chainhash.Hash) (llmq.BlockRef, bool) {
	ref, ok := b[*hash]
	return ref, ok
}

// testQuorum houses a registered quorum along with its secret key.
type testQuorum struct {
	hash chainhash.Hash
	sk   *bls.SecretKey
}

// unlockHarness provides a validator backed by fake blocks and a quorum
// registry with three asset lock quorums mined at heights 70, 80, and 90.
type unlockHarness struct {
	params    *chaincfg.Params
	blocks    fakeBlocks
	registry  *llmq.Registry
	validator *Validator
	quorums   []testQuorum
}

// newUnlockHarness returns a new harness for testing asset unlocks.
func newUnlockHarness(t *testing.T) *unlockHarness {
	t.Helper()

	params := chaincfg.RegNetParams()
	h := &unlockHarness{
		params:   params,
		blocks:   make(fakeBlocks),
		registry: llmq.NewRegistry(),
	}
	for _, height := range []int64{70, 80, 90} {
		hash := chainhash.HashH([]byte{byte(height)})
		sk := bls.SecretKeyFromSeed(hash[:])
		h.blocks[hash] = llmq.BlockRef{Hash: hash, Height: height}
		err := h.registry.AddQuorum(&llmq.Quorum{
			Type:        params.LLMQTypeAssetLocks,
			Hash:        hash,
			MinedHeight: height,
			PublicKey:   sk.PublicKey(),
		})
		if err != nil {
			t.Fatalf("unable to add quorum: %v", err)
		}
		h.quorums = append(h.quorums, testQuorum{hash: hash, sk: sk})
	}
	h.validator = NewValidator(&ValidatorConfig{
		ChainParams: params,
		Blocks:      h.blocks,
		Quorums:     h.registry,
		SigCache:    bls.NewSigCache(100),
	})
	return h
}

// tip returns a reference to a tip block at the provided height.
func (h *unlockHarness) tip(height int64) llmq.BlockRef {
	return llmq.BlockRef{
		Hash:   chainhash.HashH([]byte("tip")),
		Height: height,
	}
}

// sign attaches the signature of the provided quorum to the provided asset
// unlock transaction and payload.
func (h *unlockHarness) sign(t *testing.T, tx *Transaction, payload *AssetUnlockPayload, q testQuorum) {
	t.Helper()

	payload.QuorumHash = q.hash
	payload.QuorumSig = bls.Signature{}
	msgHash := CalcAssetUnlockMsgHash(tx, payload)
	requestID := payload.RequestID()
	signHash := llmq.BuildSignHash(h.params.LLMQTypeAssetLocks, &q.hash,
		&requestID, &msgHash)
	sig, err := q.sk.Sign(&signHash)
	if err != nil {
		t.Fatalf("unable to sign asset unlock: %v", err)
	}
	payload.QuorumSig = sig
	tx.ExtraPayload = payload.Bytes()
}

// newAssetUnlockTx returns an asset unlock transaction with the provided index
// and requested height that pays the provided values and is signed by the
// most recent quorum.
func (h *unlockHarness) newAssetUnlockTx(t *testing.T, index uint64, requestedHeight uint32, fee uint32, values ...int64) (*Transaction, *AssetUnlockPayload) {
	t.Helper()

	tx := NewTransaction(SpecialTxVersion, TxTypeAssetUnlock)
	for i, value := range values {
		tx.AddTxOut(wire.NewTxOut(value, p2pkhScript(byte(i))))
	}
	payload := &AssetUnlockPayload{
		Version:         AssetUnlockCurrentVersion,
		Index:           index,
		Fee:             fee,
		RequestedHeight: requestedHeight,
	}
	h.sign(t, tx, payload, h.quorums[len(h.quorums)-1])
	return tx, payload
}

// poolWithIndexes returns a credit pool with the provided locked amount and
// consumed indexes.
func poolWithIndexes(locked int64, indexes ...uint64) *CreditPool {
	hash := chainhash.HashH([]byte("pool"))
	pool := NewCreditPool(&hash, 99)
	pool.Locked = btcutil.Amount(locked)
	for _, index := range indexes {
		pool.indexes[index] = struct{}{}
	}
	return pool
}
