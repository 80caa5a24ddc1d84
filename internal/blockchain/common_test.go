// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2015-2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"testing"
	"time"

	"github.com/6zip-project/dash/chaincfg"
	"github.com/6zip-project/dash/internal/bls"
	"github.com/6zip-project/dash/internal/evo"
	"github.com/6zip-project/dash/internal/llmq"
	"github.com/6zip-project/dash/internal/primitives"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/decred/dcrd/crypto/rand"
)

// testGenesisTime is the timestamp of the genesis block of the test chains.
var testGenesisTime = time.Unix(1700000000, 0)

// newTestRetargetParams returns chain parameters with a retarget interval of
// 10 blocks and a target spacing of 600 seconds that do not allow minimum
// difficulty blocks and do not use the per-block variance adjustment.
func newTestRetargetParams() *chaincfg.Params {
	powLimit, _, _ := primitives.DiffBitsToUint256(0x1e0fffff)
	return &chaincfg.Params{
		Name:                      "retargettest",
		PowLimit:                  &powLimit,
		PowLimitBits:              0x1e0fffff,
		TargetTimePerBlock:        time.Second * 600,
		TargetTimespan:            time.Second * 6000,
		DifficultyAdjustmentRange: 5,
		HeightInterval:            100,
		PowRTHeight:               1 << 40,
	}
}

// newFakeNode creates a block node connected to the passed parent with the
// provided fields populated and fake values for the other fields.
func newFakeNode(parent *blockNode, bits uint32, timestamp int64) *blockNode {
	// Make up a header and create a block node from it.
	var prevHash chainhash.Hash
	if parent != nil {
		prevHash = parent.hash
	}
	header := &wire.BlockHeader{
		Version:   1,
		PrevBlock: prevHash,
		Bits:      bits,
		Timestamp: time.Unix(timestamp, 0),
		Nonce:     rand.Uint32(),
	}
	node := newBlockNode(header, parent)
	node.status = statusDataConnected
	return node
}

// chainedFakeNodes returns the specified number of nodes constructed such that
// each subsequent node points to the previous one to create a chain.  The
// first node will point to the passed parent which can be nil if desired.
// Every node has the provided bits and the timestamps are spaced by the
// provided number of seconds starting from the parent, or from the genesis
// time when there is no parent.
func chainedFakeNodes(parent *blockNode, numNodes int, bits uint32, spacing int64) []*blockNode {
	nodes := make([]*blockNode, numNodes)
	tip := parent
	timestamp := testGenesisTime.Unix() - spacing
	if tip != nil {
		timestamp = tip.timestamp
	}
	for i := 0; i < numNodes; i++ {
		timestamp += spacing
		node := newFakeNode(tip, bits, timestamp)
		tip = node
		nodes[i] = node
	}
	return nodes
}

// branchTip is a convenience function to grab the tip of a chain of block nodes
// created via chainedFakeNodes.
func branchTip(nodes []*blockNode) *blockNode {
	return nodes[len(nodes)-1]
}

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

// chainHarness houses a regression test chain along with the quorum that signs
// its asset unlocks.  The chain accepts any proof of work.
type chainHarness struct {
	t         *testing.T
	params    *chaincfg.Params
	chain     *BlockChain
	registry  *llmq.Registry
	quorumSK  *bls.SecretKey
	quorum    *llmq.Quorum
	genesis   wire.BlockHeader
	tipHeader wire.BlockHeader
	nonce     uint32
}

// newChainHarness returns a harness for a new regression test chain using the
// provided credit pool store which may be nil.
func newChainHarness(t *testing.T, store *evo.CreditPoolStore) *chainHarness {
	t.Helper()
	return newCachedChainHarness(t, store, 0)
}

// newCachedChainHarness returns a harness for a new regression test chain that
// keeps the provided number of credit pools in memory.
func newCachedChainHarness(t *testing.T, store *evo.CreditPoolStore, cacheSize uint32) *chainHarness {
	t.Helper()

	params := chaincfg.RegNetParams()
	genesis := wire.BlockHeader{
		Version:   1,
		Bits:      params.PowLimitBits,
		Timestamp: testGenesisTime,
	}
	registry := llmq.NewRegistry()
	chain, err := New(&Config{
		ChainParams:         params,
		GenesisHeader:       &genesis,
		Quorums:             registry,
		SigCache:            bls.NewSigCache(100),
		CreditPoolStore:     store,
		CreditPoolCacheSize: cacheSize,
		PowHash: func(*wire.BlockHeader) chainhash.Hash {
			return zeroHash
		},
	})
	if err != nil {
		t.Fatalf("unable to create chain: %v", err)
	}
	return &chainHarness{
		t:         t,
		params:    params,
		chain:     chain,
		registry:  registry,
		quorumSK:  bls.SecretKeyFromSeed([]byte("chain harness quorum")),
		genesis:   genesis,
		tipHeader: genesis,
	}
}

// nextHeader returns a header that extends the provided header at the target
// spacing of the network.  Every call produces a header with a unique hash.
func (h *chainHarness) nextHeader(parent *wire.BlockHeader) wire.BlockHeader {
	h.nonce++
	return wire.BlockHeader{
		Version:   1,
		PrevBlock: parent.BlockHash(),
		Bits:      h.params.PowLimitBits,
		Timestamp: parent.Timestamp.Add(h.params.TargetTimePerBlock),
		Nonce:     h.nonce,
	}
}

// nextBlock returns a block with the provided transactions that extends the
// current tip.
func (h *chainHarness) nextBlock(txns ...*evo.Transaction) *Block {
	return &Block{Header: h.nextHeader(&h.tipHeader), Transactions: txns}
}

// connect connects the provided block and fails the test on error.
func (h *chainHarness) connect(block *Block) {
	h.t.Helper()

	if err := h.chain.ConnectBlock(block); err != nil {
		h.t.Fatalf("unable to connect block: %v", err)
	}
	h.tipHeader = block.Header
}

// registerQuorum registers the harness quorum as mined in the current tip
// block.
func (h *chainHarness) registerQuorum() {
	h.t.Helper()

	snapshot := h.chain.BestSnapshot()
	h.quorum = &llmq.Quorum{
		Type:        h.params.LLMQTypeAssetLocks,
		Hash:        snapshot.Hash,
		MinedHeight: snapshot.Height,
		PublicKey:   h.quorumSK.PublicKey(),
	}
	if err := h.registry.AddQuorum(h.quorum); err != nil {
		h.t.Fatalf("unable to add quorum: %v", err)
	}
}

// newAssetLockTx returns a valid asset lock transaction that locks the
// provided amount.
func newAssetLockTx(amount int64) *evo.Transaction {
	tx := evo.NewTransaction(evo.SpecialTxVersion, evo.TxTypeAssetLock)
	prevHash := chainhash.HashH([]byte("funding"))
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&prevHash, 0), nil, nil))
	tx.AddTxOut(wire.NewTxOut(amount, []byte{txscript.OP_RETURN,
		txscript.OP_0}))
	payload := evo.AssetLockPayload{
		Version:       evo.AssetLockCurrentVersion,
		CreditOutputs: []*wire.TxOut{wire.NewTxOut(amount, p2pkhScript(0x01))},
	}
	tx.ExtraPayload = payload.Bytes()
	return tx
}

// newAssetUnlockTx returns an asset unlock transaction signed by the harness
// quorum that withdraws the provided value plus fee.
func (h *chainHarness) newAssetUnlockTx(index uint64, requestedHeight uint32, fee uint32, value int64) *evo.Transaction {
	h.t.Helper()

	tx := evo.NewTransaction(evo.SpecialTxVersion, evo.TxTypeAssetUnlock)
	tx.AddTxOut(wire.NewTxOut(value, p2pkhScript(0x02)))
	payload := evo.AssetUnlockPayload{
		Version:         evo.AssetUnlockCurrentVersion,
		Index:           index,
		Fee:             fee,
		RequestedHeight: requestedHeight,
		QuorumHash:      h.quorum.Hash,
	}
	msgHash := evo.CalcAssetUnlockMsgHash(tx, &payload)
	requestID := payload.RequestID()
	signHash := llmq.BuildSignHash(h.quorum.Type, &h.quorum.Hash, &requestID,
		&msgHash)
	sig, err := h.quorumSK.Sign(&signHash)
	if err != nil {
		h.t.Fatalf("unable to sign asset unlock: %v", err)
	}
	payload.QuorumSig = sig
	tx.ExtraPayload = payload.Bytes()
	return tx
}
