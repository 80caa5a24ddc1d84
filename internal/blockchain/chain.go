// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/6zip-project/dash/chaincfg"
	"github.com/6zip-project/dash/internal/bls"
	"github.com/6zip-project/dash/internal/evo"
	"github.com/6zip-project/dash/internal/llmq"
	"github.com/6zip-project/dash/internal/primitives"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/decred/dcrd/container/lru"
)

// DefaultCreditPoolCacheSize is the number of credit pools of recently
// connected blocks that are kept in memory by default.
const DefaultCreditPoolCacheSize = 288

// zeroHash is the zero value for a chainhash.Hash and is defined as a package
// level variable to avoid the need to create a new instance every time a check
// is needed.
var zeroHash chainhash.Hash

// Block houses a block header along with the transactions it commits to.
type Block struct {
	Header       wire.BlockHeader
	Transactions []*evo.Transaction
}

// Hash returns the hash of the block header.
func (b *Block) Hash() chainhash.Hash {
	return b.Header.BlockHash()
}

// BestState houses information about the current best block and other info
// related to the state of the main chain as it exists from the point of view of
// the current best block.
//
// The BestSnapshot method can be used to obtain access to this information
// in a concurrent safe manner and the data will not be changed out from under
// the caller when chain state changes occur as the function name implies.
// However, the returned snapshot must be treated as immutable since it is
// shared by all callers.
type BestState struct {
	Hash         chainhash.Hash // The hash of the block.
	PrevHash     chainhash.Hash // The previous block hash.
	Height       int64          // The height of the block.
	Bits         uint32         // The difficulty bits of the block.
	MedianTime   time.Time      // Median time as per CalcPastMedianTime.
	LockedAmount btcutil.Amount // The amount locked in the credit pool.
	NumIndexes   int            // The number of consumed asset unlock indexes.
}

// newBestState returns a new best stats instance for the given parameters.
func newBestState(node *blockNode, pool *evo.CreditPool) *BestState {
	prevHash := zeroHash
	if node.parent != nil {
		prevHash = node.parent.hash
	}
	return &BestState{
		Hash:         node.hash,
		PrevHash:     prevHash,
		Height:       node.height,
		Bits:         node.bits,
		MedianTime:   node.CalcPastMedianTime(),
		LockedAmount: pool.Locked,
		NumIndexes:   pool.NumIndexes(),
	}
}

// BlockChain provides functions such as rejecting headers with invalid proof
// of work or difficulty, connecting blocks whose special transactions pass
// validation, and maintaining the credit pool that results from them.
type BlockChain struct {
	// The following fields are set when the instance is created and can't
	// be changed afterwards, so there is no need to protect them with a
	// separate mutex.
	chainParams *chaincfg.Params
	powHash     func(header *wire.BlockHeader) chainhash.Hash
	validator   *evo.Validator
	poolStore   *evo.CreditPoolStore

	// chainLock protects concurrent access to the vast majority of the
	// fields in this struct below this point.
	chainLock sync.RWMutex

	// These fields are related to the memory block index.  They both have
	// their own locks, however they are often also protected by the chain
	// lock to help prevent logic races when blocks are being processed.
	//
	// index houses the entire block index in memory.  The block index is
	// a tree-shaped structure.
	//
	// bestChain tracks the current active chain by making use of an
	// efficient chain view into the block index.
	index     *blockIndex
	bestChain *chainView

	// tipPool is the credit pool as of the current tip.
	//
	// creditPools caches the credit pools of recently connected blocks keyed
	// by block hash.  Pools evicted from it are loaded from the credit pool
	// store when one is configured.
	tipPool     *evo.CreditPool
	creditPools *lru.Map[chainhash.Hash, *evo.CreditPool]

	// stateLock protects concurrent access to the stateSnapshot field.
	stateLock     sync.RWMutex
	stateSnapshot *BestState
}

// Config is a descriptor which specifies the blockchain instance configuration.
type Config struct {
	// ChainParams identifies which chain parameters the chain is associated
	// with.
	//
	// This field is required.
	ChainParams *chaincfg.Params

	// GenesisHeader is the header of the block the chain starts from.  Its
	// difficulty bits must be within the proof-of-work limit, but it is
	// otherwise trusted and therefore not validated.
	//
	// This field is required.
	GenesisHeader *wire.BlockHeader

	// Quorums provides access to the quorums that sign asset unlock
	// transactions.
	//
	// This field is required.
	Quorums llmq.QuorumManager

	// SigCache defines a signature cache to use when verifying quorum
	// signatures.
	//
	// This field can be nil if the caller is not interested in using a
	// signature cache.
	SigCache *bls.SigCache

	// CreditPoolStore defines the store the credit pool of every connected
	// block is persisted to.
	//
	// This field can be nil if the caller does not desire persistence.
	CreditPoolStore *evo.CreditPoolStore

	// CreditPoolCacheSize is the number of credit pools of recently connected
	// blocks to keep in memory.  Without a credit pool store, blocks whose
	// parent pool has been evicted can not be disconnected.
	//
	// This field can be zero in which case DefaultCreditPoolCacheSize is
	// used.
	CreditPoolCacheSize uint32

	// PowHash calculates the hash that is checked against the target
	// difficulty of a header.
	//
	// This field can be nil in which case the block hash is used.
	PowHash func(header *wire.BlockHeader) chainhash.Hash
}

// New returns a BlockChain instance using the provided configuration details.
func New(config *Config) (*BlockChain, error) {
	// Enforce required config fields.
	if config.ChainParams == nil {
		return nil, AssertError("blockchain.New chain parameters nil")
	}
	if config.GenesisHeader == nil {
		return nil, AssertError("blockchain.New genesis header nil")
	}
	if config.Quorums == nil {
		return nil, AssertError("blockchain.New quorum manager nil")
	}
	params := config.ChainParams
	if params.PowLimit == nil ||
		primitives.Uint256ToDiffBits(params.PowLimit) != params.PowLimitBits {

		str := fmt.Sprintf("blockchain.New proof of work limit bits %08x "+
			"of %s do not encode the proof of work limit",
			params.PowLimitBits, params.Name)
		return nil, AssertError(str)
	}
	err := primitives.CheckProofOfWorkRange(config.GenesisHeader.Bits,
		params.PowLimit)
	if err != nil {
		return nil, primitivesToChainRuleError(err)
	}

	powHash := config.PowHash
	if powHash == nil {
		powHash = func(header *wire.BlockHeader) chainhash.Hash {
			return header.BlockHash()
		}
	}

	cacheSize := config.CreditPoolCacheSize
	if cacheSize == 0 {
		cacheSize = DefaultCreditPoolCacheSize
	}

	b := BlockChain{
		chainParams: config.ChainParams,
		powHash:     powHash,
		poolStore:   config.CreditPoolStore,
		index:       newBlockIndex(),
		creditPools: lru.NewMap[chainhash.Hash, *evo.CreditPool](cacheSize),
	}
	b.validator = evo.NewValidator(&evo.ValidatorConfig{
		ChainParams: config.ChainParams,
		Blocks:      &b,
		Quorums:     config.Quorums,
		SigCache:    config.SigCache,
	})

	genesis := newBlockNode(config.GenesisHeader, nil)
	genesis.status = statusDataConnected
	b.index.AddNode(genesis)
	b.bestChain = newChainView(genesis)

	pool, err := b.loadGenesisCreditPool(genesis)
	if err != nil {
		return nil, err
	}
	b.tipPool = pool
	b.creditPools.Put(genesis.hash, pool)
	b.stateSnapshot = newBestState(genesis, pool)

	log.Infof("Chain state (network %s, genesis %v)", b.chainParams.Name,
		genesis.hash)

	return &b, nil
}

// loadGenesisCreditPool returns the credit pool for the genesis block.  The
// pool is loaded from the credit pool store when one is configured and an
// entry exists, and is otherwise empty.  A new empty pool is persisted.
func (b *BlockChain) loadGenesisCreditPool(genesis *blockNode) (*evo.CreditPool, error) {
	pool := evo.NewCreditPool(&genesis.hash, genesis.height)
	if b.poolStore == nil {
		return pool, nil
	}

	stored, err := b.poolStore.FetchPool(&genesis.hash)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		log.Debugf("Loaded credit pool for genesis block %v: %v", genesis.hash,
			stored)
		return stored, nil
	}
	if err := b.poolStore.StorePool(pool); err != nil {
		return nil, err
	}
	return pool, nil
}

// fetchCreditPool returns the credit pool as of the provided main chain block.
// Pools that are no longer cached are loaded from the credit pool store and
// cached again.
//
// This function MUST be called with the chain lock held (for writes).
func (b *BlockChain) fetchCreditPool(node *blockNode) (*evo.CreditPool, error) {
	if pool, ok := b.creditPools.Get(node.hash); ok {
		return pool, nil
	}
	if b.poolStore != nil {
		pool, err := b.poolStore.FetchPool(&node.hash)
		if err != nil {
			return nil, err
		}
		if pool != nil {
			if pool.Height != node.height {
				str := fmt.Sprintf("stored credit pool for block %v has "+
					"height %d instead of %d", node.hash, pool.Height,
					node.height)
				return nil, AssertError(str)
			}
			log.Debugf("Loaded credit pool for block %v (height %d) from "+
				"the store", node.hash, node.height)
			b.creditPools.Put(node.hash, pool)
			return pool, nil
		}
	}

	str := fmt.Sprintf("credit pool for block %v is not available", node.hash)
	return nil, AssertError(str)
}

// maybeAcceptBlockHeader potentially accepts the header to the block index
// and, if accepted, returns the block node associated with the header.  It
// performs several context independent checks as well as those which depend
// on its position within the chain.
//
// The header is not added to the block index when any of the checks fail.
//
// This function MUST be called with the chain lock held (for writes).
func (b *BlockChain) maybeAcceptBlockHeader(header *wire.BlockHeader) (*blockNode, error) {
	// Avoid validating the header again if its validation status is already
	// known.
	hash := header.BlockHash()
	if node := b.index.LookupNode(&hash); node != nil {
		if b.index.NodeStatus(node).KnownInvalid() {
			str := fmt.Sprintf("block %s is known to be invalid", hash)
			return nil, ruleError(ErrKnownInvalidBlock, str)
		}
		str := fmt.Sprintf("already have block %s", hash)
		return nil, ruleError(ErrDuplicateBlock, str)
	}

	// Reject headers whose parent is unknown or is known to be invalid.
	prevNode := b.index.LookupNode(&header.PrevBlock)
	if prevNode == nil {
		str := fmt.Sprintf("previous block %s is not known",
			header.PrevBlock)
		return nil, ruleError(ErrMissingParent, str)
	}
	if b.index.NodeStatus(prevNode).KnownInvalid() {
		str := fmt.Sprintf("previous block %s is known to be invalid",
			header.PrevBlock)
		return nil, ruleError(ErrInvalidAncestorBlock, str)
	}

	if err := b.checkBlockHeaderSanity(header); err != nil {
		return nil, err
	}
	if err := b.checkBlockHeaderPositional(header, prevNode); err != nil {
		return nil, err
	}

	newNode := newBlockNode(header, prevNode)
	b.index.AddNode(newNode)

	log.Debugf("Accepted block header %v (height %d, bits %08x)",
		newNode.hash, newNode.height, newNode.bits)

	return newNode, nil
}

// ProcessBlockHeader is the main workhorse for handling insertion of new block
// headers into the block chain using headers-first semantics.  It includes
// functionality such as rejecting headers that do not connect to an existing
// known header, ensuring headers follow all rules that do not depend on having
// all ancestor block data available, and insertion into the block index.
//
// The height of the accepted header is returned.
//
// This function is safe for concurrent access.
func (b *BlockChain) ProcessBlockHeader(header *wire.BlockHeader) (int64, error) {
	b.chainLock.Lock()
	defer b.chainLock.Unlock()

	node, err := b.maybeAcceptBlockHeader(header)
	if err != nil {
		return 0, err
	}
	return node.height, nil
}

// ConnectBlock validates the provided block and connects it to the main chain
// as the new tip.  The block must extend the current tip.  Its header is
// accepted first when it is not already known.
//
// Every special transaction in the block is validated against the state of the
// chain prior to the block, and the credit pool is only updated once all of
// them are accepted.  A block which fails validation is marked as known
// invalid so it is not processed again.
//
// This function is safe for concurrent access.
func (b *BlockChain) ConnectBlock(block *Block) error {
	b.chainLock.Lock()
	defer b.chainLock.Unlock()

	tip := b.bestChain.Tip()
	if block.Header.PrevBlock != tip.hash {
		str := fmt.Sprintf("block %v does not extend the current tip %v",
			block.Hash(), tip.hash)
		return ruleError(ErrNotTipExtension, str)
	}

	hash := block.Hash()
	node := b.index.LookupNode(&hash)
	if node == nil {
		var err error
		node, err = b.maybeAcceptBlockHeader(&block.Header)
		if err != nil {
			return err
		}
	} else if b.index.NodeStatus(node).KnownInvalid() {
		str := fmt.Sprintf("block %s is known to be invalid", hash)
		return ruleError(ErrKnownInvalidBlock, str)
	}

	newPool, err := b.checkBlockSpecialTxns(block, node, tip, b.tipPool)
	if err != nil {
		var rErr RuleError
		if errors.As(err, &rErr) {
			b.index.MarkValidateFailed(node)
		}
		return err
	}

	if b.poolStore != nil {
		if err := b.poolStore.StorePool(newPool); err != nil {
			return err
		}
	}
	b.tipPool = newPool
	b.creditPools.Put(node.hash, newPool)
	b.index.SetStatusFlags(node, statusDataConnected)
	b.bestChain.SetTip(node)

	state := newBestState(node, newPool)
	b.stateLock.Lock()
	b.stateSnapshot = state
	b.stateLock.Unlock()

	log.Debugf("Connected block %v (height %d, %d transactions, locked %v)",
		node.hash, node.height, len(block.Transactions), newPool.Locked)

	return nil
}

// DisconnectTip removes the current tip from the main chain and restores the
// credit pool of its parent.  The header remains in the block index.
//
// This function is safe for concurrent access.
func (b *BlockChain) DisconnectTip() error {
	b.chainLock.Lock()
	defer b.chainLock.Unlock()

	tip := b.bestChain.Tip()
	if tip.parent == nil {
		return ruleError(ErrNoTipToDisconnect, "cannot disconnect the "+
			"genesis block")
	}
	parentPool, err := b.fetchCreditPool(tip.parent)
	if err != nil {
		return err
	}

	if b.poolStore != nil {
		if err := b.poolStore.RemovePool(&tip.hash); err != nil {
			return err
		}
	}
	b.creditPools.Delete(tip.hash)
	b.tipPool = parentPool
	b.index.UnsetStatusFlags(tip, statusDataConnected)
	b.bestChain.SetTip(tip.parent)

	state := newBestState(tip.parent, parentPool)
	b.stateLock.Lock()
	b.stateSnapshot = state
	b.stateLock.Unlock()

	log.Debugf("Disconnected block %v (height %d)", tip.hash, tip.height)

	return nil
}

// LookupBlock returns a reference to the block with the provided hash along
// with whether or not it is known to the block index.  Blocks that are not
// part of the main chain are included.
//
// This function is safe for concurrent access.
func (b *BlockChain) LookupBlock(hash *chainhash.Hash) (llmq.BlockRef, bool) {
	node := b.index.LookupNode(hash)
	if node == nil {
		return llmq.BlockRef{}, false
	}
	return llmq.BlockRef{Hash: node.hash, Height: node.height}, true
}

// HeaderByHash returns the block header identified by the given hash or an
// error if it doesn't exist.
//
// This function is safe for concurrent access.
func (b *BlockChain) HeaderByHash(hash *chainhash.Hash) (wire.BlockHeader, error) {
	node := b.index.LookupNode(hash)
	if node == nil {
		return wire.BlockHeader{}, unknownBlockError(hash)
	}
	return node.Header(), nil
}

// BlockHashByHeight returns the hash of the block at the given height in the
// main chain.
//
// This function is safe for concurrent access.
func (b *BlockChain) BlockHashByHeight(height int64) (*chainhash.Hash, error) {
	node := b.bestChain.NodeByHeight(height)
	if node == nil {
		str := fmt.Sprintf("no block at height %d exists", height)
		return nil, contextError(ErrUnknownBlock, str)
	}
	return &node.hash, nil
}

// MainChainHasBlock returns whether or not the block with the given hash is in
// the main chain.
//
// This function is safe for concurrent access.
func (b *BlockChain) MainChainHasBlock(hash *chainhash.Hash) bool {
	node := b.index.LookupNode(hash)
	return node != nil && b.bestChain.Contains(node)
}

// BestHeader returns the hash and height of the known header with the most
// cumulative work.
//
// This function is safe for concurrent access.
func (b *BlockChain) BestHeader() (chainhash.Hash, int64) {
	header := b.index.BestHeader()
	return header.hash, header.height
}

// BestSnapshot returns information about the current best chain block and
// related state as of the current point in time.  The returned instance must be
// treated as immutable since it is shared by all callers.
//
// This function is safe for concurrent access.
func (b *BlockChain) BestSnapshot() *BestState {
	b.stateLock.RLock()
	snapshot := b.stateSnapshot
	b.stateLock.RUnlock()
	return snapshot
}

// CreditPool returns a copy of the credit pool as of the current tip.
//
// This function is safe for concurrent access.
func (b *BlockChain) CreditPool() *evo.CreditPool {
	b.chainLock.RLock()
	pool := b.tipPool.Clone()
	b.chainLock.RUnlock()
	return pool
}

// CheckSpecialTx validates the provided transaction as a candidate for the
// block after the current tip.
//
// This function is safe for concurrent access.
func (b *BlockChain) CheckSpecialTx(tx *evo.Transaction) error {
	b.chainLock.RLock()
	defer b.chainLock.RUnlock()

	tip := b.bestChain.Tip()
	tipRef := llmq.BlockRef{Hash: tip.hash, Height: tip.height}
	_, err := b.validator.CheckSpecialTx(tx, tipRef, b.tipPool)
	return err
}
