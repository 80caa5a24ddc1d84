// Copyright (c) 2015-2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/6zip-project/dash/internal/blockchain"
	"github.com/6zip-project/dash/internal/bls"
	"github.com/6zip-project/dash/internal/evo"
	"github.com/6zip-project/dash/internal/llmq"
	"github.com/6zip-project/dash/internal/primitives"
	"github.com/6zip-project/dash/internal/progresslog"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// readBlocks reads blocks from r.  Each non-empty line that does not start
// with '#' holds a hex-encoded block header optionally followed by the
// whitespace separated hex-encoded transactions of the block.
func readBlocks(r io.Reader) ([]*blockchain.Block, error) {
	var blocks []*blockchain.Block
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, 32*1024*1024)
	var lineNum int
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		headerBytes, err := hex.DecodeString(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: malformed header: %w", lineNum,
				err)
		}
		if len(headerBytes) != wire.MaxBlockHeaderPayload {
			return nil, fmt.Errorf("line %d: header is %d bytes instead of "+
				"%d", lineNum, len(headerBytes), wire.MaxBlockHeaderPayload)
		}
		block := new(blockchain.Block)
		err = block.Header.Deserialize(bytes.NewReader(headerBytes))
		if err != nil {
			return nil, fmt.Errorf("line %d: malformed header: %w", lineNum,
				err)
		}

		for i, txHex := range fields[1:] {
			tx, err := decodeTx(txHex)
			if err != nil {
				return nil, fmt.Errorf("line %d: transaction %d: %w",
					lineNum, i, err)
			}
			block.Transactions = append(block.Transactions, tx)
		}
		blocks = append(blocks, block)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return blocks, nil
}

// decodeTx decodes a hex-encoded transaction.
func decodeTx(txHex string) (*evo.Transaction, error) {
	serialized, err := hex.DecodeString(txHex)
	if err != nil {
		return nil, err
	}
	return evo.NewTransactionFromBytes(serialized)
}

// loadBlocks reads the blocks from the file at the provided path.
func loadBlocks(path string) ([]*blockchain.Block, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readBlocks(f)
}

// rejectReason returns the reject code and class of the special transaction
// rule violation the provided error carries, or an empty string when it does
// not carry one.
func rejectReason(err error) string {
	var rErr evo.RuleError
	if !errors.As(err, &rErr) {
		return ""
	}
	return fmt.Sprintf(" [%s, %v]", rErr.RejectCode(), rErr.Class())
}

// chainVerifyMain is the real main function for chainverify.  It is necessary
// to work around the fact that deferred functions do not run when os.Exit() is
// called.
func chainVerifyMain() error {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		return err
	}
	defer func() {
		if logRotator != nil {
			logRotator.Close()
		}
	}()

	blocks, err := loadBlocks(cfg.HeadersFile)
	if err != nil {
		mainLog.Errorf("Unable to load blocks: %v", err)
		return err
	}
	if len(blocks) == 0 {
		err := fmt.Errorf("no blocks in %s", cfg.HeadersFile)
		mainLog.Error(err)
		return err
	}

	registry := llmq.NewRegistry()
	for _, q := range cfg.quorums {
		if err := registry.AddQuorum(q); err != nil {
			mainLog.Errorf("Unable to add quorum: %v", err)
			return err
		}
	}

	var poolStore *evo.CreditPoolStore
	if cfg.DataDir != "" {
		db, err := evo.LoadCreditPoolDB(cfg.DataDir)
		if err != nil {
			mainLog.Errorf("Unable to load credit pool database: %v", err)
			return err
		}
		poolStore, err = evo.NewCreditPoolStore(db)
		if err != nil {
			db.Close()
			mainLog.Errorf("Unable to load credit pool database: %v", err)
			return err
		}
		defer poolStore.Close()
	}

	var powHash func(*wire.BlockHeader) chainhash.Hash
	if cfg.SkipPoW {
		powHash = func(*wire.BlockHeader) chainhash.Hash {
			return chainhash.Hash{}
		}
	}

	chain, err := blockchain.New(&blockchain.Config{
		ChainParams:         cfg.params,
		GenesisHeader:       &blocks[0].Header,
		Quorums:             registry,
		SigCache:            bls.NewSigCache(cfg.SigCacheMaxSize),
		CreditPoolStore:     poolStore,
		CreditPoolCacheSize: cfg.PoolCacheSize,
		PowHash:             powHash,
	})
	if err != nil {
		mainLog.Errorf("Unable to create chain: %v", err)
		return err
	}

	progressLogger := progresslog.New("Verified", mainLog)
	for i, block := range blocks[1:] {
		isLast := i == len(blocks)-2
		if cfg.HeadersOnly {
			height, err := chain.ProcessBlockHeader(&block.Header)
			if err != nil {
				mainLog.Errorf("Header %v at position %d rejected: %v",
					block.Hash(), i+2, err)
				return err
			}
			progressLogger.LogHeaderProgress(&block.Header, height, 1, isLast)
			continue
		}

		if err := chain.ConnectBlock(block); err != nil {
			mainLog.Errorf("Block %v at position %d rejected: %v%s",
				block.Hash(), i+2, err, rejectReason(err))
			return err
		}
		progressLogger.LogProgress(&block.Header, int64(i+1),
			block.Transactions, isLast)
	}

	best := chain.BestSnapshot()
	tipHash, tipHeight := best.Hash, best.Height
	if cfg.HeadersOnly {
		tipHash, tipHeight = chain.BestHeader()
	}
	tipHeader, err := chain.HeaderByHash(&tipHash)
	if err != nil {
		return err
	}
	nextTime := tipHeader.Timestamp.Add(cfg.params.TargetTimePerBlock)
	nextBits, err := chain.CalcNextRequiredDifficulty(&tipHash, nextTime)
	if err != nil {
		mainLog.Errorf("Unable to calculate the next difficulty: %v", err)
		return err
	}
	nextTarget, _, _ := primitives.DiffBitsToUint256(nextBits)
	fmt.Printf("Tip %v (height %d)\n", tipHash, tipHeight)
	fmt.Printf("Next required difficulty %08x (target %x)\n", nextBits,
		nextTarget.Bytes())
	fmt.Printf("Credit pool locked %v with %d used asset unlock indexes\n",
		best.LockedAmount, best.NumIndexes)

	if cfg.CheckTx != "" {
		tx, err := decodeTx(cfg.CheckTx)
		if err != nil {
			mainLog.Errorf("Unable to decode transaction: %v", err)
			return err
		}
		if err := chain.CheckSpecialTx(tx); err != nil {
			fmt.Printf("Transaction %v rejected: %v%s\n", tx.TxHash(), err,
				rejectReason(err))
			return err
		}
		fmt.Printf("Transaction %v accepted\n", tx.TxHash())
	}

	return nil
}

func main() {
	if err := chainVerifyMain(); err != nil {
		os.Exit(1)
	}
}
