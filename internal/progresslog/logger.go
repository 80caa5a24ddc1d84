// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package progresslog

import (
	"sync"
	"time"

	"github.com/6zip-project/dash/internal/evo"
	"github.com/btcsuite/btcd/wire"
	"github.com/decred/slog"
)

// logInterval is the minimum amount of time between progress messages that
// are not forced.
const logInterval = time.Second * 10

// pickNoun returns the singular or plural form of a noun depending on the
// provided count.
func pickNoun(n uint64, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}

// Logger provides periodic logging of progress towards some action such as
// verifying the chain.
type Logger struct {
	sync.Mutex
	subsystemLogger slog.Logger
	progressAction  string

	// lastLogTime tracks the last time a log statement was shown.
	lastLogTime time.Time

	// These fields accumulate information about blocks between log statements.
	receivedBlocks  uint64
	receivedTxns    uint64
	receivedLocks   uint64
	receivedUnlocks uint64
	receivedHeaders uint64
}

// New returns a new progress logger.
func New(progressAction string, logger slog.Logger) *Logger {
	return &Logger{
		lastLogTime:     time.Now(),
		progressAction:  progressAction,
		subsystemLogger: logger,
	}
}

// LogProgress accumulates details for the provided block and periodically
// (every 10 seconds) logs an information message to show progress to the user
// along with duration and totals included.
//
// The force flag may be used to force a log message to be shown regardless of
// the time the last one was shown.
//
// The progress message is templated as follows:
//  {progressAction} {numProcessed} {blocks|block} in the last {timePeriod}
//  ({numTxs} {transactions|transaction}, {numLocks} {asset locks|asset lock},
//  {numUnlocks} {asset unlocks|asset unlock}, height {lastBlockHeight},
//  {lastBlockTimeStamp})
func (l *Logger) LogProgress(header *wire.BlockHeader, height int64, txns []*evo.Transaction, forceLog bool) {
	l.Lock()
	defer l.Unlock()

	l.receivedBlocks++
	l.receivedTxns += uint64(len(txns))
	for _, tx := range txns {
		switch tx.Type {
		case evo.TxTypeAssetLock:
			l.receivedLocks++
		case evo.TxTypeAssetUnlock:
			l.receivedUnlocks++
		}
	}
	now := time.Now()
	duration := now.Sub(l.lastLogTime)
	if !forceLog && duration < logInterval {
		return
	}

	// Log information about chain progress.
	l.subsystemLogger.Infof("%s %d %s in the last %0.2fs (%d %s, %d %s, %d %s,"+
		" height %d, %s)", l.progressAction,
		l.receivedBlocks, pickNoun(l.receivedBlocks, "block", "blocks"),
		duration.Seconds(),
		l.receivedTxns, pickNoun(l.receivedTxns, "transaction", "transactions"),
		l.receivedLocks, pickNoun(l.receivedLocks, "asset lock", "asset locks"),
		l.receivedUnlocks, pickNoun(l.receivedUnlocks, "asset unlock",
			"asset unlocks"),
		height, header.Timestamp)

	l.receivedBlocks = 0
	l.receivedTxns = 0
	l.receivedLocks = 0
	l.receivedUnlocks = 0
	l.lastLogTime = now
}

// LogHeaderProgress accumulates the provided number of processed headers and
// periodically (every 10 seconds) logs an information message to show the
// header sync progress to the user along with duration and totals included.
//
// The force flag may be used to force a log message to be shown regardless of
// the time the last one was shown.
//
// The progress message is templated as follows:
//  {progressAction} {numProcessed} {headers|header} in the last {timePeriod}
//  (height {lastHeaderHeight}, {lastHeaderTimeStamp})
func (l *Logger) LogHeaderProgress(header *wire.BlockHeader, height int64, numHeaders uint64, forceLog bool) {
	l.Lock()
	defer l.Unlock()

	l.receivedHeaders += numHeaders
	now := time.Now()
	duration := now.Sub(l.lastLogTime)
	if !forceLog && duration < logInterval {
		return
	}

	l.subsystemLogger.Infof("%s %d %s in the last %0.2fs (height %d, %s)",
		l.progressAction, l.receivedHeaders,
		pickNoun(l.receivedHeaders, "header", "headers"), duration.Seconds(),
		height, header.Timestamp)

	l.receivedHeaders = 0
	l.lastLogTime = now
}

// SetLastLogTime updates the last time data was logged to the provided time.
func (l *Logger) SetLastLogTime(time time.Time) {
	l.Lock()
	l.lastLogTime = time
	l.Unlock()
}
