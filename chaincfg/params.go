// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2015-2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"encoding/hex"
	"time"

	"github.com/decred/dcrd/math/uint256"
)

// LLMQType identifies a long-living masternode quorum type.  The numeric values
// are part of the consensus rules since they are committed to in the hash that
// quorum members sign.
type LLMQType uint8

// These constants define the known quorum types.
const (
	LLMQTypeNone LLMQType = 0xff

	LLMQType50_60  LLMQType = 1
	LLMQType400_60 LLMQType = 2
	LLMQType400_85 LLMQType = 3
	LLMQType100_67 LLMQType = 4
	LLMQType60_75  LLMQType = 5
	LLMQType25_67  LLMQType = 6

	// Types below are only used on test networks.
	LLMQTypeTest         LLMQType = 100
	LLMQTypeDevnet       LLMQType = 101
	LLMQTypeTestV17      LLMQType = 102
	LLMQTypeTestPlatform LLMQType = 106
)

// llmqTypeStrings maps quorum types to their human-readable names.
var llmqTypeStrings = map[LLMQType]string{
	LLMQTypeNone:         "llmq_none",
	LLMQType50_60:        "llmq_50_60",
	LLMQType400_60:       "llmq_400_60",
	LLMQType400_85:       "llmq_400_85",
	LLMQType100_67:       "llmq_100_67",
	LLMQType60_75:        "llmq_60_75",
	LLMQType25_67:        "llmq_25_67",
	LLMQTypeTest:         "llmq_test",
	LLMQTypeDevnet:       "llmq_devnet",
	LLMQTypeTestV17:      "llmq_test_v17",
	LLMQTypeTestPlatform: "llmq_test_platform",
}

// String returns the LLMQType as a human-readable name.
func (t LLMQType) String() string {
	if s, ok := llmqTypeStrings[t]; ok {
		return s
	}
	return "llmq_unknown"
}

// LLMQParams houses the parameters of a single quorum type.
type LLMQParams struct {
	// Type is the quorum type these parameters apply to.
	Type LLMQType

	// Name is a human-readable name for the quorum type.
	Name string
}

// Params defines a network by its consensus parameters.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// PowLimit defines the highest allowed proof of work value for a block
	// as a uint256.
	PowLimit *uint256.Uint256

	// PowLimitBits defines the highest allowed proof of work value for a
	// block in compact form.
	PowLimitBits uint32

	// ReduceMinDifficulty defines whether the network should reduce the
	// minimum required difficulty after a long enough period of time has
	// passed without finding a block.  This is really only useful for test
	// networks and should not be set on a main network.
	ReduceMinDifficulty bool

	// NoRetargeting disables interval difficulty retargeting so every block
	// repeats the target of its parent.  Only set on regression test networks.
	NoRetargeting bool

	// TargetTimePerBlock is the desired amount of time to generate each
	// block.
	TargetTimePerBlock time.Duration

	// TargetTimespan is the desired amount of time that should elapse
	// before the block difficulty requirement is examined to determine how
	// it should be changed in order to maintain the desired block
	// generation rate.
	TargetTimespan time.Duration

	// DifficultyAdjustmentRange is the number of most recent blocks sampled
	// by the per-block variance adjustment.
	DifficultyAdjustmentRange int64

	// HeightInterval is the period, in blocks, of the alternating window in
	// which the variance adjustment allows targets up to twice the proof of
	// work limit.
	HeightInterval int64

	// PowRTHeight is the height after which blocks between retarget
	// intervals use the per-block variance adjustment.
	PowRTHeight int64

	// LLMQTypeAssetLocks is the quorum type that signs asset unlock
	// transactions.
	LLMQTypeAssetLocks LLMQType

	// LLMQs defines the quorum types that are configured on the network.
	LLMQs []LLMQParams
}

// DifficultyAdjustmentInterval returns the number of blocks between full
// difficulty retargets.
func (p *Params) DifficultyAdjustmentInterval() int64 {
	return int64(p.TargetTimespan / p.TargetTimePerBlock)
}

// TargetSpacingSecs returns the target time per block in seconds.
func (p *Params) TargetSpacingSecs() int64 {
	return int64(p.TargetTimePerBlock / time.Second)
}

// TargetTimespanSecs returns the retarget window in seconds.
func (p *Params) TargetTimespanSecs() int64 {
	return int64(p.TargetTimespan / time.Second)
}

// HasLLMQ returns whether or not the provided quorum type is configured on the
// network.
func (p *Params) HasLLMQ(llmqType LLMQType) bool {
	_, ok := p.LLMQParams(llmqType)
	return ok
}

// LLMQParams returns the parameters of the provided quorum type along with
// whether or not the type is configured on the network.
func (p *Params) LLMQParams(llmqType LLMQType) (LLMQParams, bool) {
	for i := range p.LLMQs {
		if p.LLMQs[i].Type == llmqType {
			return p.LLMQs[i], true
		}
	}
	return LLMQParams{}, false
}

// hexToUint256 converts the passed big-endian hex string into a uint256 and
// will panic if there is an error.  This is only provided for the hard-coded
// constants so errors in the source code can be detected.  It will only (and
// must only) be called with hard-coded values.
func hexToUint256(s string) *uint256.Uint256 {
	if len(s)%2 != 0 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil || len(b) > 32 {
		panic("invalid uint256 hex in source file: " + s)
	}
	return new(uint256.Uint256).SetByteSlice(b)
}
