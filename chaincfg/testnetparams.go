// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2015-2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import "time"

// TestNetParams returns the network parameters for the test network.
//
// The test network allows minimum difficulty blocks once a block has not been
// found for twice the target block time.
func TestNetParams() *Params {
	// testNetPowLimit is the highest proof of work value a block can have for
	// the test network.  It is the value 2^236 - 1.
	testNetPowLimit := hexToUint256("00000fffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")

	return &Params{
		Name: "testnet",

		// Difficulty adjustment parameters.
		PowLimit:                  testNetPowLimit,
		PowLimitBits:              0x1e0fffff,
		ReduceMinDifficulty:       true,
		NoRetargeting:             false,
		TargetTimePerBlock:        time.Second * 150,
		TargetTimespan:            time.Hour * 24, // 576 blocks
		DifficultyAdjustmentRange: 24,
		HeightInterval:            10000,
		PowRTHeight:               100,

		// Quorum parameters.
		LLMQTypeAssetLocks: LLMQType25_67,
		LLMQs:              []LLMQParams{llmq50_60, llmq400_60, llmq400_85, llmq25_67},
	}
}
