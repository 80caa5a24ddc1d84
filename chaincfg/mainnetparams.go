// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2015-2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import "time"

// MainNetParams returns the network parameters for the main network.
func MainNetParams() *Params {
	// mainPowLimit is the highest proof of work value a block can have for
	// the main network.  It is the value 2^236 - 1.
	mainPowLimit := hexToUint256("00000fffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")

	return &Params{
		Name: "mainnet",

		// Difficulty adjustment parameters.
		PowLimit:                  mainPowLimit,
		PowLimitBits:              0x1e0fffff,
		ReduceMinDifficulty:       false,
		NoRetargeting:             false,
		TargetTimePerBlock:        time.Second * 150,
		TargetTimespan:            time.Hour * 24, // 576 blocks
		DifficultyAdjustmentRange: 24,
		HeightInterval:            10000,
		PowRTHeight:               1500,

		// Quorum parameters.
		LLMQTypeAssetLocks: LLMQType400_85,
		LLMQs:              []LLMQParams{llmq50_60, llmq400_60, llmq400_85},
	}
}
