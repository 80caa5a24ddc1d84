// Copyright (c) 2018-2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import "time"

// RegNetParams returns the network parameters for the regression test network.
// The purpose of this network is primarily for unit tests and integration
// tests.
//
// Since this network is only intended for unit testing, its values are subject
// to change even if it would cause a hard fork.
func RegNetParams() *Params {
	// regNetPowLimit is the highest proof of work value a block can have for
	// the regression test network.  It is the value 2^255 - 1.
	regNetPowLimit := hexToUint256("7fffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")

	return &Params{
		Name: "regtest",

		// Difficulty adjustment parameters.
		PowLimit:                  regNetPowLimit,
		PowLimitBits:              0x207fffff,
		ReduceMinDifficulty:       true,
		NoRetargeting:             true,
		TargetTimePerBlock:        time.Second * 150,
		TargetTimespan:            time.Hour * 24,
		DifficultyAdjustmentRange: 10,
		HeightInterval:            1000,
		PowRTHeight:               1000000,

		// Quorum parameters.
		LLMQTypeAssetLocks: LLMQTypeTestPlatform,
		LLMQs:              []LLMQParams{llmqTest, llmqTestPlatform},
	}
}
