// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

// The following quorum parameter sets are shared by the networks that
// configure them.
var (
	llmq50_60 = LLMQParams{
		Type: LLMQType50_60,
		Name: "llmq_50_60",
	}

	llmq400_60 = LLMQParams{
		Type: LLMQType400_60,
		Name: "llmq_400_60",
	}

	llmq400_85 = LLMQParams{
		Type: LLMQType400_85,
		Name: "llmq_400_85",
	}

	llmq25_67 = LLMQParams{
		Type: LLMQType25_67,
		Name: "llmq_25_67",
	}

	llmqTest = LLMQParams{
		Type: LLMQTypeTest,
		Name: "llmq_test",
	}

	llmqTestPlatform = LLMQParams{
		Type: LLMQTypeTestPlatform,
		Name: "llmq_test_platform",
	}
)
