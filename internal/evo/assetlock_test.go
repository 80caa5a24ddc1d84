// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package evo

import (
	"errors"
	"testing"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// TestCheckAssetLockTx ensures asset lock transactions are validated as
// expected.
func TestCheckAssetLockTx(t *testing.T) {
	t.Parallel()

	// setPayload returns a modifier that replaces the payload of the
	// transaction with the provided one.
	setPayload := func(payload *AssetLockPayload) func(tx *Transaction) {
		return func(tx *Transaction) { tx.ExtraPayload = payload.Bytes() }
	}
	creditOuts := func(values ...int64) []*wire.TxOut {
		outs := make([]*wire.TxOut, 0, len(values))
		for i, value := range values {
			outs = append(outs, wire.NewTxOut(value, p2pkhScript(byte(i))))
		}
		return outs
	}

	tests := []struct {
		name    string
		burn    int64
		credits []int64
		modify  func(tx *Transaction)
		want    error
	}{{
		name:    "valid single credit output",
		burn:    1000,
		credits: []int64{1000},
		want:    nil,
	}, {
		name:    "valid multiple credit outputs",
		burn:    1000,
		credits: []int64{600, 400},
		want:    nil,
	}, {
		name:    "negative credit output offsetting another",
		burn:    1000,
		credits: []int64{2000, -1000},
		want:    ErrTxOutNegative,
	}, {
		name:    "credit outputs overflowing to the burned amount",
		burn:    1000,
		credits: []int64{1 << 62, 1 << 62, 1 << 62, 1<<62 + 1000},
		want:    ErrTxOutTooLarge,
	}, {
		name:    "credit amount one more than burned",
		burn:    1000,
		credits: []int64{600, 401},
		want:    ErrAssetLockCreditAmount,
	}, {
		name:    "credit amount one less than burned",
		burn:    1000,
		credits: []int64{600, 399},
		want:    ErrAssetLockCreditAmount,
	}, {
		name:    "wrong transaction type",
		burn:    1000,
		credits: []int64{1000},
		modify:  func(tx *Transaction) { tx.Type = TxTypeAssetUnlock },
		want:    ErrAssetLockType,
	}, {
		name:    "no burn output",
		burn:    1000,
		credits: []int64{1000},
		modify:  func(tx *Transaction) { tx.TxOut = tx.TxOut[1:] },
		want:    ErrAssetLockNoReturn,
	}, {
		name:    "burn output with data",
		burn:    1000,
		credits: []int64{1000},
		modify: func(tx *Transaction) {
			tx.TxOut[0].PkScript = []byte{txscript.OP_RETURN,
				txscript.OP_DATA_1, 0x01}
		},
		want: ErrAssetLockNonEmptyReturn,
	}, {
		name:    "bare OP_RETURN burn output",
		burn:    1000,
		credits: []int64{1000},
		modify: func(tx *Transaction) {
			tx.TxOut[0].PkScript = []byte{txscript.OP_RETURN}
		},
		want: ErrAssetLockNonEmptyReturn,
	}, {
		name:    "zero value burn output",
		burn:    0,
		credits: []int64{1000},
		want:    ErrAssetLockZeroOutReturn,
	}, {
		name:    "negative value burn output",
		burn:    -1,
		credits: []int64{1000},
		want:    ErrAssetLockZeroOutReturn,
	}, {
		name:    "two burn outputs",
		burn:    500,
		credits: []int64{1000},
		modify: func(tx *Transaction) {
			tx.AddTxOut(wire.NewTxOut(500, burnScript))
		},
		want: ErrAssetLockMultipleReturn,
	}, {
		name:    "truncated payload",
		burn:    1000,
		credits: []int64{1000},
		modify: func(tx *Transaction) {
			tx.ExtraPayload = tx.ExtraPayload[:len(tx.ExtraPayload)-1]
		},
		want: ErrAssetLockPayload,
	}, {
		name:    "trailing payload bytes",
		burn:    1000,
		credits: []int64{1000},
		modify: func(tx *Transaction) {
			tx.ExtraPayload = append(tx.ExtraPayload, 0x00)
		},
		want: ErrAssetLockPayload,
	}, {
		name:    "payload version zero",
		burn:    1000,
		credits: []int64{1000},
		modify: setPayload(&AssetLockPayload{
			Version:       0,
			CreditOutputs: creditOuts(1000),
		}),
		want: ErrAssetLockVersion,
	}, {
		name:    "payload version too new",
		burn:    1000,
		credits: []int64{1000},
		modify: setPayload(&AssetLockPayload{
			Version:       AssetLockCurrentVersion + 1,
			CreditOutputs: creditOuts(1000),
		}),
		want: ErrAssetLockVersion,
	}, {
		name:    "nonzero lock type",
		burn:    1000,
		credits: []int64{1000},
		modify: setPayload(&AssetLockPayload{
			Version:       AssetLockCurrentVersion,
			Type:          1,
			CreditOutputs: creditOuts(1000),
		}),
		want: ErrAssetLockLockType,
	}, {
		name:    "no credit outputs",
		burn:    1000,
		credits: nil,
		want:    ErrAssetLockEmptyCreditOutputs,
	}, {
		name:    "credit output pays to script hash",
		burn:    1000,
		credits: []int64{1000},
		modify: setPayload(&AssetLockPayload{
			Version: AssetLockCurrentVersion,
			CreditOutputs: []*wire.TxOut{
				wire.NewTxOut(1000, p2shScript(0x01)),
			},
		}),
		want: ErrAssetLockPubKeyHash,
	}}

	for _, test := range tests {
		tx := newAssetLockTx(test.burn, test.credits...)
		if test.modify != nil {
			test.modify(tx)
		}
		err := CheckAssetLockTx(tx)
		if !errors.Is(err, test.want) {
			t.Errorf("%q: mismatched err -- got %v, want %v", test.name, err,
				test.want)
			continue
		}
		if test.want == nil {
			continue
		}

		var rErr RuleError
		if !errors.As(err, &rErr) {
			t.Errorf("%q: error is not a RuleError: %T", test.name, err)
			continue
		}
		if rErr.RejectCode() != string(test.want.(ErrorKind)) {
			t.Errorf("%q: mismatched reject code -- got %q, want %q",
				test.name, rErr.RejectCode(), test.want)
		}
	}
}

// TestAssetLockPayloadCreditAmount ensures the credit amount of a decoded
// payload is the sum of its credit outputs.
func TestAssetLockPayloadCreditAmount(t *testing.T) {
	t.Parallel()

	tx := newAssetLockTx(1000, 100, 200, 700)
	stx, ok := DecodeSpecialTx(tx).(*AssetLockTx)
	if !ok {
		t.Fatalf("unexpected classification %T", DecodeSpecialTx(tx))
	}
	payload, err := stx.Payload()
	if err != nil {
		t.Fatalf("unexpected payload error: %v", err)
	}
	if got, err := payload.CreditAmount(); err != nil || got != 1000 {
		t.Fatalf("unexpected credit amount -- got %d (err %v), want 1000",
			int64(got), err)
	}
	if len(payload.CreditOutputs) != 3 {
		t.Fatalf("unexpected number of credit outputs %d",
			len(payload.CreditOutputs))
	}
}
