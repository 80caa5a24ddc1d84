// Copyright (c) 2015-2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package evo

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

// moneyRange returns whether the provided amount is neither negative nor more
// than the max allowed amount.
func moneyRange(amount btcutil.Amount) bool {
	return amount >= 0 && amount <= btcutil.MaxSatoshi
}

// sumOutputAmounts returns the total value of the provided outputs.  Each
// output must not be negative or more than the max allowed amount, and the
// total must abide by the same restrictions.
func sumOutputAmounts(outs []*wire.TxOut) (btcutil.Amount, error) {
	var total btcutil.Amount
	for i, out := range outs {
		amount := btcutil.Amount(out.Value)
		if amount < 0 {
			str := fmt.Sprintf("output %d has negative value of %d", i,
				out.Value)
			return 0, ruleError(ErrTxOutNegative, str)
		}
		if amount > btcutil.MaxSatoshi {
			str := fmt.Sprintf("output %d value of %d is higher than max "+
				"allowed value of %d", i, out.Value,
				int64(btcutil.MaxSatoshi))
			return 0, ruleError(ErrTxOutTooLarge, str)
		}

		// Both operands are at most MaxSatoshi, so the sum can not wrap.
		total += amount
		if total > btcutil.MaxSatoshi {
			str := fmt.Sprintf("total value of outputs is %d which is "+
				"higher than max allowed value of %d", int64(total),
				int64(btcutil.MaxSatoshi))
			return 0, ruleError(ErrTxOutTotalTooLarge, str)
		}
	}
	return total, nil
}

// CheckTransactionAmounts ensures the amounts of the provided transaction are
// in range.  That covers the regular outputs along with the credit outputs of
// an asset lock payload that can be decoded.
func CheckTransactionAmounts(tx *Transaction) error {
	if _, err := sumOutputAmounts(tx.TxOut); err != nil {
		return err
	}
	if tx.Type != TxTypeAssetLock {
		return nil
	}
	payload, err := (&AssetLockTx{tx: tx}).Payload()
	if err != nil {
		// Malformed payloads are reported by CheckAssetLockTx.
		return nil
	}
	_, err = sumOutputAmounts(payload.CreditOutputs)
	return err
}
