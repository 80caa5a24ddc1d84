// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package evo

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// AssetLockCurrentVersion is the most recent asset lock payload version.
const AssetLockCurrentVersion = 1

// minTxOutPayload is the minimum serialized size of a transaction output: an
// 8-byte value and a single byte script length.
const minTxOutPayload = 9

// AssetLockPayload is the payload of an asset lock transaction.  It describes
// the credit outputs that are funded by the amount the transaction burns.
type AssetLockPayload struct {
	Version       uint16
	Type          uint16
	CreditOutputs []*wire.TxOut
}

// Serialize encodes the payload to w.
func (p *AssetLockPayload) Serialize(w io.Writer) error {
	var buf [4]byte
	binary.LittleEndian.PutUint16(buf[0:2], p.Version)
	binary.LittleEndian.PutUint16(buf[2:4], p.Type)
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}
	err := wire.WriteVarInt(w, protocolVersion, uint64(len(p.CreditOutputs)))
	if err != nil {
		return err
	}
	for _, out := range p.CreditOutputs {
		if err := writeTxOut(w, out); err != nil {
			return err
		}
	}
	return nil
}

// Bytes returns the serialized payload.
func (p *AssetLockPayload) Bytes() []byte {
	// Writing to a bytes.Buffer never fails, so the error is ignored.
	var buf bytes.Buffer
	_ = p.Serialize(&buf)
	return buf.Bytes()
}

// decode decodes the payload from r.
func (p *AssetLockPayload) decode(r *bytes.Reader) error {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	p.Version = binary.LittleEndian.Uint16(buf[0:2])
	p.Type = binary.LittleEndian.Uint16(buf[2:4])

	// Every output occupies at least minTxOutPayload bytes, which bounds the
	// number of outputs the remaining bytes are able to hold.
	maxOutputs := uint64(r.Len() / minTxOutPayload)
	count, err := readCount(r, maxOutputs, "credit outputs")
	if err != nil {
		return err
	}
	p.CreditOutputs = make([]*wire.TxOut, count)
	for i := uint64(0); i < count; i++ {
		var out wire.TxOut
		if err := readTxOut(r, &out); err != nil {
			return err
		}
		p.CreditOutputs[i] = &out
	}
	return nil
}

// CreditAmount returns the sum of the credit output values.  An error is
// returned when any value or the sum is out of range.
func (p *AssetLockPayload) CreditAmount() (btcutil.Amount, error) {
	return sumOutputAmounts(p.CreditOutputs)
}

// String returns the payload in human-readable form.
func (p *AssetLockPayload) String() string {
	outputs := make([]string, 0, len(p.CreditOutputs))
	for _, out := range p.CreditOutputs {
		outputs = append(outputs, fmt.Sprintf("TxOut(value=%d, script=%x)",
			out.Value, out.PkScript))
	}
	return fmt.Sprintf("AssetLockPayload(version=%d, type=%d, "+
		"creditOutputs=[%s])", p.Version, p.Type, strings.Join(outputs, ","))
}

// isBurnScript returns whether the provided script marks its output as the
// burn output of an asset lock.
func isBurnScript(script []byte) bool {
	return len(script) > 0 && script[0] == txscript.OP_RETURN
}

// isEmptyBurnScript returns whether the provided burn script consists of
// exactly an OP_RETURN followed by an empty push.
func isEmptyBurnScript(script []byte) bool {
	return len(script) == 2 && script[1] == txscript.OP_0
}

// CheckAssetLockTx performs the context free validation of an asset lock
// transaction.
//
// The transaction must burn a positive amount in exactly one output whose
// script is OP_RETURN followed by an empty push.  Outputs that do not start
// with OP_RETURN are ignored.  The payload must have a supported version, a
// lock type of zero, and at least one credit output.  Every credit output must
// pay to a public key hash and together they must sum to exactly the burned
// amount.
func CheckAssetLockTx(tx *Transaction) error {
	if tx.Type != TxTypeAssetLock {
		str := fmt.Sprintf("transaction type %v is not an asset lock",
			tx.Type)
		return ruleError(ErrAssetLockType, str)
	}

	var returnAmount btcutil.Amount
	for i, out := range tx.TxOut {
		if !isBurnScript(out.PkScript) {
			continue
		}
		if !isEmptyBurnScript(out.PkScript) {
			str := fmt.Sprintf("burn output %d has a non-empty script %x", i,
				out.PkScript)
			return ruleError(ErrAssetLockNonEmptyReturn, str)
		}
		if out.Value <= 0 {
			str := fmt.Sprintf("burn output %d has non-positive value %d", i,
				out.Value)
			return ruleError(ErrAssetLockZeroOutReturn, str)
		}
		if returnAmount != 0 {
			str := fmt.Sprintf("burn output %d follows another burn output",
				i)
			return ruleError(ErrAssetLockMultipleReturn, str)
		}
		returnAmount = btcutil.Amount(out.Value)
	}
	if returnAmount == 0 {
		return ruleError(ErrAssetLockNoReturn, "asset lock does not have a "+
			"burn output")
	}

	payload, err := (&AssetLockTx{tx: tx}).Payload()
	if err != nil {
		str := fmt.Sprintf("unable to decode asset lock payload: %v", err)
		return ruleError(ErrAssetLockPayload, str)
	}
	if payload.Version == 0 || payload.Version > AssetLockCurrentVersion {
		str := fmt.Sprintf("asset lock payload version %d is not supported",
			payload.Version)
		return ruleError(ErrAssetLockVersion, str)
	}
	if payload.Type != 0 {
		str := fmt.Sprintf("asset lock type %d is not supported",
			payload.Type)
		return ruleError(ErrAssetLockLockType, str)
	}
	if len(payload.CreditOutputs) == 0 {
		return ruleError(ErrAssetLockEmptyCreditOutputs, "asset lock does "+
			"not have any credit outputs")
	}

	for i, out := range payload.CreditOutputs {
		if !txscript.IsPayToPubKeyHash(out.PkScript) {
			str := fmt.Sprintf("credit output %d does not pay to a public "+
				"key hash", i)
			return ruleError(ErrAssetLockPubKeyHash, str)
		}
	}
	creditAmount, err := payload.CreditAmount()
	if err != nil {
		return err
	}
	if creditAmount != returnAmount {
		str := fmt.Sprintf("credit outputs sum to %d which does not match "+
			"the burned amount %d", int64(creditAmount), int64(returnAmount))
		return ruleError(ErrAssetLockCreditAmount, str)
	}

	return nil
}
