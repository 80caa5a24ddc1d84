// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package evo

import (
	"bytes"
	"errors"
	"fmt"
)

// SpecialTx is a transaction classified by its special transaction type.  The
// set of implementations is closed:
//
//   - *NormalTx for transactions without a special type
//   - *AssetLockTx for asset lock transactions
//   - *AssetUnlockTx for asset unlock transactions
//   - *KnownSpecialTx for the other known special types
//   - *UnknownSpecialTx for types that are not known
//
// Callers are expected to type switch over the concrete types.
type SpecialTx interface {
	// Tx returns the classified transaction.
	Tx() *Transaction

	isSpecialTx()
}

// NormalTx is a transaction without a special type.
type NormalTx struct {
	tx *Transaction
}

// Tx returns the classified transaction.
func (t *NormalTx) Tx() *Transaction { return t.tx }
func (*NormalTx) isSpecialTx()       {}

// AssetLockTx is an asset lock transaction.
type AssetLockTx struct {
	tx *Transaction
}

// Tx returns the classified transaction.
func (t *AssetLockTx) Tx() *Transaction { return t.tx }
func (*AssetLockTx) isSpecialTx()       {}

// Payload decodes the asset lock payload of the transaction.
func (t *AssetLockTx) Payload() (*AssetLockPayload, error) {
	var payload AssetLockPayload
	if err := decodePayload(t.tx, TxTypeAssetLock, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// AssetUnlockTx is an asset unlock transaction.
type AssetUnlockTx struct {
	tx *Transaction
}

// Tx returns the classified transaction.
func (t *AssetUnlockTx) Tx() *Transaction { return t.tx }
func (*AssetUnlockTx) isSpecialTx()       {}

// Payload decodes the asset unlock payload of the transaction.
func (t *AssetUnlockTx) Payload() (*AssetUnlockPayload, error) {
	var payload AssetUnlockPayload
	if err := decodePayload(t.tx, TxTypeAssetUnlock, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// KnownSpecialTx is a transaction of a known special type that is validated
// by other subsystems, such as provider registrations and quorum commitments.
type KnownSpecialTx struct {
	tx *Transaction
}

// Tx returns the classified transaction.
func (t *KnownSpecialTx) Tx() *Transaction { return t.tx }
func (*KnownSpecialTx) isSpecialTx()       {}

// UnknownSpecialTx is a transaction with a special type that is not known.
type UnknownSpecialTx struct {
	tx *Transaction
}

// Tx returns the classified transaction.
func (t *UnknownSpecialTx) Tx() *Transaction { return t.tx }
func (*UnknownSpecialTx) isSpecialTx()       {}

// DecodeSpecialTx classifies the provided transaction by its special type.
// Transactions with a version too old to carry a special type are always
// normal transactions.  Payloads are not decoded until requested.
func DecodeSpecialTx(tx *Transaction) SpecialTx {
	if !tx.HasExtraPayload() {
		return &NormalTx{tx: tx}
	}
	switch tx.Type {
	case TxTypeAssetLock:
		return &AssetLockTx{tx: tx}
	case TxTypeAssetUnlock:
		return &AssetUnlockTx{tx: tx}
	}
	if tx.Type.IsKnown() {
		return &KnownSpecialTx{tx: tx}
	}
	return &UnknownSpecialTx{tx: tx}
}

// payloadCodec is implemented by the special transaction payloads.
type payloadCodec interface {
	decode(r *bytes.Reader) error
}

// errTrailingPayload indicates bytes remained after decoding a payload.
var errTrailingPayload = errors.New("trailing bytes after payload")

// decodePayload decodes the extra payload of the provided transaction into the
// provided payload.  The transaction must have the expected special type and
// the payload must be consumed entirely.
func decodePayload(tx *Transaction, txType TxType, payload payloadCodec) error {
	if !tx.HasExtraPayload() || tx.Type != txType {
		return fmt.Errorf("transaction of type %v does not carry a %v "+
			"payload", tx.Type, txType)
	}
	r := bytes.NewReader(tx.ExtraPayload)
	if err := payload.decode(r); err != nil {
		return err
	}
	if r.Len() != 0 {
		return errTrailingPayload
	}
	return nil
}
