// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package evo

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

const (
	// SpecialTxVersion is the minimum transaction version that is able to
	// carry a special transaction type and payload.
	SpecialTxVersion = 3

	// MaxPayloadSize is the maximum size of the extra payload of a special
	// transaction.
	MaxPayloadSize = 10000

	// maxTxIOPerTx is the maximum number of inputs or outputs a deserialized
	// transaction may claim to have.  It prevents an attacker from causing
	// huge allocations with a malicious count.
	maxTxIOPerTx = 100000

	// maxScriptSize is the maximum size of a single serialized script.
	maxScriptSize = 10000

	// protocolVersion is the protocol version passed to the wire codecs.
	protocolVersion = 0
)

// TxType identifies the type of a special transaction.  The values are part of
// the serialized transaction.
type TxType uint16

// These constants define the known transaction types.
const (
	TxTypeNormal                  TxType = 0
	TxTypeProviderRegister        TxType = 1
	TxTypeProviderUpdateService   TxType = 2
	TxTypeProviderUpdateRegistrar TxType = 3
	TxTypeProviderUpdateRevoke    TxType = 4
	TxTypeCoinbase                TxType = 5
	TxTypeQuorumCommitment        TxType = 6
	TxTypeMnHardForkSignal        TxType = 7
	TxTypeAssetLock               TxType = 8
	TxTypeAssetUnlock             TxType = 9
)

// txTypeStrings is a map of transaction types back to their constant names for
// pretty printing.
var txTypeStrings = map[TxType]string{
	TxTypeNormal:                  "TxTypeNormal",
	TxTypeProviderRegister:        "TxTypeProviderRegister",
	TxTypeProviderUpdateService:   "TxTypeProviderUpdateService",
	TxTypeProviderUpdateRegistrar: "TxTypeProviderUpdateRegistrar",
	TxTypeProviderUpdateRevoke:    "TxTypeProviderUpdateRevoke",
	TxTypeCoinbase:                "TxTypeCoinbase",
	TxTypeQuorumCommitment:        "TxTypeQuorumCommitment",
	TxTypeMnHardForkSignal:        "TxTypeMnHardForkSignal",
	TxTypeAssetLock:               "TxTypeAssetLock",
	TxTypeAssetUnlock:             "TxTypeAssetUnlock",
}

// String returns the TxType in human-readable form.
func (t TxType) String() string {
	if s, ok := txTypeStrings[t]; ok {
		return s
	}
	return fmt.Sprintf("Unknown TxType (%d)", uint16(t))
}

// IsKnown returns whether or not the transaction type is one of the defined
// types.
func (t TxType) IsKnown() bool {
	_, ok := txTypeStrings[t]
	return ok
}

// Transaction is a transaction that may carry a typed extra payload.  The
// version and type share a single 32-bit field in the serialization with the
// version in the low 16 bits.
type Transaction struct {
	Version      int16
	Type         TxType
	TxIn         []*wire.TxIn
	TxOut        []*wire.TxOut
	LockTime     uint32
	ExtraPayload []byte
}

// NewTransaction returns a new transaction with the provided version and type
// and no inputs or outputs.
func NewTransaction(version int16, txType TxType) *Transaction {
	return &Transaction{Version: version, Type: txType}
}

// AddTxIn adds a transaction input to the transaction.
func (tx *Transaction) AddTxIn(ti *wire.TxIn) {
	tx.TxIn = append(tx.TxIn, ti)
}

// AddTxOut adds a transaction output to the transaction.
func (tx *Transaction) AddTxOut(to *wire.TxOut) {
	tx.TxOut = append(tx.TxOut, to)
}

// HasExtraPayload returns whether or not the transaction serializes an extra
// payload.
func (tx *Transaction) HasExtraPayload() bool {
	return tx.Version >= SpecialTxVersion && tx.Type != TxTypeNormal
}

// Copy creates a deep copy of a transaction so that the original does not get
// modified when the copy is manipulated.
func (tx *Transaction) Copy() *Transaction {
	newTx := Transaction{
		Version:  tx.Version,
		Type:     tx.Type,
		TxIn:     make([]*wire.TxIn, 0, len(tx.TxIn)),
		TxOut:    make([]*wire.TxOut, 0, len(tx.TxOut)),
		LockTime: tx.LockTime,
	}
	for _, oldTxIn := range tx.TxIn {
		newTxIn := wire.TxIn{
			PreviousOutPoint: oldTxIn.PreviousOutPoint,
			SignatureScript:  bytes.Clone(oldTxIn.SignatureScript),
			Sequence:         oldTxIn.Sequence,
		}
		newTx.TxIn = append(newTx.TxIn, &newTxIn)
	}
	for _, oldTxOut := range tx.TxOut {
		newTx.TxOut = append(newTx.TxOut, wire.NewTxOut(oldTxOut.Value,
			bytes.Clone(oldTxOut.PkScript)))
	}
	if tx.ExtraPayload != nil {
		newTx.ExtraPayload = bytes.Clone(tx.ExtraPayload)
	}
	return &newTx
}

// writeTxIn encodes a transaction input to w.
func writeTxIn(w io.Writer, ti *wire.TxIn) error {
	op := &ti.PreviousOutPoint
	if _, err := w.Write(op.Hash[:]); err != nil {
		return err
	}
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], op.Index)
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}
	err := wire.WriteVarBytes(w, protocolVersion, ti.SignatureScript)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(buf[:], ti.Sequence)
	_, err = w.Write(buf[:])
	return err
}

// readTxIn decodes a transaction input from r.
func readTxIn(r io.Reader, ti *wire.TxIn) error {
	op := &ti.PreviousOutPoint
	if _, err := io.ReadFull(r, op.Hash[:]); err != nil {
		return err
	}
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	op.Index = binary.LittleEndian.Uint32(buf[:])
	script, err := wire.ReadVarBytes(r, protocolVersion, maxScriptSize,
		"signature script")
	if err != nil {
		return err
	}
	ti.SignatureScript = script
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	ti.Sequence = binary.LittleEndian.Uint32(buf[:])
	return nil
}

// writeTxOut encodes a transaction output to w.
func writeTxOut(w io.Writer, to *wire.TxOut) error {
	return wire.WriteTxOut(w, protocolVersion, 0, to)
}

// readTxOut decodes a transaction output from r.
func readTxOut(r io.Reader, to *wire.TxOut) error {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	to.Value = int64(binary.LittleEndian.Uint64(buf[:]))
	script, err := wire.ReadVarBytes(r, protocolVersion, maxScriptSize,
		"public key script")
	if err != nil {
		return err
	}
	to.PkScript = script
	return nil
}

// readCount reads a variable length count and ensures it does not exceed the
// provided maximum.
func readCount(r io.Reader, max uint64, fieldName string) (uint64, error) {
	count, err := wire.ReadVarInt(r, protocolVersion)
	if err != nil {
		return 0, err
	}
	if count > max {
		return 0, fmt.Errorf("too many %s to fit into max message size "+
			"[count %d, max %d]", fieldName, count, max)
	}
	return count, nil
}

// Serialize encodes the transaction to w.
func (tx *Transaction) Serialize(w io.Writer) error {
	var buf [4]byte
	version := uint32(uint16(tx.Version)) | uint32(tx.Type)<<16
	binary.LittleEndian.PutUint32(buf[:], version)
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}

	err := wire.WriteVarInt(w, protocolVersion, uint64(len(tx.TxIn)))
	if err != nil {
		return err
	}
	for _, ti := range tx.TxIn {
		if err := writeTxIn(w, ti); err != nil {
			return err
		}
	}

	err = wire.WriteVarInt(w, protocolVersion, uint64(len(tx.TxOut)))
	if err != nil {
		return err
	}
	for _, to := range tx.TxOut {
		if err := writeTxOut(w, to); err != nil {
			return err
		}
	}

	binary.LittleEndian.PutUint32(buf[:], tx.LockTime)
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}

	if tx.HasExtraPayload() {
		return wire.WriteVarBytes(w, protocolVersion, tx.ExtraPayload)
	}
	return nil
}

// Deserialize decodes a transaction from r into the receiver.
func (tx *Transaction) Deserialize(r io.Reader) error {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	version := binary.LittleEndian.Uint32(buf[:])
	tx.Version = int16(version & 0xffff)
	tx.Type = TxType(version >> 16)

	count, err := readCount(r, maxTxIOPerTx, "transaction inputs")
	if err != nil {
		return err
	}
	tx.TxIn = make([]*wire.TxIn, count)
	for i := uint64(0); i < count; i++ {
		var ti wire.TxIn
		if err := readTxIn(r, &ti); err != nil {
			return err
		}
		tx.TxIn[i] = &ti
	}

	count, err = readCount(r, maxTxIOPerTx, "transaction outputs")
	if err != nil {
		return err
	}
	tx.TxOut = make([]*wire.TxOut, count)
	for i := uint64(0); i < count; i++ {
		var to wire.TxOut
		if err := readTxOut(r, &to); err != nil {
			return err
		}
		tx.TxOut[i] = &to
	}

	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	tx.LockTime = binary.LittleEndian.Uint32(buf[:])

	tx.ExtraPayload = nil
	if tx.HasExtraPayload() {
		payload, err := wire.ReadVarBytes(r, protocolVersion, MaxPayloadSize,
			"extra payload")
		if err != nil {
			return err
		}
		tx.ExtraPayload = payload
	}
	return nil
}

// Bytes returns the serialized transaction.
func (tx *Transaction) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TxHash generates the hash for the transaction.
func (tx *Transaction) TxHash() chainhash.Hash {
	// Writing to a bytes.Buffer never fails, so the error is ignored.
	var buf bytes.Buffer
	_ = tx.Serialize(&buf)
	return chainhash.DoubleHashH(buf.Bytes())
}

// NewTransactionFromBytes returns a transaction decoded from the provided
// serialized bytes.  All of the bytes must be consumed.
func NewTransactionFromBytes(serialized []byte) (*Transaction, error) {
	r := bytes.NewReader(serialized)
	var tx Transaction
	if err := tx.Deserialize(r); err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes after transaction", r.Len())
	}
	return &tx, nil
}
