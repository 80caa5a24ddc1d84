// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package evo

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	"github.com/6zip-project/dash/internal/bls"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const (
	// AssetUnlockCurrentVersion is the most recent asset unlock payload
	// version.
	AssetUnlockCurrentVersion = 1

	// MaxWithdrawals is the maximum number of outputs of an asset unlock
	// transaction.
	MaxWithdrawals = 32

	// AssetUnlockExpiryHeight is the number of blocks after the requested
	// height during which an asset unlock may be mined.
	AssetUnlockExpiryHeight = 48

	// assetUnlockRequestIDPrefix is prepended to the decimal index of an
	// asset unlock to form the signing request identifier.
	assetUnlockRequestIDPrefix = "plwdtx"

	// assetUnlockPayloadSize is the serialized size of an asset unlock
	// payload.
	assetUnlockPayloadSize = 2 + 8 + 4 + 4 + chainhash.HashSize +
		bls.SignatureSize
)

// AssetUnlockPayload is the payload of an asset unlock transaction.  It
// authorizes a withdrawal from the credit pool with a quorum signature.
type AssetUnlockPayload struct {
	Version         uint16
	Index           uint64
	Fee             uint32
	RequestedHeight uint32
	QuorumHash      chainhash.Hash
	QuorumSig       bls.Signature
}

// Serialize encodes the payload to w.
func (p *AssetUnlockPayload) Serialize(w io.Writer) error {
	var buf [assetUnlockPayloadSize]byte
	offset := 0
	binary.LittleEndian.PutUint16(buf[offset:], p.Version)
	offset += 2
	binary.LittleEndian.PutUint64(buf[offset:], p.Index)
	offset += 8
	binary.LittleEndian.PutUint32(buf[offset:], p.Fee)
	offset += 4
	binary.LittleEndian.PutUint32(buf[offset:], p.RequestedHeight)
	offset += 4
	offset += copy(buf[offset:], p.QuorumHash[:])
	copy(buf[offset:], p.QuorumSig[:])
	_, err := w.Write(buf[:])
	return err
}

// Bytes returns the serialized payload.
func (p *AssetUnlockPayload) Bytes() []byte {
	// Writing to a bytes.Buffer never fails, so the error is ignored.
	var buf bytes.Buffer
	_ = p.Serialize(&buf)
	return buf.Bytes()
}

// decode decodes the payload from r.
func (p *AssetUnlockPayload) decode(r *bytes.Reader) error {
	var buf [assetUnlockPayloadSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	offset := 0
	p.Version = binary.LittleEndian.Uint16(buf[offset:])
	offset += 2
	p.Index = binary.LittleEndian.Uint64(buf[offset:])
	offset += 8
	p.Fee = binary.LittleEndian.Uint32(buf[offset:])
	offset += 4
	p.RequestedHeight = binary.LittleEndian.Uint32(buf[offset:])
	offset += 4
	offset += copy(p.QuorumHash[:], buf[offset:])
	copy(p.QuorumSig[:], buf[offset:])
	return nil
}

// HeightToExpiry returns the first tip height at which the asset unlock may
// no longer be mined.
func (p *AssetUnlockPayload) HeightToExpiry() int64 {
	return int64(p.RequestedHeight) + AssetUnlockExpiryHeight
}

// RequestID returns the identifier of the signing request for the asset
// unlock.  It binds the quorum signature to the index of the withdrawal.
func (p *AssetUnlockPayload) RequestID() chainhash.Hash {
	id := assetUnlockRequestIDPrefix + strconv.FormatUint(p.Index, 10)
	return chainhash.HashH([]byte(id))
}

// String returns the payload in human-readable form.
func (p *AssetUnlockPayload) String() string {
	const atomsPerCoin = uint32(btcutil.SatoshiPerBitcoin)
	return fmt.Sprintf("AssetUnlockPayload(version=%d, index=%d, "+
		"fee=%d.%08d, requestedHeight=%d, quorumHash=%v, quorumSig=%v)",
		p.Version, p.Index, p.Fee/atomsPerCoin, p.Fee%atomsPerCoin,
		p.RequestedHeight, p.QuorumHash, p.QuorumSig)
}

// CalcAssetUnlockMsgHash returns the hash that the quorum signs to authorize
// the provided asset unlock transaction.  It is the hash of a copy of the
// transaction whose payload carries an empty signature, so it is identical
// whether computed before or after the signature is attached.
func CalcAssetUnlockMsgHash(tx *Transaction, payload *AssetUnlockPayload) chainhash.Hash {
	unsigned := *payload
	unsigned.QuorumSig = bls.Signature{}

	txCopy := tx.Copy()
	txCopy.ExtraPayload = unsigned.Bytes()
	return txCopy.TxHash()
}
