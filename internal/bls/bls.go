// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bls

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

const (
	// PublicKeySize is the size of a compressed public key.
	PublicKeySize = 48

	// SignatureSize is the size of a compressed signature.
	SignatureSize = 96
)

// signatureDST is the domain separation tag of the basic signature scheme
// with signatures in G2.
var signatureDST = []byte("BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_NUL_")

// ErrInvalidLength indicates an encoded key or signature of the wrong size.
var ErrInvalidLength = errors.New("invalid length")

// PublicKey is a compressed BLS12-381 public key in G1.
type PublicKey [PublicKeySize]byte

// String returns the public key as a hex string.
func (pk PublicKey) String() string {
	return hex.EncodeToString(pk[:])
}

// PublicKeyFromBytes returns the public key encoded by the provided bytes.  The
// encoding is not checked to be a valid curve point until it is used.
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	var pk PublicKey
	if len(b) != PublicKeySize {
		return pk, fmt.Errorf("%w: public key is %d bytes instead of %d",
			ErrInvalidLength, len(b), PublicKeySize)
	}
	copy(pk[:], b)
	return pk, nil
}

// Signature is a compressed BLS12-381 signature in G2.  The zero value is the
// empty signature which never verifies.
type Signature [SignatureSize]byte

// String returns the signature as a hex string.
func (sig Signature) String() string {
	return hex.EncodeToString(sig[:])
}

// IsZero returns whether the signature is the empty signature.
func (sig *Signature) IsZero() bool {
	return *sig == Signature{}
}

// SignatureFromBytes returns the signature encoded by the provided bytes.
func SignatureFromBytes(b []byte) (Signature, error) {
	var sig Signature
	if len(b) != SignatureSize {
		return sig, fmt.Errorf("%w: signature is %d bytes instead of %d",
			ErrInvalidLength, len(b), SignatureSize)
	}
	copy(sig[:], b)
	return sig, nil
}

// VerifyInsecure returns whether the provided signature is a valid signature
// of the provided hash by the provided public key.  No proof of possession of
// the key is required, so the caller must only use keys that are known to be
// trustworthy, such as quorum public keys committed to by the chain.
func VerifyInsecure(pk *PublicKey, hash *chainhash.Hash, sig *Signature) bool {
	if sig.IsZero() {
		return false
	}

	var pkPoint bls12381.G1Affine
	if _, err := pkPoint.SetBytes(pk[:]); err != nil || pkPoint.IsInfinity() {
		return false
	}
	var sigPoint bls12381.G2Affine
	if _, err := sigPoint.SetBytes(sig[:]); err != nil {
		return false
	}
	msgPoint, err := bls12381.HashToG2(hash[:], signatureDST)
	if err != nil {
		return false
	}

	// e(pk, H(m)) == e(g1, sig)  <=>  e(pk, H(m)) * e(-g1, sig) == 1
	_, _, g1, _ := bls12381.Generators()
	var negG1 bls12381.G1Affine
	negG1.Neg(&g1)
	ok, err := bls12381.PairingCheck(
		[]bls12381.G1Affine{pkPoint, negG1},
		[]bls12381.G2Affine{msgPoint, sigPoint})
	return err == nil && ok
}

// SecretKey is a BLS12-381 secret scalar.
type SecretKey struct {
	scalar big.Int
}

// secretKeyFromBytes returns the secret key obtained by reducing the provided
// big-endian bytes modulo the group order.  A zero result is mapped to one.
func secretKeyFromBytes(b []byte) *SecretKey {
	var sk SecretKey
	sk.scalar.SetBytes(b)
	sk.scalar.Mod(&sk.scalar, fr.Modulus())
	if sk.scalar.Sign() == 0 {
		sk.scalar.SetInt64(1)
	}
	return &sk
}

// SecretKeyFromSeed deterministically derives a secret key from the provided
// seed.  It is intended for tests and tooling.
func SecretKeyFromSeed(seed []byte) *SecretKey {
	return secretKeyFromBytes(chainhash.HashB(seed))
}

// PublicKey returns the public key of the secret key.
func (sk *SecretKey) PublicKey() PublicKey {
	_, _, g1, _ := bls12381.Generators()
	var pkPoint bls12381.G1Affine
	pkPoint.ScalarMultiplication(&g1, &sk.scalar)
	return PublicKey(pkPoint.Bytes())
}

// Sign returns the signature of the provided hash.
func (sk *SecretKey) Sign(hash *chainhash.Hash) (Signature, error) {
	msgPoint, err := bls12381.HashToG2(hash[:], signatureDST)
	if err != nil {
		return Signature{}, err
	}
	var sigPoint bls12381.G2Affine
	sigPoint.ScalarMultiplication(&msgPoint, &sk.scalar)
	return Signature(sigPoint.Bytes()), nil
}
