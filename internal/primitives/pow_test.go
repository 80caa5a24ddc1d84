// Copyright (c) 2021-2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package primitives

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/decred/dcrd/math/uint256"
)

// hexToBytes converts the passed hex string into bytes and will panic if there
// is an error.  This is only provided for the hard-coded constants so errors in
// the source code can be detected. It will only (and must only) be called with
// hard-coded values.
func hexToBytes(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic("invalid hex in source file: " + s)
	}
	return b
}

// hexToUint256 converts the passed hex string into a Uint256 and will panic if
// there is an error.  This is only provided for the hard-coded constants so
// errors in the source code can be detected. It will only (and must only) be
// called with hard-coded values.
func hexToUint256(s string) *uint256.Uint256 {
	if len(s)%2 != 0 {
		s = "0" + s
	}
	b := hexToBytes(s)
	if len(b) > 32 {
		panic("hex in source file overflows mod 2^256: " + s)
	}
	return new(uint256.Uint256).SetByteSlice(b)
}

// hexToHash converts the passed big-endian hex string into a hash and will
// panic if there is an error.
func hexToHash(s string) *chainhash.Hash {
	hash, err := chainhash.NewHashFromStr(s)
	if err != nil {
		panic("invalid hash in source file: " + s)
	}
	return hash
}

// TestDiffBitsToUint256 ensures converting from the compact representation used
// for target difficulties to unsigned 256-bit integers produces the correct
// results including the legacy negative and overflow flags.
func TestDiffBitsToUint256(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string // test description
		input     uint32 // compact target difficulty bits to test
		want      string // expected uint256
		neg       bool   // expect result to be a negative number
		overflows bool   // expect result to overflow
	}{{
		name:  "mainnet pow limit",
		input: 0x1e0fffff,
		want:  "00000fffff000000000000000000000000000000000000000000000000000000",
	}, {
		name:  "regtest pow limit",
		input: 0x207fffff,
		want:  "7fffff0000000000000000000000000000000000000000000000000000000000",
	}, {
		name:  "higher diff (exponent 24, sign bit 0, mantissa 0x5fb28a)",
		input: 0x185fb28a,
		want:  "00000000000000005fb28a000000000000000000000000000000000000000000",
	}, {
		name:  "zero",
		input: 0,
		want:  "00",
	}, {
		name:  "-1 (exponent 1, sign bit 1, mantissa 0x10000)",
		input: 0x1810000,
		want:  "01",
		neg:   true,
	}, {
		name:  "-128 (exponent 2, sign bit 1, mantissa 0x08000)",
		input: 0x2808000,
		want:  "80",
		neg:   true,
	}, {
		name:  "-8388608 (exponent 4, sign bit 1, mantissa 0x08000)",
		input: 0x4808000,
		want:  "800000",
		neg:   true,
	}, {
		name:  "sign bit with mantissa shifted out is not negative",
		input: 0x01803456,
		want:  "00",
		neg:   false,
	}, {
		name:  "sign bit with zero mantissa is not negative",
		input: 0x1d800000,
		want:  "00",
		neg:   false,
	}, {
		name:      "max uint256 + 1 via exponent 33 (overflows)",
		input:     0x21010000,
		want:      "00",
		overflows: true,
	}, {
		name:      "negative max uint256 + 1 (negative and overflows)",
		input:     0x21810000,
		want:      "00",
		neg:       true,
		overflows: true,
	}, {
		name:      "max uint256 + 1 via exponent 34 (overflows)",
		input:     0x22000100,
		want:      "00",
		overflows: true,
	}, {
		name:      "max uint256 + 1 via exponent 35 (overflows)",
		input:     0x23000001,
		want:      "00",
		overflows: true,
	}, {
		name:  "largest exponent 34 value does not overflow",
		input: 0x220000ff,
		want:  "ff00000000000000000000000000000000000000000000000000000000000000",
	}}

	for _, test := range tests {
		want := hexToUint256(test.want)

		result, isNegative, overflows := DiffBitsToUint256(test.input)
		if !result.Eq(want) {
			t.Errorf("%q: mismatched result -- got %x, want %x", test.name,
				&result, want)
			continue
		}
		if isNegative != test.neg {
			t.Errorf("%q: mismatched negative -- got %v, want %v", test.name,
				isNegative, test.neg)
			continue
		}
		if overflows != test.overflows {
			t.Errorf("%q: mismatched overflows -- got %v, want %v", test.name,
				overflows, test.overflows)
			continue
		}
	}
}

// TestUint256ToDiffBits ensures converting from unsigned 256-bit integers to
// the representation used for target difficulties in the header bits field
// produces the correct results.
func TestUint256ToDiffBits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string // test description
		input string // uint256 to test
		neg   bool   // treat as a negative number
		want  uint32 // expected encoded value
	}{{
		name:  "mainnet pow limit",
		input: "00000fffffffffffffffffffffffffffffffffffffffffffffffffffffffffff",
		want:  0x1e0fffff,
	}, {
		name:  "regtest pow limit",
		input: "7fffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff",
		want:  0x207fffff,
	}, {
		name:  "mantissa with high bit set moves to next exponent",
		input: "0000000000000000000000000000000000000000000000000000000000800000",
		want:  0x04008000,
	}, {
		name:  "higher diff (exponent 24, sign bit 0, mantissa 0x5fb28a)",
		input: "00000000000000005fb28a000000000000000000000000000000000000000000",
		want:  0x185fb28a,
	}, {
		name:  "zero",
		input: "00",
		want:  0,
	}, {
		name:  "negative zero is zero",
		input: "00",
		neg:   true,
		want:  0,
	}, {
		name:  "-1 (exponent 1, sign bit 1, mantissa 0x10000)",
		input: "01",
		neg:   true,
		want:  0x1810000,
	}, {
		name:  "-32768 (exponent 3, sign bit 1, mantissa 0x08000)",
		input: "8000",
		neg:   true,
		want:  0x3808000,
	}}

	for _, test := range tests {
		input := hexToUint256(test.input)

		var result uint32
		if test.neg {
			result = uint256ToDiffBits(input, true)
		} else {
			result = Uint256ToDiffBits(input)
		}
		if result != test.want {
			t.Errorf("%q: mismatched result -- got %x, want %x", test.name,
				result, test.want)
			continue
		}
	}
}

// TestDiffBitsRoundTripFixedPoint ensures re-encoding a value through the lossy
// compact form reaches a fixed point after the first application.
func TestDiffBitsRoundTripFixedPoint(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"01",
		"ff",
		"123456789abcdef0",
		"00000fffffffffffffffffffffffffffffffffffffffffffffffffffffffffff",
		"0000000000000000000000000000000000000000000000000000000000800001",
		"00000000000000005fb28a123456789abcdef0000000000000000000000000ff",
		"7fffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff",
		"ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff",
	}

	for _, input := range inputs {
		n := hexToUint256(input)
		first := Uint256ToDiffBits(n)
		decoded, _, _ := DiffBitsToUint256(first)
		second := Uint256ToDiffBits(&decoded)
		if first != second {
			t.Errorf("%s: compact encoding is not idempotent -- got %08x, "+
				"want %08x", input, second, first)
			continue
		}

		rounded := RoundTripDiffBits(n)
		if !rounded.Eq(&decoded) {
			t.Errorf("%s: mismatched round trip -- got %x, want %x", input,
				&rounded, &decoded)
		}
	}
}

// TestCalcWork ensures calculating a work value from a compact target
// difficulty produces the correct results.
func TestCalcWork(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string // test description
		input uint32 // target difficulty bits to test
		want  string // expected uint256
	}{{
		name:  "exponent 27 target",
		input: 0x1b01ffff,
		want:  "0000000000000000000000000000000000000000000000000000800040002000",
	}, {
		name:  "higher diff (exponent 24)",
		input: 0x185fb28a,
		want:  "000000000000000000000000000000000000000000000002acd33ddd458512da",
	}, {
		name:  "zero",
		input: 0,
		want:  "00",
	}, {
		name:  "max uint256",
		input: 0x2100ffff,
		want:  "01",
	}, {
		name:  "negative target difficulty",
		input: 0x1810000,
		want:  "00",
	}}

	for _, test := range tests {
		want := hexToUint256(test.want)
		result := CalcWork(test.input)
		if !result.Eq(want) {
			t.Errorf("%q: mismatched result -- got %x, want %x", test.name,
				&result, want)
			continue
		}
	}
}

// TestHashToUint256 ensures converting a hash treated as a little endian
// unsigned 256-bit value to a uint256 works as intended.
func TestHashToUint256(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string // test description
		hash string // hash to convert
		want string // expected uint256 bytes in hex
	}{{
		name: "leading zeros",
		hash: "000000000000437482b6d47f82f374cde539440ddb108b0a76886f0d87d126b9",
		want: "000000000000437482b6d47f82f374cde539440ddb108b0a76886f0d87d126b9",
	}, {
		name: "no leading zeros",
		hash: "f0000000000c41019872ff7db8fd2e9bfa05f42d3f8fee8e895e8c1e5b8dcba0",
		want: "f0000000000c41019872ff7db8fd2e9bfa05f42d3f8fee8e895e8c1e5b8dcba0",
	}}

	for _, test := range tests {
		want := hexToUint256(test.want)
		result := HashToUint256(hexToHash(test.hash))
		if !result.Eq(want) {
			t.Errorf("%s: unexpected result -- got %x, want %x", test.name,
				&result, want)
			continue
		}
	}
}

// TestCheckProofOfWork ensures hashes and target difficulty bits are accepted
// or rejected with the expected error kinds.
func TestCheckProofOfWork(t *testing.T) {
	t.Parallel()

	powLimit := hexToUint256("00000fffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")

	tests := []struct {
		name string    // test description
		hash string    // proof of work hash
		bits uint32    // target difficulty bits
		err  ErrorKind // expected error kind, empty if none
	}{{
		name: "hash well below target",
		hash: "0000000000000000000000000000000000000000000000000000000000000001",
		bits: 0x1d00ffff,
	}, {
		name: "hash exactly equal to target",
		hash: "00000000ffff0000000000000000000000000000000000000000000000000000",
		bits: 0x1d00ffff,
	}, {
		name: "hash one above target",
		hash: "00000000ffff0000000000000000000000000000000000000000000000000001",
		bits: 0x1d00ffff,
		err:  ErrHighHash,
	}, {
		name: "target equal to pow limit",
		hash: "00000fffff000000000000000000000000000000000000000000000000000000",
		bits: 0x1e0fffff,
	}, {
		name: "target above pow limit",
		hash: "0000000000000000000000000000000000000000000000000000000000000001",
		bits: 0x1e100000,
		err:  ErrUnexpectedDifficulty,
	}, {
		name: "negative target",
		hash: "0000000000000000000000000000000000000000000000000000000000000000",
		bits: 0x1d80ffff,
		err:  ErrUnexpectedDifficulty,
	}, {
		name: "zero target",
		hash: "0000000000000000000000000000000000000000000000000000000000000000",
		bits: 0x1d000000,
		err:  ErrUnexpectedDifficulty,
	}, {
		name: "overflowing target",
		hash: "0000000000000000000000000000000000000000000000000000000000000000",
		bits: 0x23000001,
		err:  ErrUnexpectedDifficulty,
	}}

	// checkErr returns whether the provided error matches the expected error
	// kind, where an empty kind means no error.
	checkErr := func(err error, want ErrorKind) bool {
		if want == "" {
			return err == nil
		}
		return errors.Is(err, want)
	}

	for _, test := range tests {
		hash := hexToHash(test.hash)
		err := CheckProofOfWork(hash, test.bits, powLimit)
		if !checkErr(err, test.err) {
			t.Errorf("%q: mismatched error -- got %v, want %v", test.name, err,
				test.err)
			continue
		}
		if valid := IsValidProofOfWork(hash, test.bits, powLimit); valid != (test.err == "") {
			t.Errorf("%q: mismatched validity -- got %v", test.name, valid)
		}

		// The range check only rejects the target difficulty.
		wantRangeErr := test.err
		if wantRangeErr == ErrHighHash {
			wantRangeErr = ""
		}
		rangeErr := CheckProofOfWorkRange(test.bits, powLimit)
		if !checkErr(rangeErr, wantRangeErr) {
			t.Errorf("%q: mismatched range error -- got %v, want %v",
				test.name, rangeErr, wantRangeErr)
		}
	}
}
