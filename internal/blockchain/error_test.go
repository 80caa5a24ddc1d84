// Copyright (c) 2014 The btcsuite developers
// Copyright (c) 2015-2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"errors"
	"io"
	"testing"

	"github.com/6zip-project/dash/internal/evo"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// TestErrorKindStringer tests the stringized output for the ErrorKind type.
func TestErrorKindStringer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   ErrorKind
		want string
	}{
		{ErrDuplicateBlock, "ErrDuplicateBlock"},
		{ErrMissingParent, "ErrMissingParent"},
		{ErrKnownInvalidBlock, "ErrKnownInvalidBlock"},
		{ErrInvalidAncestorBlock, "ErrInvalidAncestorBlock"},
		{ErrTimeTooOld, "ErrTimeTooOld"},
		{ErrUnexpectedDifficulty, "ErrUnexpectedDifficulty"},
		{ErrBadDifficultyTransition, "ErrBadDifficultyTransition"},
		{ErrHighHash, "ErrHighHash"},
		{ErrNotTipExtension, "ErrNotTipExtension"},
		{ErrBadSpecialTx, "ErrBadSpecialTx"},
		{ErrBadCreditPool, "ErrBadCreditPool"},
		{ErrNoTipToDisconnect, "ErrNoTipToDisconnect"},
		{ErrUnknownBlock, "ErrUnknownBlock"},
	}

	for i, test := range tests {
		result := test.in.Error()
		if result != test.want {
			t.Errorf("#%d: got: %s want: %s", i, result, test.want)
			continue
		}
	}
}

// TestRuleErrorIsAs ensures a RuleError prints its description and can be
// identified as its specific error kind as well as the converted error it
// carries via errors.Is and errors.As.
func TestRuleErrorIsAs(t *testing.T) {
	t.Parallel()

	unlockErr := evo.RuleError{
		Err:         evo.ErrAssetUnlockTooLate,
		Description: "too late",
	}
	specialTxErr := RuleError{
		Err:         ErrBadSpecialTx,
		Description: "bad special transaction",
		RawErr:      unlockErr,
	}

	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
		wantAs    ErrorKind
	}{{
		name:      "RuleError.ErrHighHash == ErrHighHash",
		err:       ruleError(ErrHighHash, "high hash"),
		target:    ErrHighHash,
		wantMatch: true,
		wantAs:    ErrHighHash,
	}, {
		name:      "RuleError.ErrHighHash != ErrTimeTooOld",
		err:       ruleError(ErrHighHash, "high hash"),
		target:    ErrTimeTooOld,
		wantMatch: false,
		wantAs:    ErrHighHash,
	}, {
		name:      "RuleError.ErrBadSpecialTx == ErrBadSpecialTx",
		err:       specialTxErr,
		target:    ErrBadSpecialTx,
		wantMatch: true,
		wantAs:    ErrBadSpecialTx,
	}, {
		name:      "RuleError.ErrBadSpecialTx == evo.ErrAssetUnlockTooLate",
		err:       specialTxErr,
		target:    evo.ErrAssetUnlockTooLate,
		wantMatch: true,
		wantAs:    ErrBadSpecialTx,
	}, {
		name:      "RuleError.ErrBadSpecialTx != evo.ErrAssetUnlockNotVerified",
		err:       specialTxErr,
		target:    evo.ErrAssetUnlockNotVerified,
		wantMatch: false,
		wantAs:    ErrBadSpecialTx,
	}, {
		name:      "RuleError.ErrBadSpecialTx != io.EOF",
		err:       specialTxErr,
		target:    io.EOF,
		wantMatch: false,
		wantAs:    ErrBadSpecialTx,
	}}

	for _, test := range tests {
		result := errors.Is(test.err, test.target)
		if result != test.wantMatch {
			t.Errorf("%s: incorrect error identification -- got %v, want %v",
				test.name, result, test.wantMatch)
			continue
		}

		var rErr RuleError
		if !errors.As(test.err, &rErr) || rErr.Error() != rErr.Description {
			t.Errorf("%s: unable to unwrap to rule error", test.name)
			continue
		}

		var kind ErrorKind
		if !errors.As(test.err, &kind) {
			t.Errorf("%s: unable to unwrap to error kind", test.name)
			continue
		}
		if kind != test.wantAs {
			t.Errorf("%s: unexpected unwrapped error kind -- got %v, want %v",
				test.name, kind, test.wantAs)
			continue
		}
	}

	// The special transaction rule error and its kind are reachable through
	// the raw error.
	var evoErr evo.RuleError
	if !errors.As(specialTxErr, &evoErr) || evoErr != unlockErr {
		t.Fatalf("unable to unwrap to the raw rule error: %v", evoErr)
	}
	var evoKind evo.ErrorKind
	if !errors.As(specialTxErr, &evoKind) || evoKind != evo.ErrAssetUnlockTooLate {
		t.Fatalf("unexpected raw error kind %v", evoKind)
	}
	if got := evoErr.RejectCode(); got != "bad-assetunlock-too-late" {
		t.Fatalf("mismatched reject code %q", got)
	}
	if got := evoErr.Class(); got != evo.ClassConsensus {
		t.Fatalf("mismatched class %v", got)
	}
}

// TestContextError ensures context errors are identified as their kind and
// assertion errors are distinguished from rule violations.
func TestContextError(t *testing.T) {
	t.Parallel()

	hash := chainhash.HashH([]byte("unknown"))
	err := unknownBlockError(&hash)
	if !errors.Is(err, ErrUnknownBlock) {
		t.Fatalf("mismatched err -- got %v, want %v", err, ErrUnknownBlock)
	}
	if err.Error() != "block "+hash.String()+" is not known" {
		t.Fatalf("mismatched description %q", err.Error())
	}
	var rErr RuleError
	if errors.As(err, &rErr) {
		t.Fatal("context error unwrapped to a rule error")
	}

	aErr := AssertError("broken invariant")
	if aErr.Error() != "assertion failed: broken invariant" {
		t.Fatalf("mismatched assertion message %q", aErr.Error())
	}
	if errors.As(error(aErr), &rErr) {
		t.Fatal("assertion error unwrapped to a rule error")
	}
}
