// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package evo

// AssertError identifies an error that indicates an internal code consistency
// issue and should be treated as a critical and unrecoverable error.
type AssertError string

// Error returns the assertion error as a human-readable string and satisfies
// the error interface.
func (e AssertError) Error() string {
	return "assertion failed: " + string(e)
}

// ErrorClass groups error kinds by the nature of the violation.
type ErrorClass int

// These constants identify the supported error classes.
const (
	// ClassInternal identifies errors that are not rule violations, such as
	// failures of the credit pool store.
	ClassInternal ErrorClass = iota

	// ClassMalformed identifies transactions that are structurally invalid:
	// a missing or undecodable payload, a wrong special type, or outputs
	// that do not have the required form.
	ClassMalformed

	// ClassPolicy identifies transactions that are well formed but violate
	// a fixed limit, such as an unsupported version, an amount mismatch, or
	// too many outputs.
	ClassPolicy

	// ClassConsensus identifies transactions that are invalid with respect
	// to the current chain state, such as a reused index, an inactive or
	// unknown quorum, an expired request, or a bad signature.  The verdict
	// may differ when evaluated against a different tip.
	ClassConsensus
)

// String returns the ErrorClass as a human-readable name.
func (c ErrorClass) String() string {
	switch c {
	case ClassMalformed:
		return "malformed"
	case ClassPolicy:
		return "policy"
	case ClassConsensus:
		return "consensus"
	}
	return "internal"
}

// ErrorKind identifies a kind of error.  It has full support for errors.Is and
// errors.As, so the caller can directly check against an error kind when
// determining the reason for an error.
//
// The values of the kinds that identify rule violations are the short reject
// codes reported to peers and must not change.
type ErrorKind string

// These constants are used to identify a specific ErrorKind.
const (
	// ErrNotAssetLockOrUnlock indicates a transaction that is neither an
	// asset lock nor an asset unlock was passed to a function that only
	// handles those types.
	ErrNotAssetLockOrUnlock = ErrorKind("bad-not-asset-locks-at-all")

	// ErrBadTxType indicates a special transaction type that is not known.
	ErrBadTxType = ErrorKind("bad-tx-type-check")

	// ErrAssetLockType indicates an asset lock was checked with a
	// transaction that is not of the asset lock type.
	ErrAssetLockType = ErrorKind("bad-assetlocktx-type")

	// ErrAssetLockNonEmptyReturn indicates a burn output script carries
	// data beyond an empty push.
	ErrAssetLockNonEmptyReturn = ErrorKind("bad-assetlocktx-non-empty-return")

	// ErrAssetLockZeroOutReturn indicates a burn output does not burn a
	// positive amount.
	ErrAssetLockZeroOutReturn = ErrorKind("bad-assetlocktx-zeroout-return")

	// ErrAssetLockMultipleReturn indicates an asset lock has more than one
	// burn output.
	ErrAssetLockMultipleReturn = ErrorKind("bad-assetlocktx-multiple-return")

	// ErrAssetLockNoReturn indicates an asset lock has no burn output.
	ErrAssetLockNoReturn = ErrorKind("bad-assetlocktx-no-return")

	// ErrAssetLockPayload indicates the asset lock payload could not be
	// decoded.
	ErrAssetLockPayload = ErrorKind("bad-assetlocktx-payload")

	// ErrAssetLockVersion indicates an unsupported asset lock payload
	// version.
	ErrAssetLockVersion = ErrorKind("bad-assetlocktx-version")

	// ErrAssetLockLockType indicates an unsupported asset lock type.
	ErrAssetLockLockType = ErrorKind("bad-assetlocktx-locktype")

	// ErrAssetLockEmptyCreditOutputs indicates an asset lock with no credit
	// outputs.
	ErrAssetLockEmptyCreditOutputs = ErrorKind("bad-assetlocktx-emptycreditoutputs")

	// ErrAssetLockPubKeyHash indicates a credit output that does not pay to
	// a public key hash.
	ErrAssetLockPubKeyHash = ErrorKind("bad-assetlocktx-pubKeyHash")

	// ErrAssetLockCreditAmount indicates the credit outputs do not sum to
	// exactly the burned amount.
	ErrAssetLockCreditAmount = ErrorKind("bad-assetlocktx-creditamount")

	// ErrAssetUnlockType indicates an asset unlock was checked with a
	// transaction that is not of the asset unlock type.
	ErrAssetUnlockType = ErrorKind("bad-assetunlocktx-type")

	// ErrAssetUnlockHaveInput indicates an asset unlock that spends inputs.
	ErrAssetUnlockHaveInput = ErrorKind("bad-assetunlocktx-have-input")

	// ErrAssetUnlockTooManyOuts indicates an asset unlock with more than
	// MaxWithdrawals outputs.
	ErrAssetUnlockTooManyOuts = ErrorKind("bad-assetunlocktx-too-many-outs")

	// ErrAssetUnlockPayload indicates the asset unlock payload could not be
	// decoded.
	ErrAssetUnlockPayload = ErrorKind("bad-assetunlocktx-payload")

	// ErrAssetUnlockVersion indicates an unsupported asset unlock payload
	// version.
	ErrAssetUnlockVersion = ErrorKind("bad-assetunlocktx-version")

	// ErrAssetUnlockDuplicatedIndex indicates an asset unlock index that has
	// already been consumed.
	ErrAssetUnlockDuplicatedIndex = ErrorKind("bad-assetunlock-duplicated-index")

	// ErrAssetUnlockQuorumHash indicates the quorum hash of an asset unlock
	// does not identify a known block.
	ErrAssetUnlockQuorumHash = ErrorKind("bad-assetunlock-quorum-hash")

	// ErrAssetUnlockLLMQType indicates the quorum type used to sign asset
	// unlocks is not configured on the network.
	ErrAssetUnlockLLMQType = ErrorKind("bad-assetunlock-llmq-type")

	// ErrAssetUnlockNotActiveQuorum indicates an asset unlock signed by a
	// quorum that is not one of the most recent quorums.
	ErrAssetUnlockNotActiveQuorum = ErrorKind("bad-assetunlock-not-active-quorum")

	// ErrAssetUnlockTooLate indicates the tip is outside of the window in
	// which the asset unlock may be mined.
	ErrAssetUnlockTooLate = ErrorKind("bad-assetunlock-too-late")

	// ErrAssetUnlockNotVerified indicates the quorum signature of an asset
	// unlock is invalid.
	ErrAssetUnlockNotVerified = ErrorKind("bad-assetunlock-not-verified")

	// ErrTxOutNegative indicates a transaction output with a negative
	// value.
	ErrTxOutNegative = ErrorKind("bad-txns-vout-negative")

	// ErrTxOutTooLarge indicates a transaction output whose value is more
	// than the max allowed amount.
	ErrTxOutTooLarge = ErrorKind("bad-txns-vout-toolarge")

	// ErrTxOutTotalTooLarge indicates transaction outputs whose values sum
	// to more than the max allowed amount.
	ErrTxOutTotalTooLarge = ErrorKind("bad-txns-txouttotal-toolarge")

	// ErrCreditPoolDuplicatedIndex indicates the same asset unlock index is
	// used more than once in a block.
	ErrCreditPoolDuplicatedIndex = ErrorKind("failed-creditpool-unlock-duplicated-index")

	// ErrCreditPoolUnlockTooMuch indicates the asset unlocks of a block
	// withdraw more than the credit pool holds.
	ErrCreditPoolUnlockTooMuch = ErrorKind("failed-creditpool-unlock-too-much")

	// ErrCreditPoolLockedOutOfRange indicates the asset locks of a block
	// would raise the locked amount above the max allowed amount.
	ErrCreditPoolLockedOutOfRange = ErrorKind("failed-creditpool-locked-out-of-range")

	// ErrCreditPoolBackend indicates an error in the backend of the credit
	// pool store.
	ErrCreditPoolBackend = ErrorKind("ErrCreditPoolBackend")

	// ErrCreditPoolCorruption indicates a stored credit pool could not be
	// deserialized.
	ErrCreditPoolCorruption = ErrorKind("ErrCreditPoolCorruption")

	// ErrCreditPoolVersion indicates the credit pool store was written with
	// an unsupported version.
	ErrCreditPoolVersion = ErrorKind("ErrCreditPoolVersion")
)

// errorClasses maps the kinds that identify rule violations to their class.
var errorClasses = map[ErrorKind]ErrorClass{
	ErrNotAssetLockOrUnlock:        ClassMalformed,
	ErrBadTxType:                   ClassMalformed,
	ErrAssetLockType:               ClassMalformed,
	ErrAssetLockNonEmptyReturn:     ClassMalformed,
	ErrAssetLockZeroOutReturn:      ClassMalformed,
	ErrAssetLockNoReturn:           ClassMalformed,
	ErrAssetLockPayload:            ClassMalformed,
	ErrAssetLockEmptyCreditOutputs: ClassMalformed,
	ErrAssetLockPubKeyHash:         ClassMalformed,
	ErrAssetUnlockType:             ClassMalformed,
	ErrAssetUnlockPayload:          ClassMalformed,
	ErrTxOutNegative:               ClassMalformed,
	ErrTxOutTooLarge:               ClassMalformed,
	ErrTxOutTotalTooLarge:          ClassMalformed,

	ErrAssetLockMultipleReturn: ClassPolicy,
	ErrAssetLockVersion:        ClassPolicy,
	ErrAssetLockLockType:       ClassPolicy,
	ErrAssetLockCreditAmount:   ClassPolicy,
	ErrAssetUnlockHaveInput:    ClassPolicy,
	ErrAssetUnlockTooManyOuts:  ClassPolicy,
	ErrAssetUnlockVersion:      ClassPolicy,

	ErrAssetUnlockDuplicatedIndex: ClassConsensus,
	ErrAssetUnlockQuorumHash:      ClassConsensus,
	ErrAssetUnlockLLMQType:        ClassConsensus,
	ErrAssetUnlockNotActiveQuorum: ClassConsensus,
	ErrAssetUnlockTooLate:         ClassConsensus,
	ErrAssetUnlockNotVerified:     ClassConsensus,
	ErrCreditPoolDuplicatedIndex:  ClassConsensus,
	ErrCreditPoolUnlockTooMuch:    ClassConsensus,
	ErrCreditPoolLockedOutOfRange: ClassConsensus,
}

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// Class returns the class of the error kind.  Kinds that do not identify rule
// violations are ClassInternal.
func (e ErrorKind) Class() ErrorClass {
	return errorClasses[e]
}

// RuleError identifies a rule violation.  It is used to indicate that
// processing of a special transaction failed due to one of the many validation
// rules.  It has full support for errors.Is and errors.As, so the caller can
// ascertain the specific reason for the rule violation.
type RuleError struct {
	Err         ErrorKind
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	return e.Description
}

// Unwrap returns the underlying wrapped error.
func (e RuleError) Unwrap() error {
	return e.Err
}

// RejectCode returns the short stable code identifying the rule violation.
func (e RuleError) RejectCode() string {
	return string(e.Err)
}

// Class returns the class of the rule violation.
func (e RuleError) Class() ErrorClass {
	return e.Err.Class()
}

// ruleError creates a RuleError given a set of arguments.
func ruleError(kind ErrorKind, desc string) RuleError {
	return RuleError{Err: kind, Description: desc}
}

// ContextError wraps an error with additional context.  It has full support for
// errors.Is and errors.As, so the caller can ascertain the specific wrapped
// error.
//
// RawErr contains the original error in the case where an error has been
// converted.
type ContextError struct {
	Err         error
	Description string
	RawErr      error
}

// Error satisfies the error interface and prints human-readable errors.
func (e ContextError) Error() string {
	return e.Description
}

// Unwrap returns the underlying wrapped error.
func (e ContextError) Unwrap() error {
	return e.Err
}

// contextError creates a ContextError given a set of arguments.
func contextError(kind ErrorKind, desc string) ContextError {
	return ContextError{Err: kind, Description: desc}
}
