// Copyright 2026 The strata Authors
// This file is part of the strata library.
//
// The strata library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The strata library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the strata library. If not, see <http://www.gnu.org/licenses/>.

package strata

import (
	"errors"
	"fmt"
)

// Code is the closed taxonomy of store errors (spec §7).
type Code int

const (
	CodeIO Code = iota
	CodeRecordNotFound
	CodeBranchNotFound
	CodeBlobNotFound
	CodeStateNotRegistered
	CodeStateExists
	CodeBranchExists
	CodeInvalidSequence
	CodeSerialization
	CodeDeserialization
	CodeCorruption
	CodeStrategyMismatch
	CodeLocked
	CodeNotInitialized
	CodeInvalidFormat
	CodeChecksumMismatch
	CodeHashMismatch
	CodeTransaction
	CodeInvalidOperation
	CodeSubscriptionDropped
)

func (c Code) String() string {
	switch c {
	case CodeIO:
		return "Io"
	case CodeRecordNotFound:
		return "RecordNotFound"
	case CodeBranchNotFound:
		return "BranchNotFound"
	case CodeBlobNotFound:
		return "BlobNotFound"
	case CodeStateNotRegistered:
		return "StateNotRegistered"
	case CodeStateExists:
		return "StateExists"
	case CodeBranchExists:
		return "BranchExists"
	case CodeInvalidSequence:
		return "InvalidSequence"
	case CodeSerialization:
		return "Serialization"
	case CodeDeserialization:
		return "Deserialization"
	case CodeCorruption:
		return "Corruption"
	case CodeStrategyMismatch:
		return "StrategyMismatch"
	case CodeLocked:
		return "Locked"
	case CodeNotInitialized:
		return "NotInitialized"
	case CodeInvalidFormat:
		return "InvalidFormat"
	case CodeChecksumMismatch:
		return "ChecksumMismatch"
	case CodeHashMismatch:
		return "HashMismatch"
	case CodeTransaction:
		return "Transaction"
	case CodeInvalidOperation:
		return "InvalidOperation"
	case CodeSubscriptionDropped:
		return "SubscriptionDropped"
	default:
		return "Unknown"
	}
}

// StoreError is the single result-carrying error type used across the
// module. It wraps an underlying cause (when present) so errors.Is/As
// continue to work against both the Code and the wrapped cause.
type StoreError struct {
	Code    Code
	Message string
	Cause   error
}

func (e *StoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code.String()
}

func (e *StoreError) Unwrap() error { return e.Cause }

// Is reports whether target is a *StoreError with the same Code, so callers
// can write errors.Is(err, strata.ErrLocked) against the sentinels below.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewError constructs a StoreError with an optional wrapped cause.
func NewError(code Code, message string, cause error) *StoreError {
	return &StoreError{Code: code, Message: message, Cause: cause}
}

// Sentinels for errors.Is comparisons; Message/Cause are not part of the
// identity check (see StoreError.Is), only Code is.
var (
	ErrRecordNotFound     = &StoreError{Code: CodeRecordNotFound}
	ErrBranchNotFound     = &StoreError{Code: CodeBranchNotFound}
	ErrBlobNotFound       = &StoreError{Code: CodeBlobNotFound}
	ErrStateNotRegistered = &StoreError{Code: CodeStateNotRegistered}
	ErrStateExists        = &StoreError{Code: CodeStateExists}
	ErrBranchExists       = &StoreError{Code: CodeBranchExists}
	ErrInvalidSequence    = &StoreError{Code: CodeInvalidSequence}
	ErrCorruption         = &StoreError{Code: CodeCorruption}
	ErrStrategyMismatch   = &StoreError{Code: CodeStrategyMismatch}
	ErrLocked             = &StoreError{Code: CodeLocked}
	ErrNotInitialized     = &StoreError{Code: CodeNotInitialized}
	ErrInvalidFormat      = &StoreError{Code: CodeInvalidFormat}
	ErrChecksumMismatch   = &StoreError{Code: CodeChecksumMismatch}
	ErrHashMismatch       = &StoreError{Code: CodeHashMismatch}
	ErrInvalidOperation   = &StoreError{Code: CodeInvalidOperation}
	ErrSubscriptionDropped = &StoreError{Code: CodeSubscriptionDropped}
)

// recordNotFound, branchNotFound etc. build a concrete error instance
// carrying the offending key, for callers that want the message rather than
// just the code.
func recordNotFound(id RecordID) error {
	return NewError(CodeRecordNotFound, fmt.Sprintf("record %d", id), nil)
}

func branchNotFound(name string) error {
	return NewError(CodeBranchNotFound, fmt.Sprintf("branch %q", name), nil)
}

func blobNotFound(h Hash) error {
	return NewError(CodeBlobNotFound, fmt.Sprintf("blob %s", h), nil)
}

func stateNotRegistered(id string) error {
	return NewError(CodeStateNotRegistered, fmt.Sprintf("state %q", id), nil)
}

func invalidSequence(asked, head Sequence) error {
	return NewError(CodeInvalidSequence, fmt.Sprintf("asked %d, head %d", asked, head), nil)
}

// errorsIsCode is a small package-internal helper that reports whether err
// wraps a StoreError with the given code.
func errorsIsCode(err error, code Code) bool {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}
