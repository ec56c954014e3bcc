// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package protocol

import (
	"fmt"

	"github.com/pkg/errors"
)

// Category groups errors by cause
type Category uint8

const (
	// CategoryUnknown is returned for errors not raised by a module
	CategoryUnknown Category = iota
	// CategoryAuthorization means the caller is not allowed to perform the call
	CategoryAuthorization
	// CategoryNotFound means the referenced proposal, module or record does not exist
	CategoryNotFound
	// CategoryTemporal means the call is made outside its block window
	CategoryTemporal
	// CategoryConflict means the call conflicts with recorded state
	CategoryConflict
	// CategoryPrecondition means balances, supply, assets or parameters do not allow the call
	CategoryPrecondition
)

func (c Category) String() string {
	switch c {
	case CategoryAuthorization:
		return "authorization"
	case CategoryNotFound:
		return "not-found"
	case CategoryTemporal:
		return "temporal"
	case CategoryConflict:
		return "conflict"
	case CategoryPrecondition:
		return "precondition"
	default:
		return "unknown"
	}
}

// Error is a module error with a module-local code
type Error struct {
	code     uint64
	name     string
	category Category
}

// NewError creates a module error
func NewError(code uint64, name string, category Category) *Error {
	return &Error{
		code:     code,
		name:     name,
		category: category,
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (err u%d)", e.name, e.code)
}

// Code returns the module-local code
func (e *Error) Code() uint64 { return e.code }

// Name returns the constant name of the error
func (e *Error) Name() string { return e.name }

// Category returns the category of the error
func (e *Error) Category() Category { return e.category }

// CodeOf returns the code of a module error, wrapped or not
func CodeOf(err error) (uint64, bool) {
	if e, ok := errors.Cause(err).(*Error); ok {
		return e.code, true
	}
	return 0, false
}

// CategoryOf returns the category of a module error, wrapped or not
func CategoryOf(err error) Category {
	if e, ok := errors.Cause(err).(*Error); ok {
		return e.category
	}
	return CategoryUnknown
}
