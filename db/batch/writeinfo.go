// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package batch

import (
	"fmt"
)

const (
	// Put writes a value under a key
	Put WriteType = iota
	// Delete removes a key
	Delete
)

type (
	// WriteType is the type of a staged write
	WriteType uint8

	// WriteInfo is a write staged in a batch. Key and value are copied when staged, so the caller may
	// reuse its buffers and the store reads them without copying again.
	WriteInfo struct {
		writeType WriteType
		namespace string
		key       []byte
		value     []byte
	}
)

func (t WriteType) String() string {
	switch t {
	case Put:
		return "put"
	case Delete:
		return "delete"
	default:
		return fmt.Sprintf("write(%d)", uint8(t))
	}
}

func newWriteInfo(writeType WriteType, namespace string, key, value []byte) WriteInfo {
	wi := WriteInfo{
		writeType: writeType,
		namespace: namespace,
		key:       append([]byte{}, key...),
	}
	if writeType == Put {
		wi.value = append([]byte{}, value...)
	}
	return wi
}

// WriteType returns the type of the write
func (wi *WriteInfo) WriteType() WriteType { return wi.writeType }

// Namespace returns the namespace of the write
func (wi *WriteInfo) Namespace() string { return wi.namespace }

// Key returns the key of the write
func (wi *WriteInfo) Key() []byte { return wi.key }

// Value returns the value of a put, nil for a delete
func (wi *WriteInfo) Value() []byte { return wi.value }

// String describes the write for error messages, e.g. "put account/0a1b"
func (wi *WriteInfo) String() string {
	return fmt.Sprintf("%s %s/%x", wi.writeType, wi.namespace, wi.key)
}
