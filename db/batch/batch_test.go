// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package batch

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

const _ns = "ns"

func TestBaseKVStoreBatch(t *testing.T) {
	r := require.New(t)
	b := NewBatch()
	b.Put(_ns, []byte("k1"), []byte("v1"))
	b.Delete(_ns, []byte("k2"))
	r.Equal(2, b.Size())

	wi, err := b.Entry(0)
	r.NoError(err)
	r.Equal(Put, wi.WriteType())
	r.Equal(_ns, wi.Namespace())
	r.Equal([]byte("k1"), wi.Key())
	r.Equal([]byte("v1"), wi.Value())
	r.Equal("put ns/6b31", wi.String())

	wi, err = b.Entry(1)
	r.NoError(err)
	r.Equal(Delete, wi.WriteType())
	r.Nil(wi.Value())
	r.Equal("delete ns/6b32", wi.String())

	_, err = b.Entry(2)
	r.Equal(ErrOutOfBound, errors.Cause(err))

	b.Lock()
	b.ClearAndUnlock()
	r.Zero(b.Size())
}

func TestBatchCopiesStagedBytes(t *testing.T) {
	r := require.New(t)
	b := NewBatch()
	k, v := []byte("k"), []byte("v")
	b.Put(_ns, k, v)
	k[0], v[0] = 'x', 'y'

	wi, err := b.Entry(0)
	r.NoError(err)
	r.Equal([]byte("k"), wi.Key())
	r.Equal([]byte("v"), wi.Value())
}

func TestCachedBatch(t *testing.T) {
	r := require.New(t)
	cb := NewCachedBatch()

	_, err := cb.Get(_ns, []byte("k"))
	r.Equal(ErrNotExist, err)

	cb.Put(_ns, []byte("k"), []byte("v1"))
	v, err := cb.Get(_ns, []byte("k"))
	r.NoError(err)
	r.Equal([]byte("v1"), v)

	cb.Delete(_ns, []byte("k"))
	_, err = cb.Get(_ns, []byte("k"))
	r.Equal(ErrAlreadyDeleted, err)
	r.Equal(2, cb.Size())

	cb.Clear()
	r.Zero(cb.Size())
	_, err = cb.Get(_ns, []byte("k"))
	r.Equal(ErrNotExist, err)
}

func TestCachedBatchSnapshot(t *testing.T) {
	r := require.New(t)
	cb := NewCachedBatch()
	cb.Put(_ns, []byte("a"), []byte("1"))
	s0 := cb.Snapshot()
	cb.Put(_ns, []byte("a"), []byte("2"))
	cb.Put(_ns, []byte("b"), []byte("3"))
	s1 := cb.Snapshot()
	cb.Delete(_ns, []byte("a"))

	r.NoError(cb.Revert(s1))
	v, err := cb.Get(_ns, []byte("a"))
	r.NoError(err)
	r.Equal([]byte("2"), v)
	r.Equal(3, cb.Size())

	r.NoError(cb.Revert(s0))
	v, err = cb.Get(_ns, []byte("a"))
	r.NoError(err)
	r.Equal([]byte("1"), v)
	_, err = cb.Get(_ns, []byte("b"))
	r.Equal(ErrNotExist, err)
	r.Equal(1, cb.Size())

	// snapshots taken after s0 are gone
	r.Equal(ErrOutOfBound, errors.Cause(cb.Revert(s1)))
	r.Equal(ErrOutOfBound, errors.Cause(cb.Revert(-1)))
}
