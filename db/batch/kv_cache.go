// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package batch

type (
	// KVStoreCache is a local cache of batched <k, v> for fast query
	KVStoreCache interface {
		// Read retrieves a record
		Read(namespace string, key []byte) ([]byte, error)
		// Write puts a record into cache
		Write(namespace string, key, value []byte)
		// Evict marks a record as deleted
		Evict(namespace string, key []byte)
		// Clear clear the cache
		Clear()
	}

	node struct {
		value   []byte
		deleted bool
	}

	// kvCache implements KVStoreCache interface
	kvCache struct {
		cache map[string]map[string]*node
	}
)

// NewKVCache returns a KVCache
func NewKVCache() KVStoreCache {
	return &kvCache{
		cache: make(map[string]map[string]*node),
	}
}

// Read retrieves a record
func (c *kvCache) Read(namespace string, key []byte) ([]byte, error) {
	if ns, ok := c.cache[namespace]; ok {
		if n, ok := ns[string(key)]; ok {
			if n.deleted {
				return nil, ErrAlreadyDeleted
			}
			return n.value, nil
		}
	}
	return nil, ErrNotExist
}

// Write puts a record into cache
func (c *kvCache) Write(namespace string, key, value []byte) {
	n := c.node(namespace, key)
	n.value, n.deleted = value, false
}

// Evict marks a record as deleted
func (c *kvCache) Evict(namespace string, key []byte) {
	n := c.node(namespace, key)
	n.value, n.deleted = nil, true
}

// Clear clears the cache
func (c *kvCache) Clear() {
	c.cache = make(map[string]map[string]*node)
}

func (c *kvCache) node(namespace string, key []byte) *node {
	ns, ok := c.cache[namespace]
	if !ok {
		ns = make(map[string]*node)
		c.cache[namespace] = ns
	}
	n, ok := ns[string(key)]
	if !ok {
		n = &node{}
		ns[string(key)] = n
	}
	return n
}
