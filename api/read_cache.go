// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package api

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/iotexproject/go-pkgs/cache/ttl"
	"github.com/iotexproject/go-pkgs/hash"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-dao/pkg/log"
)

type (
	// ReadKey represents a read key
	ReadKey struct {
		Name   string   `json:"name,omitempty"`
		Height uint64   `json:"height,omitempty"`
		Args   []string `json:"args,omitempty"`
	}

	// ReadCache stores read results of settled heights. Entries expire after ttl without a read and the
	// cache is emptied once it holds size entries.
	ReadCache struct {
		mu         sync.Mutex
		total, hit int
		size       int
		c          *ttl.Cache
	}
)

// Hash returns the hash of key's json string
func (k *ReadKey) Hash() hash.Hash160 {
	b, _ := json.Marshal(k)
	return hash.Hash160b(b)
}

// NewReadCache returns a new read cache
func NewReadCache(expire time.Duration, size int) (*ReadCache, error) {
	if size <= 0 {
		return nil, errors.Errorf("invalid read cache size %d", size)
	}
	c, err := ttl.NewCache(ttl.AutoExpireOption(expire))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create read cache")
	}
	return &ReadCache{
		size: size,
		c:    c,
	}, nil
}

// Get reads according to key
func (rc *ReadCache) Get(key hash.Hash160) ([]byte, bool) {
	rc.mu.Lock()
	rc.total++
	d, ok := rc.c.Get(key)
	if ok {
		rc.hit++
	}
	total, hit := rc.total, rc.hit
	rc.mu.Unlock()
	if !ok {
		return nil, false
	}
	if hit%100 == 0 {
		log.Logger("api").Debug("API cache hit", zap.Int("total", total), zap.Int("hit", hit))
	}
	return d.([]byte), true
}

// Put writes according to key
func (rc *ReadCache) Put(key hash.Hash160, value []byte) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.c.Count() >= rc.size {
		log.Logger("api").Debug("API cache full, reset", zap.Int("size", rc.size))
		rc.c.Reset()
	}
	rc.c.Set(key, value)
}

// Len returns the number of cached entries
func (rc *ReadCache) Len() int {
	return rc.c.Count()
}

// Clear clears the cache
func (rc *ReadCache) Clear() {
	rc.c.Reset()
}
