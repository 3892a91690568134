/*
Copyright 2015-2021 Gravitational, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package memory is an in-process backend.Backend, the reference
// implementation used by tests and by the single-process deployments in
// tool/*d. It is not meant to be shared across server instances; a real
// deployment would point PHC at a durable KV store instead (see
// SPEC_FULL.md's domain-stack table for why this repo doesn't pick one).
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"

	"github.com/gravitational/trace"

	"github.com/pubhubs/pubhubs/lib/backend"
)

// Backend is a mutex-guarded map implementing backend.Backend.
type Backend struct {
	mu    sync.Mutex
	items map[string]backend.Item
}

// New returns an empty in-memory backend.
func New() *Backend {
	return &Backend{items: make(map[string]backend.Item)}
}

var _ backend.Backend = (*Backend)(nil)

func (b *Backend) Get(_ context.Context, key string) (*backend.Item, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	item, ok := b.items[key]
	if !ok {
		return nil, trace.NotFound("key %q not found", key)
	}
	cp := item
	return &cp, nil
}

func (b *Backend) Put(_ context.Context, key string, value []byte, expectedVersion *backend.Version) (backend.Version, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	existing, exists := b.items[key]

	if expectedVersion == nil {
		if exists {
			return "", trace.AlreadyExists("key %q already exists", key)
		}
	} else {
		if !exists {
			return "", trace.CompareFailed("key %q does not exist", key)
		}
		if existing.Version != *expectedVersion {
			return "", trace.CompareFailed("key %q was concurrently modified", key)
		}
	}

	newVersion := freshVersion()
	b.items[key] = backend.Item{Key: key, Value: append([]byte(nil), value...), Version: newVersion}
	return newVersion, nil
}

func (b *Backend) Delete(_ context.Context, key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.items[key]; !ok {
		return false, nil
	}
	delete(b.items, key)
	return true, nil
}

// freshVersion returns a new random opaque version token, distinct from
// any prior version of any key with overwhelming probability.
func freshVersion() backend.Version {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("memory backend: could not read entropy: " + err.Error())
	}
	return backend.Version(hex.EncodeToString(b))
}
