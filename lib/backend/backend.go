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

// Package backend defines the abstract key/value object store PHC uses for
// user and attribute state: get/put-with-optimistic-concurrency/delete,
// keyed by (prefix, identifier), with no server-side transactions. Callers
// are written to be idempotent under retry, per spec section 4.2/5.
package backend

import (
	"context"

	"github.com/gravitational/trace"
)

// Version is an opaque optimistic-concurrency token, comparable only for
// equality. Two reads of the same key at different times get different
// Versions if the value changed between them.
type Version string

// Item is a stored (key, value) pair together with its current Version.
type Item struct {
	Key     string
	Value   []byte
	Version Version
}

// Backend is the abstract object store. Every method is safe to retry:
// Put's optimistic-concurrency check and Delete's idempotent semantics
// mean a caller that times out mid-call and retries never corrupts state.
type Backend interface {
	// Get returns the item stored at key, or trace.NotFound if absent.
	Get(ctx context.Context, key string) (*Item, error)

	// Put writes value at key. If expectedVersion is nil, the write only
	// succeeds if no item currently exists at key (trace.AlreadyExists
	// otherwise). If expectedVersion is non-nil, the write only succeeds
	// if the stored item's current version equals it
	// (trace.CompareFailed otherwise, covering both "changed since read"
	// and "expected a pre-existing item that doesn't exist"). On success
	// returns the new Version.
	Put(ctx context.Context, key string, value []byte, expectedVersion *Version) (Version, error)

	// Delete removes the item at key, returning true if it existed.
	Delete(ctx context.Context, key string) (bool, error)
}

// Key joins path components the way every prefix/identifier store key is
// built across this repo - "user/<id-hex>", "attr/<id-hex>",
// "user-obj/<user-id-hex>/<handle>" - so all callers agree on separators.
func Key(parts ...string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "/"
		}
		out += p
	}
	return out
}

// IsNotFound is a convenience wrapper around trace.IsNotFound for callers
// that only import this package.
func IsNotFound(err error) bool {
	return trace.IsNotFound(err)
}
