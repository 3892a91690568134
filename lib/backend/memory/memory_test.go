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

package memory

import (
	"context"
	"testing"

	"github.com/gravitational/trace"
	"github.com/stretchr/testify/require"

	"github.com/pubhubs/pubhubs/lib/backend"
)

func TestPutRequiresNoExistingWhenExpectedNil(t *testing.T) {
	ctx := context.Background()
	b := New()

	_, err := b.Put(ctx, "k", []byte("a"), nil)
	require.NoError(t, err)

	_, err = b.Put(ctx, "k", []byte("b"), nil)
	require.True(t, trace.IsAlreadyExists(err))
}

func TestCompareAndSwapDetectsConcurrentWriter(t *testing.T) {
	ctx := context.Background()
	b := New()

	v1, err := b.Put(ctx, "k", []byte("a"), nil)
	require.NoError(t, err)

	// simulate two readers both holding v1.
	_, err = b.Put(ctx, "k", []byte("b"), &v1)
	require.NoError(t, err)

	// the second, stale writer loses.
	_, err = b.Put(ctx, "k", []byte("c"), &v1)
	require.True(t, trace.IsCompareFailed(err))
}

func TestGetDeleteRoundTrip(t *testing.T) {
	ctx := context.Background()
	b := New()

	_, err := b.Put(ctx, "k", []byte("a"), nil)
	require.NoError(t, err)

	item, err := b.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("a"), item.Value)

	ok, err := b.Delete(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = b.Get(ctx, "k")
	require.True(t, backend.IsNotFound(err))

	ok, err = b.Delete(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPutWithExpectedVersionOnMissingKeyFails(t *testing.T) {
	ctx := context.Background()
	b := New()

	v := backend.Version("nonexistent")
	_, err := b.Put(ctx, "k", []byte("a"), &v)
	require.True(t, trace.IsCompareFailed(err))
}
