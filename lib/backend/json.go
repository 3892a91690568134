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

package backend

import (
	"context"
	"encoding/json"

	"github.com/gravitational/trace"
)

// GetJSON reads the item at key and unmarshals its value as T.
func GetJSON[T any](ctx context.Context, b Backend, key string) (T, Version, error) {
	var zero T
	item, err := b.Get(ctx, key)
	if err != nil {
		return zero, "", trace.Wrap(err)
	}
	var out T
	if err := json.Unmarshal(item.Value, &out); err != nil {
		return zero, "", trace.Wrap(err)
	}
	return out, item.Version, nil
}

// PutJSON marshals obj and writes it at key with the given optimistic
// concurrency precondition.
func PutJSON(ctx context.Context, b Backend, key string, obj interface{}, expectedVersion *Version) (Version, error) {
	value, err := json.Marshal(obj)
	if err != nil {
		return "", trace.Wrap(err)
	}
	return b.Put(ctx, key, value, expectedVersion)
}
