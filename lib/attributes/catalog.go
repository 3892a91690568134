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

package attributes

import "github.com/gravitational/trace"

// TypeInfo is the policy configured for one attr_type: whether it may
// identify a user (serve as a login handle) and whether a ban on it
// propagates to every user who registered with it. Mirrors the
// attribute-type table the original implementation (irma.rs) loads at
// startup.
type TypeInfo struct {
	Identifying bool
	Bannable    bool
}

// Catalog is the static, server-configured map from attr_type to its
// policy. It is the single source of truth for Identifying/Bannable -
// never the issuer, and never the client (spec section 4.3).
type Catalog map[string]TypeInfo

// Lookup returns the TypeInfo for attrType, or an error if it is unknown
// to this server.
func (c Catalog) Lookup(attrType string) (TypeInfo, error) {
	info, ok := c[attrType]
	if !ok {
		return TypeInfo{}, trace.BadParameter("attributes: unknown attr_type %q", attrType)
	}
	return info, nil
}

// Bind applies the catalog's policy flags to a disclosed value, returning a
// Value with Identifying/Bannable set authoritatively (ignoring whatever
// the caller may have already set on the input).
func (c Catalog) Bind(attrType, value string) (Value, error) {
	info, err := c.Lookup(attrType)
	if err != nil {
		return Value{}, trace.Wrap(err)
	}
	return Value{AttrType: attrType, Value: value, Identifying: info.Identifying, Bannable: info.Bannable}, nil
}
