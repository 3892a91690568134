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

// Package attributes implements the typed attribute model: attribute
// values, their deterministic IDs, the policy state PHC keeps per
// attribute (AttrState), and the static catalog of known attribute types.
package attributes

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/gravitational/trace"
)

// Value is an attribute disclosed by a user: a typed value plus the policy
// flags that determine what it can be used for. Identifying/Bannable are
// looked up from the server's Catalog, never trusted from an untrusted
// carrier (spec section 4.3: "identifying/bannable flags come from the
// attribute-type catalog, not the issuer").
type Value struct {
	AttrType   string `json:"attr_type"`
	Value      string `json:"value"`
	Identifying bool   `json:"identifying"`
	Bannable    bool   `json:"bannable"`
}

// ID is the deterministic identifier of an attribute: HMAC(secret,
// canonical(attr_type, value)). It never changes for a given (attr_type,
// value, secret) triple, and it is never deleted once an AttrState for it
// is created - ownership changes, but the ID is stable (spec section 3).
type ID string

// Hex renders the ID as-is; IDs are already hex-encoded HMAC output.
func (id ID) Hex() string { return string(id) }

// DeriveID computes Attr.id = HMAC(attrIDSecret, canonical(attr_type,
// value)), a pure function of its three inputs (spec section 8's
// round-trip property).
func DeriveID(attrType, value string, attrIDSecret []byte) ID {
	mac := hmac.New(sha256.New, attrIDSecret)
	// length-prefix attr_type so ("a","bc") and ("ab","c") never collide.
	mac.Write([]byte{byte(len(attrType))})
	mac.Write([]byte(attrType))
	mac.Write([]byte(value))
	return ID(hex.EncodeToString(mac.Sum(nil)))
}

// CheckCanonical validates that a disclosed Value's attr_type/value are
// non-empty, which is the minimum shape check before deriving its ID.
func (v Value) CheckCanonical() error {
	if v.AttrType == "" {
		return trace.BadParameter("attributes: attr_type is required")
	}
	if v.Value == "" {
		return trace.BadParameter("attributes: value is required")
	}
	return nil
}
