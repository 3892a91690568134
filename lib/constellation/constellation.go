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

// Package constellation describes the immutable, published parameters of a
// PubHubs constellation - the triple (PHC, Transcryptor, Auth) with
// matching public keys - and the deterministic ID servers converge on to
// detect disagreement (spec section 3/9: "any server disagreeing on id
// refuses to serve until reconciled").
package constellation

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/gravitational/trace"
)

// Info is the constellation's published, immutable parameters.
type Info struct {
	// MasterEncKey is Y = y_PHC*G + y_T*G, the product public key
	// pseudonyms are encrypted under.
	MasterEncKey string `json:"master_enc_key"`

	TranscryptorURL string `json:"transcryptor_url"`
	PHCURL          string `json:"phc_url"`
	AuthsURL        string `json:"auths_url"`

	PHCJWTVerifyKey   string `json:"phc_jwt_vk"`
	TJWTVerifyKey     string `json:"t_jwt_vk"`
	AuthsJWTVerifyKey string `json:"auths_jwt_vk"`

	PHCEncVerifyKey   string `json:"phc_enc_vk"`
	TEncVerifyKey     string `json:"t_enc_vk"`
	AuthsEncVerifyKey string `json:"auths_enc_vk"`

	CreatedAt time.Time `json:"created_at"`

	// ID is a deterministic hash of every field above; see ComputeID.
	ID string `json:"id"`
}

// ComputeID derives the deterministic id from every field of Info except ID
// itself, so two servers with matching parameters always agree on it
// without needing to exchange it out of band.
func (c Info) ComputeID() (string, error) {
	cp := c
	cp.ID = ""
	canon, err := json.Marshal(cp)
	if err != nil {
		return "", trace.Wrap(err)
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}

// Finalize computes and sets ID, returning the finalized Info. Call this
// exactly once, when a constellation is first published.
func (c Info) Finalize() (Info, error) {
	id, err := c.ComputeID()
	if err != nil {
		return Info{}, trace.Wrap(err)
	}
	c.ID = id
	return c, nil
}

// CheckConsistent reports whether c's stored ID matches what ComputeID
// derives from its other fields - i.e. whether it is internally
// consistent. This is a local sanity check; agreement between servers
// additionally requires comparing IDs across the network (see Reconcile).
func (c Info) CheckConsistent() error {
	want, err := c.ComputeID()
	if err != nil {
		return trace.Wrap(err)
	}
	if want != c.ID {
		return trace.BadParameter("constellation: id %q does not match computed id %q", c.ID, want)
	}
	return nil
}

// Reconcile compares this server's local view of the constellation against
// one fetched from a peer's /welcome endpoint. A mismatched ID means the
// two servers disagree on constellation parameters (stale config, a
// half-rolled-out key rotation); per spec section 3 a server must refuse
// to serve until this is corrected, so Reconcile returns an error rather
// than silently picking a winner.
func Reconcile(local, peer Info) error {
	if local.ID != peer.ID {
		return trace.BadParameter("constellation: local id %q disagrees with peer id %q", local.ID, peer.ID)
	}
	return nil
}
