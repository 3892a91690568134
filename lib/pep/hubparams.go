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

package pep

import (
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"
)

// HubParams is one server's share of the per-hub RSK parameters: S scales
// the plaintext, K switches the target key. Each constellation member
// (PHC, Transcryptor) derives its own (S, K) from its master-share scalar
// and the hub's decryption_id; neither share alone says anything about the
// other member's share or the hub's own local decryption key.
type HubParams struct {
	S Scalar
	K Scalar
}

// DeriveHubParams derives (S, K) for a hub identified by decryptionID from
// this server's master-share scalar masterShare and a domain-separating
// label identifying which constellation member is deriving (so PHC and the
// Transcryptor never accidentally derive the same scalars from related
// master shares). It uses HKDF-SHA3-512 the way lib/pep's sibling sealing
// code (lib/seal) and the teacher's key-derivation helpers do: a single
// master secret expanded into multiple independent-looking outputs via
// domain-separated info strings.
func DeriveHubParams(masterShare Scalar, decryptionID string, label string) HubParams {
	secret := masterShare.s.Encode(nil)
	reader := hkdf.New(sha3.New512, secret, nil, []byte(label+"|"+decryptionID))

	sBytes := make([]byte, 64)
	if _, err := io.ReadFull(reader, sBytes); err != nil {
		panic("pep: hkdf expansion failed: " + err.Error())
	}
	kBytes := make([]byte, 64)
	if _, err := io.ReadFull(reader, kBytes); err != nil {
		panic("pep: hkdf expansion failed: " + err.Error())
	}

	return HubParams{
		S: scalarFromUniform(sBytes),
		K: scalarFromUniform(kBytes),
	}
}

// CombineScaling multiplies this server's scaling share with a peer's,
// producing the final pseudonym-scaling factor s_H used by RSK.
func (h HubParams) CombineScaling(peer HubParams) Scalar {
	return h.S.Mul(peer.S)
}

// CombineKeySwitch multiplies this server's key-switch share, a peer's, and
// the hub's own public key scalar contribution, producing k_H.
func (h HubParams) CombineKeySwitch(peer HubParams, hubKeyFactor Scalar) Scalar {
	return h.K.Mul(peer.K).Mul(hubKeyFactor)
}
