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

import "github.com/gravitational/trace"

// Triple is an ElGamal ciphertext: (EK, CT, PK) where EK = r*G is the
// encryption-key share, CT = M + r*PK is the masked plaintext, and PK
// records the key this triple claims to be encrypted for. PK is
// unauthenticated: a caller that substitutes a different PK before
// rerandomizing gets garbage back out, by design (see RSK).
type Triple struct {
	EK Point
	CT Point
	PK Point
}

// Encrypt encrypts point m under public key pk with fresh randomness r,
// producing Enc_pk(m; r) = (r*G, m + r*pk, pk).
func Encrypt(m Point, pk Point, r Scalar) Triple {
	return Triple{
		EK: r.PublicKey(),
		CT: m.Add(pk.ScalarMult(r)),
		PK: pk,
	}
}

// Decrypt recovers the plaintext point given the matching private scalar x.
// If T.PK != x*G (the triple was not actually encrypted for x, or the PK
// field was tampered with upstream), the result is garbage, not an error -
// ElGamal decryption has no built-in integrity check on its own.
func Decrypt(t Triple, x Scalar) Point {
	return t.CT.Sub(t.EK.ScalarMult(x))
}

// RSK applies the rerandomize-scale-key-switch transform used throughout
// the pseudonym pipeline: it multiplies the plaintext by s, switches the
// target key to k*T.PK, and rerandomizes with fresh r. If T was
// Enc_X(M; rho), the result is Enc_{k*X}(s*M; fresh) - but only if T.PK was
// authentic; otherwise the result decrypts to garbage under k*x, which is
// the intended punishment for presenting a triple targeted at the wrong
// key (see DESIGN.md's note on not "optimizing" this away).
//
//	EK' = (s/k)*T.EK + r*G
//	CT' = s*T.CT + r*PK'
//	PK' = k*T.PK
func RSK(t Triple, s Scalar, k Scalar, r Scalar) Triple {
	sOverK := s.Mul(k.Invert())

	pkPrime := t.PK.ScalarMult(k)
	ekPrime := t.EK.ScalarMult(sOverK).Add(r.PublicKey())
	ctPrime := t.CT.ScalarMult(s).Add(pkPrime.ScalarMult(r))

	return Triple{EK: ekPrime, CT: ctPrime, PK: pkPrime}
}

// Rerandomize re-masks T with fresh randomness r without changing the
// plaintext or the target key; equivalent to RSK(T; s=1, k=1, r). Two
// rerandomizations of the same triple are unlinkable to an observer who
// doesn't hold the private key, which is what makes repeated PPP issuance
// safe: each PPP is a fresh encoding of the same polymorphic pseudonym.
func Rerandomize(t Triple, r Scalar) Triple {
	one := OneScalar()
	return RSK(t, one, one, r)
}

// CheckRecipient validates that t.PK equals the expected public key. This
// does not make PK authenticated in any cryptographic sense - it is only a
// local sanity check before RSK/Decrypt, e.g. rejecting a triple a peer
// server claims was encrypted for a key it plainly wasn't.
func CheckRecipient(t Triple, expected Point) error {
	if !t.PK.Equal(expected) {
		return trace.BadParameter("pep: triple's recorded recipient key does not match")
	}
	return nil
}
