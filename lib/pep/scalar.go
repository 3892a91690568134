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

// Package pep implements the polymorphic-encryption-and-pseudonymisation
// primitives the constellation uses to turn one encrypted master pseudonym
// into unlinkable, per-hub local pseudonyms: ElGamal over Ristretto255, and
// the RSK (rerandomize-scale-key-switch) transform that drives pseudonym
// hand-off between PHC, the Transcryptor and a hub.
package pep

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/gravitational/trace"
	ristretto "github.com/gtank/ristretto255"
)

// Scalar is a 32-byte Ristretto255 scalar, serialized as 64-char lowercase
// hex wherever it crosses the wire or touches storage.
type Scalar struct {
	s *ristretto.Scalar
}

// Point is a Ristretto255 group element: a public key, or the randomness
// and ciphertext components of an ElGamal triple.
type Point struct {
	p *ristretto.Element
}

// RandomScalar draws a uniformly random scalar from Zq.
func RandomScalar() Scalar {
	b := make([]byte, 64)
	if _, err := rand.Read(b); err != nil {
		panic("pep: could not read entropy: " + err.Error())
	}
	return Scalar{s: new(ristretto.Scalar).FromUniformBytes(b)}
}

// RandomPoint draws a uniformly random group element, used as fresh
// randomness for a new polymorphic pseudonym's underlying master point.
func RandomPoint() Point {
	b := make([]byte, 64)
	if _, err := rand.Read(b); err != nil {
		panic("pep: could not read entropy: " + err.Error())
	}
	return Point{p: new(ristretto.Element).FromUniformBytes(b)}
}

// OneScalar returns the multiplicative identity, 1.
func OneScalar() Scalar {
	return Scalar{s: new(ristretto.Scalar).One()}
}

// scalarFromUniform maps a wide (>=64 byte) uniformly random buffer onto a
// scalar, used to turn HKDF output into a group scalar.
func scalarFromUniform(b []byte) Scalar {
	return Scalar{s: new(ristretto.Scalar).FromUniformBytes(b)}
}

// ScalarFromHex parses a 64-char lowercase hex scalar.
func ScalarFromHex(s string) (Scalar, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Scalar{}, trace.BadParameter("pep: invalid scalar hex: %v", err)
	}
	sc := new(ristretto.Scalar)
	if err := sc.Decode(b); err != nil {
		return Scalar{}, trace.BadParameter("pep: invalid scalar encoding: %v", err)
	}
	return Scalar{s: sc}, nil
}

// Hex serializes the scalar as 64-char lowercase hex.
func (s Scalar) Hex() string {
	return hex.EncodeToString(s.s.Encode(nil))
}

// PublicKey returns x*G, the public key corresponding to private scalar x.
func (s Scalar) PublicKey() Point {
	return Point{p: new(ristretto.Element).ScalarBaseMult(s.s)}
}

// Mul returns the product of two scalars mod q.
func (s Scalar) Mul(other Scalar) Scalar {
	return Scalar{s: new(ristretto.Scalar).Multiply(s.s, other.s)}
}

// Invert returns the multiplicative inverse of s mod q.
func (s Scalar) Invert() Scalar {
	return Scalar{s: new(ristretto.Scalar).Invert(s.s)}
}

// IsZero reports whether s is the zero scalar.
func (s Scalar) IsZero() bool {
	zero := new(ristretto.Scalar).Zero()
	return s.s.Equal(zero) == 1
}

// PointFromHex parses a 64-char lowercase hex group element.
func PointFromHex(s string) (Point, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Point{}, trace.BadParameter("pep: invalid point hex: %v", err)
	}
	p := new(ristretto.Element)
	if err := p.Decode(b); err != nil {
		return Point{}, trace.BadParameter("pep: invalid point encoding: %v", err)
	}
	return Point{p: p}, nil
}

// Hex serializes the point as 64-char lowercase hex.
func (p Point) Hex() string {
	return hex.EncodeToString(p.p.Encode(nil))
}

// Add returns the sum of two points.
func (p Point) Add(other Point) Point {
	return Point{p: new(ristretto.Element).Add(p.p, other.p)}
}

// Sub returns the difference of two points.
func (p Point) Sub(other Point) Point {
	return Point{p: new(ristretto.Element).Subtract(p.p, other.p)}
}

// ScalarMult returns s*p.
func (p Point) ScalarMult(s Scalar) Point {
	return Point{p: new(ristretto.Element).ScalarMult(s.s, p.p)}
}

// Equal reports whether two points encode to the same element.
func (p Point) Equal(other Point) bool {
	return p.p.Equal(other.p) == 1
}
