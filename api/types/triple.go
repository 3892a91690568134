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

package types

import (
	"github.com/gravitational/trace"

	"github.com/pubhubs/pubhubs/lib/pep"
)

// Triple is the wire encoding of a pep.Triple: three hex-encoded Ristretto
// points, the shape every PPP/EHPP claim set carries its ciphertext in.
type Triple struct {
	EK string `json:"ek"`
	CT string `json:"ct"`
	PK string `json:"pk"`
}

// FromTriple renders a pep.Triple for the wire.
func FromTriple(t pep.Triple) Triple {
	return Triple{EK: t.EK.Hex(), CT: t.CT.Hex(), PK: t.PK.Hex()}
}

// Triple decodes the wire Triple back into a pep.Triple.
func (t Triple) Triple() (pep.Triple, error) {
	ek, err := pep.PointFromHex(t.EK)
	if err != nil {
		return pep.Triple{}, trace.Wrap(err)
	}
	ct, err := pep.PointFromHex(t.CT)
	if err != nil {
		return pep.Triple{}, trace.Wrap(err)
	}
	pk, err := pep.PointFromHex(t.PK)
	if err != nil {
		return pep.Triple{}, trace.Wrap(err)
	}
	return pep.Triple{EK: ek, CT: ct, PK: pk}, nil
}
