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

import (
	"time"

	josejwt "gopkg.in/square/go-jose.v2/jwt"

	"github.com/pubhubs/pubhubs/lib/pepjwt"
)

// SignCarrier produces the Attr signed carrier JWT Auth hands back from
// auth.complete: a JWT binding a disclosed attribute value to its policy
// flags and the constellation that vouches for it, signed by Auth's JWT
// key (spec section 3, "Attr signed carrier").
func SignCarrier(key *pepjwt.Key, v Value, constellationID string, signedAt, expires time.Time) (string, error) {
	claims := map[string]interface{}{
		"attr_type":        v.AttrType,
		"value":            v.Value,
		"identifying":      v.Identifying,
		"bannable":         v.Bannable,
		"signed_at":        josejwt.NewNumericDate(signedAt),
		"constellation_id": constellationID,
		"exp":              josejwt.NewNumericDate(expires),
	}
	return key.Sign(claims)
}

// OpenCarrier opens a carrier JWT signed by Auth, checking it against
// expectedConstellation and returning the disclosed Value. The caller is
// responsible for mapping pepjwt's OpenError variants onto the specific
// RetryWithNewIdentifyingAttr / RetryWithNewAddAttr{index} / BadRequest /
// InternalError responses spec section 4.5.2 requires - that mapping is
// PHC-specific (it depends on which slot in the request the carrier came
// from), so it lives in lib/phc, not here.
func OpenCarrier(key *pepjwt.Key, token string, expectedConstellation string) (Value, error) {
	r, err := key.Open(token)
	if err != nil {
		return Value{}, err
	}
	if err := r.RequireConstellation(expectedConstellation); err != nil {
		return Value{}, err
	}

	var v Value
	if err := r.Take("attr_type", &v.AttrType); err != nil {
		return Value{}, err
	}
	if err := r.Take("value", &v.Value); err != nil {
		return Value{}, err
	}
	if err := r.Take("identifying", &v.Identifying); err != nil {
		return Value{}, err
	}
	if err := r.Take("bannable", &v.Bannable); err != nil {
		return Value{}, err
	}
	r.Ignore("signed_at")

	if err := r.Finish(); err != nil {
		return Value{}, err
	}
	return v, nil
}
