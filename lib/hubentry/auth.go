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

package hubentry

import (
	"context"

	"github.com/gravitational/trace"

	"github.com/pubhubs/pubhubs/api/constants"
	"github.com/pubhubs/pubhubs/api/types"
)

// AuthClient talks to the Authentication Server's disclosure endpoints
// (spec section 4.3), feeding the Attr carriers phc.enter needs.
type AuthClient struct {
	auths *peer
}

// NewAuthClient builds an AuthClient pointed at Auth's base URL.
func NewAuthClient(authsURL string) (*AuthClient, error) {
	auths, err := newPeer(authsURL, "")
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return &AuthClient{auths: auths}, nil
}

// Start begins a disclosure session for the given attr_types.
func (c *AuthClient) Start(ctx context.Context, req types.AuthStartReq) (types.AuthStartResp, error) {
	var resp types.AuthStartResp
	if err := c.auths.postJSON(ctx, constants.AuthStart, req, &resp); err != nil {
		return types.AuthStartResp{}, trace.Wrap(err)
	}
	return resp, nil
}

// Complete presents the issuer's disclosure proof, receiving one signed
// Attr carrier per requested attr_type that was actually disclosed.
func (c *AuthClient) Complete(ctx context.Context, req types.AuthCompleteReq) (types.AuthCompleteResp, error) {
	var resp types.AuthCompleteResp
	if err := c.auths.postJSON(ctx, constants.AuthComplete, req, &resp); err != nil {
		return types.AuthCompleteResp{}, trace.Wrap(err)
	}
	return resp, nil
}

// WaitForResult blocks (on Auth's side) until a chained session's issuer
// posts a disclosure, the caller's context is canceled, or Auth's own
// wait timeout elapses.
func (c *AuthClient) WaitForResult(ctx context.Context, state string) (types.WaitForResultResp, error) {
	var resp types.WaitForResultResp
	req := map[string]string{"state": state}
	if err := c.auths.postJSON(ctx, constants.AuthWaitForResult, req, &resp); err != nil {
		return types.WaitForResultResp{}, trace.Wrap(err)
	}
	return resp, nil
}
