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

// HubClient talks to a single hub's own endpoints (spec section 6.1),
// separate from Client's PHC/Transcryptor peers since each login attempt
// targets a different hub URL, picked from a Welcome response.
type HubClient struct {
	hub *peer
}

// NewHubClient builds a HubClient pointed at a hub's base URL.
func NewHubClient(hubURL string) (*HubClient, error) {
	hub, err := newPeer(hubURL, "")
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return &HubClient{hub: hub}, nil
}

// Info fetches the hub's client-facing URL.
func (c *HubClient) Info(ctx context.Context) (types.HubInfoResp, error) {
	var resp types.HubInfoResp
	if err := c.hub.getJSON(ctx, constants.HubInfo, &resp); err != nil {
		return types.HubInfoResp{}, trace.Wrap(err)
	}
	return resp, nil
}

// EnterStart begins entry at the hub, returning the state token and nonce
// the caller must fold into its HHPP request.
func (c *HubClient) EnterStart(ctx context.Context) (types.HubEnterStartResp, error) {
	var resp types.HubEnterStartResp
	if err := c.hub.getJSON(ctx, constants.HubEnterStart, &resp); err != nil {
		return types.HubEnterStartResp{}, trace.Wrap(err)
	}
	return resp, nil
}

// EnterComplete presents the signed HHPP and the hub's own state token,
// receiving a Matrix access token on success.
func (c *HubClient) EnterComplete(ctx context.Context, req types.HubEnterCompleteReq) (types.HubEnterCompleteResp, error) {
	var resp types.HubEnterCompleteResp
	if err := c.hub.postJSON(ctx, constants.HubEnterComplete, req, &resp); err != nil {
		return types.HubEnterCompleteResp{}, trace.Wrap(err)
	}
	return resp, nil
}
