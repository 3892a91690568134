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

// Package hubentry implements the user-agent side of the hub-entry state
// machine (spec section 4.6): fetch the constellation, authenticate with
// Auth, obtain a PPP/EHPP/HHPP chain, and complete entry at the target
// hub, ending with a Matrix access token.
package hubentry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/gravitational/roundtrip"
	"github.com/gravitational/trace"

	"github.com/pubhubs/pubhubs/api/constants"
	"github.com/pubhubs/pubhubs/api/types"
)

// authTokenTransport injects the sealed auth-token header into every
// request it carries, the way a bearer-token RoundTripper would - kept
// separate from peer so an unauthenticated peer (e.g. the Transcryptor,
// which never takes an auth token) never wires one in.
type authTokenTransport struct {
	token string
	base  http.RoundTripper
}

func (t *authTokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set(constants.AuthHeader, constants.AuthHeaderScheme+" "+t.token)
	return t.base.RoundTrip(req)
}

// peer wraps a roundtrip.Client the way lib/auth's own HTTP client does:
// one small struct per server role, embedding roundtrip.Client for its
// Endpoint/Get/PostJSON helpers.
type peer struct {
	roundtrip.Client
}

func newPeer(addr string, authToken string) (*peer, error) {
	params := []roundtrip.ClientParam{}
	if authToken != "" {
		params = append(params, roundtrip.HTTPClient(&http.Client{
			Transport: &authTokenTransport{token: authToken, base: http.DefaultTransport},
		}))
	}
	c, err := roundtrip.NewClient(addr, "", params...)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return &peer{Client: *c}, nil
}

func (p *peer) getJSON(ctx context.Context, path string, out interface{}) error {
	resp, err := p.Get(ctx, p.Endpoint(path), url.Values{})
	if err != nil {
		return trace.Wrap(err)
	}
	return trace.Wrap(json.Unmarshal(resp.Bytes(), out))
}

func (p *peer) postJSON(ctx context.Context, path string, body, out interface{}) error {
	resp, err := p.PostJSON(ctx, p.Endpoint(path), body)
	if err != nil {
		return trace.Wrap(err)
	}
	return trace.Wrap(json.Unmarshal(resp.Bytes(), out))
}

// Client drives the hub-entry state machine for a single login attempt.
// phc and tr are unauthenticated peers, good for the pre-auth-token calls
// (Welcome, Enter, Ehpp); authenticated calls build their own peer from
// phcURL per invocation, since the auth token is only known once Enter
// has returned it and can change between calls (a fresh one is sealed on
// every add-attrs round).
type Client struct {
	phcURL string
	phc    *peer
	tr     *peer
}

// NewClient builds a Client pointed at PHC and the Transcryptor.
func NewClient(phcURL, transcryptorURL string) (*Client, error) {
	phc, err := newPeer(phcURL, "")
	if err != nil {
		return nil, trace.Wrap(err)
	}
	tr, err := newPeer(transcryptorURL, "")
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return &Client{phcURL: phcURL, phc: phc, tr: tr}, nil
}

// authenticatedPHC builds a peer that sends authToken on every request.
func (c *Client) authenticatedPHC(authToken string) (*peer, error) {
	return newPeer(c.phcURL, authToken)
}

// Welcome fetches PHC's constellation/hub roster.
func (c *Client) Welcome(ctx context.Context) (types.WelcomeResp, error) {
	var resp types.WelcomeResp
	if err := c.phc.getJSON(ctx, constants.PHCWelcome, &resp); err != nil {
		return types.WelcomeResp{}, trace.Wrap(err)
	}
	return resp, nil
}

// Enter runs phc.enter (login or register) and returns the sealed auth
// token on success.
func (c *Client) Enter(ctx context.Context, req types.EnterReq) (types.EnterResp, error) {
	var resp types.EnterResp
	if err := c.phc.postJSON(ctx, constants.PHCEnter, req, &resp); err != nil {
		return types.EnterResp{}, trace.Wrap(err)
	}
	return resp, nil
}

// Ppp fetches a fresh PPP using an already-obtained auth token.
func (c *Client) Ppp(ctx context.Context, authToken string) (types.PppResp, error) {
	phc, err := c.authenticatedPHC(authToken)
	if err != nil {
		return types.PppResp{}, trace.Wrap(err)
	}
	var out types.PppResp
	if err := phc.getJSON(ctx, constants.PHCPpp, &out); err != nil {
		return types.PppResp{}, trace.Wrap(err)
	}
	return out, nil
}

// Ehpp exchanges a PPP for an EHPP at the Transcryptor.
func (c *Client) Ehpp(ctx context.Context, req types.EhppReq) (types.EhppResp, error) {
	var resp types.EhppResp
	if err := c.tr.postJSON(ctx, constants.TranscryptorEhpp, req, &resp); err != nil {
		return types.EhppResp{}, trace.Wrap(err)
	}
	return resp, nil
}

// Hhpp exchanges an EHPP for an HHPP at PHC, using the same auth token
// that produced the PPP this EHPP descends from.
func (c *Client) Hhpp(ctx context.Context, authToken string, req types.HhppReq) (types.HhppResp, error) {
	phc, err := c.authenticatedPHC(authToken)
	if err != nil {
		return types.HhppResp{}, trace.Wrap(err)
	}
	var resp types.HhppResp
	if err := phc.postJSON(ctx, constants.PHCHhpp, req, &resp); err != nil {
		return types.HhppResp{}, trace.Wrap(err)
	}
	return resp, nil
}
