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

// Package constants collects the fixed strings every constellation member
// and client must agree on bit-for-bit: header names and wire endpoint
// paths (spec section 6).
package constants

// AuthHeader is the header carrying a sealed auth token, per spec section
// 6.2: "Authorization: PHC-Auth <base64url(sealed AuthTokenInner)>".
const AuthHeader = "Authorization"

// AuthHeaderScheme is the scheme prefix within AuthHeader.
const AuthHeaderScheme = "PHC-Auth"

// PHC endpoints (spec section 6.1).
const (
	PHCWelcome     = "/phc/user/welcome"
	PHCUserState   = "/phc/user/state"
	PHCEnter       = "/phc/user/enter"
	PHCPpp         = "/phc/user/ppp"
	PHCHhpp        = "/phc/user/hhpp"
	PHCObjNew      = "/phc/user/obj/:handle"
	PHCObjOverwrite = "/phc/user/obj/:handle/:overwrite_hash"
	PHCObjGet      = "/phc/user/obj/:hash/:hmac"
)

// Transcryptor endpoints.
const (
	TranscryptorWelcome = "/tr/welcome"
	TranscryptorEhpp    = "/tr/ehpp"
)

// Auth endpoints.
const (
	AuthWelcome            = "/auths/welcome"
	AuthStart              = "/auths/start"
	AuthComplete           = "/auths/complete"
	AuthWaitForResult      = "/auths/wait_for_result"
	AuthReleaseNextSession = "/auths/release_next_session"
	AuthCard               = "/auths/card"
	AuthYiviNextSession    = "/auths/yivi/next-session"
)

// Hub endpoints (external collaborator, bit-exact - spec section 6.1).
const (
	HubInfo           = "/.ph/info"
	HubEnterStart     = "/enter/start"
	HubEnterComplete  = "/enter/complete"
)

// Object store key prefixes (spec section 6.3).
const (
	PrefixUser    = "user"
	PrefixAttr    = "attr"
	PrefixUserObj = "user-obj"
)
