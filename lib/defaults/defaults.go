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

// Package defaults holds the fallback values config.go applies when a
// bootstrap file leaves a setting unset, mirroring lib/defaults in the
// teacher's tree.
package defaults

import "time"

const (
	// AuthWindow is how long a sealed auth token remains valid after
	// issuance, spec section 3: "exp - iat = auth_window (configurable,
	// default 1h)".
	AuthWindow = time.Hour

	// PPPLifetime, EHPPLifetime and HHPPLifetime are the short exp windows
	// for the three pseudonym-pipeline JWTs, spec section 3: "expire in
	// seconds-to-minutes".
	PPPLifetime  = 30 * time.Second
	EHPPLifetime = 30 * time.Second
	HHPPLifetime = 30 * time.Second

	// WaitForResultTimeout bounds auth.wait_for_result, spec section 5:
	// "wait_for_result bounds at 24h by default to accommodate slow
	// physical-card issuance".
	WaitForResultTimeout = 24 * time.Hour

	// RPCTimeout bounds every outbound server-to-server RPC (spec section
	// 5: "every outbound RPC carries a bounded timeout").
	RPCTimeout = 10 * time.Second

	// MaxBodySize caps a forwarded peer request body (spec section 5).
	MaxBodySize = 1 << 20 // 1 MiB

	// CarrierLifetime is how long an Attr signed carrier from Auth stays
	// valid before phc.enter must reject it as Expired.
	CarrierLifetime = 5 * time.Minute
)

// DefaultObjectCount and DefaultObjectBytesTotal are the quota applied to
// a user's blob store absent explicit server configuration (spec section
// 4.5.5).
const (
	DefaultObjectCount      = 64
	DefaultObjectBytesTotal = 64 << 20 // 64 MiB
)
