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

package phc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pubhubs/pubhubs/api/types"
)

func TestPutObjectThenGetRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	authToken := ts.registerUser(t, "alice@example.com", "+31600000000")

	payload := []byte("hello from alice's client")
	putResp, err := ts.srv.PutObject(ctxBG, authToken, "avatar", nil, payload)
	require.NoError(t, err)
	require.Equal(t, types.PutObjectOutcomeSuccess, putResp.Outcome)
	require.NotEmpty(t, putResp.Hash)
	require.NotEmpty(t, putResp.HMAC)

	got, outcome, err := ts.srv.GetObject(ctxBG, putResp.Hash, putResp.HMAC)
	require.NoError(t, err)
	require.Equal(t, types.GetObjectOutcomeSuccess, outcome)
	require.Equal(t, payload, got)
}

func TestGetObjectRejectsWrongHmac(t *testing.T) {
	ts := newTestServer(t)
	authToken := ts.registerUser(t, "bob@example.com", "+31611111111")

	putResp, err := ts.srv.PutObject(ctxBG, authToken, "avatar", nil, []byte("payload"))
	require.NoError(t, err)

	_, outcome, err := ts.srv.GetObject(ctxBG, putResp.Hash, "not-the-right-hmac")
	require.NoError(t, err)
	require.Equal(t, types.GetObjectOutcomeRetryWithNewHmac, outcome)
}

func TestGetObjectNotFound(t *testing.T) {
	ts := newTestServer(t)
	_, outcome, err := ts.srv.GetObject(ctxBG, "0000000000000000000000000000000000000000000000000000000000000000", "irrelevant")
	require.NoError(t, err)
	require.Equal(t, types.GetObjectOutcomeRetryWithNewHmac, outcome)
}

func TestPutObjectRequiresMatchingOverwriteHash(t *testing.T) {
	ts := newTestServer(t)
	authToken := ts.registerUser(t, "carol@example.com", "+31622222222")

	first, err := ts.srv.PutObject(ctxBG, authToken, "avatar", nil, []byte("v1"))
	require.NoError(t, err)
	require.Equal(t, types.PutObjectOutcomeSuccess, first.Outcome)

	// Overwriting without naming the existing hash is rejected.
	noHash, err := ts.srv.PutObject(ctxBG, authToken, "avatar", nil, []byte("v2"))
	require.NoError(t, err)
	require.Equal(t, types.PutObjectOutcomeMissingHash, noHash.Outcome)

	// Naming the wrong hash is rejected too.
	wrongHash := "not-the-real-hash"
	mismatch, err := ts.srv.PutObject(ctxBG, authToken, "avatar", &wrongHash, []byte("v2"))
	require.NoError(t, err)
	require.Equal(t, types.PutObjectOutcomeHashDidNotMatch, mismatch.Outcome)

	// The correct hash succeeds and replaces the stored object.
	second, err := ts.srv.PutObject(ctxBG, authToken, "avatar", &first.Hash, []byte("v2"))
	require.NoError(t, err)
	require.Equal(t, types.PutObjectOutcomeSuccess, second.Outcome)

	got, outcome, err := ts.srv.GetObject(ctxBG, second.Hash, second.HMAC)
	require.NoError(t, err)
	require.Equal(t, types.GetObjectOutcomeSuccess, outcome)
	require.Equal(t, []byte("v2"), got)
}

func TestPutObjectRejectsOverObjectCountQuota(t *testing.T) {
	ts := newTestServer(t)
	authToken := ts.registerUser(t, "dave@example.com", "+31633333333")

	for i := 0; i < 10; i++ {
		resp, err := ts.srv.PutObject(ctxBG, authToken, handleFor(i), nil, []byte("x"))
		require.NoError(t, err)
		require.Equal(t, types.PutObjectOutcomeSuccess, resp.Outcome)
	}

	resp, err := ts.srv.PutObject(ctxBG, authToken, handleFor(10), nil, []byte("x"))
	require.NoError(t, err)
	require.Equal(t, types.PutObjectOutcomeQuotumReached, resp.Outcome)
	require.Equal(t, types.QuotumObjectCount, resp.Quotum)
}

func handleFor(i int) string {
	return "handle-" + string(rune('a'+i))
}

func TestPutObjectRejectsBadAuthToken(t *testing.T) {
	ts := newTestServer(t)
	_, err := ts.srv.PutObject(ctxBG, "garbage-token", "avatar", nil, []byte("x"))
	require.Error(t, err)
}
