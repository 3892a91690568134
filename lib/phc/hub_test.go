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
)

func TestRegisterHubRejectsNameCollision(t *testing.T) {
	ts := newTestServer(t)
	_, err := ts.srv.RegisterHub(RegisterHubReq{Name: "chat.example.com"})
	require.NoError(t, err)

	_, err = ts.srv.RegisterHub(RegisterHubReq{Name: "chat.example.com"})
	require.Error(t, err)
}

func TestRotateDecryptionIDChangesOnlyThatField(t *testing.T) {
	ts := newTestServer(t)
	hub, err := ts.srv.RegisterHub(RegisterHubReq{Name: "chat.example.com", Description: "main chat hub"})
	require.NoError(t, err)

	rotated, err := ts.srv.RotateDecryptionID(hub.ID)
	require.NoError(t, err)
	require.Equal(t, hub.ID, rotated.ID)
	require.Equal(t, hub.Name, rotated.Name)
	require.NotEqual(t, hub.DecryptionID, rotated.DecryptionID)
}

func TestRotateDecryptionIDUnknownHub(t *testing.T) {
	ts := newTestServer(t)
	_, err := ts.srv.RotateDecryptionID("no-such-hub")
	require.Error(t, err)
}

func TestSetHubActiveControlsWelcomeVisibility(t *testing.T) {
	ts := newTestServer(t)
	hub, err := ts.srv.RegisterHub(RegisterHubReq{Name: "chat.example.com"})
	require.NoError(t, err)

	welcome := ts.srv.Welcome()
	require.Contains(t, welcome.Hubs, hub.ID)

	_, err = ts.srv.SetHubActive(hub.ID, false)
	require.NoError(t, err)

	welcome = ts.srv.Welcome()
	require.NotContains(t, welcome.Hubs, hub.ID)
}

func TestHubLookupUnknown(t *testing.T) {
	ts := newTestServer(t)
	_, err := ts.srv.Hub("no-such-hub")
	require.Error(t, err)
}
