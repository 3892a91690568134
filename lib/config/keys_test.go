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

package config

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func writeEd25519PrivatePEM(t *testing.T, dir string, priv ed25519.PrivateKey) string {
	t.Helper()
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)
	path := filepath.Join(dir, "sign.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), 0o600))
	return path
}

func writeEd25519PublicPEM(t *testing.T, dir string, pub ed25519.PublicKey) string {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(pub)
	require.NoError(t, err)
	path := filepath.Join(dir, "verify.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), 0o600))
	return path
}

func TestLoadSignKeyThenLoadVerifyKeyEdDSA(t *testing.T) {
	dir := t.TempDir()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	signPath := writeEd25519PrivatePEM(t, dir, priv)
	verifyPath := writeEd25519PublicPEM(t, dir, pub)

	clock := clockwork.NewFakeClock()
	signKey, err := LoadSignKey(clock, KeyConfig{Algorithm: "EdDSA", File: signPath})
	require.NoError(t, err)
	require.NotNil(t, signKey)

	verifyKey, err := LoadVerifyKey(clock, KeyConfig{Algorithm: "EdDSA", File: verifyPath})
	require.NoError(t, err)
	require.NotNil(t, verifyKey)
}

func TestLoadSignKeyHS256(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "secret.hex")
	require.NoError(t, os.WriteFile(path, []byte(hex.EncodeToString([]byte("a 32 byte hmac secret!!!!!!!!!!"))+"\n"), 0o600))

	key, err := LoadSignKey(clockwork.NewFakeClock(), KeyConfig{Algorithm: "HS256", File: path})
	require.NoError(t, err)
	require.NotNil(t, key)
}

func TestLoadSignKeyRejectsUnknownAlgorithm(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "whatever")
	require.NoError(t, os.WriteFile(path, []byte("irrelevant"), 0o600))

	_, err := LoadSignKey(clockwork.NewFakeClock(), KeyConfig{Algorithm: "ROT13", File: path})
	require.Error(t, err)
}

func TestLoadSignKeyRejectsMissingFile(t *testing.T) {
	_, err := LoadSignKey(clockwork.NewFakeClock(), KeyConfig{Algorithm: "EdDSA", File: "/no/such/file.pem"})
	require.Error(t, err)
}

func TestLoadSignKeyRejectsNonPEMContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sign.pem")
	require.NoError(t, os.WriteFile(path, []byte("not a pem file"), 0o600))

	_, err := LoadSignKey(clockwork.NewFakeClock(), KeyConfig{Algorithm: "EdDSA", File: path})
	require.Error(t, err)
}
