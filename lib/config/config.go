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

// Package config loads the YAML bootstrap file each server role
// (phcd/transcryptord/authsd) reads at startup: listen address, storage
// backend, key material paths, and role-specific settings.
package config

import (
	"encoding/hex"
	"os"
	"time"

	"github.com/gravitational/trace"
	"gopkg.in/yaml.v2"

	"github.com/pubhubs/pubhubs/lib/attributes"
	"github.com/pubhubs/pubhubs/lib/constellation"
	"github.com/pubhubs/pubhubs/lib/pep"
	"github.com/pubhubs/pubhubs/lib/seal"
)

// KeyConfig names where a server's key material lives on disk: a private
// signing/sealing key, and optionally a separate verify key for a peer.
type KeyConfig struct {
	Algorithm string `yaml:"algorithm"`
	File      string `yaml:"file"`
}

// ConstellationConfig is the bootstrap file's description of the three
// peer servers' public URLs, used to build a constellation.Info once every
// server has published its own Welcome response.
type ConstellationConfig struct {
	PHCURL          string `yaml:"phc_url"`
	TranscryptorURL string `yaml:"transcryptor_url"`
	AuthsURL        string `yaml:"auths_url"`
}

// Common holds the settings every server role shares.
type Common struct {
	ListenAddr    string              `yaml:"listen_addr"`
	Constellation ConstellationConfig `yaml:"constellation"`
}

// AttrTypeConfig is one row of a bootstrap file's attr_types table - the
// Identifying/Bannable policy every constellation member must agree on
// for a given attr_type (spec section 4.3's catalog, never trusted from
// an issuer at runtime).
type AttrTypeConfig struct {
	Name        string `yaml:"name"`
	Identifying bool   `yaml:"identifying"`
	Bannable    bool   `yaml:"bannable"`
}

// Catalog converts a bootstrap file's attr_types table into an
// attributes.Catalog.
func Catalog(rows []AttrTypeConfig) attributes.Catalog {
	catalog := make(attributes.Catalog, len(rows))
	for _, row := range rows {
		catalog[row.Name] = attributes.TypeInfo{Identifying: row.Identifying, Bannable: row.Bannable}
	}
	return catalog
}

// ConstellationInfoConfig is the bootstrap file's copy of the published,
// finalized constellation.Info every member loads identically - the admin
// runs constellation.Info.Finalize() once and distributes the result.
type ConstellationInfoConfig struct {
	MasterEncKey      string    `yaml:"master_enc_key"`
	TranscryptorURL   string    `yaml:"transcryptor_url"`
	PHCURL            string    `yaml:"phc_url"`
	AuthsURL          string    `yaml:"auths_url"`
	PHCJWTVerifyKey   string    `yaml:"phc_jwt_vk"`
	TJWTVerifyKey     string    `yaml:"t_jwt_vk"`
	AuthsJWTVerifyKey string    `yaml:"auths_jwt_vk"`
	PHCEncVerifyKey   string    `yaml:"phc_enc_vk"`
	TEncVerifyKey     string    `yaml:"t_enc_vk"`
	AuthsEncVerifyKey string    `yaml:"auths_enc_vk"`
	CreatedAt         time.Time `yaml:"created_at"`
	ID                string    `yaml:"id"`
}

// Info converts a bootstrap file's constellation block into a
// constellation.Info, verifying it is internally consistent.
func (c ConstellationInfoConfig) Info() (constellation.Info, error) {
	info := constellation.Info{
		MasterEncKey:      c.MasterEncKey,
		TranscryptorURL:   c.TranscryptorURL,
		PHCURL:            c.PHCURL,
		AuthsURL:          c.AuthsURL,
		PHCJWTVerifyKey:   c.PHCJWTVerifyKey,
		TJWTVerifyKey:     c.TJWTVerifyKey,
		AuthsJWTVerifyKey: c.AuthsJWTVerifyKey,
		PHCEncVerifyKey:   c.PHCEncVerifyKey,
		TEncVerifyKey:     c.TEncVerifyKey,
		AuthsEncVerifyKey: c.AuthsEncVerifyKey,
		CreatedAt:         c.CreatedAt,
		ID:                c.ID,
	}
	if err := info.CheckConsistent(); err != nil {
		return constellation.Info{}, trace.Wrap(err)
	}
	return info, nil
}

// PHCConfig is phcd's bootstrap file.
type PHCConfig struct {
	Common `yaml:",inline"`

	MasterShareHex     string `yaml:"master_share"`
	MasterPublicKeyHex string `yaml:"master_public_key"`

	AuthTokenKeyHex string `yaml:"auth_token_key"`
	AuthWindow      time.Duration `yaml:"auth_window"`

	PPPSignKey    KeyConfig `yaml:"ppp_sign_key"`
	HHPPSignKey   KeyConfig `yaml:"hhpp_sign_key"`
	EHPPVerifyKey KeyConfig `yaml:"ehpp_verify_key"`
	AuthVerifyKey KeyConfig `yaml:"auth_verify_key"`

	AttrIDSecretHex         string `yaml:"attr_id_secret"`
	UserObjectHMACSecretHex string `yaml:"user_object_hmac_secret"`

	ObjectCount      int   `yaml:"object_count"`
	ObjectBytesTotal int64 `yaml:"object_bytes_total"`

	AttrTypes         []AttrTypeConfig        `yaml:"attr_types"`
	ConstellationInfo ConstellationInfoConfig `yaml:"constellation_info"`
}

// TranscryptorConfig is transcryptord's bootstrap file.
type TranscryptorConfig struct {
	Common `yaml:",inline"`

	MasterShareHex string    `yaml:"master_share"`
	PPPVerifyKey   KeyConfig `yaml:"ppp_verify_key"`
	EHPPSignKey    KeyConfig `yaml:"ehpp_sign_key"`

	ConstellationInfo ConstellationInfoConfig `yaml:"constellation_info"`
}

// AuthConfig is authsd's bootstrap file.
type AuthConfig struct {
	Common `yaml:",inline"`

	StateKeyHex   string        `yaml:"state_key"`
	CarrierKeyHex string        `yaml:"carrier_key"`
	AuthWindow    time.Duration `yaml:"auth_window"`

	AttrTypes []AttrTypeConfig `yaml:"attr_types"`

	// IssuerVerifyKeys maps an issuer source name (e.g. "yivi") to the
	// key file verifying that issuer's disclosure JWTs.
	IssuerVerifyKeys map[string]KeyConfig `yaml:"issuer_verify_keys"`

	ConstellationInfo ConstellationInfoConfig `yaml:"constellation_info"`
}

// LoadPHC reads and parses a phcd bootstrap file.
func LoadPHC(path string) (PHCConfig, error) {
	var cfg PHCConfig
	if err := readYAML(path, &cfg); err != nil {
		return PHCConfig{}, trace.Wrap(err)
	}
	return cfg, nil
}

// LoadTranscryptor reads and parses a transcryptord bootstrap file.
func LoadTranscryptor(path string) (TranscryptorConfig, error) {
	var cfg TranscryptorConfig
	if err := readYAML(path, &cfg); err != nil {
		return TranscryptorConfig{}, trace.Wrap(err)
	}
	return cfg, nil
}

// LoadAuth reads and parses an authsd bootstrap file.
func LoadAuth(path string) (AuthConfig, error) {
	var cfg AuthConfig
	if err := readYAML(path, &cfg); err != nil {
		return AuthConfig{}, trace.Wrap(err)
	}
	return cfg, nil
}

func readYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return trace.Wrap(err, "reading config file %q", path)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return trace.Wrap(err, "parsing config file %q", path)
	}
	return nil
}

// ParseScalar decodes a hex-encoded master-share scalar from a config
// field, erroring with the field's name for a clearer bootstrap failure.
func ParseScalar(field, hexValue string) (pep.Scalar, error) {
	if hexValue == "" {
		return pep.Scalar{}, trace.BadParameter("config: %s is required", field)
	}
	s, err := pep.ScalarFromHex(hexValue)
	if err != nil {
		return pep.Scalar{}, trace.Wrap(err, "config: invalid %s", field)
	}
	return s, nil
}

// ParsePoint decodes a hex-encoded public-key point from a config field.
func ParsePoint(field, hexValue string) (pep.Point, error) {
	if hexValue == "" {
		return pep.Point{}, trace.BadParameter("config: %s is required", field)
	}
	p, err := pep.PointFromHex(hexValue)
	if err != nil {
		return pep.Point{}, trace.Wrap(err, "config: invalid %s", field)
	}
	return p, nil
}

// ParseSealKey decodes a hex-encoded seal.Key from a config field.
func ParseSealKey(field, hexValue string) (seal.Key, error) {
	var key seal.Key
	b, err := hex.DecodeString(hexValue)
	if err != nil {
		return key, trace.Wrap(err, "config: invalid %s", field)
	}
	if len(b) != seal.KeySize {
		return key, trace.BadParameter("config: %s must be %d bytes, got %d", field, seal.KeySize, len(b))
	}
	copy(key[:], b)
	return key, nil
}
