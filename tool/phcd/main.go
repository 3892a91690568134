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

// Command phcd runs PubHubs Central: the master account store, the
// login/register entrypoint, pseudonym minting and finalization, the user
// blob store, and hub registration (spec section 4.5).
package main

import (
	"context"
	"encoding/hex"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gravitational/trace"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/pubhubs/pubhubs/api/types"
	"github.com/pubhubs/pubhubs/lib/backend"
	"github.com/pubhubs/pubhubs/lib/backend/memory"
	"github.com/pubhubs/pubhubs/lib/config"
	"github.com/pubhubs/pubhubs/lib/phc"
)

func main() {
	log := logrus.WithField("service", "phcd")
	if err := run(log); err != nil {
		log.WithError(err).Fatal("phcd: exiting")
	}
}

func run(log *logrus.Entry) error {
	if len(os.Args) < 2 {
		return trace.BadParameter("usage: phcd <config.yaml>")
	}
	cfg, err := config.LoadPHC(os.Args[1])
	if err != nil {
		return trace.Wrap(err)
	}

	clock := clockwork.NewRealClock()

	masterShare, err := config.ParseScalar("master_share", cfg.MasterShareHex)
	if err != nil {
		return trace.Wrap(err)
	}
	masterPublicKey, err := config.ParsePoint("master_public_key", cfg.MasterPublicKeyHex)
	if err != nil {
		return trace.Wrap(err)
	}
	authTokenKey, err := config.ParseSealKey("auth_token_key", cfg.AuthTokenKeyHex)
	if err != nil {
		return trace.Wrap(err)
	}
	attrIDSecret, err := decodeHex("attr_id_secret", cfg.AttrIDSecretHex)
	if err != nil {
		return trace.Wrap(err)
	}
	userObjectHMACSecret, err := decodeHex("user_object_hmac_secret", cfg.UserObjectHMACSecretHex)
	if err != nil {
		return trace.Wrap(err)
	}

	pppSignKey, err := config.LoadSignKey(clock, cfg.PPPSignKey)
	if err != nil {
		return trace.Wrap(err, "loading ppp_sign_key")
	}
	hhppSignKey, err := config.LoadSignKey(clock, cfg.HHPPSignKey)
	if err != nil {
		return trace.Wrap(err, "loading hhpp_sign_key")
	}
	ehppVerifyKey, err := config.LoadVerifyKey(clock, cfg.EHPPVerifyKey)
	if err != nil {
		return trace.Wrap(err, "loading ehpp_verify_key")
	}
	authVerifyKey, err := config.LoadVerifyKey(clock, cfg.AuthVerifyKey)
	if err != nil {
		return trace.Wrap(err, "loading auth_verify_key")
	}

	info, err := cfg.ConstellationInfo.Info()
	if err != nil {
		return trace.Wrap(err, "loading constellation_info")
	}

	srv := phc.NewServer(phc.Config{
		Clock:                clock,
		Store:                openStore(),
		AuthTokenKey:         authTokenKey,
		AuthWindow:           cfg.AuthWindow,
		PPPSignKey:           pppSignKey,
		HHPPSignKey:          hhppSignKey,
		EHPPVerifyKey:        ehppVerifyKey,
		AuthVerifyKey:        authVerifyKey,
		MasterShare:          masterShare,
		MasterPublicKey:      masterPublicKey,
		AttrIDSecret:         attrIDSecret,
		UserObjectHMACSecret: userObjectHMACSecret,
		Catalog:              config.Catalog(cfg.AttrTypes),
		Quota:                types.Quota{ObjectCount: cfg.ObjectCount, ObjectBytesTotal: cfg.ObjectBytesTotal},
		Constellation:        info,
	})

	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: srv.NewRouter()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		log.Info("phcd: shutting down")
		_ = httpServer.Shutdown(context.Background())
	}()

	log.WithField("addr", cfg.ListenAddr).Info("phcd: listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return trace.Wrap(err)
	}
	return nil
}

// openStore builds the object store backing phcd's user/attr/blob state.
// A durable backend (etcd, DynamoDB, Firestore - see lib/backend) plugs in
// here; memory.New is the bootstrap default for a fresh constellation.
func openStore() backend.Backend {
	return memory.New()
}

func decodeHex(field, hexValue string) ([]byte, error) {
	b, err := hex.DecodeString(hexValue)
	if err != nil {
		return nil, trace.Wrap(err, "config: invalid %s", field)
	}
	return b, nil
}
