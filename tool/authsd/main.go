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

// Command authsd runs the Authentication Server: the issuer-facing
// disclosure flow that turns a proof of attribute possession into signed
// Attr carriers PHC will accept at enter time (spec section 4.3).
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
	"gopkg.in/square/go-jose.v2"

	"github.com/pubhubs/pubhubs/lib/authserver"
	"github.com/pubhubs/pubhubs/lib/config"
	"github.com/pubhubs/pubhubs/lib/pepjwt"
)

func main() {
	log := logrus.WithField("service", "authsd")
	if err := run(log); err != nil {
		log.WithError(err).Fatal("authsd: exiting")
	}
}

func run(log *logrus.Entry) error {
	if len(os.Args) < 2 {
		return trace.BadParameter("usage: authsd <config.yaml>")
	}
	cfg, err := config.LoadAuth(os.Args[1])
	if err != nil {
		return trace.Wrap(err)
	}

	clock := clockwork.NewRealClock()

	stateKey, err := config.ParseSealKey("state_key", cfg.StateKeyHex)
	if err != nil {
		return trace.Wrap(err)
	}
	carrierKey, err := loadCarrierKey(clock, cfg)
	if err != nil {
		return trace.Wrap(err, "loading carrier_key")
	}

	issuerKeys := make(map[authserver.IssuerSource]*pepjwt.Key, len(cfg.IssuerVerifyKeys))
	for source, kc := range cfg.IssuerVerifyKeys {
		key, err := config.LoadVerifyKey(clock, kc)
		if err != nil {
			return trace.Wrap(err, "loading issuer_verify_key for %q", source)
		}
		issuerKeys[authserver.IssuerSource(source)] = key
	}

	info, err := cfg.ConstellationInfo.Info()
	if err != nil {
		return trace.Wrap(err, "loading constellation_info")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := authserver.NewServer(ctx, authserver.Config{
		Clock:            clock,
		StateKey:         stateKey,
		AuthWindow:       cfg.AuthWindow,
		CarrierKey:       carrierKey,
		IssuerVerifyKeys: issuerKeys,
		Catalog:          config.Catalog(cfg.AttrTypes),
		ConstellationID:  info.ID,
	})

	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: srv.NewRouter()}
	go func() {
		<-ctx.Done()
		log.Info("authsd: shutting down")
		_ = httpServer.Shutdown(context.Background())
	}()

	log.WithField("addr", cfg.ListenAddr).Info("authsd: listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return trace.Wrap(err)
	}
	return nil
}

// loadCarrierKey reads authsd's own signing key for Attr carriers from the
// CarrierKeyHex bootstrap field: a raw hex HMAC secret, matching how
// carrier verification is configured everywhere else (spec section 4.3).
func loadCarrierKey(clock clockwork.Clock, cfg config.AuthConfig) (*pepjwt.Key, error) {
	secret, err := hex.DecodeString(cfg.CarrierKeyHex)
	if err != nil {
		return nil, trace.Wrap(err, "config: invalid carrier_key")
	}
	return pepjwt.New(pepjwt.Config{Clock: clock, Algorithm: jose.HS256, SignKey: secret, VerifyKey: secret})
}
