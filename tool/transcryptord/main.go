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

// Command transcryptord runs the Transcryptor: the single RSK step that
// turns a PHC-issued PPP into a hub-targeted EHPP without ever learning
// which user is acting (spec section 4.4).
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gravitational/trace"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/pubhubs/pubhubs/lib/config"
	"github.com/pubhubs/pubhubs/lib/transcryptor"
)

func main() {
	log := logrus.WithField("service", "transcryptord")
	if err := run(log); err != nil {
		log.WithError(err).Fatal("transcryptord: exiting")
	}
}

func run(log *logrus.Entry) error {
	if len(os.Args) < 2 {
		return trace.BadParameter("usage: transcryptord <config.yaml>")
	}
	cfg, err := config.LoadTranscryptor(os.Args[1])
	if err != nil {
		return trace.Wrap(err)
	}

	clock := clockwork.NewRealClock()

	masterShare, err := config.ParseScalar("master_share", cfg.MasterShareHex)
	if err != nil {
		return trace.Wrap(err)
	}
	pppVerifyKey, err := config.LoadVerifyKey(clock, cfg.PPPVerifyKey)
	if err != nil {
		return trace.Wrap(err, "loading ppp_verify_key")
	}
	ehppSignKey, err := config.LoadSignKey(clock, cfg.EHPPSignKey)
	if err != nil {
		return trace.Wrap(err, "loading ehpp_sign_key")
	}
	info, err := cfg.ConstellationInfo.Info()
	if err != nil {
		return trace.Wrap(err, "loading constellation_info")
	}

	srv := transcryptor.NewServer(transcryptor.Config{
		Clock:         clock,
		MasterShare:   masterShare,
		PPPVerifyKey:  pppVerifyKey,
		EHPPSignKey:   ehppSignKey,
		Hubs:          transcryptor.NewStaticRegistry(masterShare),
		Constellation: info,
	})

	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: srv.NewRouter()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		log.Info("transcryptord: shutting down")
		_ = httpServer.Shutdown(context.Background())
	}()

	log.WithField("addr", cfg.ListenAddr).Info("transcryptord: listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return trace.Wrap(err)
	}
	return nil
}
