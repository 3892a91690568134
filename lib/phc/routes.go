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
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/pubhubs/pubhubs/api/constants"
	"github.com/pubhubs/pubhubs/api/types"
	"github.com/pubhubs/pubhubs/lib/httplib"
)

// authHeader extracts the PHC-Auth header's token, trimming its scheme
// prefix if present; phc.authenticate rejects anything else.
func authHeader(r *http.Request) string {
	v := r.Header.Get(constants.AuthHeader)
	prefix := constants.AuthHeaderScheme + " "
	if len(v) > len(prefix) && v[:len(prefix)] == prefix {
		return v[len(prefix):]
	}
	return v
}

// NewRouter builds the httprouter.Router serving phcd's wire contract
// (spec section 6.1), ready to hand to http.Server.
func (s *Server) NewRouter() *httprouter.Router {
	router := httprouter.New()

	router.GET(constants.PHCWelcome, httplib.MakeHandler(func(w http.ResponseWriter, r *http.Request, p httprouter.Params) (interface{}, error) {
		return s.Welcome(), nil
	}))

	router.GET(constants.PHCUserState, httplib.MakeHandler(func(w http.ResponseWriter, r *http.Request, p httprouter.Params) (interface{}, error) {
		return s.UserState(r.Context(), authHeader(r))
	}))

	router.POST(constants.PHCEnter, httplib.MakeHandler(func(w http.ResponseWriter, r *http.Request, p httprouter.Params) (interface{}, error) {
		var req types.EnterReq
		if err := httplib.ReadJSON(r, &req); err != nil {
			return nil, err
		}
		return s.Enter(r.Context(), req)
	}))

	router.GET(constants.PHCPpp, httplib.MakeHandler(func(w http.ResponseWriter, r *http.Request, p httprouter.Params) (interface{}, error) {
		return s.Ppp(r.Context(), authHeader(r))
	}))

	router.POST(constants.PHCHhpp, httplib.MakeHandler(func(w http.ResponseWriter, r *http.Request, p httprouter.Params) (interface{}, error) {
		var req types.HhppReq
		if err := httplib.ReadJSON(r, &req); err != nil {
			return nil, err
		}
		return s.Hhpp(r.Context(), authHeader(r), req)
	}))

	router.POST(constants.PHCObjNew, httplib.MakeHandler(s.handlePutObject))
	router.POST(constants.PHCObjOverwrite, httplib.MakeHandler(s.handlePutObject))
	router.GET(constants.PHCObjGet, httplib.MakeHandler(func(w http.ResponseWriter, r *http.Request, p httprouter.Params) (interface{}, error) {
		payload, outcome, err := s.GetObject(r.Context(), p.ByName("hash"), p.ByName("hmac"))
		if err != nil {
			return nil, err
		}
		if outcome != types.GetObjectOutcomeSuccess {
			return types.PutObjectResp{Outcome: types.PutObjectOutcome(outcome)}, nil
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.WriteHeader(http.StatusOK)
		_, werr := w.Write(payload)
		return nil, werr
	}))

	return router
}

func (s *Server) handlePutObject(w http.ResponseWriter, r *http.Request, p httprouter.Params) (interface{}, error) {
	payload, err := httplib.ReadBody(r)
	if err != nil {
		return nil, err
	}
	var overwriteHash *string
	if h := p.ByName("overwrite_hash"); h != "" {
		overwriteHash = &h
	}
	return s.PutObject(r.Context(), authHeader(r), p.ByName("handle"), overwriteHash, payload)
}
