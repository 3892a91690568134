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

package authserver

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/pubhubs/pubhubs/api/constants"
	"github.com/pubhubs/pubhubs/api/types"
	"github.com/pubhubs/pubhubs/lib/httplib"
)

// NewRouter builds the httprouter.Router serving authsd's wire contract
// (spec section 6.1).
func (s *Server) NewRouter() *httprouter.Router {
	router := httprouter.New()

	router.GET(constants.AuthWelcome, httplib.MakeHandler(func(w http.ResponseWriter, r *http.Request, p httprouter.Params) (interface{}, error) {
		attrTypes := make([]string, 0, len(s.catalog))
		for at := range s.catalog {
			attrTypes = append(attrTypes, at)
		}
		return types.AuthWelcomeResp{AttrTypes: attrTypes}, nil
	}))

	router.POST(constants.AuthStart, httplib.MakeHandler(func(w http.ResponseWriter, r *http.Request, p httprouter.Params) (interface{}, error) {
		var req types.AuthStartReq
		if err := httplib.ReadJSON(r, &req); err != nil {
			return nil, err
		}
		return s.Start(req)
	}))

	router.POST(constants.AuthComplete, httplib.MakeHandler(func(w http.ResponseWriter, r *http.Request, p httprouter.Params) (interface{}, error) {
		var req types.AuthCompleteReq
		if err := httplib.ReadJSON(r, &req); err != nil {
			return nil, err
		}
		return s.Complete(req)
	}))

	router.POST(constants.AuthWaitForResult, httplib.MakeHandler(func(w http.ResponseWriter, r *http.Request, p httprouter.Params) (interface{}, error) {
		var req struct {
			State string `json:"state"`
		}
		if err := httplib.ReadJSON(r, &req); err != nil {
			return nil, err
		}
		return s.WaitForResult(r.Context(), req.State)
	}))

	router.POST(constants.AuthReleaseNextSession, httplib.MakeHandler(func(w http.ResponseWriter, r *http.Request, p httprouter.Params) (interface{}, error) {
		var req types.ReleaseNextSessionReq
		if err := httplib.ReadJSON(r, &req); err != nil {
			return nil, err
		}
		inner, err := s.openState(req.State)
		if err != nil {
			return types.ReleaseNextSessionResp{Outcome: types.ReleaseNextSessionPleaseRestartAuth}, nil
		}
		sessionID, err := s.chainedSessionID(inner)
		if err != nil {
			return types.ReleaseNextSessionResp{Outcome: types.ReleaseNextSessionPleaseRestartAuth}, nil
		}
		return s.ReleaseNextSession(sessionID, req.NextSession), nil
	}))

	router.POST(constants.AuthCard, httplib.MakeHandler(func(w http.ResponseWriter, r *http.Request, p httprouter.Params) (interface{}, error) {
		var req types.AuthCardReq
		if err := httplib.ReadJSON(r, &req); err != nil {
			return nil, err
		}
		return s.Card(req)
	}))

	return router
}
