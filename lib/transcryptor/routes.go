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

package transcryptor

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/pubhubs/pubhubs/api/constants"
	"github.com/pubhubs/pubhubs/api/types"
	"github.com/pubhubs/pubhubs/lib/httplib"
)

// NewRouter builds the httprouter.Router serving transcryptord's wire
// contract (spec section 6.1).
func (s *Server) NewRouter() *httprouter.Router {
	router := httprouter.New()

	router.GET(constants.TranscryptorWelcome, httplib.MakeHandler(func(w http.ResponseWriter, r *http.Request, p httprouter.Params) (interface{}, error) {
		return s.Welcome(), nil
	}))

	router.POST(constants.TranscryptorEhpp, httplib.MakeHandler(func(w http.ResponseWriter, r *http.Request, p httprouter.Params) (interface{}, error) {
		var req types.EhppReq
		if err := httplib.ReadJSON(r, &req); err != nil {
			return nil, err
		}
		return s.Ehpp(req)
	}))

	return router
}
