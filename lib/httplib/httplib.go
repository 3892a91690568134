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

// Package httplib provides the thin httprouter/trace glue every
// constellation member's API server uses: MakeHandler adapts a
// (interface{}, error)-returning function into an httprouter.Handle,
// encoding the result as JSON or writing a trace-formatted error.
package httplib

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gravitational/trace"
	"github.com/julienschmidt/httprouter"

	"github.com/pubhubs/pubhubs/lib/defaults"
)

// HandlerFunc is the shape every wire endpoint implements: read the
// request, do the work, return a JSON-able response or an error.
type HandlerFunc func(w http.ResponseWriter, r *http.Request, p httprouter.Params) (interface{}, error)

// MakeHandler adapts fn into an httprouter.Handle: on success it encodes
// the returned value as a JSON body with status 200; on error it writes a
// trace-formatted error response via trace.WriteError.
func MakeHandler(fn HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		out, err := fn(w, r, p)
		if err != nil {
			trace.WriteError(w, err)
			return
		}
		if out == nil {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(out); err != nil {
			trace.WriteError(w, trace.Wrap(err))
		}
	}
}

// ReadJSON decodes r's body into v, rejecting bodies over
// defaults.MaxBodySize (spec section 5: "peer-forwarded request bodies
// capped by a configurable max_body_size").
func ReadJSON(r *http.Request, v interface{}) error {
	body := io.LimitReader(r.Body, defaults.MaxBodySize+1)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if err == io.EOF {
			return trace.BadParameter("httplib: empty request body")
		}
		return trace.BadParameter("httplib: invalid request body: %v", err)
	}
	return nil
}

// ReadBody reads r's raw body, rejecting anything over
// defaults.MaxBodySize, for endpoints that carry opaque bytes rather than
// JSON (the user blob store's PutObject).
func ReadBody(r *http.Request) ([]byte, error) {
	body := io.LimitReader(r.Body, defaults.MaxBodySize+1)
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, trace.Wrap(err, "httplib: reading request body")
	}
	if int64(len(data)) > defaults.MaxBodySize {
		return nil, trace.BadParameter("httplib: request body exceeds max_body_size")
	}
	return data, nil
}

// WriteJSON writes v as a JSON response body with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
