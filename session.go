// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//  http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

package cloudant

import (
	"context"
	"encoding/json"
)

// Session represents an authentication session as reported by the
// server's session endpoint.
type Session struct {
	// Name is the name of the authenticated user.
	Name string
	// Roles is a list of roles the user belongs to.
	Roles []string
	// AuthenticationMethod is the authentication method used for this
	// session.
	AuthenticationMethod string
	// AuthenticationDB is the database used for authentication.
	AuthenticationDB string
	// AuthenticationHandlers is a list of authentication handlers
	// configured on the server.
	AuthenticationHandlers []string
	// RawResponse is the raw JSON response sent by the server.
	RawResponse json.RawMessage
}

type sessionPayload struct {
	Data    json.RawMessage
	Info    authInfo    `json:"info"`
	UserCtx userContext `json:"userCtx"`
}

type authInfo struct {
	AuthenticationMethod   string   `json:"authenticated"`
	AuthenticationDB       string   `json:"authentication_db"`
	AuthenticationHandlers []string `json:"authentication_handlers"`
}

type userContext struct {
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

func (s *sessionPayload) UnmarshalJSON(data []byte) error {
	type alias sessionPayload
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*s = sessionPayload(a)
	s.Data = data
	return nil
}

// Session queries the session endpoint of the configured authentication
// strategy and returns information about the current session. A
// non-success response is returned as an error.
func (c *Client) Session(ctx context.Context) (*Session, error) {
	s := &sessionPayload{}
	if err := c.SessionInfo(ctx, s); err != nil {
		return nil, err
	}
	return &Session{
		Name:                   s.UserCtx.Name,
		Roles:                  s.UserCtx.Roles,
		AuthenticationMethod:   s.Info.AuthenticationMethod,
		AuthenticationDB:       s.Info.AuthenticationDB,
		AuthenticationHandlers: s.Info.AuthenticationHandlers,
		RawResponse:            s.Data,
	}, nil
}
