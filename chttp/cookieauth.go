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

package chttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ajg/form"

	"github.com/go-cloudant/cloudant/errors"
)

// errorPeekLimit bounds how much of an error body is buffered when
// deciding whether credentials have expired.
const errorPeekLimit = 4096

// cookieAuth provides CouchDB Cookie auth services as described at
// http://docs.couchdb.org/en/stable/api/server/authn.html#cookie-authentication
//
// Renewal is strictly reactive: nothing happens until the server answers
// 401, or 403 with a credentials_expired error body.
type cookieAuth struct {
	Username string `form:"name"`
	Password string `form:"password"`
}

var (
	_ Renewer = &cookieAuth{}
	_ Option  = (*cookieAuth)(nil)
)

func (a *cookieAuth) Apply(target interface{}) {
	if client, ok := target.(*Client); ok {
		// Clone this so that it's safe to re-use the same option for
		// multiple client connections.
		client.renewer = &cookieAuth{
			Username: a.Username,
			Password: a.Password,
		}
	}
}

func (a *cookieAuth) String() string {
	return fmt.Sprintf("[CookieAuth{user:%s,pass:%s}]", a.Username, strings.Repeat("*", len(a.Password)))
}

// SessionPath returns the cookie session endpoint.
func (*cookieAuth) SessionPath() string { return "/_session" }

// Login initiates a session with the server, posting the credentials as
// form data. The session cookie is captured by the client's cookie jar.
func (a *cookieAuth) Login(ctx context.Context, c *Client) error {
	opts := &Options{
		ContentType: typeForm,
		GetBody:     formEncoder(a),
	}
	res, err := c.do(ctx, http.MethodPost, a.SessionPath(), opts)
	if err != nil {
		return err
	}
	defer CloseBody(res.Body)
	return ResponseError(res)
}

// Logout tells the server to end the session. The server response clears
// the session cookie from the jar.
func (a *cookieAuth) Logout(ctx context.Context, c *Client) error {
	res, err := c.do(ctx, http.MethodDelete, a.SessionPath(), nil)
	if err != nil {
		return err
	}
	defer CloseBody(res.Body)
	if err := ResponseError(res); err != nil {
		return err
	}
	c.clearCookie(SessionCookieName)
	return nil
}

// ShouldRenew always reports false: cookie sessions renew only in
// reaction to an expired response.
func (*cookieAuth) ShouldRenew(*Client) bool { return false }

// Expired reports whether resp indicates an expired session: a 401, or a
// 403 whose error body names credentials_expired.
func (*cookieAuth) Expired(resp *http.Response) bool {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return true
	case http.StatusForbidden:
		return errorName(resp) == "credentials_expired"
	}
	return false
}

// errorName extracts the error field from a JSON error body, restoring
// resp.Body so the caller can still consume it.
func errorName(resp *http.Response) string {
	if resp.Body == nil {
		return ""
	}
	chunk, _ := io.ReadAll(io.LimitReader(resp.Body, errorPeekLimit))
	resp.Body = struct {
		io.Reader
		io.Closer
	}{
		Reader: io.MultiReader(bytes.NewReader(chunk), resp.Body),
		Closer: resp.Body,
	}
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(chunk, &payload)
	return payload.Error
}

// formEncoder returns a GetBody function producing the form-urlencoded
// rendering of i, so the body can be regenerated on reissue.
func formEncoder(i interface{}) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		buf := &bytes.Buffer{}
		if err := form.NewEncoder(buf).Encode(i); err != nil {
			return nil, errors.WrapStatus(http.StatusBadRequest, err)
		}
		return io.NopCloser(buf), nil
	}
}
