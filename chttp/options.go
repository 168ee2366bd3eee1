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
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Options are optional parameters which may be sent with a request.
type Options struct {
	// Accept sets the request's Accept header. Defaults to
	// "application/json". To specify any, use "*/*".
	Accept string

	// ContentType sets the requests's Content-Type header. Defaults to
	// "application/json".
	ContentType string

	// ContentLength, if set, sets the ContentLength of the request
	ContentLength int64

	// Body sets the body of the request. A plain Body is consumed by the
	// first attempt; requests that may be reissued after a session
	// renewal must use GetBody instead.
	Body io.ReadCloser

	// GetBody is a function to set the body, called for the initial
	// request and again for any reissue. If set, Body is ignored.
	GetBody func() (io.ReadCloser, error)

	// Query is appended to the existing url, if present. If the passed
	// url already contains query parameters, the values in Query are
	// appended. No merging takes place.
	Query url.Values

	// Header is a list of default headers to be set on the request.
	Header http.Header
}

// Option is a client configuration option, applied when the client is
// constructed by [New].
type Option interface {
	// Apply applies the option to target, if target is of the expected
	// type. Unexpected targets are ignored.
	Apply(target interface{})
}

type optionAutoRenew struct{}

var _ Option = optionAutoRenew{}

func (optionAutoRenew) Apply(target interface{}) {
	if client, ok := target.(*Client); ok {
		client.autoRenew = true
	}
}

func (optionAutoRenew) String() string { return "[AutoRenew]" }

// AutoRenew instructs the client to renew its session credentials
// transparently: a request whose response indicates expired credentials
// triggers one login and one reissue of the same request. An IAM-
// authenticated client additionally logs in before a request whenever no
// live session cookie is held.
func AutoRenew() Option {
	return optionAutoRenew{}
}

type optionTimeout time.Duration

var _ Option = optionTimeout(0)

func (o optionTimeout) Apply(target interface{}) {
	if client, ok := target.(*Client); ok {
		client.Client.Timeout = time.Duration(o)
	}
}

func (o optionTimeout) String() string {
	return fmt.Sprintf("[Timeout:%s]", time.Duration(o))
}

// Timeout sets a fixed timeout, applied uniformly to every request
// issued through the client. There is no per-request override.
func Timeout(d time.Duration) Option {
	return optionTimeout(d)
}

type optionUserAgent string

var _ Option = optionUserAgent("")

func (a optionUserAgent) Apply(target interface{}) {
	if client, ok := target.(*Client); ok {
		client.UserAgents = append(client.UserAgents, string(a))
	}
}

func (a optionUserAgent) String() string {
	return fmt.Sprintf("[UserAgent:%s]", string(a))
}

// UserAgent may be passed as an option when creating a client object,
// to append to the default User-Agent header sent on all requests.
func UserAgent(ua string) Option {
	return optionUserAgent(ua)
}

// CookieAuth provides CouchDB [Cookie auth]. Cookie Auth is the default
// authentication method if credentials are included in the connection
// URL passed to [New]. You may also pass this option as an argument to
// the same function, if you need to provide your auth credentials
// outside of the URL.
//
// [Cookie auth]: http://docs.couchdb.org/en/stable/api/server/authn.html#cookie-authentication
func CookieAuth(username, password string) Option {
	return &cookieAuth{
		Username: username,
		Password: password,
	}
}

// IAMAuth authenticates with an IBM Cloud IAM API key: the key is
// exchanged for an access token at the IAM token service, and the token
// is then exchanged for a session cookie with the server. The token
// service endpoint may be overridden with the IAM_TOKEN_URL environment
// variable.
func IAMAuth(apiKey string) Option {
	return &iamAuth{
		APIKey: apiKey,
	}
}
