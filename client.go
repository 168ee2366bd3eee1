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
	"net/http"

	"github.com/go-cloudant/cloudant/chttp"
)

// Client is a connection to a CouchDB or Cloudant server. It embeds the
// underlying *chttp.Client, so the full request API is available on it.
//
// A Client is not safe for concurrent use while a login or renewal is in
// flight: renewal mutates the cookie state shared by all requests. A
// request racing a renewal may go out with a stale cookie and recovers
// through its own single reissue.
type Client struct {
	*chttp.Client
}

// New returns a client for the server at dsn. Credentials embedded in
// the URL select cookie authentication; other mechanisms and settings
// are passed as options, such as [chttp.IAMAuth], [chttp.AutoRenew] and
// [chttp.Timeout].
func New(dsn string, options ...chttp.Option) (*Client, error) {
	chttpClient, err := chttp.New(&http.Client{}, dsn, options...)
	if err != nil {
		return nil, err
	}
	return &Client{Client: chttpClient}, nil
}

// NewVCAP returns a client for the Cloudant service described by the
// platform-provided VCAP_SERVICES structure. serviceName selects among
// multiple bound services; it may be empty when exactly one is bound.
// Cookie authentication with the bound credentials is configured
// automatically.
func NewVCAP(vcapServices []byte, serviceName string, options ...chttp.Option) (*Client, error) {
	service, err := ServiceFromVCAP(vcapServices, serviceName)
	if err != nil {
		return nil, err
	}
	opts := append([]chttp.Option{
		chttp.CookieAuth(service.Username, service.Password),
	}, options...)
	return New(service.URL(), opts...)
}
