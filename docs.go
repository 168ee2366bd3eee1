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
	"net/http"

	"github.com/go-cloudant/cloudant/chttp"
)

// GetDocs fetches documents from the endpoint at path. If params
// contains a "keys" entry, it is sent as a {"keys": [...]} JSON POST
// body; all other params are translated to query-string form. The
// caller's params map is not modified. A non-2xx response is returned as
// an error; the caller owns the response body otherwise.
func (c *Client) GetDocs(ctx context.Context, path string, headers http.Header, params map[string]interface{}) (*http.Response, error) {
	var keys interface{}
	remaining := make(map[string]interface{}, len(params))
	for key, value := range params {
		if key == "keys" {
			keys = value
			continue
		}
		remaining[key] = value
	}
	query, err := Translate(remaining)
	if err != nil {
		return nil, err
	}
	opts := &chttp.Options{
		Query:  query.Values(),
		Header: headers,
	}
	method := http.MethodGet
	if keys != nil {
		method = http.MethodPost
		opts.GetBody = chttp.BodyEncoder(map[string]interface{}{"keys": keys})
		opts.ContentType = "application/json"
	}
	res, err := c.DoReq(ctx, method, path, opts)
	if err != nil {
		return nil, err
	}
	if err := chttp.ResponseError(res); err != nil {
		return nil, err
	}
	return res, nil
}
