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
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"
)

// HTTPError is an error that represents an HTTP transport error.
type HTTPError struct {
	// Response is the HTTP response received by the client. The response
	// body should already be closed, but the response and request headers
	// and other metadata will typically be in tact for debugging
	// purposes.
	Response *http.Response `json:"-"`

	// Err is the server-supplied error name.
	Err string `json:"error"`

	// Reason is the server-supplied error reason.
	Reason string `json:"reason"`
}

// Error appends the server's error and reason, when known, to the
// standard status text, in the manner "Unauthorized: unauthorized Name
// or password is incorrect.".
func (e *HTTPError) Error() string {
	statusText := http.StatusText(e.HTTPStatus())
	annotation := strings.TrimSpace(e.Err + " " + e.Reason)
	if annotation == "" {
		return statusText
	}
	if statusText == "" {
		return annotation
	}
	return fmt.Sprintf("%s: %s", statusText, annotation)
}

// HTTPStatus returns the embedded status code.
func (e *HTTPError) HTTPStatus() int {
	return e.Response.StatusCode
}

// StatusCode returns the embedded status code, satisfying the
// errors.StatusCoder interface.
func (e *HTTPError) StatusCode() int {
	return e.Response.StatusCode
}

// ResponseError returns an error from an *http.Response if the status
// code indicates an error. The JSON body's error and reason fields, when
// present, annotate the error message; a malformed body is silently
// ignored.
func ResponseError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}
	if resp.Body != nil {
		defer CloseBody(resp.Body)
	}
	httpErr := &HTTPError{
		Response: resp,
	}
	if resp.Request != nil && resp.Request.Method != http.MethodHead && resp.ContentLength != 0 {
		if ct, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); ct == typeJSON {
			_ = json.NewDecoder(resp.Body).Decode(httpErr)
		}
	}
	return httpErr
}
