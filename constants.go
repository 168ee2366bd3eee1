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

import "github.com/go-cloudant/cloudant/chttp"

const (
	// Version is the version of the cloudant library.
	Version = "0.1.0"
)

// SessionCookieName is the name of the CouchDB session cookie.
const SessionCookieName = chttp.SessionCookieName

// IAMSessionCookieName is the name of the IAM session cookie.
const IAMSessionCookieName = chttp.IAMSessionCookieName

// DefaultServicePort is the port assumed for a VCAP service binding that
// does not declare one.
const DefaultServicePort = 443
