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

// Package cloudant provides the client-side request-shaping and
// session-authentication layer for CouchDB and IBM Cloudant HTTP APIs:
// translation of logical query options into the server's wire encoding,
// and cookie- or IAM-authenticated sessions with transparent credential
// renewal.
package cloudant
