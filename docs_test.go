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
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/go-cloudant/cloudant/chttp"
	"github.com/go-cloudant/cloudant/errors"
)

type docsRecorder struct {
	method      string
	path        string
	query       url.Values
	contentType string
	header      http.Header
	body        []byte
}

func newDocsServer(t *testing.T, status int, rec *docsRecorder) *Client {
	t.Helper()
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.Query()
		rec.contentType = r.Header.Get("Content-Type")
		rec.header = r.Header.Clone()
		rec.body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"total_rows":0,"rows":[]}`))
	}))
	t.Cleanup(s.Close)
	client, err := New(s.URL)
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestGetDocsTranslatesParams(t *testing.T) {
	rec := &docsRecorder{}
	client := newDocsServer(t, http.StatusOK, rec)

	res, err := client.GetDocs(context.Background(), "/db/_all_docs", nil, map[string]interface{}{
		"limit":        10,
		"include_docs": true,
		"key":          "a-doc",
	})
	if err != nil {
		t.Fatal(err)
	}
	chttp.CloseBody(res.Body)
	if rec.method != http.MethodGet {
		t.Errorf("Unexpected method: %s", rec.method)
	}
	expected := url.Values{
		"limit":        []string{"10"},
		"include_docs": []string{"true"},
		"key":          []string{`"a-doc"`},
	}
	if d := cmp.Diff(expected, rec.query); d != "" {
		t.Error(d)
	}
}

func TestGetDocsKeysSentAsPOSTBody(t *testing.T) {
	rec := &docsRecorder{}
	client := newDocsServer(t, http.StatusOK, rec)

	params := map[string]interface{}{
		"keys":         []string{"a", "b"},
		"include_docs": true,
	}
	res, err := client.GetDocs(context.Background(), "/db/_all_docs", nil, params)
	if err != nil {
		t.Fatal(err)
	}
	chttp.CloseBody(res.Body)
	if rec.method != http.MethodPost {
		t.Errorf("Unexpected method: %s", rec.method)
	}
	if rec.contentType != "application/json" {
		t.Errorf("Unexpected Content-Type: %s", rec.contentType)
	}
	var body struct {
		Keys []string `json:"keys"`
	}
	if err := json.Unmarshal(rec.body, &body); err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]string{"a", "b"}, body.Keys); d != "" {
		t.Error(d)
	}
	if rec.query.Get("keys") != "" {
		t.Error("keys leaked into the query string")
	}
	if rec.query.Get("include_docs") != "true" {
		t.Errorf("Unexpected query: %v", rec.query)
	}
	// The caller's map must be left alone.
	if _, ok := params["keys"]; !ok {
		t.Error("caller's params map was modified")
	}
}

func TestGetDocsCustomHeaders(t *testing.T) {
	rec := &docsRecorder{}
	client := newDocsServer(t, http.StatusOK, rec)

	headers := http.Header{"X-Couch-Full-Commit": []string{"true"}}
	res, err := client.GetDocs(context.Background(), "/db/_all_docs", headers, nil)
	if err != nil {
		t.Fatal(err)
	}
	chttp.CloseBody(res.Body)
	if got := rec.header.Get("X-Couch-Full-Commit"); got != "true" {
		t.Errorf("Unexpected header value: %q", got)
	}
}

func TestGetDocsInvalidParam(t *testing.T) {
	rec := &docsRecorder{}
	client := newDocsServer(t, http.StatusOK, rec)

	_, err := client.GetDocs(context.Background(), "/db/_all_docs", nil, map[string]interface{}{
		"bogus": true,
	})
	if !errors.Is(err, ErrUnknownOption) {
		t.Fatalf("Unexpected error: %v", err)
	}
	if rec.method != "" {
		t.Error("Request was sent despite invalid params")
	}
}

func TestGetDocsErrorResponse(t *testing.T) {
	rec := &docsRecorder{}
	client := newDocsServer(t, http.StatusNotFound, rec)

	_, err := client.GetDocs(context.Background(), "/missing/_all_docs", nil, nil)
	if err == nil {
		t.Fatal("Expected an error")
	}
	if status := errors.StatusCode(err); status != http.StatusNotFound {
		t.Errorf("Unexpected status: %d (%v)", status, err)
	}
}
