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

package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gitlab.com/flimzy/testy"

	"github.com/go-cloudant/cloudant/cmd/cloudant/log"
	"github.com/go-cloudant/cloudant/errors"
)

func TestParseDuration(t *testing.T) {
	type tt struct {
		input    string
		expected time.Duration
		err      string
	}

	tests := testy.NewTable()
	tests.Add("empty", tt{})
	tests.Add("seconds", tt{
		input:    "2.5",
		expected: 2500 * time.Millisecond,
	})
	tests.Add("duration string", tt{
		input:    "1m30s",
		expected: 90 * time.Second,
	})
	tests.Add("negative seconds", tt{
		input: "-5",
		err:   "negative timeout not permitted",
	})
	tests.Add("negative duration", tt{
		input: "-1m",
		err:   "negative timeout not permitted",
	})
	tests.Add("garbage", tt{
		input: "bogus",
		err:   `time: invalid duration "bogus"`,
	})

	tests.Run(t, func(t *testing.T, test tt) {
		result, err := parseDuration(test.input)
		if test.err != "" {
			if err == nil || err.Error() != test.err {
				t.Fatalf("Unexpected error: %v", err)
			}
			return
		}
		if err != nil {
			t.Fatal(err)
		}
		if result != test.expected {
			t.Errorf("Unexpected result: %s", result)
		}
	})
}

func TestOptionsInterpretsJSON(t *testing.T) {
	r := &root{params: map[string]string{
		"limit":        "10",
		"include_docs": "true",
		"startkey":     `"abc"`,
		"endkey_docid": "raw-string",
	}}
	expected := map[string]interface{}{
		"limit":        int64(10),
		"include_docs": true,
		"startkey":     "abc",
		"endkey_docid": "raw-string",
	}
	if d := cmp.Diff(expected, r.options()); d != "" {
		t.Error(d)
	}
}

func TestRetryBoundedCount(t *testing.T) {
	r := &root{
		log:        log.New(),
		retryCount: 2,
		retryDelay: "0",
	}
	r.log.SetOut(&bytes.Buffer{})
	var calls int
	err := r.retry(func() error {
		calls++
		return errors.New("transient")
	})
	if err == nil {
		t.Fatal("Expected an error")
	}
	if calls != 3 {
		t.Errorf("Unexpected call count: %d", calls)
	}
}

func TestRetryNoRetryByDefault(t *testing.T) {
	r := &root{log: log.New()}
	var calls int
	_ = r.retry(func() error {
		calls++
		return errors.New("transient")
	})
	if calls != 1 {
		t.Errorf("Unexpected call count: %d", calls)
	}
}

func executeCLI(t *testing.T, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	r := rootCmd(log.New())
	var out, errOut bytes.Buffer
	r.cmd.SetOut(&out)
	r.cmd.SetErr(&errOut)
	r.cmd.SetArgs(args)
	code = r.execute(context.Background())
	return out.String(), errOut.String(), code
}

func TestGetCommand(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "5" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"total_rows":2,"rows":[]}`))
	}))
	t.Cleanup(s.Close)

	stdout, stderr, code := executeCLI(t,
		"get", "/db/_all_docs",
		"--server", s.URL,
		"--param", "limit=5",
		"--format", "raw")
	if code != 0 {
		t.Fatalf("Unexpected exit code %d: %s", code, stderr)
	}
	if strings.TrimSpace(stdout) != `{"total_rows":2,"rows":[]}` {
		t.Errorf("Unexpected output: %s", stdout)
	}
}

func TestGetCommandInvalidParam(t *testing.T) {
	_, stderr, code := executeCLI(t,
		"get", "/db/_all_docs",
		"--server", "http://localhost:5984",
		"--param", "bogus=1")
	if code == 0 {
		t.Fatal("Expected a failure")
	}
	if !strings.Contains(stderr, "unrecognized query option") {
		t.Errorf("Unexpected error output: %s", stderr)
	}
}

func TestGetCommandServerRequired(t *testing.T) {
	_, stderr, code := executeCLI(t, "get", "/db/_all_docs")
	if code == 0 {
		t.Fatal("Expected a failure")
	}
	if !strings.Contains(stderr, "server URL required") {
		t.Errorf("Unexpected error output: %s", stderr)
	}
}

func TestVersionCommand(t *testing.T) {
	stdout, _, code := executeCLI(t, "version")
	if code != 0 {
		t.Fatalf("Unexpected exit code: %d", code)
	}
	if !strings.HasPrefix(stdout, "cloudant version ") {
		t.Errorf("Unexpected output: %s", stdout)
	}
}
