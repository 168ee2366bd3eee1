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
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gitlab.com/flimzy/testy"

	"github.com/go-cloudant/cloudant/errors"
)

func str(s string) *string { return &s }

func TestTranslate(t *testing.T) {
	type tt struct {
		options  map[string]interface{}
		expected Params
		err      error
		status   int
	}

	tests := testy.NewTable()
	tests.Add("boolean renders literally", tt{
		options:  map[string]interface{}{"include_docs": true},
		expected: Params{"include_docs": str("true")},
	})
	tests.Add("integer passes through unquoted", tt{
		options:  map[string]interface{}{"limit": 5},
		expected: Params{"limit": str("5")},
	})
	tests.Add("string key is JSON-quoted", tt{
		options:  map[string]interface{}{"key": "foo"},
		expected: Params{"key": str(`"foo"`)},
	})
	tests.Add("sequence key is JSON-encoded", tt{
		options:  map[string]interface{}{"startkey": []interface{}{"foo", 1}},
		expected: Params{"startkey": str(`["foo",1]`)},
	})
	tests.Add("docid is not quoted", tt{
		options:  map[string]interface{}{"endkey_docid": "docid001"},
		expected: Params{"endkey_docid": str("docid001")},
	})
	tests.Add("stale ok passes through", tt{
		options:  map[string]interface{}{"stale": "ok"},
		expected: Params{"stale": str("ok")},
	})
	tests.Add("null passthrough", tt{
		options:  map[string]interface{}{"group_level": nil},
		expected: Params{"group_level": nil},
	})
	tests.Add("nil pointer reads as null", tt{
		options:  map[string]interface{}{"limit": (*int)(nil)},
		expected: Params{"limit": nil},
	})
	tests.Add("pointer is followed", tt{
		options:  map[string]interface{}{"skip": func() *int { i := 3; return &i }()},
		expected: Params{"skip": str("3")},
	})
	tests.Add("keys sequence renders as JSON array", tt{
		options:  map[string]interface{}{"keys": []string{"a", "b"}},
		expected: Params{"keys": str(`["a","b"]`)},
	})
	tests.Add("multiple options", tt{
		options: map[string]interface{}{
			"descending":    true,
			"inclusive_end": false,
			"skip":          int64(12),
		},
		expected: Params{
			"descending":    str("true"),
			"inclusive_end": str("false"),
			"skip":          str("12"),
		},
	})
	tests.Add("unknown option", tt{
		options: map[string]interface{}{"bogus_key": 1},
		err:     ErrUnknownOption,
		status:  http.StatusBadRequest,
	})
	tests.Add("boolean rejected for integer option", tt{
		options: map[string]interface{}{"skip": true},
		err:     ErrInvalidType,
		status:  http.StatusBadRequest,
	})
	tests.Add("mapping rejected for key option", tt{
		options: map[string]interface{}{"key": map[string]string{"a": "b"}},
		err:     ErrInvalidType,
		status:  http.StatusBadRequest,
	})
	tests.Add("bogus stale value", tt{
		options: map[string]interface{}{"stale": "bogus"},
		err:     ErrInvalidStaleValue,
		status:  http.StatusBadRequest,
	})
	tests.Add("boolean key list element", tt{
		options: map[string]interface{}{"keys": []interface{}{"fine", true}},
		err:     ErrInvalidKeyListItem,
		status:  http.StatusBadRequest,
	})
	tests.Add("mapping key list element", tt{
		options: map[string]interface{}{"keys": []interface{}{map[string]int{"a": 1}}},
		err:     ErrInvalidKeyListItem,
		status:  http.StatusBadRequest,
	})
	tests.Add("raw JSON rejected for keys", tt{
		options: map[string]interface{}{"keys": json.RawMessage(`["a","b"]`)},
		err:     ErrInvalidType,
		status:  http.StatusBadRequest,
	})
	tests.Add("byte slice rejected for keys", tt{
		options: map[string]interface{}{"keys": []byte(`garbage`)},
		err:     ErrInvalidType,
		status:  http.StatusBadRequest,
	})

	tests.Run(t, func(t *testing.T, test tt) {
		result, err := Translate(test.options)
		if test.err != nil {
			if !stderrors.Is(err, test.err) {
				t.Fatalf("Unexpected error: %v (expected %v)", err, test.err)
			}
			if status := errors.StatusCode(err); status != test.status {
				t.Errorf("Unexpected status: %d (expected %d)", status, test.status)
			}
			return
		}
		if err != nil {
			t.Fatal(err)
		}
		if d := cmp.Diff(test.expected, result); d != "" {
			t.Error(d)
		}
	})
}

func TestValidateAcceptsDeclaredKinds(t *testing.T) {
	accepted := map[string][]interface{}{
		"descending":     {true},
		"endkey":         {5, "x", []string{"x"}},
		"endkey_docid":   {"docid"},
		"group":          {false},
		"group_level":    {2, nil},
		"include_docs":   {true},
		"inclusive_end":  {false},
		"key":            {1, "k", []int{1, 2}},
		"keys":           {[]string{"a"}},
		"limit":          {100, nil},
		"reduce":         {true},
		"skip":           {uint(7), nil},
		"stale":          {"update_after"},
		"startkey":       {0, "s", []interface{}{"s", 1}},
		"startkey_docid": {"docid"},
	}
	for key, values := range accepted {
		for _, value := range values {
			if err := Validate(key, value); err != nil {
				t.Errorf("Validate(%q, %v) returned %v", key, value, err)
			}
		}
	}
}

func TestValidateRejectsBooleanForIntegerOptions(t *testing.T) {
	for _, key := range []string{"group_level", "limit", "skip"} {
		err := Validate(key, true)
		if !stderrors.Is(err, ErrInvalidType) {
			t.Errorf("Validate(%q, true) = %v, expected ErrInvalidType", key, err)
		}
	}
}

func TestParamsValues(t *testing.T) {
	params := Params{
		"limit":       str("5"),
		"group_level": nil,
		"key":         str(`"foo"`),
	}
	expected := url.Values{
		"limit": []string{"5"},
		"key":   []string{`"foo"`},
	}
	if d := cmp.Diff(expected, params.Values()); d != "" {
		t.Error(d)
	}
}

func TestKeysRoundTrip(t *testing.T) {
	keys := []interface{}{"a", "b", 3}
	result, err := Translate(map[string]interface{}{"keys": keys})
	if err != nil {
		t.Fatal(err)
	}
	var decoded []interface{}
	if err := json.Unmarshal([]byte(*result["keys"]), &decoded); err != nil {
		t.Fatal(err)
	}
	expected := []interface{}{"a", "b", float64(3)}
	if d := cmp.Diff(expected, decoded); d != "" {
		t.Error(d)
	}
}
