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
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-cloudant/cloudant/errors"
)

// Query option validation and conversion failures. All are detected
// before any network call and carry HTTP status 400; they indicate
// caller misuse and are never retried.
var (
	// ErrUnknownOption is returned for an option name outside the
	// recognized table.
	ErrUnknownOption = errors.New("cloudant: unrecognized query option")
	// ErrInvalidType is returned when an option value's kind is not
	// among those the option accepts.
	ErrInvalidType = errors.New("cloudant: query option value has invalid type")
	// ErrInvalidKeyListItem is returned when an element of a keys list
	// does not satisfy the constraints of the key option.
	ErrInvalidKeyListItem = errors.New("cloudant: keys list element has invalid type")
	// ErrInvalidStaleValue is returned when stale is set to anything but
	// "ok" or "update_after".
	ErrInvalidStaleValue = errors.New(`cloudant: stale option must be "ok" or "update_after"`)
	// ErrConversion wraps a serialization failure while rendering an
	// option value to its wire form.
	ErrConversion = errors.New("cloudant: unable to convert query option value")
)

// Kind identifies the wire-relevant kind of a query option value. It is
// computed once per value at the API boundary; there is no open-ended
// runtime type dispatch.
type Kind uint8

// The closed set of value kinds the codec understands.
const (
	KindNull Kind = iota
	KindBoolean
	KindInteger
	KindString
	KindSequence
	KindMapping
	kindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	}
	return "invalid"
}

// KindSet is the set of kinds an option accepts.
type KindSet uint16

func kinds(ks ...Kind) KindSet {
	var s KindSet
	for _, k := range ks {
		s |= 1 << k
	}
	return s
}

// Has reports whether k is in the set.
func (s KindSet) Has(k Kind) bool {
	return s&(1<<k) != 0
}

func (s KindSet) String() string {
	names := make([]string, 0, 4)
	for k := KindNull; k < kindInvalid; k++ {
		if s.Has(k) {
			names = append(names, k.String())
		}
	}
	return strings.Join(names, " or ")
}

// kindOf maps a runtime value to its Kind. Non-nil pointers are followed
// to their targets; nil pointers read as null.
func kindOf(i interface{}) Kind {
	if i == nil {
		return KindNull
	}
	switch i.(type) {
	case bool:
		return KindBoolean
	case string:
		return KindString
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindInteger
	case json.RawMessage:
		return KindSequence
	}
	switch v := reflect.ValueOf(i); v.Kind() {
	case reflect.Slice, reflect.Array:
		return KindSequence
	case reflect.Map, reflect.Struct:
		return KindMapping
	case reflect.Ptr:
		if v.IsNil() {
			return KindNull
		}
		return kindOf(v.Elem().Interface())
	}
	return kindInvalid
}

// deref follows a non-nil pointer to its target, so that kind
// computation and conversion see the underlying value.
func deref(i interface{}) interface{} {
	if i == nil {
		return nil
	}
	if v := reflect.ValueOf(i); v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		return deref(v.Elem().Interface())
	}
	return i
}

// resultArgKinds declares the recognized view/all-docs query options and
// the kinds each accepts. A boolean never satisfies an integer-kinded
// option: booleans and integers are distinct kinds.
var resultArgKinds = map[string]KindSet{
	"descending":     kinds(KindBoolean),
	"endkey":         kinds(KindInteger, KindString, KindSequence),
	"endkey_docid":   kinds(KindString),
	"group":          kinds(KindBoolean),
	"group_level":    kinds(KindInteger, KindNull),
	"include_docs":   kinds(KindBoolean),
	"inclusive_end":  kinds(KindBoolean),
	"key":            kinds(KindInteger, KindString, KindSequence),
	"keys":           kinds(KindSequence),
	"limit":          kinds(KindInteger, KindNull),
	"reduce":         kinds(KindBoolean),
	"skip":           kinds(KindInteger, KindNull),
	"stale":          kinds(KindString),
	"startkey":       kinds(KindInteger, KindString, KindSequence),
	"startkey_docid": kinds(KindString),
}

// passthroughOptions are sent without JSON encoding: their values are
// already string-shaped identifiers, or (for keys) are normally carried
// in a POST body instead of the query string.
var passthroughOptions = map[string]struct{}{
	"keys":           {},
	"endkey_docid":   {},
	"startkey_docid": {},
	"stale":          {},
}

// Params holds translated query parameters. A nil value is an explicit
// null, which Values drops from the rendered query string.
type Params map[string]*string

// Values renders the parameters as a url.Values for the query string.
func (p Params) Values() url.Values {
	values := make(url.Values, len(p))
	for key, value := range p {
		if value != nil {
			values.Set(key, *value)
		}
	}
	return values
}

// Translate validates and converts logical query options into the wire
// form the server expects. For example {"include_docs": true} translates
// to include_docs=true, while {"key": "foo"} translates to the
// JSON-quoted key="foo". The first invalid option aborts the
// translation.
func Translate(options map[string]interface{}) (Params, error) {
	translation := make(Params, len(options))
	for key, value := range options {
		value = deref(value)
		if err := Validate(key, value); err != nil {
			return nil, err
		}
		enc, err := convert(key, value)
		if err != nil {
			return nil, err
		}
		translation[key] = enc
	}
	return translation, nil
}

// Validate checks a single query option name and value against the
// recognized option table.
func Validate(key string, value interface{}) error {
	return validateWith(resultArgKinds, key, deref(value))
}

func validateWith(table map[string]KindSet, key string, value interface{}) error {
	accepted, ok := table[key]
	if !ok {
		return errors.WrapStatus(http.StatusBadRequest,
			fmt.Errorf("%w: %q", ErrUnknownOption, key))
	}
	if k := kindOf(value); !accepted.Has(k) {
		return errors.WrapStatus(http.StatusBadRequest,
			fmt.Errorf("%w: %s is %s, expected %s", ErrInvalidType, key, k, accepted))
	}
	switch key {
	case "keys":
		// A raw byte form is sequence-kinded but its elements are bytes,
		// not keys; element validation needs a real list.
		switch value.(type) {
		case json.RawMessage, []byte:
			return errors.WrapStatus(http.StatusBadRequest,
				fmt.Errorf("%w: %s is raw bytes, expected a list", ErrInvalidType, key))
		}
		elemKinds := table["key"]
		seq := reflect.ValueOf(value)
		for i := 0; i < seq.Len(); i++ {
			k := kindOf(deref(seq.Index(i).Interface()))
			if k == KindBoolean || !elemKinds.Has(k) {
				return errors.WrapStatus(http.StatusBadRequest,
					fmt.Errorf("%w: element %d is %s, expected %s", ErrInvalidKeyListItem, i, k, elemKinds))
			}
		}
	case "stale":
		if v, _ := value.(string); v != "ok" && v != "update_after" {
			return errors.WrapStatus(http.StatusBadRequest,
				fmt.Errorf("%w: got %q", ErrInvalidStaleValue, v))
		}
	}
	return nil
}

// convert renders a validated option value to its wire form. A nil
// result with nil error is the null passthrough.
func convert(key string, value interface{}) (*string, error) {
	if _, ok := passthroughOptions[key]; ok {
		if s, ok := value.(string); ok {
			return &s, nil
		}
		// A keys sequence has no literal string form; its JSON array is
		// the representation the server decodes.
		return jsonParam(key, value)
	}
	switch kindOf(value) {
	case KindNull:
		return nil, nil
	case KindBoolean:
		s := strconv.FormatBool(value.(bool))
		return &s, nil
	case KindInteger:
		s, err := formatInt(value)
		if err != nil {
			return nil, conversionError(key, err)
		}
		return &s, nil
	default:
		// Strings and sequences are JSON-encoded for the query string.
		return jsonParam(key, value)
	}
}

func jsonParam(key string, value interface{}) (*string, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, conversionError(key, err)
	}
	s := string(raw)
	return &s, nil
}

func conversionError(key string, err error) error {
	return errors.WrapStatus(http.StatusBadRequest,
		fmt.Errorf("%w: %s: %v", ErrConversion, key, err))
}

func formatInt(value interface{}) (string, error) {
	switch v := value.(type) {
	case int:
		return strconv.Itoa(v), nil
	case int8:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	}
	return "", fmt.Errorf("%T is not an integer type", value)
}
