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
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/go-cloudant/cloudant/errors"
)

// output renders i in the selected output format. A json.RawMessage is
// re-indented rather than re-marshaled, preserving the server's own
// field order.
func (r *root) output(i interface{}) error {
	switch r.format {
	case "json", "":
		out, err := renderJSON(i)
		if err != nil {
			return err
		}
		r.log.Info(string(out))
	case "yaml":
		if raw, ok := i.(json.RawMessage); ok {
			var decoded interface{}
			if err := json.Unmarshal(raw, &decoded); err != nil {
				return err
			}
			i = decoded
		}
		out, err := yaml.Marshal(i)
		if err != nil {
			return err
		}
		r.log.Info(string(bytes.TrimSpace(out)))
	case "raw":
		switch t := i.(type) {
		case json.RawMessage:
			r.log.Info(string(t))
		case []byte:
			r.log.Info(string(t))
		case string:
			r.log.Info(t)
		default:
			out, err := json.Marshal(i)
			if err != nil {
				return err
			}
			r.log.Info(string(out))
		}
	default:
		return errors.Errorf("unsupported output format: %s", r.format)
	}
	return nil
}

func renderJSON(i interface{}) ([]byte, error) {
	if raw, ok := i.(json.RawMessage); ok {
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return json.MarshalIndent(i, "", "  ")
}
