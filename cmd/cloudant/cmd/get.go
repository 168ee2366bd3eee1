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
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/go-cloudant/cloudant/chttp"
)

type get struct {
	*root
}

func getCmd(r *root) *cobra.Command {
	g := &get{root: r}
	return &cobra.Command{
		Use:   "get [path]",
		Short: "Fetch documents from a path",
		Long: "Fetch the resource at the server path, such as /db/_all_docs. " +
			"Options passed with --param are validated and translated to query " +
			"parameters; a keys option is sent as a JSON POST body.",
		Args: cobra.ExactArgs(1),
		RunE: g.RunE,
	}
}

func (g *get) RunE(cmd *cobra.Command, args []string) error {
	client, err := g.client()
	if err != nil {
		return err
	}
	return g.retry(func() error {
		res, err := client.GetDocs(cmd.Context(), args[0], nil, g.options())
		if err != nil {
			return err
		}
		defer chttp.CloseBody(res.Body)
		body, err := io.ReadAll(res.Body)
		if err != nil {
			return err
		}
		return g.output(json.RawMessage(body))
	})
}
