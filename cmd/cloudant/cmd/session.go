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

	"github.com/spf13/cobra"
)

type session struct {
	*root
}

func sessionCmd(r *root) *cobra.Command {
	s := &session{root: r}
	return &cobra.Command{
		Use:   "session",
		Short: "Print session information",
		Long:  "Query the session endpoint and print the authenticated user and roles",
		RunE:  s.RunE,
	}
}

func (s *session) RunE(cmd *cobra.Command, _ []string) error {
	client, err := s.client()
	if err != nil {
		return err
	}
	return s.retry(func() error {
		info, err := client.Session(cmd.Context())
		if err != nil {
			return err
		}
		if s.format == "raw" {
			return s.output(json.RawMessage(info.RawResponse))
		}
		return s.output(info)
	})
}
