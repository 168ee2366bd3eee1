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
	"github.com/spf13/cobra"
)

type logout struct {
	*root
}

func logoutCmd(r *root) *cobra.Command {
	l := &logout{root: r}
	return &cobra.Command{
		Use:   "logout",
		Short: "Invalidate the current session",
		RunE:  l.RunE,
	}
}

func (l *logout) RunE(cmd *cobra.Command, _ []string) error {
	client, err := l.client()
	if err != nil {
		return err
	}
	return l.retry(func() error {
		if err := client.Logout(cmd.Context()); err != nil {
			return err
		}
		l.log.Info("Logged out")
		return nil
	})
}
