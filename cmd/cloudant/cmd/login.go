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

type login struct {
	*root
}

func loginCmd(r *root) *cobra.Command {
	l := &login{root: r}
	return &cobra.Command{
		Use:   "login",
		Short: "Establish a session",
		Long:  "Log in with the configured credentials and report the session cookie received",
		RunE:  l.RunE,
	}
}

func (l *login) RunE(cmd *cobra.Command, _ []string) error {
	client, err := l.client()
	if err != nil {
		return err
	}
	return l.retry(func() error {
		if err := client.Login(cmd.Context()); err != nil {
			return err
		}
		for _, name := range []string{"AuthSession", "IAMSession"} {
			if cookie := client.Cookie(name); cookie != nil {
				l.log.Infof("Logged in, holding %s cookie", cookie.Name)
				return nil
			}
		}
		l.log.Info("Logged in")
		return nil
	})
}
