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

	"github.com/go-cloudant/cloudant"
)

func versionCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print client version information",
		RunE: func(*cobra.Command, []string) error {
			r.log.Infof("cloudant version %s", cloudant.Version)
			return nil
		},
	}
}
