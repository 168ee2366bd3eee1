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

	"github.com/go-playground/validator/v10"

	"github.com/go-cloudant/cloudant/errors"
)

// ErrServiceConfig indicates a missing, ambiguous, or malformed service
// entry in a VCAP_SERVICES structure.
var ErrServiceConfig = errors.New("cloudant: invalid service configuration")

// Service describes a Cloudant service binding discovered in a
// VCAP_SERVICES structure.
type Service struct {
	Name     string
	Host     string `validate:"required"`
	Port     int    `validate:"required"`
	Username string `validate:"required"`
	Password string `validate:"required"`
}

// URL returns the https URL of the service.
func (s *Service) URL() string {
	return fmt.Sprintf("https://%s:%d", s.Host, s.Port)
}

type vcapCredentials struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type vcapService struct {
	Name        string           `json:"name"`
	Credentials *vcapCredentials `json:"credentials"`
}

type vcapServices struct {
	CloudantNoSQLDB []vcapService `json:"cloudantNoSQLDB"`
}

var serviceValidate = validator.New()

// ServiceFromVCAP extracts a Cloudant service binding from the JSON
// VCAP_SERVICES structure the platform provides. When name is empty the
// sole bound service is selected; with several services bound, name must
// match one of them. Port defaults to 443 when the binding omits it.
func ServiceFromVCAP(vcap []byte, name string) (*Service, error) {
	var services vcapServices
	if err := json.Unmarshal(vcap, &services); err != nil {
		return nil, serviceConfigError("failed to decode VCAP_SERVICES JSON: %v", err)
	}
	var match *vcapService
	useFirst := name == "" && len(services.CloudantNoSQLDB) == 1
	for i := range services.CloudantNoSQLDB {
		service := &services.CloudantNoSQLDB[i]
		if useFirst || service.Name == name {
			match = service
			break
		}
	}
	if match == nil {
		return nil, serviceConfigError("missing service in VCAP_SERVICES")
	}
	if match.Credentials == nil {
		return nil, serviceConfigError("service %q has no credentials", match.Name)
	}
	service := &Service{
		Name:     match.Name,
		Host:     match.Credentials.Host,
		Port:     match.Credentials.Port,
		Username: match.Credentials.Username,
		Password: match.Credentials.Password,
	}
	if service.Port == 0 {
		service.Port = DefaultServicePort
	}
	if err := serviceValidate.Struct(service); err != nil {
		return nil, serviceConfigError("service %q is incomplete: %v", match.Name, err)
	}
	return service, nil
}

func serviceConfigError(format string, args ...interface{}) error {
	return errors.WrapStatus(http.StatusBadRequest,
		fmt.Errorf("%w: %s", ErrServiceConfig, fmt.Sprintf(format, args...)))
}
