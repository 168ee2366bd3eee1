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

package chttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/ajg/form"

	"github.com/go-cloudant/cloudant/errors"
)

// DefaultIAMTokenURL is the IAM token service endpoint used when
// IAM_TOKEN_URL is not set in the environment.
const DefaultIAMTokenURL = "https://iam.bluemix.net/oidc/token"

// EnvIAMTokenURL names the environment variable that overrides the IAM
// token service endpoint.
const EnvIAMTokenURL = "IAM_TOKEN_URL"

// IAM token exchange failures.
var (
	// ErrTokenService indicates the IAM token service could not be
	// contacted, or answered with an error.
	ErrTokenService = errors.New("chttp: failed to contact IAM token service")
	// ErrInvalidTokenResponse indicates the token service answered
	// without an access_token field.
	ErrInvalidTokenResponse = errors.New("chttp: invalid response from IAM token service")
	// ErrTokenExchange indicates the server refused to exchange a valid
	// access token for a session cookie.
	ErrTokenExchange = errors.New("chttp: failed to exchange IAM token with the server")
)

// iamAuth authenticates with an IBM Cloud IAM API key: the key is
// exchanged for a short-lived access token, which is in turn exchanged
// for a session cookie.
//
// Renewal is proactive as well as reactive: the token exchange is
// expensive, so a login is performed whenever no live session cookie is
// held, rather than waiting for a 401 round-trip.
type iamAuth struct {
	APIKey   string
	tokenURL string
}

var (
	_ Renewer = &iamAuth{}
	_ Option  = (*iamAuth)(nil)
)

func (a *iamAuth) Apply(target interface{}) {
	if client, ok := target.(*Client); ok {
		tokenURL := a.tokenURL
		if tokenURL == "" {
			tokenURL = os.Getenv(EnvIAMTokenURL)
		}
		if tokenURL == "" {
			tokenURL = DefaultIAMTokenURL
		}
		client.renewer = &iamAuth{
			APIKey:   a.APIKey,
			tokenURL: tokenURL,
		}
	}
}

func (a *iamAuth) String() string {
	key := a.APIKey
	const unmaskedLen = 3
	if len(key) > unmaskedLen {
		key = key[:unmaskedLen] + strings.Repeat("*", len(key)-unmaskedLen)
	}
	return fmt.Sprintf("[IAMAuth{apikey:%s}]", key)
}

// SessionPath returns the IAM session endpoint.
func (*iamAuth) SessionPath() string { return "/_iam_session" }

// tokenRequest is the API-key grant posted to the token service.
type tokenRequest struct {
	GrantType    string `form:"grant_type"`
	ResponseType string `form:"response_type"`
	APIKey       string `form:"apikey"`
}

// tokenResponse is the token service's reply. ErrorMessage is set on
// failure responses.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	ErrorMessage string `json:"errorMessage"`
}

// accessToken exchanges the API key for an access token at the token
// service. Transport failures and error responses both surface as
// ErrTokenService, carrying the service's errorMessage when one was
// returned.
func (a *iamAuth) accessToken(ctx context.Context, c *Client) (string, error) {
	body := &bytes.Buffer{}
	err := form.NewEncoder(body).Encode(&tokenRequest{
		GrantType:    "urn:ibm:params:oauth:grant-type:apikey",
		ResponseType: "cloud_iam",
		APIKey:       a.APIKey,
	})
	if err != nil {
		return "", errors.WrapStatus(http.StatusBadRequest, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL, body)
	if err != nil {
		return "", errors.WrapStatus(http.StatusBadRequest, err)
	}
	req.Header.Set("Content-Type", typeForm)
	req.Header.Set("Accept", typeJSON)
	// Required for user API keys.
	req.SetBasicAuth("bx", "bx")
	res, err := c.Do(req)
	if err != nil {
		return "", errors.WrapStatus(http.StatusBadGateway, fmt.Errorf("%w: %v", ErrTokenService, err))
	}
	defer CloseBody(res.Body)
	var payload tokenResponse
	_ = json.NewDecoder(res.Body).Decode(&payload)
	if res.StatusCode >= 400 {
		if payload.ErrorMessage != "" {
			return "", errors.WrapStatus(res.StatusCode, fmt.Errorf("%w: %s", ErrTokenService, payload.ErrorMessage))
		}
		return "", errors.WrapStatus(res.StatusCode, ErrTokenService)
	}
	if payload.AccessToken == "" {
		return "", errors.WrapStatus(http.StatusBadGateway, ErrInvalidTokenResponse)
	}
	return payload.AccessToken, nil
}

// Login obtains an access token and exchanges it for a session cookie.
func (a *iamAuth) Login(ctx context.Context, c *Client) error {
	token, err := a.accessToken(ctx, c)
	if err != nil {
		return err
	}
	opts := &Options{
		GetBody: BodyEncoder(map[string]string{"access_token": token}),
	}
	res, err := c.do(ctx, http.MethodPost, a.SessionPath(), opts)
	if err != nil {
		status := errors.StatusCode(err)
		if status == errors.StatusNoError {
			status = http.StatusBadGateway
		}
		return errors.WrapStatus(status, fmt.Errorf("%w: %v", ErrTokenExchange, err))
	}
	defer CloseBody(res.Body)
	if err := ResponseError(res); err != nil {
		return errors.WrapStatus(res.StatusCode, fmt.Errorf("%w: %v", ErrTokenExchange, err))
	}
	return nil
}

// Logout drops the session cookies held by the client. The server is
// never contacted.
func (*iamAuth) Logout(_ context.Context, c *Client) error {
	c.clearCookie(IAMSessionCookieName)
	c.clearCookie(SessionCookieName)
	return nil
}

// ShouldRenew reports true when no live IAM session cookie is held. The
// cookie jar drops expired cookies on read, so an expired session reads
// as absent.
func (*iamAuth) ShouldRenew(c *Client) bool {
	return c.Cookie(IAMSessionCookieName) == nil
}

// Expired reports whether resp indicates an expired session.
func (*iamAuth) Expired(resp *http.Response) bool {
	return resp.StatusCode == http.StatusUnauthorized
}
