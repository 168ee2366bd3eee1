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

// Package chttp provides a minimal HTTP backend for communicating with
// CouchDB and Cloudant servers, including cookie- and IAM-authenticated
// sessions with transparent credential renewal.
package chttp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/net/publicsuffix"

	"github.com/go-cloudant/cloudant/errors"
)

const (
	typeJSON = "application/json"
	typeForm = "application/x-www-form-urlencoded"
)

// The default User-Agent values
const (
	defaultUserAgent = "go-cloudant"
	// Version is the library version reported in the User-Agent header.
	Version = "0.1.0"
)

// Session cookie names recognized by the server.
const (
	// SessionCookieName is the name of the CouchDB session cookie set by
	// a cookie-authenticated login.
	SessionCookieName = "AuthSession"
	// IAMSessionCookieName is the name of the session cookie set by an
	// IAM token exchange.
	IAMSessionCookieName = "IAMSession"
)

// Renewer is a session-establishment strategy. A Client configured with
// a Renewer and auto-renewal will log in proactively when ShouldRenew
// reports so, and will log in and reissue a request exactly once when
// Expired recognizes the response.
type Renewer interface {
	// Login establishes a fresh session against the server.
	Login(ctx context.Context, c *Client) error
	// Logout invalidates the current session.
	Logout(ctx context.Context, c *Client) error
	// ShouldRenew reports whether a login is required before the next
	// request is issued.
	ShouldRenew(c *Client) bool
	// Expired reports whether resp indicates that the session
	// credentials have expired.
	Expired(resp *http.Response) bool
	// SessionPath is the server path describing the session.
	SessionPath() string
}

// Client represents a client connection. It embeds an *http.Client.
type Client struct {
	// UserAgents is appended to set the User-Agent header. Typically it
	// should contain pairs of product name and version.
	UserAgents []string

	*http.Client

	rawDSN    string
	dsn       *url.URL
	basePath  string
	renewer   Renewer
	autoRenew bool
	authMU    sync.Mutex
}

// New returns a connection to a remote CouchDB or Cloudant server. If
// credentials are included in the URL, requests are authenticated with
// Cookie Auth. Other mechanisms are configured by passing options, such
// as [CookieAuth] or [IAMAuth].
func New(client *http.Client, dsn string, options ...Option) (*Client, error) {
	dsnURL, err := parseDSN(dsn)
	if err != nil {
		return nil, err
	}
	user := dsnURL.User
	dsnURL.User = nil
	c := &Client{
		Client:   client,
		dsn:      dsnURL,
		basePath: strings.TrimSuffix(dsnURL.Path, "/"),
		rawDSN:   dsn,
	}
	for _, opt := range options {
		if opt != nil {
			opt.Apply(c)
		}
	}
	if user != nil && c.renewer == nil {
		password, _ := user.Password()
		CookieAuth(user.Username(), password).Apply(c)
	}
	if c.renewer != nil {
		c.setCookieJar()
	}
	return c, nil
}

func parseDSN(dsn string) (*url.URL, error) {
	if dsn == "" {
		return nil, errors.Status(http.StatusBadRequest, "no URL specified")
	}
	if !strings.HasPrefix(dsn, "http://") && !strings.HasPrefix(dsn, "https://") {
		dsn = "https://" + dsn
	}
	dsnURL, err := url.Parse(dsn)
	if err != nil {
		return nil, errors.WrapStatus(http.StatusBadRequest, err)
	}
	if dsnURL.Path == "" {
		dsnURL.Path = "/"
	}
	return dsnURL, nil
}

func (c *Client) setCookieJar() {
	// If a jar is already set, just use it
	if c.Jar != nil {
		return
	}
	// cookiejar.New never returns an error
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	c.Jar = jar
}

// DSN returns the unparsed DSN used to connect.
func (c *Client) DSN() string {
	return c.rawDSN
}

// Renewer returns the configured session-renewal strategy, or nil if
// none is set.
func (c *Client) Renewer() Renewer {
	return c.renewer
}

// Login establishes a session using the configured renewal strategy.
func (c *Client) Login(ctx context.Context) error {
	if c.renewer == nil {
		return errors.Status(http.StatusBadRequest, "chttp: no authentication strategy configured")
	}
	return c.login(ctx)
}

// Logout invalidates the current session.
func (c *Client) Logout(ctx context.Context) error {
	if c.renewer == nil {
		return errors.Status(http.StatusBadRequest, "chttp: no authentication strategy configured")
	}
	return c.renewer.Logout(ctx, c)
}

// login serializes concurrent renewals. A request racing a renewal may
// still go out with a stale cookie; it recovers through its own
// single-reissue cycle.
func (c *Client) login(ctx context.Context) error {
	c.authMU.Lock()
	defer c.authMU.Unlock()
	return c.renewer.Login(ctx, c)
}

// SessionInfo fetches the session document from the strategy's session
// endpoint and unmarshals it into i.
func (c *Client) SessionInfo(ctx context.Context, i interface{}) error {
	path := "/_session"
	if c.renewer != nil {
		path = c.renewer.SessionPath()
	}
	return c.DoJSON(ctx, http.MethodGet, path, nil, i)
}

// Cookie returns the named cookie currently held for the server, or nil.
func (c *Client) Cookie(name string) *http.Cookie {
	if c.Jar == nil {
		return nil
	}
	for _, cookie := range c.Jar.Cookies(c.dsn) {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

// clearCookie drops the named cookie from the jar by replacing it with
// an already-expired one.
func (c *Client) clearCookie(name string) {
	if c.Jar == nil {
		return
	}
	c.Jar.SetCookies(c.dsn, []*http.Cookie{{
		Name:   name,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	}})
}

func (c *Client) path(path string) string {
	if c.basePath != "" {
		return c.basePath + "/" + strings.TrimPrefix(path, "/")
	}
	return path
}

// NewRequest returns a new *http.Request to the server and the specified
// path. The host, schema, etc, of the specified path are ignored.
func (c *Client) NewRequest(ctx context.Context, method, path string, body io.Reader, opts *Options) (*http.Request, error) {
	reqPath, err := url.Parse(c.path(path))
	if err != nil {
		return nil, errors.WrapStatus(http.StatusBadRequest, err)
	}
	u := *c.dsn // Make a copy
	u.Path = reqPath.Path
	u.RawQuery = reqPath.RawQuery
	req, err := http.NewRequest(method, u.String(), body)
	if err != nil {
		return nil, errors.WrapStatus(http.StatusBadRequest, err)
	}
	req.Header.Add("User-Agent", c.userAgent())
	return req.WithContext(ctx), nil
}

// DoReq does an HTTP request. An error is returned only if there was an
// error processing the request. In particular, an error status code,
// such as 400 or 500, does _not_ cause an error to be returned.
//
// When auto-renewal is enabled, DoReq logs in before the request if the
// strategy asks for it, and when the strategy recognizes the response as
// expired it logs in and reissues the request exactly once, returning
// the second response unconditionally. Requests that carry a body and
// may be reissued must use Options.GetBody.
func (c *Client) DoReq(ctx context.Context, method, path string, opts *Options) (*http.Response, error) {
	if method == "" {
		return nil, errors.Status(http.StatusBadRequest, "chttp: method required")
	}
	if c.autoRenew && c.renewer != nil && c.renewer.ShouldRenew(c) {
		if err := c.login(ctx); err != nil {
			return nil, err
		}
	}
	res, err := c.do(ctx, method, path, opts)
	if err != nil || !c.autoRenew || c.renewer == nil {
		return res, err
	}
	if !c.renewer.Expired(res) {
		return res, nil
	}
	CloseBody(res.Body)
	if err := c.login(ctx); err != nil {
		return nil, err
	}
	return c.do(ctx, method, path, opts)
}

func (c *Client) do(ctx context.Context, method, path string, opts *Options) (*http.Response, error) {
	var body io.Reader
	if opts != nil {
		if opts.GetBody != nil {
			b, err := opts.GetBody()
			if err != nil {
				return nil, err
			}
			body = b
			defer b.Close() // nolint: errcheck
		} else if opts.Body != nil {
			body = opts.Body
			defer opts.Body.Close() // nolint: errcheck
			opts.Body = nil         // one-shot; reissues must use GetBody
		}
	}
	req, err := c.NewRequest(ctx, method, path, body, opts)
	if err != nil {
		return nil, err
	}
	fixPath(req, path)
	setHeaders(req, opts)
	setQuery(req, opts)
	if opts != nil {
		req.GetBody = opts.GetBody
	}
	response, err := c.Do(req)
	return response, netError(err)
}

func netError(err error) error {
	if err == nil {
		return nil
	}
	if urlErr, ok := err.(*url.Error); ok {
		// An error generated by EncodeBody may carry its own status,
		// which we should honor.
		status := errors.StatusCode(urlErr.Err)
		if status == errors.StatusNoError {
			status = http.StatusBadGateway
		}
		return errors.WrapStatus(status, err)
	}
	if status := errors.StatusCode(err); status != errors.StatusNoError {
		return err
	}
	return errors.WrapStatus(http.StatusBadGateway, err)
}

// fixPath sets the request's URL.RawPath to work with escaped characters
// in paths.
func fixPath(req *http.Request, path string) {
	// Remove any query parameters
	parts := strings.SplitN(path, "?", 2)
	req.URL.RawPath = "/" + strings.TrimPrefix(parts[0], "/")
}

func setHeaders(req *http.Request, opts *Options) {
	accept := typeJSON
	contentType := typeJSON
	if opts != nil {
		if opts.Accept != "" {
			accept = opts.Accept
		}
		if opts.ContentType != "" {
			contentType = opts.ContentType
		}
		if opts.ContentLength != 0 {
			req.ContentLength = opts.ContentLength
		}
		for k, v := range opts.Header {
			if _, ok := req.Header[k]; !ok {
				req.Header[k] = v
			}
		}
	}
	req.Header.Add("Accept", accept)
	req.Header.Add("Content-Type", contentType)
}

func setQuery(req *http.Request, opts *Options) {
	if opts == nil || len(opts.Query) == 0 {
		return
	}
	if req.URL.RawQuery == "" {
		req.URL.RawQuery = opts.Query.Encode()
		return
	}
	req.URL.RawQuery = strings.Join([]string{req.URL.RawQuery, opts.Query.Encode()}, "&")
}

// DoError is the same as DoReq(), followed by checking the response
// error. This method is meant for cases where the only information you
// need from the response is the status code. It unconditionally closes
// the response body.
func (c *Client) DoError(ctx context.Context, method, path string, opts *Options) (*http.Response, error) {
	res, err := c.DoReq(ctx, method, path, opts)
	if err != nil {
		return res, err
	}
	if res.Body != nil {
		defer CloseBody(res.Body)
	}
	err = ResponseError(res)
	return res, err
}

// DoJSON combines [Client.DoReq], [ResponseError], and [DecodeJSON], and
// closes the response body.
func (c *Client) DoJSON(ctx context.Context, method, path string, opts *Options, i interface{}) error {
	res, err := c.DoReq(ctx, method, path, opts)
	if err != nil {
		return err
	}
	if res.Body != nil {
		defer CloseBody(res.Body)
	}
	if err = ResponseError(res); err != nil {
		return err
	}
	return DecodeJSON(res, i)
}

// DecodeJSON unmarshals the response body into i. This method consumes
// and closes the response body.
func DecodeJSON(r *http.Response, i interface{}) error {
	defer CloseBody(r.Body)
	if err := json.NewDecoder(r.Body).Decode(i); err != nil {
		return errors.WrapStatus(http.StatusBadGateway, err)
	}
	return nil
}

// CloseBody drains and closes a response body, so the underlying
// connection can be reused.
func CloseBody(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}

// BodyEncoder returns a function which returns the encoded body. It is
// meant to be used as an Options.GetBody value, so the body can be
// regenerated when a request is reissued after renewal.
func BodyEncoder(i interface{}) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		return EncodeBody(i), nil
	}
}

// EncodeBody JSON encodes i to an io.ReadCloser. If an encoding error
// occurs, it will be returned on the next read.
func EncodeBody(i interface{}) io.ReadCloser {
	done := make(chan struct{})
	r, w := io.Pipe()
	go func() {
		defer close(done)
		var err error
		switch t := i.(type) {
		case []byte:
			_, err = w.Write(t)
		case json.RawMessage:
			_, err = w.Write(t)
		case string:
			_, err = w.Write([]byte(t))
		default:
			err = json.NewEncoder(w).Encode(i)
			switch err.(type) {
			case *json.MarshalerError, *json.UnsupportedTypeError, *json.UnsupportedValueError:
				err = errors.WrapStatus(http.StatusBadRequest, err)
			}
		}
		_ = w.CloseWithError(err)
	}()
	return &ebReader{
		ReadCloser: r,
		done:       done,
	}
}

type ebReader struct {
	io.ReadCloser
	done <-chan struct{}
}

var _ io.ReadCloser = &ebReader{}

func (r *ebReader) Close() error {
	err := r.ReadCloser.Close()
	<-r.done
	return err
}

func (c *Client) userAgent() string {
	ua := defaultUserAgent + "/" + Version + " (Language=" + runtime.Version() +
		"; Platform=" + runtime.GOARCH + "/" + runtime.GOOS + ")"
	return strings.Join(append([]string{ua}, c.UserAgents...), " ")
}
