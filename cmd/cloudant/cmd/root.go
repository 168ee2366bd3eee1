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
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/go-cloudant/cloudant"
	"github.com/go-cloudant/cloudant/chttp"
	"github.com/go-cloudant/cloudant/cmd/cloudant/log"
	"github.com/go-cloudant/cloudant/errors"
)

const envPrefix = "CLOUDANT"

type root struct {
	cmd  *cobra.Command
	log  log.Logger
	conf *viper.Viper

	confFile string
	debug    bool
	format   string

	timeout       string
	parsedTimeout time.Duration
	autoRenew     bool

	retryCount         int
	retryDelay         string
	retryDelayParsed   time.Duration
	retryTimeout       string
	retryTimeoutParsed time.Duration

	params map[string]string
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute(ctx context.Context) {
	lg := log.New()
	r := rootCmd(lg)
	os.Exit(r.execute(ctx))
}

func (r *root) execute(ctx context.Context) int {
	if err := r.cmd.ExecuteContext(ctx); err != nil {
		r.log.Errorf("Error: %s", err)
		if status := errors.StatusCode(err); status >= 400 {
			return status / 100
		}
		return 1
	}
	return 0
}

func rootCmd(lg log.Logger) *root {
	r := &root{
		log:  lg,
		conf: viper.New(),
	}
	r.cmd = &cobra.Command{
		Use:               "cloudant",
		Short:             "cloudant interacts with CouchDB and Cloudant servers",
		Long:              "This tool exercises the Cloudant HTTP API, including cookie and IAM session authentication",
		PersistentPreRunE: r.init,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	r.configFlags(r.cmd.PersistentFlags())

	r.cmd.AddCommand(getCmd(r))
	r.cmd.AddCommand(sessionCmd(r))
	r.cmd.AddCommand(loginCmd(r))
	r.cmd.AddCommand(logoutCmd(r))
	r.cmd.AddCommand(versionCmd(r))

	return r
}

func (r *root) configFlags(pf *pflag.FlagSet) {
	pf.StringVar(&r.confFile, "config", "", "Path to config file to use for CLI requests")
	pf.BoolVar(&r.debug, "debug", false, "Enable debug output")
	pf.StringVarP(&r.format, "format", "f", "json", "Output format. One of: json|yaml|raw")
	pf.String("server", "", "Server URL")
	pf.String("user", "", "Username for cookie authentication")
	pf.String("password", "", "Password for cookie authentication")
	pf.String("api-key", "", "IAM API key. Takes precedence over user/password.")
	pf.BoolVar(&r.autoRenew, "auto-renew", true, "Renew expired session credentials automatically")
	pf.StringVar(&r.timeout, "request-timeout", "", "The time limit for each request.")
	pf.IntVar(&r.retryCount, "retry", 0, "In case of transient error, retry up to this many times. A negative value retries forever.")
	pf.StringVar(&r.retryDelay, "retry-delay", "", "Delay between retry attempts. Disables the default exponential backoff algorithm.")
	pf.StringVar(&r.retryTimeout, "retry-timeout", "", "When used with --retry, no more retries will be attempted after this timeout.")
	pf.StringToStringVarP(&r.params, "param", "p", nil, "Query option, specified as key=value. Values are interpreted as JSON where possible. May be repeated.")

	for _, key := range []string{"server", "user", "password", "api-key"} {
		_ = r.conf.BindPFlag(key, pf.Lookup(key))
	}
}

func (r *root) init(cmd *cobra.Command, _ []string) error {
	r.log.SetOut(cmd.OutOrStdout())
	r.log.SetErr(cmd.ErrOrStderr())
	r.log.SetDebug(r.debug)

	var err error
	if r.parsedTimeout, err = parseDuration(r.timeout); err != nil {
		return err
	}
	if r.retryDelayParsed, err = parseDuration(r.retryDelay); err != nil {
		return err
	}
	if r.retryTimeoutParsed, err = parseDuration(r.retryTimeout); err != nil {
		return err
	}

	r.conf.SetEnvPrefix(envPrefix)
	r.conf.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	r.conf.AutomaticEnv()
	if r.confFile != "" {
		r.conf.SetConfigFile(r.confFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			r.conf.AddConfigPath(home + "/.cloudant")
		}
		r.conf.AddConfigPath(".")
		r.conf.SetConfigName("config")
	}
	if err := r.conf.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if r.confFile != "" || !errors.As(err, &notFound) {
			return err
		}
		r.log.Debugf("no config file found")
	} else {
		r.log.Debugf("using config file %q", r.conf.ConfigFileUsed())
	}
	return nil
}

func parseDuration(val string) (time.Duration, error) {
	if val == "" {
		return 0, nil
	}
	if d, err := strconv.ParseFloat(val, 64); err == nil {
		if d < 0 {
			return 0, errors.New("negative timeout not permitted")
		}
		return time.Duration(d * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, errors.New("negative timeout not permitted")
	}
	return d, nil
}

// client builds a client from the resolved configuration.
func (r *root) client() (*cloudant.Client, error) {
	dsn := r.conf.GetString("server")
	if dsn == "" {
		return nil, errors.New("server URL required")
	}
	var options []chttp.Option
	switch {
	case r.conf.GetString("api-key") != "":
		options = append(options, chttp.IAMAuth(r.conf.GetString("api-key")))
	case r.conf.GetString("user") != "":
		options = append(options,
			chttp.CookieAuth(r.conf.GetString("user"), r.conf.GetString("password")))
	}
	if r.autoRenew {
		options = append(options, chttp.AutoRenew())
	}
	if r.parsedTimeout > 0 {
		options = append(options, chttp.Timeout(r.parsedTimeout))
	}
	return cloudant.New(dsn, options...)
}

// options interprets the --param values. Each value is decoded as JSON
// when possible, so booleans and integers reach the codec typed; values
// that do not parse as JSON are passed as plain strings.
func (r *root) options() map[string]interface{} {
	if len(r.params) == 0 {
		return nil
	}
	opts := make(map[string]interface{}, len(r.params))
	for k, v := range r.params {
		dec := json.NewDecoder(strings.NewReader(v))
		dec.UseNumber()
		var i interface{}
		if err := dec.Decode(&i); err == nil && !dec.More() {
			opts[k] = normalizeNumbers(i)
			continue
		}
		opts[k] = v
	}
	return opts
}

// normalizeNumbers rewrites json.Number values as int64 so they carry
// integer kind through validation. Non-integral numbers are left as
// their literal strings, which validation will reject for
// integer-kinded options.
func normalizeNumbers(i interface{}) interface{} {
	switch t := i.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		return t.String()
	case []interface{}:
		for idx, e := range t {
			t[idx] = normalizeNumbers(e)
		}
	case map[string]interface{}:
		for k, e := range t {
			t[k] = normalizeNumbers(e)
		}
	}
	return i
}

// retry runs fn, retrying transient failures per the --retry flags.
func (r *root) retry(fn func() error) error {
	if r.retryCount == 0 {
		return fn()
	}
	var bo backoff.BackOff
	switch {
	case r.retryDelayParsed == 0 && r.retryDelay != "": // retry delay disabled
		bo = &backoff.ZeroBackOff{}
	case r.retryDelayParsed != 0:
		bo = backoff.NewConstantBackOff(r.retryDelayParsed)
	default:
		bo = backoff.NewExponentialBackOff()
	}
	if r.retryCount >= 0 {
		// n retries on top of the initial attempt
		bo = backoff.WithMaxRetries(bo, uint64(r.retryCount))
	}
	if r.retryTimeoutParsed > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), r.retryTimeoutParsed)
		defer cancel()
		bo = backoff.WithContext(bo, ctx)
	}
	var count int
	var err error
	return backoff.Retry(func() error {
		if count > 0 {
			msg := fmt.Sprintf("Warning: Transient problem: %s.", err)
			if remain := r.retryCount - count; remain > 0 {
				msg += fmt.Sprintf(" %d retries left.", remain)
			}
			r.log.Info(msg)
		}
		count++
		err = fn()
		return err
	}, bo)
}
