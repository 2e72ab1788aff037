// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/docrelay/internal/httputil"
)

var requestCmd = &cobra.Command{
	Use:   "request <METHOD> <URL>",
	Short: "Send one HTTP request and print the classified outcome",
	Long: `Request sends a single HTTP request through the same transport the pipeline
uses and prints the classified outcome (SUCCESS, HTTP_ERROR, TIMEOUT,
REQUEST_ERROR or UNKNOWN_ERROR) with the resolved response encoding.

Exactly one body flag may be given: --json, --form, --data or --file.`,
	Args: cobra.ExactArgs(2),
	RunE: runRequest,
}

func init() {
	addRequestFlags(requestCmd)
	rootCmd.AddCommand(requestCmd)
}

func addRequestFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringArrayP("header", "H", nil, "request header as 'Key: Value' (repeatable)")
	f.StringArray("param", nil, "query parameter as key=value (repeatable)")
	f.String("json", "", "JSON request body")
	f.StringArray("form", nil, "form field as key=value (repeatable)")
	f.String("data", "", "raw request body")
	f.String("file", "", "file to send as multipart field --file-field")
	f.String("file-field", "file", "multipart field name for --file")
	f.StringArray("field", nil, "extra multipart field as key=value (repeatable)")
	f.Duration("timeout", httputil.DefaultTimeout, "request timeout")
	f.String("bearer", "", "bearer token")
	f.String("user", "", "basic auth as user:password")
	f.String("encoding", "", "force the response encoding instead of detecting it")
	f.Bool("no-redirect", false, "do not follow redirects")
	f.StringP("output", "o", "json", "output format: json or yaml")
}

// outcomeView is the printable form of an Outcome.
type outcomeView struct {
	Kind       httputil.Kind `json:"kind" yaml:"kind"`
	Message    string        `json:"message" yaml:"message"`
	StatusCode int           `json:"status_code,omitempty" yaml:"status_code,omitempty"`
	Encoding   string        `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	Bytes      int           `json:"bytes,omitempty" yaml:"bytes,omitempty"`
	Payload    any           `json:"payload,omitempty" yaml:"payload,omitempty"`
}

func viewOutcome(out httputil.Outcome) outcomeView {
	v := outcomeView{Kind: out.Kind(), Message: out.Message()}
	switch o := out.(type) {
	case httputil.Success:
		v.StatusCode, v.Encoding, v.Bytes, v.Payload = o.StatusCode, o.Encoding, len(o.Body), o.Payload
	case httputil.HTTPError:
		v.StatusCode, v.Encoding, v.Bytes, v.Payload = o.StatusCode, o.Encoding, len(o.Body), o.Payload
	case httputil.Timeout, httputil.TransportError, httputil.UnknownError:
	}
	return v
}

func runRequest(cmd *cobra.Command, args []string) error {
	req, err := requestFromFlags(cmd, args[0], args[1])
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")

	out := httputil.NewClient().Send(context.Background(), req)
	if err := writeOutput(cmd.OutOrStdout(), output, viewOutcome(out)); err != nil {
		return err
	}
	if _, ok := out.(httputil.Success); !ok {
		return fmt.Errorf("%s", out.Message())
	}
	return nil
}

func requestFromFlags(cmd *cobra.Command, method, target string) (httputil.Request, error) {
	f := cmd.Flags()
	req := httputil.Request{Method: method, URL: target, Headers: map[string]string{}}

	headers, _ := f.GetStringArray("header")
	for _, h := range headers {
		k, v, ok := strings.Cut(h, ":")
		if !ok {
			return req, fmt.Errorf("invalid header %q (want 'Key: Value')", h)
		}
		req.Headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}

	params, _ := f.GetStringArray("param")
	if len(params) > 0 {
		vals, err := keyValues(params)
		if err != nil {
			return req, err
		}
		req.Params = vals
	}

	req.Timeout, _ = f.GetDuration("timeout")
	req.Bearer, _ = f.GetString("bearer")
	req.Encoding, _ = f.GetString("encoding")
	req.NoRedirect, _ = f.GetBool("no-redirect")
	if user, _ := f.GetString("user"); user != "" {
		u, p, _ := strings.Cut(user, ":")
		req.BasicAuth = &httputil.BasicAuth{Username: u, Password: p}
	}

	jsonBody, _ := f.GetString("json")
	form, _ := f.GetStringArray("form")
	data, _ := f.GetString("data")
	file, _ := f.GetString("file")

	bodies := 0
	for _, set := range []bool{jsonBody != "", len(form) > 0, data != "", file != ""} {
		if set {
			bodies++
		}
	}
	if bodies > 1 {
		return req, fmt.Errorf("only one of --json, --form, --data, --file may be given")
	}

	switch {
	case jsonBody != "":
		var v any
		if err := json.Unmarshal([]byte(jsonBody), &v); err != nil {
			return req, fmt.Errorf("parsing --json: %w", err)
		}
		req.Kind, req.JSON = httputil.BodyJSON, v
	case len(form) > 0:
		vals, err := keyValues(form)
		if err != nil {
			return req, err
		}
		req.Kind, req.Form = httputil.BodyForm, vals
	case data != "":
		req.Kind, req.Raw = httputil.BodyRaw, []byte(data)
	case file != "":
		content, err := os.ReadFile(file)
		if err != nil {
			return req, fmt.Errorf("reading --file: %w", err)
		}
		field, _ := f.GetString("file-field")
		extra, _ := f.GetStringArray("field")
		fields := map[string]string{}
		for _, kv := range extra {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				return req, fmt.Errorf("invalid field %q (want key=value)", kv)
			}
			fields[k] = v
		}
		req.Kind = httputil.BodyMultipart
		req.Multipart = &httputil.Multipart{
			File:   httputil.FilePart{Field: field, FileName: filepath.Base(file), Content: bytes.NewReader(content)},
			Fields: fields,
		}
	}
	return req, nil
}

func keyValues(pairs []string) (url.Values, error) {
	vals := url.Values{}
	for _, kv := range pairs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("invalid pair %q (want key=value)", kv)
		}
		vals.Add(k, v)
	}
	return vals, nil
}
