// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil sends single HTTP requests and classifies every result
// into an Outcome. It never retries and never returns a bare error.
package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// DefaultTimeout applies when a Request leaves Timeout unset.
const DefaultTimeout = 10 * time.Second

// BodyKind declares how Request.Body is encoded.
type BodyKind int

const (
	BodyNone BodyKind = iota
	BodyJSON
	BodyForm
	BodyRaw
	BodyMultipart
)

// FilePart is one file field of a multipart body.
type FilePart struct {
	Field    string
	FileName string
	Content  io.Reader
}

// Multipart is a multipart/form-data body: one file plus plain fields.
type Multipart struct {
	File   FilePart
	Fields map[string]string
}

// BasicAuth holds HTTP basic credentials.
type BasicAuth struct {
	Username string
	Password string
}

// Request describes a single call.
type Request struct {
	Method string
	URL    string
	Params url.Values

	Kind      BodyKind
	JSON      any
	Form      url.Values
	Raw       []byte
	Multipart *Multipart

	// Headers are merged over the default Content-Type: application/json.
	Headers map[string]string

	Timeout   time.Duration
	Bearer    string
	BasicAuth *BasicAuth

	// Encoding forces the response charset instead of detecting it.
	Encoding   string
	NoRedirect bool
}

var allowedMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodDelete:  true,
	http.MethodPatch:   true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

// Sender issues a Request and classifies the result. *Client implements it.
type Sender interface {
	Send(ctx context.Context, req Request) Outcome
}

// Client sends Requests. The zero value is not usable; use NewClient.
type Client struct {
	http     *http.Client
	detector Detector
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client. Its Timeout is
// ignored; each Request carries its own.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithDetector replaces the statistical encoding detector.
func WithDetector(d Detector) Option {
	return func(cl *Client) { cl.detector = d }
}

// NewClient returns a Client using http.DefaultTransport and chardet.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:     &http.Client{},
		detector: ChardetDetector{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Send issues req and returns exactly one Outcome. It never panics on
// expected failures.
func (c *Client) Send(ctx context.Context, req Request) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = UnknownError{Detail: fmt.Sprint(r)}
		}
	}()

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := c.build(ctx, req)
	if err != nil {
		return UnknownError{Detail: err.Error(), Err: err}
	}

	client := c.http
	if req.NoRedirect {
		cp := *client
		cp.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
		client = &cp
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return classifyErr(err, timeout)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return Timeout{After: timeout}
		}
		return UnknownError{Detail: fmt.Sprintf("reading response body: %v", err), Err: err}
	}

	return c.classify(resp, body, req.Encoding)
}

func (c *Client) build(ctx context.Context, req Request) (*http.Request, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if !allowedMethods[method] {
		return nil, fmt.Errorf("unsupported HTTP method: %q", req.Method)
	}

	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing URL: %w", err)
	}
	if len(req.Params) > 0 {
		q := u.Query()
		for k, vs := range req.Params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	headers := map[string]string{"Content-Type": "application/json"}
	for k, v := range req.Headers {
		headers[http.CanonicalHeaderKey(k)] = v
	}

	var body io.Reader
	if method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch {
		switch req.Kind {
		case BodyJSON:
			b, err := json.Marshal(req.JSON)
			if err != nil {
				return nil, fmt.Errorf("encoding JSON body: %w", err)
			}
			body = bytes.NewReader(b)
		case BodyForm:
			body = strings.NewReader(req.Form.Encode())
			if !hasHeader(req.Headers, "Content-Type") {
				headers["Content-Type"] = "application/x-www-form-urlencoded"
			}
		case BodyRaw:
			body = bytes.NewReader(req.Raw)
		case BodyMultipart:
			b, ct, err := encodeMultipart(req.Multipart)
			if err != nil {
				return nil, err
			}
			body = b
			delete(headers, "Content-Type")
			headers["Content-Type"] = ct
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}
	if req.Bearer != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Bearer)
	}
	if req.BasicAuth != nil {
		httpReq.SetBasicAuth(req.BasicAuth.Username, req.BasicAuth.Password)
	}
	return httpReq, nil
}

// encodeMultipart buffers the multipart body so its length is known and the
// request can be replayed by redirects.
func encodeMultipart(m *Multipart) (io.Reader, string, error) {
	if m == nil {
		return nil, "", errors.New("multipart body kind without multipart content")
	}
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range m.Fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("writing field %s: %w", k, err)
		}
	}
	if m.File.Content != nil {
		field := m.File.Field
		if field == "" {
			field = "file"
		}
		part, err := w.CreateFormFile(field, m.File.FileName)
		if err != nil {
			return nil, "", fmt.Errorf("creating file part: %w", err)
		}
		if _, err := io.Copy(part, m.File.Content); err != nil {
			return nil, "", fmt.Errorf("copying file part: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func (c *Client) classify(resp *http.Response, body []byte, forced string) Outcome {
	ct := resp.Header.Get("Content-Type")

	var (
		text    string
		enc     string
		payload any
	)
	failed := resp.StatusCode < 200 || resp.StatusCode > 299
	if isTextual(ct, body) {
		enc = forced
		if enc == "" {
			enc = DetectEncoding(ct, body, c.detector)
		}
		t, err := decodeText(body, enc)
		if err != nil {
			return UnknownError{Detail: fmt.Sprintf("decoding %s body: %v", enc, err), Err: err}
		}
		text = t
		payload = text
		// Error bodies are tried as JSON whatever their declared type.
		if isJSON(ct) || failed {
			var v any
			if err := json.Unmarshal([]byte(text), &v); err == nil {
				payload = v
			}
		}
	}

	if failed {
		return HTTPError{
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Body:       body,
			Text:       text,
			Payload:    payload,
			Encoding:   enc,
		}
	}
	return Success{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		Text:       text,
		Payload:    payload,
		Encoding:   enc,
	}
}

func classifyErr(err error, timeout time.Duration) Outcome {
	if isTimeout(err) {
		return Timeout{After: timeout}
	}
	var urlErr *url.Error
	var netErr net.Error
	var dnsErr *net.DNSError
	var opErr *net.OpError
	if errors.As(err, &dnsErr) || errors.As(err, &opErr) || errors.As(err, &netErr) || errors.As(err, &urlErr) {
		return TransportError{Detail: err.Error(), Err: err}
	}
	return UnknownError{Detail: err.Error(), Err: err}
}

func hasHeader(h map[string]string, key string) bool {
	for k := range h {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
