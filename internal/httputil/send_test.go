// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// fixedDetector always reports the same guess.
type fixedDetector struct {
	name string
	conf float64
}

func (f fixedDetector) Detect([]byte) (string, float64, bool) {
	return f.name, f.conf, f.name != ""
}

func TestSend_SuccessJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "1", r.Header.Get("X-Trace"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "v", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = io.WriteString(w, `{"data":"./oss/file/abc"}`)
	}))
	defer ts.Close()

	out := NewClient().Send(context.Background(), Request{
		Method:  "get",
		URL:     ts.URL,
		Params:  url.Values{"q": {"v"}},
		Headers: map[string]string{"x-trace": "1"},
		Bearer:  "tok",
		Timeout: time.Second,
	})

	s, ok := out.(Success)
	require.True(t, ok, "got %T: %s", out, out.Message())
	assert.Equal(t, http.StatusOK, s.StatusCode)
	assert.Equal(t, "utf-8", s.Encoding)
	assert.Equal(t, map[string]any{"data": "./oss/file/abc"}, s.Payload)
}

func TestSend_HTTPErrorKeepsPayload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"missing"}`)
	}))
	defer ts.Close()

	out := NewClient().Send(context.Background(), Request{Method: http.MethodGet, URL: ts.URL})

	e, ok := out.(HTTPError)
	require.True(t, ok, "got %T", out)
	assert.Equal(t, KindHTTPError, e.Kind())
	assert.Equal(t, http.StatusNotFound, e.StatusCode)
	assert.Equal(t, map[string]any{"error": "missing"}, e.Payload)
	assert.Contains(t, e.BodyText(), "missing")
}

func TestSend_HTTPErrorFallsBackToText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `upstream exploded`)
	}))
	defer ts.Close()

	out := NewClient().Send(context.Background(), Request{Method: http.MethodGet, URL: ts.URL})

	e, ok := out.(HTTPError)
	require.True(t, ok, "got %T", out)
	assert.Equal(t, "upstream exploded", e.Payload)
}

func TestSend_HTTPErrorParsesUntypedJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"code":403,"message":"token expired"}`)
	}))
	defer ts.Close()

	out := NewClient().Send(context.Background(), Request{Method: http.MethodGet, URL: ts.URL})

	e, ok := out.(HTTPError)
	require.True(t, ok, "got %T", out)
	assert.Equal(t, map[string]any{"code": float64(403), "message": "token expired"}, e.Payload)
	assert.Equal(t, `{"code":403,"message":"token expired"}`, e.BodyText())
}

func TestSend_SuccessKeepsUntypedJSONAsText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, `{"a":1}`)
	}))
	defer ts.Close()

	out := NewClient(WithDetector(fixedDetector{})).Send(context.Background(), Request{Method: http.MethodGet, URL: ts.URL})

	s, ok := out.(Success)
	require.True(t, ok, "got %T", out)
	assert.Equal(t, `{"a":1}`, s.Payload)
}

func TestSend_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()

	out := NewClient().Send(context.Background(), Request{
		Method:  http.MethodGet,
		URL:     ts.URL,
		Timeout: 20 * time.Millisecond,
	})

	to, ok := out.(Timeout)
	require.True(t, ok, "got %T: %s", out, out.Message())
	assert.Equal(t, 20*time.Millisecond, to.After)
	assert.Contains(t, to.Message(), "20ms")
}

func TestSend_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := ts.URL
	ts.Close()

	out := NewClient().Send(context.Background(), Request{Method: http.MethodGet, URL: addr, Timeout: time.Second})

	_, ok := out.(TransportError)
	assert.True(t, ok, "got %T: %s", out, out.Message())
}

func TestSend_UnsupportedMethodIsUnknownError(t *testing.T) {
	out := NewClient().Send(context.Background(), Request{Method: "BREW", URL: "http://127.0.0.1:1"})

	u, ok := out.(UnknownError)
	require.True(t, ok, "got %T", out)
	assert.Contains(t, u.Detail, "BREW")
}

func TestSend_MultipartReplacesContentType(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data; boundary="))
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "TEMP", r.FormValue("source_id"))

		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		assert.Equal(t, "report_1.docx", hdr.Filename)
		assert.Equal(t, "payload", string(b))
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	out := NewClient().Send(context.Background(), Request{
		Method: http.MethodPost,
		URL:    ts.URL,
		Kind:   BodyMultipart,
		Multipart: &Multipart{
			File:   FilePart{Field: "file", FileName: "report_1.docx", Content: strings.NewReader("payload")},
			Fields: map[string]string{"source_id": "TEMP"},
		},
	})

	s, ok := out.(Success)
	require.True(t, ok, "got %T: %s", out, out.Message())
	assert.Equal(t, http.StatusCreated, s.StatusCode)
}

func TestSend_FormBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "b", r.PostForm.Get("a"))
	}))
	defer ts.Close()

	out := NewClient().Send(context.Background(), Request{
		Method: http.MethodPost,
		URL:    ts.URL,
		Kind:   BodyForm,
		Form:   url.Values{"a": {"b"}},
	})
	assert.Equal(t, KindSuccess, out.Kind())
}

func TestSend_BodyIgnoredForGET(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		assert.Empty(t, b)
	}))
	defer ts.Close()

	out := NewClient().Send(context.Background(), Request{
		Method: http.MethodGet,
		URL:    ts.URL,
		Kind:   BodyRaw,
		Raw:    []byte("ignored"),
	})
	assert.Equal(t, KindSuccess, out.Kind())
}

func TestSend_DeclaredCharsetBeatsDetector(t *testing.T) {
	gbk, err := simplifiedchinese.GBK.NewEncoder().String("你好，世界")
	require.NoError(t, err)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=GBK")
		_, _ = io.WriteString(w, gbk)
	}))
	defer ts.Close()

	c := NewClient(WithDetector(fixedDetector{name: "UTF-8", conf: 0.99}))
	out := c.Send(context.Background(), Request{Method: http.MethodGet, URL: ts.URL})

	s, ok := out.(Success)
	require.True(t, ok, "got %T", out)
	assert.Equal(t, "GBK", s.Encoding)
	assert.Equal(t, "你好，世界", s.Text)
}

func TestSend_ForcedEncoding(t *testing.T) {
	gbk, err := simplifiedchinese.GBK.NewEncoder().String("编码")
	require.NoError(t, err)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, gbk)
	}))
	defer ts.Close()

	out := NewClient().Send(context.Background(), Request{Method: http.MethodGet, URL: ts.URL, Encoding: "gbk"})

	s, ok := out.(Success)
	require.True(t, ok, "got %T", out)
	assert.Equal(t, "gbk", s.Encoding)
	assert.Equal(t, "编码", s.Text)
}

func TestSend_BinaryBodySkipsDecoding(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte{0x25, 0x50, 0x44, 0x46, 0xff})
	}))
	defer ts.Close()

	out := NewClient().Send(context.Background(), Request{Method: http.MethodGet, URL: ts.URL})

	s, ok := out.(Success)
	require.True(t, ok, "got %T", out)
	assert.Empty(t, s.Encoding)
	assert.Empty(t, s.Text)
	assert.Equal(t, []byte{0x25, 0x50, 0x44, 0x46, 0xff}, s.Body)
}
