// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"mime"
	"net/http"
	"strings"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/htmlindex"
)

// DefaultEncoding is used when nothing else resolves the response charset.
const DefaultEncoding = "utf-8"

// MinDetectConfidence is the statistical detection threshold. Detection
// results at or below it are ignored.
const MinDetectConfidence = 0.7

// Detector guesses the character encoding of raw bytes.
type Detector interface {
	// Detect returns the encoding name and a confidence in [0, 1]. ok is
	// false when no guess could be made.
	Detect(b []byte) (name string, confidence float64, ok bool)
}

// ChardetDetector is the production Detector backed by saintfish/chardet.
type ChardetDetector struct{}

func (ChardetDetector) Detect(b []byte) (string, float64, bool) {
	res, err := chardet.NewTextDetector().DetectBest(b)
	if err != nil || res == nil || res.Charset == "" {
		return "", 0, false
	}
	return res.Charset, float64(res.Confidence) / 100, true
}

// DetectEncoding resolves the encoding of a textual response body. The order
// is fixed: the charset declared in contentType, then statistical detection
// above MinDetectConfidence, then a transport-level guess that is certain
// (byte order mark), then DefaultEncoding.
func DetectEncoding(contentType string, body []byte, d Detector) string {
	if cs := declaredCharset(contentType); cs != "" {
		return cs
	}

	if len(body) > 0 && d != nil {
		if name, conf, ok := d.Detect(body); ok && conf > MinDetectConfidence {
			return name
		}
	}

	if len(body) > 0 {
		if _, name, certain := charset.DetermineEncoding(body, ""); certain && name != "" {
			return name
		}
	}

	return DefaultEncoding
}

// declaredCharset extracts the charset parameter from a Content-Type value,
// preserving the server's spelling.
func declaredCharset(contentType string) string {
	if contentType == "" {
		return ""
	}
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		return strings.Trim(strings.TrimSpace(params["charset"]), `"'`)
	}
	// Fall back to a lenient scan for malformed headers.
	for _, part := range strings.Split(contentType, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok && strings.EqualFold(strings.TrimSpace(k), "charset") {
			return strings.Trim(strings.TrimSpace(v), `"'`)
		}
	}
	return ""
}

// decodeText converts body from the named encoding to UTF-8. Unknown
// encoding names leave the bytes untouched.
func decodeText(body []byte, name string) (string, error) {
	enc, err := htmlindex.Get(name)
	if err != nil {
		return string(body), nil
	}
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// isTextual reports whether a response carries text that should be decoded.
// Without a Content-Type the body is sniffed.
func isTextual(contentType string, body []byte) bool {
	if strings.TrimSpace(contentType) == "" {
		if len(body) == 0 {
			return true
		}
		contentType = http.DetectContentType(body)
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	}
	switch {
	case strings.HasPrefix(mt, "text/"):
		return true
	case strings.HasSuffix(mt, "json"), strings.HasSuffix(mt, "xml"):
		return true
	case mt == "application/javascript", mt == "application/x-www-form-urlencoded":
		return true
	}
	return false
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "application/json")
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}
