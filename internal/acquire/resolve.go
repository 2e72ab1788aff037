// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"fmt"
	"net/url"
	"strings"
)

// adminPrefix is the path under which the document service exposes files.
const adminPrefix = "/admin"

// NormalizePath turns a service-relative locator such as "./oss/file/<id>"
// into a rooted path ("/oss/file/<id>").
func NormalizePath(locator string) string {
	return "/" + strings.TrimLeft(strings.TrimSpace(locator), "./")
}

// DownloadURL resolves a document locator against the service base URL.
// Absolute http(s) locators are returned unchanged; everything else is
// addressed as {baseURL}/admin{normalizedPath}.
func DownloadURL(baseURL, locator string) (string, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return "", fmt.Errorf("empty document locator")
	}
	if u, err := url.Parse(locator); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return locator, nil
	}
	if strings.TrimSpace(baseURL) == "" {
		return "", fmt.Errorf("base URL is required for relative locator %q", locator)
	}
	return strings.TrimRight(baseURL, "/") + adminPrefix + NormalizePath(locator), nil
}
